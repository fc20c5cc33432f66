package visual

import (
	"slices"
)

// ChangeSet records which attribute keys a single stage's partial document
// declared, per entity. It is derived, not authoritative: it is valid only
// as context for the immediately following stage invocation and is then
// discarded.
//
// Invariant: a key appears here only if the partial actually declared it
// for that entity, so [Diff] is the only constructor that matters.
type ChangeSet struct {
	Individuals map[string][]string `json:"individuals,omitempty"`
	Families    map[string][]string `json:"families,omitempty"`
	Edges       map[string][]string `json:"edges,omitempty"`
	Tree        []string            `json:"tree,omitempty"`
}

// Diff computes the change-set of a partial document. Key lists are sorted
// so the result is deterministic regardless of map iteration order.
// A nil partial yields an empty change-set.
func Diff(partial *Document) ChangeSet {
	var cs ChangeSet
	if partial == nil {
		return cs
	}
	cs.Individuals = diffSection(partial.Individuals)
	cs.Families = diffSection(partial.Families)
	cs.Edges = diffSection(partial.Edges)
	if len(partial.Tree) > 0 {
		cs.Tree = sortedKeys(partial.Tree)
	}
	return cs
}

// Empty reports whether the change-set records no changes at all.
func (c ChangeSet) Empty() bool {
	return len(c.Individuals) == 0 && len(c.Families) == 0 &&
		len(c.Edges) == 0 && len(c.Tree) == 0
}

// IndividualChanged reports whether the given individual had the given
// key declared by the previous stage.
func (c ChangeSet) IndividualChanged(id, key string) bool {
	return slices.Contains(c.Individuals[id], key)
}

func diffSection(s map[string]AttrMap) map[string][]string {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string][]string, len(s))
	for id, attrs := range s {
		if len(attrs) == 0 {
			continue
		}
		out[id] = sortedKeys(attrs)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortedKeys(a AttrMap) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
