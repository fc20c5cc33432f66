// Package visual provides the shared visual-attribute document that
// pipeline stages read and partially rewrite.
//
// # Overview
//
// A [Document] holds per-entity attribute maps for individuals, families
// and edges, plus tree-level and global sections. Stages never mutate the
// document they are handed; each stage returns a partial document holding
// only the entities and keys it changed, and the orchestrator folds that
// partial back in with [Merge]. Merging is a deep, key-wise overlay: keys
// absent from the partial are never removed.
//
// The [ChangeSet] type records which keys a partial touched, giving the
// next stage a compact view of what its predecessor did.
package visual

import (
	"encoding/json"
	"fmt"
	"os"
)

// AttrMap holds the visual attributes of one entity. Values are arbitrary
// JSON-compatible data; nested maps are merged key-wise by [Merge].
type AttrMap map[string]any

// Well-known attribute keys written by the built-in layout stages.
// Later art stages add their own keys beside these.
const (
	AttrX          = "x"
	AttrY          = "y"
	AttrWidth      = "width"
	AttrHeight     = "height"
	AttrGeneration = "generation"
)

// Tree-section keys written by the built-in stages.
const (
	TreeRoots       = "roots"
	TreePrimaryRoot = "primaryRoot"
	TreeCount       = "treeCount"
	TreeBounds      = "bounds"
	TreeScale       = "scale"
	TreeGenerations = "generations"
)

// Document is the visual-attribute document. A nil map in any section
// means "no attributes yet"; [Merge] allocates sections as needed.
type Document struct {
	Individuals map[string]AttrMap `json:"individuals,omitempty"`
	Families    map[string]AttrMap `json:"families,omitempty"`
	Edges       map[string]AttrMap `json:"edges,omitempty"`
	Tree        AttrMap            `json:"tree,omitempty"`
	Global      AttrMap            `json:"global,omitempty"`
}

// NewDocument creates an empty document with all sections allocated.
func NewDocument() *Document {
	return &Document{
		Individuals: make(map[string]AttrMap),
		Families:    make(map[string]AttrMap),
		Edges:       make(map[string]AttrMap),
		Tree:        make(AttrMap),
		Global:      make(AttrMap),
	}
}

// Clone returns a deep copy of the document. Attribute values are copied
// one level down for nested maps; other values are shared (they are
// treated as immutable by convention).
func (d *Document) Clone() *Document {
	if d == nil {
		return NewDocument()
	}
	return &Document{
		Individuals: cloneSection(d.Individuals),
		Families:    cloneSection(d.Families),
		Edges:       cloneSection(d.Edges),
		Tree:        cloneAttrs(d.Tree),
		Global:      cloneAttrs(d.Global),
	}
}

// Merge overlays a partial document onto base and returns a new document.
// Neither input is mutated. The overlay is deep and key-wise: per-entity
// attribute maps are merged key by key, nested maps recursively, and keys
// absent from the partial survive untouched. Merging an empty partial
// yields a document equal to base.
func Merge(base, partial *Document) *Document {
	out := base.Clone()
	if partial == nil {
		return out
	}
	mergeSection(out.Individuals, partial.Individuals)
	mergeSection(out.Families, partial.Families)
	mergeSection(out.Edges, partial.Edges)
	mergeAttrs(out.Tree, partial.Tree)
	mergeAttrs(out.Global, partial.Global)
	return out
}

// Float returns the attribute as a float64 and true if present and
// numeric. JSON round-trips turn numbers into float64, so this accepts
// float64 and int.
func (a AttrMap) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Marshal serializes a Document to pretty-printed JSON bytes.
func Marshal(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Document.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal visual document: %w", err)
	}
	return &d, nil
}

// WriteFile writes a Document to a JSON file.
func WriteFile(d *Document, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func cloneSection(s map[string]AttrMap) map[string]AttrMap {
	out := make(map[string]AttrMap, len(s))
	for id, attrs := range s {
		out[id] = cloneAttrs(attrs)
	}
	return out
}

func cloneAttrs(a AttrMap) AttrMap {
	out := make(AttrMap, len(a))
	for k, v := range a {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneAttrs(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func mergeSection(dst map[string]AttrMap, src map[string]AttrMap) {
	for id, attrs := range src {
		if dst[id] == nil {
			dst[id] = make(AttrMap, len(attrs))
		}
		mergeAttrs(dst[id], attrs)
	}
}

func mergeAttrs(dst AttrMap, src AttrMap) {
	for k, v := range src {
		srcNested, srcIsMap := asMap(v)
		if srcIsMap {
			if dstNested, dstIsMap := asMap(dst[k]); dstIsMap {
				merged := cloneAttrs(dstNested)
				mergeAttrs(merged, srcNested)
				dst[k] = map[string]any(merged)
				continue
			}
			dst[k] = map[string]any(cloneAttrs(srcNested))
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (AttrMap, bool) {
	switch m := v.(type) {
	case map[string]any:
		return AttrMap(m), true
	case AttrMap:
		return m, true
	}
	return nil, false
}
