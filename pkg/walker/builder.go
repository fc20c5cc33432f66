package walker

import (
	"slices"

	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
)

// Build converts the relationship graph into a positionable [Forest].
//
// Individuals are taken in the given order, which fixes every downstream
// tie-break; callers wanting reproducible layouts must pass a stable
// order (the gen.Graph insertion order qualifies).
//
// Inconsistent traversal data never fails the build: links to unknown
// individuals are ignored, a child link that would close a cycle is
// dropped, and a multi-parent individual keeps only its first-seen
// parent edge (first writer wins).
func Build(tr gen.Traverser, individuals []*gen.Individual, cfg Config) (*Forest, error) {
	cfg.SetDefaults()
	if len(individuals) == 0 {
		return nil, ErrNoIndividuals
	}

	f := &Forest{
		cfg:   cfg,
		nodes: make([]node, 0, len(individuals)),
		index: make(map[string]int, len(individuals)),
		prim:  none,
	}

	size := nodeSize(cfg, individuals)
	for _, ind := range individuals {
		if _, dup := f.index[ind.ID]; dup {
			continue
		}
		name := ind.Name
		if name == "" {
			name = ind.ID
		}
		f.index[ind.ID] = len(f.nodes)
		f.nodes = append(f.nodes, node{
			id:         ind.ID,
			name:       name,
			gender:     ind.Gender,
			generation: ind.Generation,
			width:      size,
			height:     size,
			parent:     none,
			leftSib:    none,
			rightSib:   none,
			partner:    none,
			thread:     none,
		})
	}

	f.resolveChildren(tr, individuals)
	f.resolveSpouses(tr, individuals)
	f.clusterSpouses()
	f.linkSiblings()
	f.selectRoots()

	return f, nil
}

// resolveChildren assigns parent/children links. The first parent to
// claim a child wins; later claims are dropped (multi-parent collapse).
// A claim that would make a node its own ancestor is dropped too, so the
// arena is always cycle-free.
func (f *Forest) resolveChildren(tr gen.Traverser, individuals []*gen.Individual) {
	for _, ind := range individuals {
		pi, ok := f.index[ind.ID]
		if !ok {
			continue
		}
		for _, child := range tr.ChildrenOf(ind.ID) {
			ci, ok := f.index[child.ID]
			if !ok || ci == pi {
				continue
			}
			if f.nodes[ci].parent != none {
				continue
			}
			if f.isAncestor(ci, pi) {
				continue
			}
			f.nodes[ci].parent = pi
			f.nodes[pi].children = append(f.nodes[pi].children, ci)
		}
	}
}

// isAncestor reports whether a is on b's parent chain.
func (f *Forest) isAncestor(a, b int) bool {
	for p := f.nodes[b].parent; p != none; p = f.nodes[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

func (f *Forest) resolveSpouses(tr gen.Traverser, individuals []*gen.Individual) {
	for _, ind := range individuals {
		i, ok := f.index[ind.ID]
		if !ok {
			continue
		}
		for _, sp := range tr.SpousesOf(ind.ID) {
			si, ok := f.index[sp.ID]
			if !ok || si == i {
				continue
			}
			if !slices.Contains(f.nodes[i].spouses, si) {
				f.nodes[i].spouses = append(f.nodes[i].spouses, si)
			}
			if !slices.Contains(f.nodes[si].spouses, i) {
				f.nodes[si].spouses = append(f.nodes[si].spouses, i)
			}
		}
	}
}

// clusterSpouses absorbs each node's spouses into one family cluster.
// The cluster head ends up owning every tree child of the union, so the
// walk visits each child exactly once; the other members are spliced
// into the head's sibling chain, or marked as companions when the couple
// is at root level and has no chain to join.
func (f *Forest) clusterSpouses() {
	next := 1
	for i := range f.nodes {
		if f.nodes[i].cluster != 0 || len(f.nodes[i].spouses) == 0 {
			continue
		}

		members := []int{i}
		for _, s := range f.nodes[i].spouses {
			if f.nodes[s].cluster == 0 {
				members = append(members, s)
			}
		}
		for _, m := range members {
			f.nodes[m].cluster = next
		}
		next++

		head := f.clusterHead(members)
		for _, m := range members {
			if m == head {
				continue
			}
			f.adoptChildren(head, m)
			f.spliceSpouse(head, m)
		}
	}
}

// clusterHead picks the member that carries the union's children through
// the walk. Members already embedded in a tree (having a parent) win,
// then the one with more tree children; remaining ties break by the
// conventional male-then-female order, then name — deterministic, never
// arbitrary map order.
func (f *Forest) clusterHead(members []int) int {
	head := members[0]
	for _, m := range members[1:] {
		if f.headLess(m, head) {
			head = m
		}
	}
	return head
}

func (f *Forest) headLess(a, b int) bool {
	na, nb := &f.nodes[a], &f.nodes[b]
	if (na.parent != none) != (nb.parent != none) {
		return na.parent != none
	}
	if len(na.children) != len(nb.children) {
		return len(na.children) > len(nb.children)
	}
	if ra, rb := genderRank(na.gender), genderRank(nb.gender); ra != rb {
		return ra < rb
	}
	return na.name < nb.name
}

func genderRank(g gen.Gender) int {
	switch g {
	case gen.GenderMale:
		return 0
	case gen.GenderFemale:
		return 1
	default:
		return 2
	}
}

// adoptChildren moves m's tree children under head, preserving order.
func (f *Forest) adoptChildren(head, m int) {
	for _, c := range f.nodes[m].children {
		f.nodes[c].parent = head
		f.nodes[head].children = append(f.nodes[head].children, c)
	}
	f.nodes[m].children = nil
}

// spliceSpouse inserts a parentless spouse into head's sibling chain,
// directly after head in the shared parent's child order. A spouse of a
// parentless head becomes a companion, positioned beside the head after
// the walk.
func (f *Forest) spliceSpouse(head, m int) {
	if f.nodes[m].parent != none {
		return // own place in the tree already
	}
	hp := f.nodes[head].parent
	if hp == none {
		f.nodes[m].companion = true
		f.nodes[m].partner = head
		return
	}
	f.nodes[m].parent = hp
	kids := f.nodes[hp].children
	at := slices.Index(kids, head)
	if at < 0 {
		f.nodes[hp].children = append(kids, m)
		return
	}
	f.nodes[hp].children = slices.Insert(kids, at+1, m)
}

// linkSiblings sets the left/right sibling chain from each parent's
// ordered children list (spliced spouses included).
func (f *Forest) linkSiblings() {
	for i := range f.nodes {
		kids := f.nodes[i].children
		for j, c := range kids {
			if j > 0 {
				f.nodes[c].leftSib = kids[j-1]
			}
			if j < len(kids)-1 {
				f.nodes[c].rightSib = kids[j+1]
			}
		}
	}
}

// selectRoots chooses tree roots and partitions nodes into trees.
//
// Roots are parentless non-companion nodes, ordered descendants-first so
// childless stragglers trail the real trees. If every node has a parent
// (malformed cyclic data), the earliest generation becomes the root set
// and those nodes are detached from their parents so the walk
// terminates. The primary tree is the one with the most members.
func (f *Forest) selectRoots() {
	var roots []int
	for i := range f.nodes {
		if f.nodes[i].parent == none && !f.nodes[i].companion {
			roots = append(roots, i)
		}
	}

	if len(roots) == 0 {
		minGen := f.nodes[0].generation
		for i := range f.nodes {
			if f.nodes[i].generation < minGen {
				minGen = f.nodes[i].generation
			}
		}
		for i := range f.nodes {
			if f.nodes[i].generation == minGen {
				f.detach(i)
				roots = append(roots, i)
			}
		}
	}

	slices.SortStableFunc(roots, func(a, b int) int {
		da, db := len(f.nodes[a].children) > 0, len(f.nodes[b].children) > 0
		switch {
		case da && !db:
			return -1
		case db && !da:
			return 1
		}
		return 0
	})

	claimed := make([]bool, len(f.nodes))
	for _, r := range roots {
		if claimed[r] {
			continue // reachable from an earlier root via cycle fallback
		}
		tree := f.collectTree(r, claimed)
		f.roots = append(f.roots, r)
		f.trees = append(f.trees, tree)
	}

	f.prim = none
	best := -1
	for i, tree := range f.trees {
		if len(tree) > best {
			best = len(tree)
			f.prim = i
		}
	}
}

// detach removes node i from its parent's children list, splices it out
// of the sibling chain and clears its own links. Used only by the cycle
// fallback; leaving the sibling pointers in place would let a first-walk
// leaf read coordinates from a node in another tree.
func (f *Forest) detach(i int) {
	p := f.nodes[i].parent
	if p == none {
		return
	}
	f.nodes[p].children = slices.DeleteFunc(slices.Clone(f.nodes[p].children), func(c int) bool { return c == i })
	if l := f.nodes[i].leftSib; l != none {
		f.nodes[l].rightSib = f.nodes[i].rightSib
	}
	if r := f.nodes[i].rightSib; r != none {
		f.nodes[r].leftSib = f.nodes[i].leftSib
	}
	f.nodes[i].leftSib = none
	f.nodes[i].rightSib = none
	f.nodes[i].parent = none
}

// collectTree gathers the nodes of one tree: everything reachable from
// root via children, plus companions whose partner landed in the tree.
func (f *Forest) collectTree(root int, claimed []bool) []int {
	var tree []int
	member := make(map[int]bool)
	stack := []int{root}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if claimed[v] {
			continue
		}
		claimed[v] = true
		member[v] = true
		tree = append(tree, v)
		for j := len(f.nodes[v].children) - 1; j >= 0; j-- {
			stack = append(stack, f.nodes[v].children[j])
		}
	}
	for i := range f.nodes {
		if f.nodes[i].companion && !claimed[i] && f.nodes[i].partner != none && member[f.nodes[i].partner] {
			claimed[i] = true
			tree = append(tree, i)
		}
	}
	return tree
}
