package walker

import (
	"math"

	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
)

// Layout builds a forest from the relationship graph and positions it in
// tree-local units. This is the one-shot entry point; use [Build] plus
// [Forest.Position] when the forest structure itself is needed.
func Layout(tr gen.Traverser, individuals []*gen.Individual, cfg Config) (map[string]Position, error) {
	f, err := Build(tr, individuals, cfg)
	if err != nil {
		return nil, err
	}
	return f.Position(), nil
}

// Position runs the two-pass Walker algorithm plus couple centering over
// every tree in the forest and returns tree-local positions keyed by
// individual ID. Trees are laid out left to right in root order,
// separated by the configured tree spacing, so their bounding boxes
// never overlap. Calling Position again produces identical output.
func (f *Forest) Position() map[string]Position {
	offset := 0.0
	for ti, r := range f.roots {
		tree := f.trees[ti]
		f.resetWalkState(tree)
		f.firstWalk(r)
		f.secondWalk(r, -f.nodes[r].prelim, 0)
		f.placeCompanions(tree)
		f.centerCouples(tree)

		minX, maxX := f.treeExtent(tree)
		dx := offset - minX
		for _, v := range tree {
			f.nodes[v].x += dx
		}
		offset += maxX - minX + f.cfg.TreeSpacing
	}

	out := make(map[string]Position, len(f.nodes))
	for _, tree := range f.trees {
		for _, v := range tree {
			n := &f.nodes[v]
			out[n.id] = Position{X: n.x, Y: n.y, Width: n.width, Height: n.height}
		}
	}
	return out
}

// resetWalkState clears the per-run algorithm fields so Position is
// idempotent. Each node's ancestor defaults to itself; number is the
// node's index in its parent's child order.
func (f *Forest) resetWalkState(tree []int) {
	for _, v := range tree {
		n := &f.nodes[v]
		n.prelim, n.mod, n.shift, n.change = 0, 0, 0, 0
		n.thread = none
		n.ancestor = v
		n.number = 0
		n.x, n.y = 0, 0
	}
	for _, v := range tree {
		for j, c := range f.nodes[v].children {
			f.nodes[c].number = j
		}
	}
}

// firstWalk computes preliminary x positions bottom-up. For a leaf the
// preliminary position follows its left sibling at the required
// distance. For an internal node the children are placed first, each new
// child subtree reconciled against its left neighbours by apportion;
// accumulated shifts are then spread across the children and the node is
// centered over them, recording any left-sibling adjustment in mod.
func (f *Forest) firstWalk(v int) {
	n := &f.nodes[v]
	if len(n.children) == 0 {
		if w := n.leftSib; w != none {
			n.prelim = f.nodes[w].prelim + f.distance(w, v)
		}
		return
	}

	defaultAncestor := n.children[0]
	for _, w := range n.children {
		f.firstWalk(w)
		defaultAncestor = f.apportion(w, defaultAncestor)
	}
	f.executeShifts(v)

	first, last := n.children[0], n.children[len(n.children)-1]
	midpoint := (f.nodes[first].prelim + f.nodes[last].prelim) / 2
	if w := n.leftSib; w != none {
		n.prelim = f.nodes[w].prelim + f.distance(w, v)
		n.mod = n.prelim - midpoint
	} else {
		n.prelim = midpoint
	}
}

// apportion resolves contour conflicts between the subtree rooted at v
// and its already-placed left siblings. It descends the inside-right
// contour of the left neighbourhood and the inside-left contour of v's
// subtree simultaneously (following thread pointers where a contour runs
// out of direct descendants), accumulating modifier sums on all four
// contours. Wherever the contours would overlap, the offending distance
// is pushed onto v's subtree and spread across the intervening siblings
// via moveSubtree. Finally, threads are set so deeper levels of the
// taller subtree stay reachable from the next apportion.
func (f *Forest) apportion(v, defaultAncestor int) int {
	w := f.nodes[v].leftSib
	if w == none {
		return defaultAncestor
	}

	vip, vop := v, v
	vim := w
	vom := f.nodes[f.nodes[vip].parent].children[0]
	sip, sop := f.nodes[vip].mod, f.nodes[vop].mod
	sim, som := f.nodes[vim].mod, f.nodes[vom].mod

	for f.nextRight(vim) != none && f.nextLeft(vip) != none {
		vim = f.nextRight(vim)
		vip = f.nextLeft(vip)
		vom = f.nextLeft(vom)
		vop = f.nextRight(vop)
		f.nodes[vop].ancestor = v

		shift := (f.nodes[vim].prelim + sim) - (f.nodes[vip].prelim + sip) + f.distance(vim, vip)
		if shift > 0 {
			f.moveSubtree(f.pickAncestor(vim, v, defaultAncestor), v, shift)
			sip += shift
			sop += shift
		}

		sim += f.nodes[vim].mod
		sip += f.nodes[vip].mod
		som += f.nodes[vom].mod
		sop += f.nodes[vop].mod
	}

	if f.nextRight(vim) != none && f.nextRight(vop) == none {
		f.nodes[vop].thread = f.nextRight(vim)
		f.nodes[vop].mod += sim - sop
	}
	if f.nextLeft(vip) != none && f.nextLeft(vom) == none {
		f.nodes[vom].thread = f.nextLeft(vip)
		f.nodes[vom].mod += sip - som
		defaultAncestor = v
	}
	return defaultAncestor
}

// nextLeft follows the left contour: first child, or the thread when the
// node has no descendants left on this contour.
func (f *Forest) nextLeft(v int) int {
	if kids := f.nodes[v].children; len(kids) > 0 {
		return kids[0]
	}
	return f.nodes[v].thread
}

// nextRight follows the right contour: last child, or the thread.
func (f *Forest) nextRight(v int) int {
	if kids := f.nodes[v].children; len(kids) > 0 {
		return kids[len(kids)-1]
	}
	return f.nodes[v].thread
}

// moveSubtree shifts the subtree rooted at wp right by shift and books
// the fractional redistribution between wm and wp so executeShifts can
// even out the gap across the subtrees in between.
func (f *Forest) moveSubtree(wm, wp int, shift float64) {
	subtrees := float64(f.nodes[wp].number - f.nodes[wm].number)
	if subtrees < 1 {
		subtrees = 1
	}
	f.nodes[wp].change -= shift / subtrees
	f.nodes[wp].shift += shift
	f.nodes[wm].change += shift / subtrees
	f.nodes[wp].prelim += shift
	f.nodes[wp].mod += shift
}

// executeShifts applies the booked shift/change amounts across v's
// children right-to-left, turning the per-conflict adjustments into a
// smooth redistribution of spacing.
func (f *Forest) executeShifts(v int) {
	var shift, change float64
	kids := f.nodes[v].children
	for i := len(kids) - 1; i >= 0; i-- {
		w := kids[i]
		f.nodes[w].prelim += shift
		f.nodes[w].mod += shift
		change += f.nodes[w].change
		shift += f.nodes[w].shift + change
	}
}

// pickAncestor returns the ancestor of vim usable as the left reference
// for moveSubtree: vim's recorded ancestor when it is a sibling of v,
// the default ancestor otherwise.
func (f *Forest) pickAncestor(vim, v, defaultAncestor int) int {
	a := f.nodes[vim].ancestor
	if f.nodes[a].parent == f.nodes[v].parent {
		return a
	}
	return defaultAncestor
}

// secondWalk resolves final coordinates top-down: x is the preliminary
// position plus the accumulated parent modifiers, y follows recursion
// depth at the configured generation spacing.
func (f *Forest) secondWalk(v int, m float64, depth int) {
	n := &f.nodes[v]
	n.x = n.prelim + m
	n.y = f.cfg.TopMargin + float64(depth)*f.cfg.GenerationSpacing
	for _, w := range n.children {
		f.secondWalk(w, m+n.mod, depth+1)
	}
}

// placeCompanions positions companion spouses beside their partner at
// spouse spacing; they took no part in the walk.
func (f *Forest) placeCompanions(tree []int) {
	for _, v := range tree {
		n := &f.nodes[v]
		if !n.companion || n.partner == none {
			continue
		}
		p := &f.nodes[n.partner]
		n.x = p.x + f.cfg.SpouseSpacing + (p.width+n.width)/2
		n.y = p.y
	}
}

// centerCouples re-centers every couple with children over the midpoint
// of its children's x extent, keeping the configured spouse gap between
// the partners. Only cluster heads carry children after the build, so
// each couple is processed exactly once.
func (f *Forest) centerCouples(tree []int) {
	inTree := make(map[int]bool, len(tree))
	for _, v := range tree {
		inTree[v] = true
	}

	for _, v := range tree {
		n := &f.nodes[v]
		if len(n.children) == 0 || len(n.spouses) == 0 {
			continue
		}
		s := none
		for _, cand := range n.spouses {
			if inTree[cand] {
				s = cand
				break
			}
		}
		if s == none {
			continue
		}

		minCx := math.Inf(1)
		maxCx := math.Inf(-1)
		for _, c := range n.children {
			cx := f.nodes[c].x
			minCx = math.Min(minCx, cx)
			maxCx = math.Max(maxCx, cx)
		}
		mid := (minCx + maxCx) / 2

		left, right := v, s
		if f.nodes[right].x < f.nodes[left].x {
			left, right = right, left
		}
		gap := f.cfg.SpouseSpacing + (f.nodes[left].width+f.nodes[right].width)/2
		f.nodes[left].x = mid - gap/2
		f.nodes[right].x = mid + gap/2
	}
}

// treeExtent returns the horizontal bounding interval of a tree,
// node widths included.
func (f *Forest) treeExtent(tree []int) (minX, maxX float64) {
	minX = math.Inf(1)
	maxX = math.Inf(-1)
	for _, v := range tree {
		n := &f.nodes[v]
		minX = math.Min(minX, n.x-n.width/2)
		maxX = math.Max(maxX, n.x+n.width/2)
	}
	return minX, maxX
}
