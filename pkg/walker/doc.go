// Package walker positions a genealogical relationship graph as a family
// tree using Walker's algorithm with the Buchheim/Jünger/Leipert linear-time
// refinements.
//
// # Overview
//
// Positioning runs in three steps per tree:
//
//  1. First walk (post-order): assign each node a preliminary x relative
//     to its own subtree. After each child subtree is placed, the
//     apportion step walks the facing contours of the new subtree and its
//     left neighbours, shifting subtrees apart where they would overlap
//     and spreading the inserted space evenly across the siblings in
//     between.
//  2. Second walk (pre-order): resolve final x by accumulating subtree
//     modifiers down the parent chain, and assign y from recursion depth
//     and the configured generation spacing.
//  3. Couple centering: couples with children are re-centered over the
//     horizontal extent of their children, preserving the spouse gap.
//
// Disconnected components become separate trees in a [Forest]; each tree
// is positioned independently and offset horizontally so bounding boxes
// never overlap.
//
// # Tree Construction
//
// [Build] turns the relationship graph into an arena of nodes linked by
// integer indices (parent, ordered children, sibling chain, spouses,
// contour threads). Multi-parent individuals keep only their first
// resolved parent edge for tree-shape purposes: Walker's algorithm is
// defined over trees, and collapsing to the first parent is a deliberate
// policy, not an error. Spouses are clustered into family units with the
// cluster head owning the union's children, and parentless spouses are
// spliced into their partner's sibling chain so couples sit together.
//
// # Determinism
//
// There is no randomness anywhere in the package. Given identical input
// order, sizes and spacing configuration, output positions are
// bit-for-bit identical across runs.
//
// # Coordinates
//
// A [Position]'s X is the node's horizontal center and Y its top edge, in
// tree-local units. [Normalize] maps tree-local positions into canvas
// pixel space, shrinking to fit but never enlarging.
package walker
