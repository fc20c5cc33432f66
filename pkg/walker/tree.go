package walker

import (
	"errors"
	"math"

	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
)

// ErrNoIndividuals is returned by [Build] when the input has no
// individuals to position.
var ErrNoIndividuals = errors.New("no individuals to position")

// none marks an absent node link in the arena.
const none = -1

// Config holds the spacing and sizing parameters for tree positioning.
// The zero value is not usable directly; SetDefaults fills in unset
// fields. All distances are in the same units as node sizes (canvas
// pixels before normalization scaling).
type Config struct {
	// CanvasWidth and CanvasHeight are the target canvas dimensions,
	// used for adaptive node sizing and by [Normalize].
	CanvasWidth  float64
	CanvasHeight float64

	// NodeSpacing is the base horizontal gap between adjacent nodes.
	// The effective inter-node distance adds half the sum of the two
	// node widths.
	NodeSpacing float64

	// GenerationSpacing is the vertical distance between generations.
	GenerationSpacing float64

	// SpouseSpacing replaces NodeSpacing between spouses.
	SpouseSpacing float64

	// FamilySpacing is added at the boundary of a spouse cluster.
	FamilySpacing float64

	// TreeSpacing is the horizontal gap between the bounding boxes of
	// disconnected trees in a forest.
	TreeSpacing float64

	// TopMargin is the y of generation zero in tree-local units.
	TopMargin float64

	// MaxNodeSize caps adaptive node sizing; MinNodeSize floors it.
	MaxNodeSize float64
	MinNodeSize float64

	// MinMargin and MarginPct control canvas margins in [Normalize]:
	// margin = max(MinMargin, MarginPct × canvas dimension).
	MinMargin float64
	MarginPct float64
}

// Default spacing values. The 60/150/30 node, generation and spouse
// spacings match the conventions of hand-drawn genealogical charts.
const (
	DefaultCanvasWidth       = 1000.0
	DefaultCanvasHeight      = 800.0
	DefaultNodeSpacing       = 60.0
	DefaultGenerationSpacing = 150.0
	DefaultSpouseSpacing     = 30.0
	DefaultFamilySpacing     = 40.0
	DefaultTreeSpacing       = 100.0
	DefaultTopMargin         = 40.0
	DefaultMaxNodeSize       = 40.0
	DefaultMinNodeSize       = 8.0
	DefaultMinMargin         = 20.0
	DefaultMarginPct         = 0.05
)

// SetDefaults fills unset (zero) fields with default values.
func (c *Config) SetDefaults() {
	if c.CanvasWidth == 0 {
		c.CanvasWidth = DefaultCanvasWidth
	}
	if c.CanvasHeight == 0 {
		c.CanvasHeight = DefaultCanvasHeight
	}
	if c.NodeSpacing == 0 {
		c.NodeSpacing = DefaultNodeSpacing
	}
	if c.GenerationSpacing == 0 {
		c.GenerationSpacing = DefaultGenerationSpacing
	}
	if c.SpouseSpacing == 0 {
		c.SpouseSpacing = DefaultSpouseSpacing
	}
	if c.FamilySpacing == 0 {
		c.FamilySpacing = DefaultFamilySpacing
	}
	if c.TreeSpacing == 0 {
		c.TreeSpacing = DefaultTreeSpacing
	}
	if c.TopMargin == 0 {
		c.TopMargin = DefaultTopMargin
	}
	if c.MaxNodeSize == 0 {
		c.MaxNodeSize = DefaultMaxNodeSize
	}
	if c.MinNodeSize == 0 {
		c.MinNodeSize = DefaultMinNodeSize
	}
	if c.MinMargin == 0 {
		c.MinMargin = DefaultMinMargin
	}
	if c.MarginPct == 0 {
		c.MarginPct = DefaultMarginPct
	}
}

// Position is the positioned output for one individual. X is the node's
// horizontal center; Y is its top edge. Width and Height carry the
// (possibly adaptively shrunk) node size.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// node is one arena entry. All links are arena indices; none marks nil.
type node struct {
	id         string
	name       string
	gender     gen.Gender
	generation int
	width      float64
	height     float64

	parent   int
	children []int
	leftSib  int
	rightSib int
	spouses  []int

	// cluster is the spouse-cluster ID, 0 for unmarried nodes.
	cluster int

	// companion nodes sit outside the walk (parentless spouse of a
	// parentless partner); they are placed beside partner afterwards.
	companion bool
	partner   int

	// Walker state, reset per positioning run.
	prelim   float64
	mod      float64
	shift    float64
	change   float64
	ancestor int
	thread   int
	number   int
	x, y     float64
}

// Forest is the built tree-with-extra-edges structure over which the
// positioning engine runs. Build it with [Build]; it is discarded after
// position extraction.
type Forest struct {
	cfg   Config
	nodes []node
	index map[string]int
	roots []int
	trees [][]int // node indices per tree, parallel to roots
	prim  int     // position of the primary root within roots
}

// Size returns the number of individuals in the forest.
func (f *Forest) Size() int { return len(f.nodes) }

// TreeCount returns the number of disconnected trees.
func (f *Forest) TreeCount() int { return len(f.roots) }

// Roots returns the root individual IDs, primary tree's root included,
// in positioning order.
func (f *Forest) Roots() []string {
	out := make([]string, len(f.roots))
	for i, r := range f.roots {
		out[i] = f.nodes[r].id
	}
	return out
}

// PrimaryRoot returns the ID of the root whose tree has the most
// individuals. Single-tree consumers should use this tree.
func (f *Forest) PrimaryRoot() string {
	if f.prim < 0 || f.prim >= len(f.roots) {
		return ""
	}
	return f.nodes[f.roots[f.prim]].id
}

// Positioned returns the number of nodes assigned to some tree. A value
// below Size means the input contained structures the tree walk cannot
// reach (possible only with degenerate cycle fallbacks).
func (f *Forest) Positioned() int {
	n := 0
	for _, tree := range f.trees {
		n += len(tree)
	}
	return n
}

// distance returns the required center-to-center gap between two adjacent
// nodes. The rule is symmetric and used identically in both walks:
// base spacing plus half the width sum, with the smaller spouse spacing
// between spouses and extra family spacing across cluster boundaries.
func (f *Forest) distance(a, b int) float64 {
	half := (f.nodes[a].width + f.nodes[b].width) / 2
	if f.spoused(a, b) {
		return f.cfg.SpouseSpacing + half
	}
	d := f.cfg.NodeSpacing + half
	ca, cb := f.nodes[a].cluster, f.nodes[b].cluster
	if ca != cb && (ca != 0 || cb != 0) {
		d += f.cfg.FamilySpacing
	}
	return d
}

func (f *Forest) spoused(a, b int) bool {
	for _, s := range f.nodes[a].spouses {
		if s == b {
			return true
		}
	}
	return false
}

// nodeSize computes the adaptive node size: it shrinks as the most
// populous generation grows so dense generations do not overflow the
// canvas, clamped to [MinNodeSize, MaxNodeSize].
func nodeSize(cfg Config, individuals []*gen.Individual) float64 {
	perGen := make(map[int]int)
	maxPerGen := 1
	for _, ind := range individuals {
		perGen[ind.Generation]++
		if perGen[ind.Generation] > maxPerGen {
			maxPerGen = perGen[ind.Generation]
		}
	}
	size := math.Min(cfg.MaxNodeSize, cfg.CanvasWidth*0.8/(float64(maxPerGen)*1.2))
	return math.Max(size, cfg.MinNodeSize)
}
