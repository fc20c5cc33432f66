package walker

import "math"

// Bounds is an axis-aligned bounding box over positioned nodes. X spans
// cover node widths (positions are horizontal centers); Y spans run from
// the topmost top edge to the lowest bottom edge.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the box.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// BoundsOf computes the bounding box of a set of positions. The zero
// Bounds is returned for an empty set.
func BoundsOf(positions map[string]Position) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range positions {
		b.MinX = math.Min(b.MinX, p.X-p.Width/2)
		b.MaxX = math.Max(b.MaxX, p.X+p.Width/2)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y+p.Height)
	}
	return b
}

// Normalize fits tree-local positions into the configured canvas. The
// layout is scaled down uniformly when it exceeds the drawable area and
// never scaled up, centered horizontally, and anchored below the top
// margin. Node dimensions scale with the layout. The applied scale
// factor is returned alongside the fitted positions.
func Normalize(positions map[string]Position, cfg Config) (map[string]Position, float64) {
	cfg.SetDefaults()
	if len(positions) == 0 {
		return map[string]Position{}, 1
	}

	b := BoundsOf(positions)
	marginX := math.Max(cfg.MinMargin, cfg.MarginPct*cfg.CanvasWidth)
	marginY := math.Max(cfg.MinMargin, cfg.MarginPct*cfg.CanvasHeight)
	availW := cfg.CanvasWidth - 2*marginX
	availH := cfg.CanvasHeight - 2*marginY

	scale := 1.0
	if b.Width() > 0 {
		scale = math.Min(scale, availW/b.Width())
	}
	if b.Height() > 0 {
		scale = math.Min(scale, availH/b.Height())
	}

	offsetX := marginX + (availW-b.Width()*scale)/2

	out := make(map[string]Position, len(positions))
	for id, p := range positions {
		out[id] = Position{
			X:      offsetX + (p.X-b.MinX)*scale,
			Y:      marginY + (p.Y-b.MinY)*scale,
			Width:  p.Width * scale,
			Height: p.Height * scale,
		}
	}
	return out, scale
}
