package pipeline

import (
	"context"
	"strconv"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// =============================================================================
// Built-in Stages
// =============================================================================

// treeLayoutStage builds the family forest and writes tree-local
// positions for every individual.
type treeLayoutStage struct{}

func (treeLayoutStage) Name() string { return "tree-layout" }

func (treeLayoutStage) Run(ctx context.Context, sc StageContext) (*visual.Document, error) {
	f, err := walker.Build(sc.Graph, sc.Individuals, sc.Layout)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStageFailed, err, "build forest")
	}
	positions := f.Position()

	partial := visual.NewDocument()
	for _, ind := range sc.Individuals {
		p, ok := positions[ind.ID]
		if !ok {
			continue
		}
		partial.Individuals[ind.ID] = visual.AttrMap{
			visual.AttrX:          p.X,
			visual.AttrY:          p.Y,
			visual.AttrWidth:      p.Width,
			visual.AttrHeight:     p.Height,
			visual.AttrGeneration: ind.Generation,
		}
	}
	partial.Tree[visual.TreeRoots] = f.Roots()
	partial.Tree[visual.TreePrimaryRoot] = f.PrimaryRoot()
	partial.Tree[visual.TreeCount] = f.TreeCount()

	sc.Logger.Debug("tree layout computed",
		"individuals", len(positions),
		"trees", f.TreeCount(),
		"primary_root", f.PrimaryRoot())
	return partial, nil
}

// canvasFitStage scales and translates positioned individuals into
// canvas space. It reads whatever positions earlier stages wrote, so it
// also fits documents produced outside the tree-layout stage.
type canvasFitStage struct{}

func (canvasFitStage) Name() string { return "canvas-fit" }

func (canvasFitStage) Run(ctx context.Context, sc StageContext) (*visual.Document, error) {
	positions := readPositions(sc.Doc)
	if len(positions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no positioned individuals to fit; run tree-layout first")
	}

	fitted, scale := walker.Normalize(positions, sc.Layout)

	partial := visual.NewDocument()
	for id, p := range fitted {
		partial.Individuals[id] = visual.AttrMap{
			visual.AttrX:      p.X,
			visual.AttrY:      p.Y,
			visual.AttrWidth:  p.Width,
			visual.AttrHeight: p.Height,
		}
	}
	partial.Tree[visual.TreeScale] = scale

	sc.Logger.Debug("canvas fit applied", "individuals", len(fitted), "scale", scale)
	return partial, nil
}

// treeMetricsStage records the positioned bounding box and the
// per-generation population in the document's tree section.
type treeMetricsStage struct{}

func (treeMetricsStage) Name() string { return "tree-metrics" }

func (treeMetricsStage) Run(ctx context.Context, sc StageContext) (*visual.Document, error) {
	positions := readPositions(sc.Doc)
	if len(positions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no positioned individuals to measure; run tree-layout first")
	}

	b := walker.BoundsOf(positions)
	generations := make(map[string]any)
	for _, ind := range sc.Individuals {
		key := strconv.Itoa(ind.Generation)
		n, _ := generations[key].(int)
		generations[key] = n + 1
	}

	partial := visual.NewDocument()
	partial.Tree[visual.TreeBounds] = map[string]any{
		"minX":   b.MinX,
		"minY":   b.MinY,
		"maxX":   b.MaxX,
		"maxY":   b.MaxY,
		"width":  b.Width(),
		"height": b.Height(),
	}
	partial.Tree[visual.TreeGenerations] = generations

	sc.Logger.Debug("tree metrics recorded",
		"width", b.Width(),
		"height", b.Height(),
		"generations", len(generations))
	return partial, nil
}

// readPositions extracts complete position records from a document.
// Individuals missing any of the four keys are skipped.
func readPositions(doc *visual.Document) map[string]walker.Position {
	positions := make(map[string]walker.Position, len(doc.Individuals))
	for id, attrs := range doc.Individuals {
		x, okX := attrs.Float(visual.AttrX)
		y, okY := attrs.Float(visual.AttrY)
		w, okW := attrs.Float(visual.AttrWidth)
		h, okH := attrs.Float(visual.AttrHeight)
		if !okX || !okY || !okW || !okH {
			continue
		}
		positions[id] = walker.Position{X: x, Y: y, Width: w, Height: h}
	}
	return positions
}
