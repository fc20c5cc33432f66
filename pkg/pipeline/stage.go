package pipeline

import (
	"context"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// =============================================================================
// Stage Kinds - Closed Enumeration
// =============================================================================

// StageKind identifies a built-in stage implementation. The set is
// closed: unknown identifiers are rejected when a pipeline is assembled,
// not discovered mid-run.
type StageKind string

// Built-in stage kinds.
const (
	// KindTreeLayout builds the family forest and computes tree-local
	// node positions.
	KindTreeLayout StageKind = "tree-layout"

	// KindCanvasFit scales and translates positions into canvas space.
	KindCanvasFit StageKind = "canvas-fit"

	// KindTreeMetrics records bounds and per-generation statistics in
	// the document's tree section.
	KindTreeMetrics StageKind = "tree-metrics"
)

// ParseStageKind resolves a stage identifier string. Unknown identifiers
// return an INVALID_STAGE error so misconfigured pipelines fail at
// assembly time.
func ParseStageKind(s string) (StageKind, error) {
	switch k := StageKind(s); k {
	case KindTreeLayout, KindCanvasFit, KindTreeMetrics:
		return k, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidStage,
			"unknown stage kind: %q (must be one of: tree-layout, canvas-fit, tree-metrics)", s)
	}
}

// =============================================================================
// Stage Interface
// =============================================================================

// Stage is one unit of pipeline work. Implementations must treat the
// context's document as read-only and return only the attributes they
// changed; the orchestrator merges partials and never hands a stage a
// document another stage can still mutate.
type Stage interface {
	// Name returns the human-readable stage name used in progress
	// events and the execution report.
	Name() string

	// Run produces a partial document against the stage context.
	Run(ctx context.Context, sc StageContext) (*visual.Document, error)
}

// StageContext is the read snapshot handed to a stage invocation.
type StageContext struct {
	// Doc is the visual document as of the last successful merge.
	Doc *visual.Document

	// Changes is the change set produced by the immediately preceding
	// successful stage; zero-valued for the first stage.
	Changes visual.ChangeSet

	// Graph is the read-only relationship traversal capability.
	Graph gen.Traverser

	// Individuals is the stable-ordered individual list.
	Individuals []*gen.Individual

	// Layout holds the resolved layout configuration.
	Layout walker.Config

	// Dimensions and Params come from the stage instance, merged over
	// the kind's built-in defaults.
	Dimensions Dimensions
	Params     map[string]any

	Logger *log.Logger
}

// Dimensions names the data dimensions a stage maps onto visual space.
type Dimensions struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// =============================================================================
// Stage Instances
// =============================================================================

// StageInstance is one configured pipeline step. Instances are created
// when the pipeline is assembled and are immutable afterwards.
type StageInstance struct {
	// ID uniquely identifies this instance within and across runs.
	ID string `json:"id"`

	// Kind is the resolved stage kind; empty for custom stages.
	Kind StageKind `json:"kind,omitempty"`

	// Dimensions and Params configure the stage.
	Dimensions Dimensions     `json:"dimensions"`
	Params     map[string]any `json:"params,omitempty"`

	// Active stages run; inactive stages are skipped but still counted
	// in progress events so indices stay stable.
	Active bool `json:"active"`

	stage Stage
}

// StageOption customizes a stage instance at assembly time.
type StageOption func(*StageInstance)

// WithDimensions sets the instance's data dimensions.
func WithDimensions(d Dimensions) StageOption {
	return func(si *StageInstance) { si.Dimensions = d }
}

// WithParams sets instance parameters, merged over the kind's defaults.
func WithParams(params map[string]any) StageOption {
	return func(si *StageInstance) { si.Params = params }
}

// Inactive marks the instance as skipped.
func Inactive() StageOption {
	return func(si *StageInstance) { si.Active = false }
}

// NewStageInstance assembles a built-in stage. The kind is resolved
// immediately; an unrecognized kind is a construction-time error.
func NewStageInstance(kind StageKind, opts ...StageOption) (StageInstance, error) {
	impl, err := builtinStage(kind)
	if err != nil {
		return StageInstance{}, err
	}
	si := StageInstance{
		ID:         uuid.NewString(),
		Kind:       kind,
		Dimensions: defaultDimensions(kind),
		Active:     true,
		stage:      impl,
	}
	for _, opt := range opts {
		opt(&si)
	}
	si.Params = mergedParams(kind, si.Params)
	return si, nil
}

// CustomStage wraps a caller-provided Stage implementation. Used by
// tests and by downstream art stages that are not part of the built-in
// set.
func CustomStage(s Stage, opts ...StageOption) StageInstance {
	si := StageInstance{
		ID:     uuid.NewString(),
		Active: true,
		stage:  s,
	}
	for _, opt := range opts {
		opt(&si)
	}
	return si
}

// Name returns the instance's display name.
func (si StageInstance) Name() string {
	if si.stage != nil {
		return si.stage.Name()
	}
	return string(si.Kind)
}

// DefaultStages assembles the standard three-stage layout pipeline.
func DefaultStages() ([]StageInstance, error) {
	kinds := []StageKind{KindTreeLayout, KindCanvasFit, KindTreeMetrics}
	stages := make([]StageInstance, 0, len(kinds))
	for _, k := range kinds {
		si, err := NewStageInstance(k)
		if err != nil {
			return nil, err
		}
		stages = append(stages, si)
	}
	return stages, nil
}

// ParseStages assembles a pipeline from stage identifier strings, as
// found in a settings file. An empty list yields the default pipeline.
func ParseStages(names []string) ([]StageInstance, error) {
	if len(names) == 0 {
		return DefaultStages()
	}
	stages := make([]StageInstance, 0, len(names))
	for _, name := range names {
		kind, err := ParseStageKind(name)
		if err != nil {
			return nil, err
		}
		si, err := NewStageInstance(kind)
		if err != nil {
			return nil, err
		}
		stages = append(stages, si)
	}
	return stages, nil
}

// builtinStage resolves a kind to its implementation.
func builtinStage(kind StageKind) (Stage, error) {
	switch kind {
	case KindTreeLayout:
		return treeLayoutStage{}, nil
	case KindCanvasFit:
		return canvasFitStage{}, nil
	case KindTreeMetrics:
		return treeMetricsStage{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStage, "unknown stage kind: %q", kind)
	}
}

// defaultDimensions returns the conventional dimensions per kind.
func defaultDimensions(kind StageKind) Dimensions {
	switch kind {
	case KindTreeLayout:
		return Dimensions{Primary: "generation", Secondary: "birthOrder"}
	case KindCanvasFit:
		return Dimensions{Primary: "canvas"}
	case KindTreeMetrics:
		return Dimensions{Primary: "generation"}
	default:
		return Dimensions{}
	}
}

// mergedParams overlays instance params on the kind's built-in defaults.
func mergedParams(kind StageKind, params map[string]any) map[string]any {
	merged := make(map[string]any)
	maps.Copy(merged, builtinParams(kind))
	maps.Copy(merged, params)
	return merged
}

// builtinParams returns the default parameters per kind.
func builtinParams(kind StageKind) map[string]any {
	switch kind {
	case KindCanvasFit:
		return map[string]any{"preserveAspect": true}
	default:
		return map[string]any{}
	}
}
