package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/observability"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
)

// =============================================================================
// Events
// =============================================================================

// EventType discriminates pipeline events.
type EventType string

// Event types emitted during a run.
const (
	// EventProgress is emitted before every stage, active or not.
	EventProgress EventType = "progress"

	// EventStageResult carries a successful stage's partial output.
	EventStageResult EventType = "stage-result"

	// EventComplete is the final event of every run. Result is nil and
	// Err is set when the run was rejected before any stage executed.
	EventComplete EventType = "complete"
)

// Event is one pipeline progress notification.
type Event struct {
	Type EventType

	// Progress fields (1-based current index).
	Current   int
	Total     int
	StageName string

	// Stage-result fields.
	StageID string
	Partial *visual.Document

	// Complete fields.
	Result *Result
	Err    error
}

// =============================================================================
// Reports
// =============================================================================

// StageReport is one execution-report entry.
type StageReport struct {
	StageID  string        `json:"stageId"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
	Err      string        `json:"error,omitempty"`
}

// Report is the ordered execution report of one run.
type Report struct {
	Stages        []StageReport `json:"stages"`
	TotalDuration time.Duration `json:"totalDuration"`
}

// Succeeded returns the number of successful stage entries.
func (r Report) Succeeded() int {
	n := 0
	for _, s := range r.Stages {
		if s.Success {
			n++
		}
	}
	return n
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and hooks.
	RunID string

	// Document is the final merged visual document.
	Document *visual.Document

	// Report is the per-stage execution report.
	Report Report
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator executes assembled pipelines. It is stateless apart from
// its logger: every run keeps its document, change set and report as
// locals, so one Orchestrator may serve concurrent runs.
type Orchestrator struct {
	Logger *log.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger falls back to
// the default logger.
func NewOrchestrator(logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{Logger: logger}
}

// Run executes the stages in order over the relationship graph and
// returns the final document plus the execution report.
//
// The graph is validated before any stage runs; a malformed graph fails
// the whole run up front. After that, stage failures (errors and panics
// alike) are absorbed: the failing stage is recorded with Success=false
// and the run continues against the document as of the last successful
// merge. Run itself returns an error only for pre-flight rejection.
func (o *Orchestrator) Run(ctx context.Context, g *gen.Graph, stages []StageInstance, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = o.Logger
	}
	opts.SetDefaults()

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID)
	start := time.Now()

	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "pre-flight graph validation")
	}
	observability.Pipeline().OnRunStart(ctx, runID, len(stages))

	individuals := g.Individuals()
	doc := visual.NewDocument()
	var changes visual.ChangeSet

	report := Report{Stages: make([]StageReport, 0, len(stages))}
	for i, si := range stages {
		opts.emit(Event{
			Type:      EventProgress,
			Current:   i + 1,
			Total:     len(stages),
			StageName: si.Name(),
		})
		if !si.Active {
			logger.Debug("stage skipped", "stage", si.Name(), "index", i)
			continue
		}

		observability.Pipeline().OnStageStart(ctx, si.ID, si.Name(), i)
		stageStart := time.Now()
		partial, err := runStage(ctx, si, StageContext{
			Doc:         doc,
			Changes:     changes,
			Graph:       g,
			Individuals: individuals,
			Layout:      opts.Layout,
			Dimensions:  si.Dimensions,
			Params:      si.Params,
			Logger:      logger.With("stage", si.Name()),
		})
		duration := time.Since(stageStart)
		observability.Pipeline().OnStageComplete(ctx, si.ID, si.Name(), duration, err)

		entry := StageReport{
			StageID:  si.ID,
			Name:     si.Name(),
			Duration: duration,
			Success:  err == nil,
		}
		if err != nil {
			// One bad stage never aborts the run; later stages see the
			// document as of the last successful merge.
			entry.Err = err.Error()
			changes = visual.ChangeSet{}
			logger.Warn("stage failed", "stage", si.Name(), "error", err, "duration", duration)
		} else {
			doc = visual.Merge(doc, partial)
			changes = visual.Diff(partial)
			logger.Debug("stage merged", "stage", si.Name(), "duration", duration)
			opts.emit(Event{
				Type:    EventStageResult,
				StageID: si.ID,
				Partial: partial,
			})
		}
		report.Stages = append(report.Stages, entry)
	}

	report.TotalDuration = time.Since(start)
	result := &Result{RunID: runID, Document: doc, Report: report}
	observability.Pipeline().OnRunComplete(ctx, runID, report.TotalDuration, nil)
	logger.Info("pipeline complete",
		"stages", len(report.Stages),
		"succeeded", report.Succeeded(),
		"duration", report.TotalDuration)

	opts.emit(Event{Type: EventComplete, Result: result})
	return result, nil
}

// Stream runs the pipeline in a goroutine and exposes its events as a
// drainable channel, letting a host UI repaint between stages. The
// channel closes after the complete event; a pre-flight rejection
// arrives as a complete event with Err set and a nil Result.
func (o *Orchestrator) Stream(ctx context.Context, g *gen.Graph, stages []StageInstance, opts Options) <-chan Event {
	events := make(chan Event, len(stages)*2+2)
	userEmit := opts.OnEvent
	opts.OnEvent = func(ev Event) {
		if userEmit != nil {
			userEmit(ev)
		}
		events <- ev
	}
	go func() {
		defer close(events)
		if _, err := o.Run(ctx, g, stages, opts); err != nil {
			events <- Event{Type: EventComplete, Err: err}
		}
	}()
	return events
}

// runStage invokes one stage with panic isolation.
func runStage(ctx context.Context, si StageInstance, sc StageContext) (partial *visual.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			partial = nil
			err = errors.New(errors.ErrCodeStageFailed, "stage %s panicked: %v", si.Name(), r)
		}
	}()
	if si.stage == nil {
		return nil, errors.New(errors.ErrCodeInvalidStage, "stage %s has no implementation", si.Name())
	}
	partial, err = si.stage.Run(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", si.Name(), err)
	}
	if partial == nil {
		return nil, errors.New(errors.ErrCodeStageFailed, "stage %s returned no output", si.Name())
	}
	return partial, nil
}
