// Package pipeline provides the core layout pipeline for generation art.
//
// This package implements the staged graph → layout → document pipeline
// that can be used by CLI, API, and worker components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// A pipeline is an ordered list of stage instances assembled up front,
// executed over one relationship graph:
//
//  1. tree-layout: build the family forest and compute node positions
//  2. canvas-fit: scale and translate positions into canvas space
//  3. tree-metrics: record bounds, tree and generation statistics
//
// Each stage receives a read snapshot of the visual document plus the
// change set of the preceding stage, and returns a partial document that
// the orchestrator deep-merges back. A failing stage is recorded in the
// execution report and the run continues with the last good document;
// partial output beats no output.
//
// # Usage
//
// Assemble stages and execute:
//
//	stages, err := pipeline.DefaultStages()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	orch := pipeline.NewOrchestrator(logger)
//	result, err := orch.Run(ctx, g, stages, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Document
//
// Watch progress from a UI:
//
//	for ev := range orch.Stream(ctx, g, stages, opts) {
//	    switch ev.Type {
//	    case pipeline.EventProgress:
//	        repaint(ev.Current, ev.Total, ev.StageName)
//	    case pipeline.EventComplete:
//	        done(ev.Result)
//	    }
//	}
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains per-run configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout holds spacing, sizing and canvas parameters shared by the
	// built-in stages. Zero fields take walker defaults.
	Layout walker.Config `json:"layout,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger `json:"-"`
	OnEvent func(Event) `json:"-"`
}

// SetDefaults fills unset fields. Idempotent.
func (o *Options) SetDefaults() {
	o.Layout.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// emit forwards an event to the configured callback, if any.
func (o *Options) emit(ev Event) {
	if o.OnEvent != nil {
		o.OnEvent(ev)
	}
}
