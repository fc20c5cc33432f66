package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	gencache "github.com/kevinmaes/generation-art-sub002/pkg/cache"
	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/observability"
	"github.com/kevinmaes/generation-art-sub002/pkg/pipeline"
	"github.com/kevinmaes/generation-art-sub002/pkg/visual"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// layoutCommand creates the layout command for computing visual documents.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		configPath string
		noCache    bool
		noTUI      bool
		width      float64
		height     float64
	)

	cmd := &cobra.Command{
		Use:   "layout [family.json]",
		Short: "Compute a visual layout document from a relationship graph",
		Long: `Compute a visual layout document from a relationship graph.

The layout command takes a family.json file (individuals plus child and
spouse links), runs the layout pipeline (tree-layout, canvas-fit,
tree-metrics by default), and writes the resulting visual document as
JSON. Downstream art stages read that document.

A TOML settings file (--config) overrides canvas dimensions, spacings
and the stage list. Parsed graphs and computed documents are cached
locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings(configPath)
			if err != nil {
				return err
			}
			cfg := settings.Config()
			if width > 0 {
				cfg.CanvasWidth = width
			}
			if height > 0 {
				cfg.CanvasHeight = height
			}
			return c.runLayout(cmd.Context(), args[0], output, cfg, settings.Stages, noCache, noTUI)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML settings file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "log progress instead of rendering the progress UI")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width (overrides settings)")
	cmd.Flags().Float64Var(&height, "height", 0, "canvas height (overrides settings)")

	return cmd
}

// runLayout loads the graph, runs the pipeline (cache permitting), and
// writes the document.
func (c *CLI) runLayout(ctx context.Context, input, output string, cfg walker.Config, stageNames []string, noCache, noTUI bool) error {
	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := errors.ValidateOutputPath(outputPath); err != nil {
		return err
	}

	stages, err := pipeline.ParseStages(stageNames)
	if err != nil {
		return err
	}

	store, err := newCache(noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()
	keyer := gencache.NewDefaultKeyer()

	g, err := c.loadGraph(ctx, store, keyer, input)
	if err != nil {
		return err
	}

	doc, cached, err := c.layoutWithCache(ctx, store, keyer, g, input, stages, cfg, noTUI)
	if err != nil {
		return err
	}

	if err := visual.WriteFile(doc, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(g.Count(), len(doc.Individuals), cached)
	printNextStep("Serve layouts over HTTP", "genart serve")
	return nil
}

// loadGraph reads the input file, serving the parsed graph from the
// cache when the file content is unchanged. Graphs are cached in
// normalized form (links resolved and deduplicated), so a hit skips
// link resolution and skipped-link warnings.
func (c *CLI) loadGraph(ctx context.Context, store gencache.Cache, keyer gencache.Keyer, input string) (*gen.Graph, error) {
	logger := loggerFromContext(ctx)

	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", input, err)
	}

	key := keyer.GraphKey(input, gencache.Hash(raw))
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		if g, err := gen.Read(bytes.NewReader(data), nil); err == nil {
			observability.Cache().OnCacheHit(ctx, "graph")
			logger.Debug("graph cache hit", "source", input)
			return g, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "graph")

	g, err := gen.Read(bytes.NewReader(raw), logger)
	if err != nil {
		return nil, fmt.Errorf("load graph %s: %w", input, err)
	}
	if data, err := gen.Marshal(g); err == nil {
		if err := store.Set(ctx, key, data, gencache.TTLGraph); err == nil {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		}
	}
	return g, nil
}

// layoutWithCache returns the cached document when the graph and every
// layout input match a previous run, otherwise runs the pipeline and
// stores the result.
func (c *CLI) layoutWithCache(ctx context.Context, store gencache.Cache, keyer gencache.Keyer, g *gen.Graph, source string, stages []pipeline.StageInstance, cfg walker.Config, noTUI bool) (*visual.Document, bool, error) {
	logger := loggerFromContext(ctx)

	key, ok := documentKey(keyer, g, stages, cfg)
	if ok {
		if data, hit, err := store.Get(ctx, key); err == nil && hit {
			if doc, err := visual.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				logger.Debug("document cache hit", "source", source)
				return doc, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "document")
	}

	result, err := c.runPipeline(ctx, g, stages, cfg, noTUI)
	if err != nil {
		return nil, false, err
	}
	reportFailures(logger, result.Report)

	if ok {
		if data, err := visual.Marshal(result.Document); err == nil {
			if err := store.Set(ctx, key, data, gencache.TTLDocument); err == nil {
				observability.Cache().OnCacheSet(ctx, "document", len(data))
			}
		}
	}
	return result.Document, false, nil
}

// runPipeline executes the orchestrator, with the bubbletea progress UI
// unless disabled.
func (c *CLI) runPipeline(ctx context.Context, g *gen.Graph, stages []pipeline.StageInstance, cfg walker.Config, noTUI bool) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	orch := pipeline.NewOrchestrator(logger)
	opts := pipeline.Options{Layout: cfg, Logger: logger}

	if noTUI {
		prog := newProgress(logger)
		sp := newSpinnerWithContext(ctx, "Computing layout")
		sp.Start()
		opts.OnEvent = func(ev pipeline.Event) {
			if ev.Type == pipeline.EventProgress {
				logger.Debug("stage", "current", ev.Current, "total", ev.Total, "name", ev.StageName)
			}
		}
		result, err := orch.Run(ctx, g, stages, opts)
		sp.Stop()
		if err != nil {
			return nil, err
		}
		prog.done(fmt.Sprintf("Positioned %d individuals", len(result.Document.Individuals)))
		return result, nil
	}

	return runPipelineTUI(ctx, orch, g, stages, opts)
}

// documentKey derives the cache key for a pipeline run. Reported not-ok
// when the graph cannot be serialized (the run still works, uncached).
func documentKey(keyer gencache.Keyer, g *gen.Graph, stages []pipeline.StageInstance, cfg walker.Config) (string, bool) {
	data, err := gen.Marshal(g)
	if err != nil {
		return "", false
	}
	cfg.SetDefaults()
	names := make([]string, len(stages))
	for i, si := range stages {
		names[i] = si.Name()
	}
	return keyer.DocumentKey(gencache.Hash(data), gencache.DocumentKeyOpts{
		CanvasWidth:       cfg.CanvasWidth,
		CanvasHeight:      cfg.CanvasHeight,
		NodeSpacing:       cfg.NodeSpacing,
		GenerationSpacing: cfg.GenerationSpacing,
		SpouseSpacing:     cfg.SpouseSpacing,
		FamilySpacing:     cfg.FamilySpacing,
		TreeSpacing:       cfg.TreeSpacing,
		Stages:            names,
	}), true
}

// reportFailures surfaces failed stages on the console; the run itself
// already continued past them.
func reportFailures(logger *log.Logger, report pipeline.Report) {
	for _, s := range report.Stages {
		if !s.Success {
			printWarning("Stage %s failed: %s", s.Name, s.Err)
			logger.Warn("stage failed", "stage", s.Name, "error", s.Err)
		}
	}
}
