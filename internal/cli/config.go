package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/walker"
)

// Settings is the TOML settings file surface. Every field is optional;
// zero values fall back to built-in defaults, so a partial file only
// overrides what it names.
//
// Example:
//
//	stages = ["tree-layout", "canvas-fit"]
//
//	[canvas]
//	width = 1920
//	height = 1080
//
//	[spacing]
//	generation = 120
type Settings struct {
	Stages  []string        `toml:"stages"`
	Canvas  CanvasSettings  `toml:"canvas"`
	Spacing SpacingSettings `toml:"spacing"`
	Margin  MarginSettings  `toml:"margin"`
	Nodes   NodeSettings    `toml:"nodes"`
}

// CanvasSettings sets the target canvas dimensions.
type CanvasSettings struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// SpacingSettings sets the layout distances.
type SpacingSettings struct {
	Node       float64 `toml:"node"`
	Generation float64 `toml:"generation"`
	Spouse     float64 `toml:"spouse"`
	Family     float64 `toml:"family"`
	Tree       float64 `toml:"tree"`
}

// MarginSettings sets the canvas margins.
type MarginSettings struct {
	Top float64 `toml:"top"`
	Min float64 `toml:"min"`
	Pct float64 `toml:"pct"`
}

// NodeSettings bounds adaptive node sizing.
type NodeSettings struct {
	MaxSize float64 `toml:"max_size"`
	MinSize float64 `toml:"min_size"`
}

// LoadSettings reads a TOML settings file. An empty path returns zero
// settings (all defaults); a missing file is an error so typos in
// --config surface instead of silently running with defaults.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeFileNotFound, err, "read settings %s", path)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidSettings, err, "parse settings %s", path)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate rejects values the layout engine cannot work with.
func (s Settings) Validate() error {
	if s.Canvas.Width < 0 || s.Canvas.Height < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "canvas dimensions must not be negative")
	}
	for name, v := range map[string]float64{
		"spacing.node":       s.Spacing.Node,
		"spacing.generation": s.Spacing.Generation,
		"spacing.spouse":     s.Spacing.Spouse,
		"spacing.family":     s.Spacing.Family,
		"spacing.tree":       s.Spacing.Tree,
		"margin.top":         s.Margin.Top,
		"margin.min":         s.Margin.Min,
		"nodes.max_size":     s.Nodes.MaxSize,
		"nodes.min_size":     s.Nodes.MinSize,
	} {
		if v < 0 {
			return errors.New(errors.ErrCodeInvalidSettings, "%s must not be negative", name)
		}
	}
	if s.Margin.Pct < 0 || s.Margin.Pct >= 0.5 {
		return errors.New(errors.ErrCodeInvalidSettings, "margin.pct must be in [0, 0.5)")
	}
	return nil
}

// Config converts the settings into a layout configuration. Unset
// fields stay zero and take walker defaults downstream.
func (s Settings) Config() walker.Config {
	return walker.Config{
		CanvasWidth:       s.Canvas.Width,
		CanvasHeight:      s.Canvas.Height,
		NodeSpacing:       s.Spacing.Node,
		GenerationSpacing: s.Spacing.Generation,
		SpouseSpacing:     s.Spacing.Spouse,
		FamilySpacing:     s.Spacing.Family,
		TreeSpacing:       s.Spacing.Tree,
		TopMargin:         s.Margin.Top,
		MaxNodeSize:       s.Nodes.MaxSize,
		MinNodeSize:       s.Nodes.MinSize,
		MinMargin:         s.Margin.Min,
		MarginPct:         s.Margin.Pct,
	}
}
