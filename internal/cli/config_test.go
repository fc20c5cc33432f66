package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genart.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadSettingsEmptyPath(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings(\"\") error = %v", err)
	}
	if len(s.Stages) != 0 || s.Canvas.Width != 0 {
		t.Errorf("LoadSettings(\"\") = %+v, want zero settings", s)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadSettings() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadSettingsParsesTOML(t *testing.T) {
	path := writeSettings(t, `
stages = ["tree-layout", "canvas-fit"]

[canvas]
width = 1920
height = 1080

[spacing]
node = 80
generation = 120

[margin]
pct = 0.1
`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if len(s.Stages) != 2 || s.Stages[0] != "tree-layout" {
		t.Errorf("Stages = %v, want [tree-layout canvas-fit]", s.Stages)
	}
	if s.Canvas.Width != 1920 || s.Canvas.Height != 1080 {
		t.Errorf("Canvas = %+v, want 1920x1080", s.Canvas)
	}
	if s.Spacing.Node != 80 || s.Spacing.Generation != 120 {
		t.Errorf("Spacing = %+v, want node 80 generation 120", s.Spacing)
	}
}

func TestLoadSettingsInvalidTOML(t *testing.T) {
	path := writeSettings(t, "canvas = [broken")
	_, err := LoadSettings(path)
	if !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("LoadSettings() error = %v, want INVALID_SETTINGS", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"zero settings", func(s *Settings) {}, false},
		{"negative canvas", func(s *Settings) { s.Canvas.Width = -1 }, true},
		{"negative spacing", func(s *Settings) { s.Spacing.Tree = -5 }, true},
		{"margin pct too large", func(s *Settings) { s.Margin.Pct = 0.5 }, true},
		{"margin pct valid", func(s *Settings) { s.Margin.Pct = 0.49 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Settings
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettingsConfig(t *testing.T) {
	s := Settings{}
	s.Canvas.Width = 1920
	s.Spacing.Generation = 120
	s.Margin.Top = 60

	cfg := s.Config()
	if cfg.CanvasWidth != 1920 {
		t.Errorf("CanvasWidth = %v, want 1920", cfg.CanvasWidth)
	}
	if cfg.GenerationSpacing != 120 {
		t.Errorf("GenerationSpacing = %v, want 120", cfg.GenerationSpacing)
	}
	if cfg.TopMargin != 60 {
		t.Errorf("TopMargin = %v, want 60", cfg.TopMargin)
	}
	// Unset fields stay zero so walker defaults apply downstream.
	if cfg.NodeSpacing != 0 {
		t.Errorf("NodeSpacing = %v, want 0", cfg.NodeSpacing)
	}
}
