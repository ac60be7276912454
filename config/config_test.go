package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "wolves.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Model.Seed != 42 || cfg.Model.StepLimit != 100 {
		t.Fatalf("Model = %+v, want seed 42 step_limit 100", cfg.Model)
	}
	if cfg.Scheduler.Mode != "random" {
		t.Fatalf("Scheduler.Mode = %q, want random", cfg.Scheduler.Mode)
	}
	if cfg.Grid == nil || cfg.Grid.Width != 20 || !cfg.Grid.Torus || cfg.Grid.Occupancy != "single" {
		t.Fatalf("Grid = %+v, want 20x20 torus single", cfg.Grid)
	}
}

func TestLoadYAMLMatchesTOML(t *testing.T) {
	fromTOML, err := Load(filepath.Join("testdata", "wolves.toml"))
	if err != nil {
		t.Fatalf("Load(toml) = %v, want nil", err)
	}
	fromYAML, err := Load(filepath.Join("testdata", "wolves.yaml"))
	if err != nil {
		t.Fatalf("Load(yaml) = %v, want nil", err)
	}
	if !reflect.DeepEqual(fromTOML, fromYAML) {
		t.Fatalf("TOML and YAML configs differ:\n%+v\n%+v", fromTOML, fromYAML)
	}
}

func TestLoadStagedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "staged.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	want := []string{"sense", "step", "advance"}
	if !reflect.DeepEqual(cfg.Scheduler.Stages, want) {
		t.Fatalf("Stages = %v, want %v", cfg.Scheduler.Stages, want)
	}
	if !cfg.Scheduler.ShuffleEachStep {
		t.Fatalf("ShuffleEachStep = false, want true")
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "staged.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Model.Collect != "after" {
		t.Fatalf("Model.Collect default = %q, want after", cfg.Model.Collect)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("Logging defaults = %+v, want info/console", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Scheduler.Mode = "chaotic" }},
		{"stages without staged", func(c *Config) { c.Scheduler.Stages = []string{"x"} }},
		{"bad collect", func(c *Config) { c.Model.Collect = "sometimes" }},
		{"zero grid", func(c *Config) { c.Grid = &GridConfig{Width: 0, Height: 5} }},
		{"bad occupancy", func(c *Config) { c.Grid = &GridConfig{Width: 5, Height: 5, Occupancy: "triple"} }},
		{"inverted bounds", func(c *Config) { c.Space = &SpaceConfig{MinX: 1, MaxX: 0, MinY: 0, MaxY: 1} }},
		{"grid and space", func(c *Config) {
			c.Grid = &GridConfig{Width: 5, Height: 5}
			c.Space = &SpaceConfig{MaxX: 1, MaxY: 1}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			tc.mut(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
		})
	}
}

func TestBuildWiresModel(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "wolves.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	m, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	if m.Seed() != 42 {
		t.Fatalf("Seed() = %d, want 42", m.Seed())
	}
	if m.Collector() == nil {
		t.Fatalf("Build() left collector nil")
	}
	// A built model must be steppable as-is.
	if err := m.Step(); err != nil {
		t.Fatalf("Step() on built model = %v, want nil", err)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load("model.ini"); err == nil {
		t.Fatalf("Load(.ini) = nil, want error")
	}
}
