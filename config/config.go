// Package config is the declarative configuration surface: enumerated
// options for the model, scheduler, spatial index, and logging, loadable
// from TOML or YAML, plus a builder that wires a complete model from
// them. Reporters and agents are code and are registered by the caller
// after Build.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Model     ModelConfig     `toml:"model" yaml:"model"`
	Scheduler SchedulerConfig `toml:"scheduler" yaml:"scheduler"`
	Grid      *GridConfig     `toml:"grid" yaml:"grid"`
	Space     *SpaceConfig    `toml:"space" yaml:"space"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
}

type ModelConfig struct {
	Seed      int64  `toml:"seed" yaml:"seed"`
	StepLimit int    `toml:"step_limit" yaml:"step_limit"`
	Collect   string `toml:"collect" yaml:"collect"` // "before" or "after"
}

type SchedulerConfig struct {
	Mode                 string   `toml:"mode" yaml:"mode"` // sequential|random|simultaneous|staged
	Stages               []string `toml:"stages" yaml:"stages"`
	ShuffleEachStep      bool     `toml:"shuffle_each_step" yaml:"shuffle_each_step"`
	ShuffleBetweenStages bool     `toml:"shuffle_between_stages" yaml:"shuffle_between_stages"`
}

type GridConfig struct {
	Width     int    `toml:"width" yaml:"width"`
	Height    int    `toml:"height" yaml:"height"`
	Torus     bool   `toml:"torus" yaml:"torus"`
	Occupancy string `toml:"occupancy" yaml:"occupancy"` // single|multiple
}

type SpaceConfig struct {
	MinX   float64 `toml:"min_x" yaml:"min_x"`
	MinY   float64 `toml:"min_y" yaml:"min_y"`
	MaxX   float64 `toml:"max_x" yaml:"max_x"`
	MaxY   float64 `toml:"max_y" yaml:"max_y"`
	TorusX bool    `toml:"torus_x" yaml:"torus_x"`
	TorusY bool    `toml:"torus_y" yaml:"torus_y"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

func defaults() *Config {
	return &Config{
		Model: ModelConfig{
			Seed:    1,
			Collect: "after",
		},
		Scheduler: SchedulerConfig{
			Mode: "sequential",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a configuration file, dispatching on extension (.toml,
// .yaml, .yml), overlaying the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config %s: unsupported extension", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Model.Collect {
	case "", "before", "after":
	default:
		return fmt.Errorf("model.collect %q: want before or after", c.Model.Collect)
	}
	switch c.Scheduler.Mode {
	case "sequential", "random", "simultaneous", "staged":
	default:
		return fmt.Errorf("scheduler.mode %q: want sequential, random, simultaneous, or staged", c.Scheduler.Mode)
	}
	if c.Scheduler.Mode != "staged" && len(c.Scheduler.Stages) > 0 {
		return fmt.Errorf("scheduler.stages set with mode %q: stages require staged mode", c.Scheduler.Mode)
	}
	if c.Grid != nil {
		if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
			return fmt.Errorf("grid dimensions %dx%d: want positive", c.Grid.Width, c.Grid.Height)
		}
		switch c.Grid.Occupancy {
		case "", "single", "multiple":
		default:
			return fmt.Errorf("grid.occupancy %q: want single or multiple", c.Grid.Occupancy)
		}
	}
	if c.Space != nil {
		if c.Space.MaxX <= c.Space.MinX || c.Space.MaxY <= c.Space.MinY {
			return fmt.Errorf("space bounds (%g,%g)-(%g,%g): want max > min on both axes",
				c.Space.MinX, c.Space.MinY, c.Space.MaxX, c.Space.MaxY)
		}
	}
	if c.Grid != nil && c.Space != nil {
		return fmt.Errorf("both grid and space configured: pick one spatial index")
	}
	return nil
}
