package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/emmagras/mesa/collect"
	"github.com/emmagras/mesa/schedule"
	"github.com/emmagras/mesa/sim"
	"github.com/emmagras/mesa/space"
)

// Build wires a complete model from a validated configuration: scheduler
// by mode, spatial index if configured, and an empty data collector ready
// for reporter registration. A nil logger builds one from the logging
// section.
func Build(cfg *Config, log *zap.Logger) (*sim.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		var err error
		log, err = BuildLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
	}

	m := sim.New(sim.Options{
		Seed:          cfg.Model.Seed,
		StepLimit:     cfg.Model.StepLimit,
		CollectBefore: cfg.Model.Collect == "before",
		Logger:        log,
	})

	switch cfg.Scheduler.Mode {
	case "sequential":
		m.SetScheduler(schedule.NewSequential(m.Registry(), log))
	case "random":
		m.SetScheduler(schedule.NewRandom(m.Registry(), m.RNG(), log))
	case "simultaneous":
		m.SetScheduler(schedule.NewSimultaneous(m.Registry(), log))
	case "staged":
		m.SetScheduler(schedule.NewStaged(
			m.Registry(), m.RNG(),
			cfg.Scheduler.Stages,
			cfg.Scheduler.ShuffleEachStep,
			cfg.Scheduler.ShuffleBetweenStages,
			log,
		))
	}

	if cfg.Grid != nil {
		occ := space.Multi
		if cfg.Grid.Occupancy == "single" {
			occ = space.Single
		}
		m.SetSpace(space.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.Torus, occ, log))
	}
	if cfg.Space != nil {
		cs, err := space.NewContinuousSpace(
			cfg.Space.MinX, cfg.Space.MinY,
			cfg.Space.MaxX, cfg.Space.MaxY,
			cfg.Space.TorusX, cfg.Space.TorusY,
			log,
		)
		if err != nil {
			return nil, err
		}
		m.SetSpace(cs)
	}

	m.SetCollector(collect.New(log))
	return m, nil
}

// BuildLogger constructs a zap logger from the logging section: JSON
// production encoding or a compact colored console encoding.
func BuildLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
