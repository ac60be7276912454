// Package sim orchestrates a simulation run: one Model owns the agent
// registry, a scheduler, an optional spatial index, an optional data
// collector, and the single seeded random stream they all share.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/collect"
	"github.com/emmagras/mesa/core"
	"github.com/emmagras/mesa/event"
	"github.com/emmagras/mesa/metrics"
	"github.com/emmagras/mesa/schedule"
)

// Space is the part of a spatial index the model drives directly: removal
// on agent death and bulk clear on reset. Both spatial indexes satisfy it.
type Space interface {
	Remove(id core.AgentID) error
	Clear()
}

// Options configures a Model. The collection point (before or after the
// scheduler step) is fixed here for the whole run; the default collects
// after, so a row stamped with step s reflects the state produced by
// tick s.
type Options struct {
	Seed          int64
	StepLimit     int               // 0 = no limit
	CollectBefore bool              // collect pre-tick instead of post-tick
	Until         func(*Model) bool // termination predicate, checked once per tick
	Logger        *zap.Logger
	Metrics       *metrics.SimCollector
}

// Model is the orchestration root. One tick = dispatch last tick's
// events, optional pre-collect, scheduler step, optional post-collect,
// counter increment, termination check.
type Model struct {
	registry  *core.Registry
	scheduler schedule.Scheduler
	space     Space
	collector *collect.Collector
	bus       *event.Bus

	rng  *rand.Rand
	seed int64

	steps   int
	running bool

	stepLimit     int
	collectBefore bool
	until         func(*Model) bool

	log     *zap.Logger
	metrics *metrics.SimCollector
}

func New(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		registry:      core.NewRegistry(log),
		bus:           event.NewBus(),
		rng:           rand.New(rand.NewSource(opts.Seed)),
		seed:          opts.Seed,
		running:       true,
		stepLimit:     opts.StepLimit,
		collectBefore: opts.CollectBefore,
		until:         opts.Until,
		log:           log,
		metrics:       opts.Metrics,
	}
	return m
}

// SetScheduler installs the activation policy. Required before Step.
func (m *Model) SetScheduler(s schedule.Scheduler) { m.scheduler = s }

// SetSpace installs the spatial index the model should keep consistent
// with the registry on agent removal and reset.
func (m *Model) SetSpace(s Space) { m.space = s }

// SetCollector installs the data collector invoked once per tick.
func (m *Model) SetCollector(c *collect.Collector) { m.collector = c }

func (m *Model) Registry() *core.Registry { return m.registry }
func (m *Model) Collector() *collect.Collector { return m.collector }
func (m *Model) Bus() *event.Bus { return m.bus }
func (m *Model) Steps() int { return m.steps }
func (m *Model) Running() bool { return m.running }
func (m *Model) Seed() int64 { return m.seed }

// RNG returns the model's single seeded random stream. Components must
// draw from this stream and never construct their own.
func (m *Model) RNG() *rand.Rand { return m.rng }

// Stop clears the running flag; the current tick is unaffected.
func (m *Model) Stop() { m.running = false }

// AddAgent registers an agent and announces it on the bus.
func (m *Model) AddAgent(a core.Agent) error {
	if err := m.registry.Add(a); err != nil {
		return err
	}
	event.Emit(m.bus, event.AgentAdded{ID: a.ID(), Step: m.steps})
	return nil
}

// RemoveAgent unregisters an agent and clears its spatial position, if
// any. The removal takes effect immediately; an in-progress step skips
// the agent from that point on.
func (m *Model) RemoveAgent(id core.AgentID) error {
	if err := m.registry.Remove(id); err != nil {
		return err
	}
	if m.space != nil {
		if err := m.space.Remove(id); err != nil {
			var unknown core.UnknownAgentError
			if !errors.As(err, &unknown) {
				return err
			}
			// Unplaced agents are fine.
		}
	}
	event.Emit(m.bus, event.AgentRemoved{ID: id, Step: m.steps})
	return nil
}

// Step advances the simulation by one tick. A failing tick propagates the
// error, leaves all effects applied so far intact, and does not advance
// the step counter.
func (m *Model) Step() error {
	if m.scheduler == nil {
		return errors.New("model: no scheduler configured")
	}
	start := time.Now()

	m.bus.SwapBuffers()
	m.bus.DispatchAll()

	if m.collector != nil && m.collectBefore {
		if err := m.collect(); err != nil {
			return err
		}
	}
	if err := m.scheduler.Step(); err != nil {
		return fmt.Errorf("step %d: %w", m.steps, err)
	}
	if m.collector != nil && !m.collectBefore {
		if err := m.collect(); err != nil {
			return err
		}
	}

	m.steps++
	event.Emit(m.bus, event.StepCompleted{Step: m.steps, Agents: m.registry.Len()})
	if m.metrics != nil {
		m.metrics.ObserveStep(time.Since(start), m.registry.Len())
	}
	m.log.Debug("step completed", zap.Int("step", m.steps), zap.Int("agents", m.registry.Len()))

	if m.stepLimit > 0 && m.steps >= m.stepLimit {
		m.running = false
	}
	if m.until != nil && m.until(m) {
		m.running = false
	}
	return nil
}

// Collect runs one collection pass outside the tick cycle, stamped with
// the current step. Useful for recording initial state before the first
// Step.
func (m *Model) Collect() error {
	if m.collector == nil {
		return errors.New("model: no collector configured")
	}
	return m.collect()
}

func (m *Model) collect() error {
	modelBefore := len(m.collector.ModelRows())
	agentBefore := len(m.collector.AgentRows())
	if err := m.collector.Collect(m.steps, m.registry.Agents()); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.ObserveRows(
			len(m.collector.ModelRows())-modelBefore,
			len(m.collector.AgentRows())-agentBefore,
		)
	}
	return nil
}

// Run steps the model until the running flag clears, the context is
// canceled, or a tick fails.
func (m *Model) Run(ctx context.Context) error {
	for m.running {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset reinitializes the random stream from the original seed and clears
// the registry, the spatial index, the collected tables, and the step
// counter. Reporter registrations and bus subscriptions survive, so the
// same experiment can be rerun unchanged.
func (m *Model) Reset() {
	m.rng.Seed(m.seed)
	m.registry.Clear()
	if m.space != nil {
		m.space.Clear()
	}
	if m.collector != nil {
		m.collector.Reset()
	}
	m.bus.Clear()
	m.steps = 0
	m.running = true
	m.log.Debug("model reset", zap.Int64("seed", m.seed))
}
