// Package metrics exposes simulation health as Prometheus collectors.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SimCollector bundles the Prometheus metrics a running model maintains.
type SimCollector struct {
	StepsTotal   prometheus.Counter
	StepDuration prometheus.Histogram
	Agents       prometheus.Gauge
	ModelRows    prometheus.Counter
	AgentRows    prometheus.Counter
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Re-registration reuses the already-registered collector.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_steps_total",
		Help: "Total number of completed simulation steps.",
	}))
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Wall-clock duration of one simulation step.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}))
	if err != nil {
		return nil, err
	}

	agents, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_agents",
		Help: "Number of live agents in the registry.",
	}))
	if err != nil {
		return nil, err
	}

	modelRows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_model_rows_total",
		Help: "Total model-reporter rows appended by the data collector.",
	}))
	if err != nil {
		return nil, err
	}

	agentRows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_agent_rows_total",
		Help: "Total agent-reporter rows appended by the data collector.",
	}))
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		StepsTotal:   steps,
		StepDuration: duration,
		Agents:       agents,
		ModelRows:    modelRows,
		AgentRows:    agentRows,
	}, nil
}

// ObserveStep records one completed step.
func (c *SimCollector) ObserveStep(d time.Duration, agents int) {
	c.StepsTotal.Inc()
	c.StepDuration.Observe(d.Seconds())
	c.Agents.Set(float64(agents))
}

// ObserveRows records rows appended by one collection call.
func (c *SimCollector) ObserveRows(model, agent int) {
	c.ModelRows.Add(float64(model))
	c.AgentRows.Add(float64(agent))
}

func registerCounter(reg prometheus.Registerer, col prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter), nil
		}
		return nil, err
	}
	return col, nil
}

func registerGauge(reg prometheus.Registerer, col prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Gauge), nil
		}
		return nil, err
	}
	return col, nil
}

func registerHistogram(reg prometheus.Registerer, col prometheus.Histogram) (prometheus.Histogram, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Histogram), nil
		}
		return nil, err
	}
	return col, nil
}
