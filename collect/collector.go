// Package collect accumulates per-step observations into append-only
// in-memory tables. Rows are stamped with the step index at collection
// time and never mutated afterward; a reporter failure aborts the whole
// collection call rather than leaving a silent gap in the series.
package collect

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// ModelReporter produces one model-level observation. Implementations are
// closures over the model state they observe.
type ModelReporter func() (any, error)

// AgentReporter produces one observation for a single agent.
type AgentReporter func(a core.Agent) (any, error)

// ModelRow is one collection call's model-level observations.
type ModelRow struct {
	Step   int
	Values map[string]any
}

// AgentRow is one agent's observations at one collection call.
type AgentRow struct {
	Step    int
	AgentID core.AgentID
	Values  map[string]any
}

// TableRow is one caller-appended row in a declared table.
type TableRow struct {
	Step   int
	Values map[string]any
}

type table struct {
	fields []string
	rows   []TableRow
}

// Collector holds named reporters and their accumulated series.
type Collector struct {
	modelReporters map[string]ModelReporter
	modelNames     []string // registration order
	agentReporters map[string]AgentReporter
	agentNames     []string
	tables         map[string]*table

	modelRows []ModelRow
	agentRows []AgentRow

	log *zap.Logger
}

func New(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		modelReporters: make(map[string]ModelReporter),
		agentReporters: make(map[string]AgentReporter),
		tables:         make(map[string]*table),
		log:            log,
	}
}

// AddModelReporter registers a model-level reporter under name.
func (c *Collector) AddModelReporter(name string, fn ModelReporter) error {
	if _, ok := c.modelReporters[name]; ok {
		return fmt.Errorf("model reporter %q already registered", name)
	}
	c.modelReporters[name] = fn
	c.modelNames = append(c.modelNames, name)
	return nil
}

// AddAgentReporter registers an agent-level reporter under name.
func (c *Collector) AddAgentReporter(name string, fn AgentReporter) error {
	if _, ok := c.agentReporters[name]; ok {
		return fmt.Errorf("agent reporter %q already registered", name)
	}
	c.agentReporters[name] = fn
	c.agentNames = append(c.agentNames, name)
	return nil
}

// DeclareTable registers a table with a fixed field list.
func (c *Collector) DeclareTable(name string, fields []string) error {
	if _, ok := c.tables[name]; ok {
		return fmt.Errorf("table %q already declared", name)
	}
	if len(fields) == 0 {
		return fmt.Errorf("table %q declared with no fields", name)
	}
	c.tables[name] = &table{fields: append([]string(nil), fields...)}
	return nil
}

// AddTableRow appends a row to a declared table. Every declared field
// must be present and no extra fields are allowed.
func (c *Collector) AddTableRow(name string, step int, values map[string]any) error {
	tb, ok := c.tables[name]
	if !ok {
		return fmt.Errorf("table %q not declared", name)
	}
	if len(values) != len(tb.fields) {
		return fmt.Errorf("table %q row has %d fields, want %d", name, len(values), len(tb.fields))
	}
	row := TableRow{Step: step, Values: make(map[string]any, len(tb.fields))}
	for _, f := range tb.fields {
		v, ok := values[f]
		if !ok {
			return fmt.Errorf("table %q row missing field %q", name, f)
		}
		row.Values[f] = v
	}
	tb.rows = append(tb.rows, row)
	return nil
}

// Collect evaluates every registered reporter exactly once and appends
// the results stamped with step. The model table gains one row; the agent
// table gains one row per agent passed in. Any reporter failure is
// wrapped in a core.ReporterError and propagated; nothing is appended for
// a failing category.
func (c *Collector) Collect(step int, agents []core.Agent) error {
	if len(c.modelReporters) > 0 {
		row := ModelRow{Step: step, Values: make(map[string]any, len(c.modelReporters))}
		for _, name := range c.modelNames {
			v, err := c.modelReporters[name]()
			if err != nil {
				return &core.ReporterError{Reporter: name, Step: step, Err: err}
			}
			row.Values[name] = v
		}
		c.modelRows = append(c.modelRows, row)
	}

	if len(c.agentReporters) > 0 {
		rows := make([]AgentRow, 0, len(agents))
		for _, a := range agents {
			row := AgentRow{Step: step, AgentID: a.ID(), Values: make(map[string]any, len(c.agentReporters))}
			for _, name := range c.agentNames {
				v, err := c.agentReporters[name](a)
				if err != nil {
					return &core.ReporterError{Reporter: name, Step: step, Err: err}
				}
				row.Values[name] = v
			}
			rows = append(rows, row)
		}
		c.agentRows = append(c.agentRows, rows...)
	}

	c.log.Debug("collected", zap.Int("step", step), zap.Int("agents", len(agents)))
	return nil
}

// ModelRows returns the accumulated model-level series in append order.
// The backing array is shared; callers must treat rows as read-only.
func (c *Collector) ModelRows() []ModelRow {
	return c.modelRows
}

// AgentRows returns the accumulated agent-level series in append order.
func (c *Collector) AgentRows() []AgentRow {
	return c.agentRows
}

// TableRows returns a declared table's rows in append order.
func (c *Collector) TableRows(name string) ([]TableRow, error) {
	tb, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not declared", name)
	}
	return tb.rows, nil
}

// TableFields returns a declared table's field list.
func (c *Collector) TableFields(name string) ([]string, error) {
	tb, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q not declared", name)
	}
	return append([]string(nil), tb.fields...), nil
}

// Reset drops all accumulated rows. Reporter and table registrations
// survive, so a reset model collects the same series shape again.
func (c *Collector) Reset() {
	c.modelRows = nil
	c.agentRows = nil
	for _, tb := range c.tables {
		tb.rows = nil
	}
}
