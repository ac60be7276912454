// Package schedule implements activation policies over the agent
// registry. Every policy takes a snapshot of live agent IDs at the start
// of Step and re-checks membership before each activation: agents added
// during the step wait for the next snapshot, agents removed during the
// step are skipped, and a removal never perturbs the order of the agents
// still pending in the current snapshot.
package schedule

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// Scheduler executes one activation pass over the registry.
type Scheduler interface {
	Step() error
}

type base struct {
	reg *core.Registry
	rng *rand.Rand
	log *zap.Logger
}

func newBase(reg *core.Registry, rng *rand.Rand, log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{reg: reg, rng: rng, log: log}
}

// activate runs one agent's Step, skipping agents removed since the
// snapshot was taken.
func (b base) activate(id core.AgentID) error {
	a, ok := b.reg.Get(id)
	if !ok {
		return nil
	}
	if err := a.Step(); err != nil {
		return fmt.Errorf("agent %d: %w", id, err)
	}
	return nil
}

// Sequential activates agents in registry insertion order.
type Sequential struct {
	base
}

func NewSequential(reg *core.Registry, log *zap.Logger) *Sequential {
	return &Sequential{base: newBase(reg, nil, log)}
}

func (s *Sequential) Step() error {
	for _, id := range s.reg.IDs() {
		if err := s.activate(id); err != nil {
			return err
		}
	}
	return nil
}

// Random activates agents in a freshly shuffled order each step, drawn
// from the model's seeded random stream.
type Random struct {
	base
}

func NewRandom(reg *core.Registry, rng *rand.Rand, log *zap.Logger) *Random {
	return &Random{base: newBase(reg, rng, log)}
}

func (s *Random) Step() error {
	ids := s.reg.IDs()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	for _, id := range ids {
		if err := s.activate(id); err != nil {
			return err
		}
	}
	return nil
}
