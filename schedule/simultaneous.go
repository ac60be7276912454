package schedule

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// Simultaneous runs a two-phase tick: every agent's Step (compute pending
// state from pre-tick state) completes before any agent's Advance (commit
// pending state) runs. The tick result is therefore independent of
// activation order. Agents that do not implement core.Advancer are
// stepped in phase one and skipped in phase two.
type Simultaneous struct {
	base
}

func NewSimultaneous(reg *core.Registry, log *zap.Logger) *Simultaneous {
	return &Simultaneous{base: newBase(reg, nil, log)}
}

func (s *Simultaneous) Step() error {
	ids := s.reg.IDs()
	for _, id := range ids {
		if err := s.activate(id); err != nil {
			return err
		}
	}
	for _, id := range ids {
		a, ok := s.reg.Get(id)
		if !ok {
			continue
		}
		adv, ok := a.(core.Advancer)
		if !ok {
			continue
		}
		if err := adv.Advance(); err != nil {
			return fmt.Errorf("agent %d advance: %w", id, err)
		}
	}
	return nil
}
