package schedule

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// Reserved stage names dispatched to the Step/Advance capabilities rather
// than StageRunner.
const (
	StageStep    = "step"
	StageAdvance = "advance"
)

// Staged activates agents stage by stage: for each named stage, in order,
// every agent in the snapshot that exposes the stage's capability is
// activated before the next stage begins. The reserved stages "step" and
// "advance" bind to core.Agent.Step and core.Advancer.Advance; any other
// stage is delivered to core.StageRunner implementers.
type Staged struct {
	base
	stages               []string
	shuffleEachStep      bool
	shuffleBetweenStages bool
}

// NewStaged builds a staged scheduler. rng may be nil when both shuffle
// flags are false.
func NewStaged(reg *core.Registry, rng *rand.Rand, stages []string, shuffleEachStep, shuffleBetweenStages bool, log *zap.Logger) *Staged {
	s := &Staged{
		base:                 newBase(reg, rng, log),
		stages:               append([]string(nil), stages...),
		shuffleEachStep:      shuffleEachStep,
		shuffleBetweenStages: shuffleBetweenStages,
	}
	if len(s.stages) == 0 {
		s.stages = []string{StageStep}
	}
	return s
}

// Stages returns the configured stage list in order.
func (s *Staged) Stages() []string {
	return append([]string(nil), s.stages...)
}

func (s *Staged) Step() error {
	ids := s.reg.IDs()
	if s.shuffleEachStep {
		s.shuffle(ids)
	}
	for _, stage := range s.stages {
		if s.shuffleBetweenStages {
			s.shuffle(ids)
		}
		for _, id := range ids {
			if err := s.runStage(id, stage); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Staged) shuffle(ids []core.AgentID) {
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func (s *Staged) runStage(id core.AgentID, stage string) error {
	a, ok := s.reg.Get(id)
	if !ok {
		return nil
	}
	switch stage {
	case StageStep:
		if err := a.Step(); err != nil {
			return fmt.Errorf("agent %d stage %q: %w", id, stage, err)
		}
	case StageAdvance:
		adv, ok := a.(core.Advancer)
		if !ok {
			return nil
		}
		if err := adv.Advance(); err != nil {
			return fmt.Errorf("agent %d stage %q: %w", id, stage, err)
		}
	default:
		sr, ok := a.(core.StageRunner)
		if !ok {
			return nil
		}
		if err := sr.RunStage(stage); err != nil {
			return fmt.Errorf("agent %d stage %q: %w", id, stage, err)
		}
	}
	return nil
}
