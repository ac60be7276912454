package schedule

import (
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// RandomByType activates agents grouped by a caller-supplied type key:
// each step, the snapshot is partitioned by key, keys are visited in
// sorted order, and each group is activated in a freshly shuffled order.
// Every live agent is activated exactly once per step.
type RandomByType struct {
	base
	typeKey func(core.Agent) string
}

func NewRandomByType(reg *core.Registry, rng *rand.Rand, typeKey func(core.Agent) string, log *zap.Logger) *RandomByType {
	return &RandomByType{base: newBase(reg, rng, log), typeKey: typeKey}
}

func (s *RandomByType) Step() error {
	groups := make(map[string][]core.AgentID)
	var keys []string
	for _, id := range s.reg.IDs() {
		a, ok := s.reg.Get(id)
		if !ok {
			continue
		}
		k := s.typeKey(a)
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], id)
	}
	// Sorted key order keeps group sequencing deterministic; the shuffle
	// within a group is the only randomness.
	sort.Strings(keys)

	for _, k := range keys {
		ids := groups[k]
		s.rng.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
		for _, id := range ids {
			if err := s.activate(id); err != nil {
				return err
			}
		}
	}
	return nil
}
