package schedule

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/emmagras/mesa/core"
)

// hookAgent counts activations and optionally runs a hook on each step.
type hookAgent struct {
	id    core.AgentID
	steps int
	hook  func()
}

func (a *hookAgent) ID() core.AgentID { return a.id }
func (a *hookAgent) Step() error {
	a.steps++
	if a.hook != nil {
		a.hook()
	}
	return nil
}

func populate(t *testing.T, reg *core.Registry, n int) []*hookAgent {
	t.Helper()
	agents := make([]*hookAgent, n)
	for i := range agents {
		agents[i] = &hookAgent{id: reg.NextID()}
		if err := reg.Add(agents[i]); err != nil {
			t.Fatalf("Add() = %v, want nil", err)
		}
	}
	return agents
}

func TestSequentialActivatesEachExactlyOnce(t *testing.T) {
	reg := core.NewRegistry(nil)
	agents := populate(t, reg, 5)
	s := NewSequential(reg, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	for i, a := range agents {
		if a.steps != 1 {
			t.Fatalf("agent %d activated %d times, want 1", i, a.steps)
		}
	}
}

func TestSequentialEmptyRegistry(t *testing.T) {
	reg := core.NewRegistry(nil)
	s := NewSequential(reg, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() on empty registry = %v, want nil", err)
	}
}

func TestRemovalDuringStepSkipsOnlyTheRemoved(t *testing.T) {
	reg := core.NewRegistry(nil)
	agents := populate(t, reg, 5)
	// The second agent removes the fourth mid-step.
	agents[1].hook = func() {
		if err := reg.Remove(agents[3].id); err != nil {
			t.Fatalf("Remove() = %v, want nil", err)
		}
	}
	s := NewSequential(reg, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	for i, a := range agents {
		want := 1
		if i == 3 {
			want = 0
		}
		if a.steps != want {
			t.Fatalf("agent %d activated %d times, want %d", i, a.steps, want)
		}
	}
}

func TestAdditionDuringStepWaitsForNextSnapshot(t *testing.T) {
	reg := core.NewRegistry(nil)
	agents := populate(t, reg, 3)
	var added *hookAgent
	agents[0].hook = func() {
		if added == nil {
			added = &hookAgent{id: reg.NextID()}
			if err := reg.Add(added); err != nil {
				t.Fatalf("Add() = %v, want nil", err)
			}
		}
	}
	s := NewSequential(reg, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	if added.steps != 0 {
		t.Fatalf("agent added mid-step activated %d times, want 0", added.steps)
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	if added.steps != 1 {
		t.Fatalf("agent added last step activated %d times, want 1", added.steps)
	}
}

func TestRandomActivatesEachExactlyOnce(t *testing.T) {
	reg := core.NewRegistry(nil)
	agents := populate(t, reg, 20)
	s := NewRandom(reg, rand.New(rand.NewSource(7)), nil)
	for step := 0; step < 10; step++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step() = %v, want nil", err)
		}
	}
	for i, a := range agents {
		if a.steps != 10 {
			t.Fatalf("agent %d activated %d times over 10 steps, want 10", i, a.steps)
		}
	}
}

func TestRandomOrderDeterministicPerSeed(t *testing.T) {
	order := func(seed int64) []core.AgentID {
		reg := core.NewRegistry(nil)
		var got []core.AgentID
		for i := 0; i < 10; i++ {
			a := &hookAgent{id: reg.NextID()}
			id := a.id
			a.hook = func() { got = append(got, id) }
			if err := reg.Add(a); err != nil {
				t.Fatalf("Add() = %v, want nil", err)
			}
		}
		s := NewRandom(reg, rand.New(rand.NewSource(seed)), nil)
		for step := 0; step < 5; step++ {
			if err := s.Step(); err != nil {
				t.Fatalf("Step() = %v, want nil", err)
			}
		}
		return got
	}

	a, b := order(42), order(42)
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("activation %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

type stepError struct{ msg string }

func (e stepError) Error() string { return e.msg }

func TestErrorPropagationKeepsPriorEffects(t *testing.T) {
	boom := stepError{msg: "boom"}
	reg := core.NewRegistry(nil)
	before := &hookAgent{id: reg.NextID()}
	failing := &failingAgent{id: reg.NextID(), err: boom}
	after := &hookAgent{id: reg.NextID()}
	for _, a := range []core.Agent{before, failing, after} {
		if err := reg.Add(a); err != nil {
			t.Fatalf("Add() = %v, want nil", err)
		}
	}
	s := NewSequential(reg, nil)
	err := s.Step()
	if !errors.Is(err, boom) {
		t.Fatalf("Step() = %v, want wrapped %v", err, boom)
	}
	if before.steps != 1 {
		t.Fatalf("agent before failure activated %d times, want 1", before.steps)
	}
	if after.steps != 0 {
		t.Fatalf("agent after failure activated %d times, want 0", after.steps)
	}
}

type failingAgent struct {
	id  core.AgentID
	err error
}

func (a *failingAgent) ID() core.AgentID { return a.id }
func (a *failingAgent) Step() error      { return a.err }

// swapAgent reads its partner's committed value in Step and commits the
// pending copy in Advance.
type swapAgent struct {
	id      core.AgentID
	partner *swapAgent
	value   int
	pending int
}

func (a *swapAgent) ID() core.AgentID { return a.id }
func (a *swapAgent) Step() error {
	a.pending = a.partner.value
	return nil
}
func (a *swapAgent) Advance() error {
	a.value = a.pending
	return nil
}

func TestSimultaneousIsOrderIndependent(t *testing.T) {
	run := func(flip bool) (int, int) {
		reg := core.NewRegistry(nil)
		a := &swapAgent{id: reg.NextID(), value: 1}
		b := &swapAgent{id: reg.NextID(), value: 2}
		a.partner, b.partner = b, a
		order := []core.Agent{a, b}
		if flip {
			order = []core.Agent{b, a}
		}
		for _, ag := range order {
			if err := reg.Add(ag); err != nil {
				t.Fatalf("Add() = %v, want nil", err)
			}
		}
		s := NewSimultaneous(reg, nil)
		if err := s.Step(); err != nil {
			t.Fatalf("Step() = %v, want nil", err)
		}
		return a.value, b.value
	}

	a1, b1 := run(false)
	a2, b2 := run(true)
	if a1 != 2 || b1 != 1 {
		t.Fatalf("tick result = (%d, %d), want (2, 1)", a1, b1)
	}
	if a1 != a2 || b1 != b2 {
		t.Fatalf("activation order changed the result: (%d,%d) vs (%d,%d)", a1, b1, a2, b2)
	}
}

// stagedAgent records the global order in which its stages run.
type stagedAgent struct {
	id    core.AgentID
	trace *[]string
	name  string
}

func (a *stagedAgent) ID() core.AgentID { return a.id }
func (a *stagedAgent) Step() error {
	*a.trace = append(*a.trace, a.name+":step")
	return nil
}
func (a *stagedAgent) RunStage(stage string) error {
	*a.trace = append(*a.trace, a.name+":"+stage)
	return nil
}

func TestStagedRunsStagesInOrder(t *testing.T) {
	reg := core.NewRegistry(nil)
	var trace []string
	for _, name := range []string{"a", "b"} {
		ag := &stagedAgent{id: reg.NextID(), trace: &trace, name: name}
		if err := reg.Add(ag); err != nil {
			t.Fatalf("Add() = %v, want nil", err)
		}
	}
	s := NewStaged(reg, nil, []string{"grow", StageStep}, false, false, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	want := []string{"a:grow", "b:grow", "a:step", "b:step"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestStagedSkipsAgentsWithoutCapability(t *testing.T) {
	reg := core.NewRegistry(nil)
	plain := &hookAgent{id: reg.NextID()}
	if err := reg.Add(plain); err != nil {
		t.Fatalf("Add() = %v, want nil", err)
	}
	s := NewStaged(reg, nil, []string{"grow"}, false, false, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	if plain.steps != 0 {
		t.Fatalf("plain agent activated %d times during custom stage, want 0", plain.steps)
	}
}

func TestStagedDefaultsToStepStage(t *testing.T) {
	reg := core.NewRegistry(nil)
	agents := populate(t, reg, 3)
	s := NewStaged(reg, nil, nil, false, false, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	for i, a := range agents {
		if a.steps != 1 {
			t.Fatalf("agent %d activated %d times, want 1", i, a.steps)
		}
	}
}

type typedAgent struct {
	hookAgent
	kind string
}

func TestRandomByTypeActivatesEveryAgentOnce(t *testing.T) {
	reg := core.NewRegistry(nil)
	var agents []*typedAgent
	for i := 0; i < 12; i++ {
		kind := "wolf"
		if i%2 == 0 {
			kind = "sheep"
		}
		a := &typedAgent{hookAgent: hookAgent{id: reg.NextID()}, kind: kind}
		if err := reg.Add(a); err != nil {
			t.Fatalf("Add() = %v, want nil", err)
		}
		agents = append(agents, a)
	}
	s := NewRandomByType(reg, rand.New(rand.NewSource(3)), func(a core.Agent) string {
		return a.(*typedAgent).kind
	}, nil)
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v, want nil", err)
	}
	for i, a := range agents {
		if a.steps != 1 {
			t.Fatalf("agent %d (%s) activated %d times, want 1", i, a.kind, a.steps)
		}
	}
}
