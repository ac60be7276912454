package core

// AgentID identifies an agent for the lifetime of a run. IDs are assigned
// by the Registry, strictly increasing, and never reused after removal.
type AgentID int64

// Agent is the minimal capability every simulated unit exposes. The
// scheduler and spatial index only ever see agents through this interface
// (or one of the extension interfaces below), never concrete types.
type Agent interface {
	ID() AgentID
	Step() error
}

// Advancer is the two-phase activation capability. Step computes pending
// state reading only pre-tick state; Advance commits it. The simultaneous
// scheduler calls every Step before any Advance.
type Advancer interface {
	Agent
	Advance() error
}

// StageRunner is the staged activation capability. The staged scheduler
// passes every non-reserved stage name to RunStage; implementations are
// expected to no-op stages they do not handle and return nil.
type StageRunner interface {
	Agent
	RunStage(stage string) error
}
