package core

import "fmt"

// DuplicateIDError reports an Add with an ID that is live, or that has
// already been retired within this run (IDs are never reused).
type DuplicateIDError struct {
	ID AgentID
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("agent id %d already used in this run", e.ID)
}

// UnknownAgentError reports an operation referencing an ID that is not
// registered, or an agent with no recorded position.
type UnknownAgentError struct {
	ID AgentID
}

func (e UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent id %d", e.ID)
}

// CapacityError reports a placement into a single-occupancy cell that
// already holds an occupant.
type CapacityError struct {
	X, Y int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("cell (%d, %d) already occupied", e.X, e.Y)
}

// OutOfBoundsError reports a coordinate outside the extents of a
// non-wrapping space. Coordinates are float64 so the same type serves the
// discrete grid and continuous space.
type OutOfBoundsError struct {
	X, Y float64
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("position (%g, %g) out of bounds", e.X, e.Y)
}

// ReporterError wraps a reporter evaluation failure with the reporter's
// name and the step index at which collection was attempted.
type ReporterError struct {
	Reporter string
	Step     int
	Err      error
}

func (e *ReporterError) Error() string {
	return fmt.Sprintf("reporter %q at step %d: %v", e.Reporter, e.Step, e.Err)
}

func (e *ReporterError) Unwrap() error { return e.Err }
