package scripting

import (
	"fmt"
	"math/rand"

	lua "github.com/yuin/gopher-lua"

	"github.com/emmagras/mesa/core"
	"github.com/emmagras/mesa/space"
)

// Agent binds a loaded Lua behavior to an agent identity on a grid. It
// implements core.Agent and core.Advancer; Advance is a no-op when the
// behavior declares no advance function.
type Agent struct {
	id       core.AgentID
	engine   *Engine
	behavior string
	grid     *space.Grid
	rng      *rand.Rand
	step     func() int
}

// NewAgent binds behavior to an agent. grid may be nil for non-spatial
// behaviors; rng must be the model's stream; stepIndex reports the
// current step to scripts and may be nil.
func NewAgent(e *Engine, behavior string, id core.AgentID, grid *space.Grid, rng *rand.Rand, stepIndex func() int) (*Agent, error) {
	if !e.HasBehavior(behavior) {
		return nil, fmt.Errorf("behavior %q not loaded", behavior)
	}
	return &Agent{
		id:       id,
		engine:   e,
		behavior: behavior,
		grid:     grid,
		rng:      rng,
		step:     stepIndex,
	}, nil
}

func (a *Agent) ID() core.AgentID { return a.id }

// Step invokes the behavior's step function. Script errors and failed
// host calls propagate as activation errors.
func (a *Agent) Step() error {
	return a.engine.call(a.behavior, "step", a.api())
}

// Advance invokes the behavior's advance function, if declared.
func (a *Agent) Advance() error {
	if _, ok := a.engine.fn(a.behavior, "advance").(*lua.LFunction); !ok {
		return nil
	}
	return a.engine.call(a.behavior, "advance", a.api())
}

// api builds the host table handed to the behavior for this activation.
func (a *Agent) api() *lua.LTable {
	vm := a.engine.vm
	tbl := vm.NewTable()

	tbl.RawSetString("id", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(a.id))
		return 1
	}))

	tbl.RawSetString("step_index", vm.NewFunction(func(L *lua.LState) int {
		if a.step == nil {
			L.Push(lua.LNumber(0))
		} else {
			L.Push(lua.LNumber(a.step()))
		}
		return 1
	}))

	tbl.RawSetString("random", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(a.rng.Float64()))
		return 1
	}))

	tbl.RawSetString("position", vm.NewFunction(func(L *lua.LState) int {
		if a.grid == nil {
			L.RaiseError("agent %d has no grid", a.id)
			return 0
		}
		pos, ok := a.grid.PositionOf(a.id)
		if !ok {
			L.RaiseError("agent %d not placed", a.id)
			return 0
		}
		L.Push(lua.LNumber(pos.X))
		L.Push(lua.LNumber(pos.Y))
		return 2
	}))

	tbl.RawSetString("move", vm.NewFunction(func(L *lua.LState) int {
		if a.grid == nil {
			L.RaiseError("agent %d has no grid", a.id)
			return 0
		}
		x := L.CheckInt(1)
		y := L.CheckInt(2)
		if err := a.grid.Move(a.id, space.Coord{X: x, Y: y}); err != nil {
			L.RaiseError("move agent %d: %v", a.id, err)
			return 0
		}
		return 0
	}))

	tbl.RawSetString("neighbor_count", vm.NewFunction(func(L *lua.LState) int {
		if a.grid == nil {
			L.RaiseError("agent %d has no grid", a.id)
			return 0
		}
		radius := L.CheckInt(1)
		pos, ok := a.grid.PositionOf(a.id)
		if !ok {
			L.RaiseError("agent %d not placed", a.id)
			return 0
		}
		ids, err := a.grid.Neighbors(pos, radius, space.Moore, false)
		if err != nil {
			L.RaiseError("neighbors for agent %d: %v", a.id, err)
			return 0
		}
		L.Push(lua.LNumber(len(ids)))
		return 1
	}))

	return tbl
}
