package space

import (
	"math/rand"

	"github.com/emmagras/mesa/core"
)

// FindEmpty picks a uniformly random empty cell using the model's random
// stream. Returns false when the grid is full. Row-major candidate order
// keeps the draw deterministic for a given stream state.
func (g *Grid) FindEmpty(rng *rand.Rand) (Coord, bool) {
	empties := make([]Coord, 0, g.width*g.height-len(g.positions))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Coord{X: x, Y: y}
			if len(g.cells[c]) == 0 {
				empties = append(empties, c)
			}
		}
	}
	if len(empties) == 0 {
		return Coord{}, false
	}
	return empties[rng.Intn(len(empties))], true
}

// MoveToEmpty relocates an agent to a random empty cell. Fails with
// UnknownAgentError when the agent is unplaced; returns false without
// moving when no empty cell exists.
func (g *Grid) MoveToEmpty(id core.AgentID, rng *rand.Rand) (bool, error) {
	if _, ok := g.positions[id]; !ok {
		return false, core.UnknownAgentError{ID: id}
	}
	dest, ok := g.FindEmpty(rng)
	if !ok {
		return false, nil
	}
	if err := g.Move(id, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Swap exchanges the positions of two placed agents. Valid in
// single-occupancy mode because both cells change hands in one step.
func (g *Grid) Swap(a, b core.AgentID) error {
	posA, ok := g.positions[a]
	if !ok {
		return core.UnknownAgentError{ID: a}
	}
	posB, ok := g.positions[b]
	if !ok {
		return core.UnknownAgentError{ID: b}
	}
	if posA == posB {
		return nil
	}
	g.evict(a, posA)
	g.evict(b, posB)
	g.insert(a, posB)
	g.insert(b, posA)
	return nil
}
