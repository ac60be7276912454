// Package space provides the spatial indexes: a discrete cell grid and a
// continuous 2D space, both with optional wrap-around topology. Each index
// keeps a cell→occupants mapping and an agent→position reverse mapping
// that are mutated together, so a query between any two operations always
// sees a consistent view. Accessed only from the model's goroutine — no
// locks.
package space

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// Coord is a discrete grid cell coordinate.
type Coord struct {
	X, Y int
}

// Occupancy selects how many agents a cell may hold.
type Occupancy int

const (
	// Multi allows any number of agents per cell.
	Multi Occupancy = iota
	// Single allows at most one agent per cell.
	Single
)

// Metric selects the neighborhood shape for radius queries.
type Metric int

const (
	// Moore: Chebyshev distance ≤ radius (includes diagonals).
	Moore Metric = iota
	// VonNeumann: Manhattan distance ≤ radius (excludes diagonals).
	VonNeumann
)

// Grid is a W×H cell grid. With torus enabled, coordinates wrap modulo
// the dimensions and opposite edges are adjacent; without it, coordinates
// outside the extents are rejected.
type Grid struct {
	width, height int
	torus         bool
	occupancy     Occupancy

	cells     map[Coord]map[core.AgentID]struct{}
	positions map[core.AgentID]Coord

	log *zap.Logger
}

func NewGrid(width, height int, torus bool, occupancy Occupancy, log *zap.Logger) *Grid {
	if log == nil {
		log = zap.NewNop()
	}
	return &Grid{
		width:     width,
		height:    height,
		torus:     torus,
		occupancy: occupancy,
		cells:     make(map[Coord]map[core.AgentID]struct{}),
		positions: make(map[core.AgentID]Coord),
		log:       log,
	}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }
func (g *Grid) Torus() bool { return g.torus }

// Len returns the number of placed agents.
func (g *Grid) Len() int { return len(g.positions) }

// normalize wraps a coordinate on a torus, or validates bounds otherwise.
func (g *Grid) normalize(pos Coord) (Coord, error) {
	if g.torus {
		pos.X = mod(pos.X, g.width)
		pos.Y = mod(pos.Y, g.height)
		return pos, nil
	}
	if pos.X < 0 || pos.X >= g.width || pos.Y < 0 || pos.Y >= g.height {
		return Coord{}, core.OutOfBoundsError{X: float64(pos.X), Y: float64(pos.Y)}
	}
	return pos, nil
}

func mod(v, m int) int {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

// Place records an agent at pos. Fails with CapacityError when the grid is
// single-occupancy and the cell is taken, and with DuplicateIDError when
// the agent already has a position (use Move).
func (g *Grid) Place(id core.AgentID, pos Coord) error {
	if _, ok := g.positions[id]; ok {
		return fmt.Errorf("place agent %d: %w", id, core.DuplicateIDError{ID: id})
	}
	pos, err := g.normalize(pos)
	if err != nil {
		return err
	}
	if g.occupancy == Single && len(g.cells[pos]) > 0 {
		return core.CapacityError{X: pos.X, Y: pos.Y}
	}
	g.insert(id, pos)
	return nil
}

// Remove clears an agent's position. Fails with UnknownAgentError when the
// agent has no recorded position.
func (g *Grid) Remove(id core.AgentID) error {
	pos, ok := g.positions[id]
	if !ok {
		return core.UnknownAgentError{ID: id}
	}
	g.evict(id, pos)
	return nil
}

// Move relocates an agent in one logical step: all validation happens
// before either mapping is touched, so no intermediate state is ever
// observable.
func (g *Grid) Move(id core.AgentID, newPos Coord) error {
	cur, ok := g.positions[id]
	if !ok {
		return core.UnknownAgentError{ID: id}
	}
	newPos, err := g.normalize(newPos)
	if err != nil {
		return err
	}
	if newPos == cur {
		return nil
	}
	if g.occupancy == Single && len(g.cells[newPos]) > 0 {
		return core.CapacityError{X: newPos.X, Y: newPos.Y}
	}
	g.evict(id, cur)
	g.insert(id, newPos)
	return nil
}

func (g *Grid) insert(id core.AgentID, pos Coord) {
	cell := g.cells[pos]
	if cell == nil {
		cell = make(map[core.AgentID]struct{})
		g.cells[pos] = cell
	}
	cell[id] = struct{}{}
	g.positions[id] = pos
}

func (g *Grid) evict(id core.AgentID, pos Coord) {
	cell := g.cells[pos]
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, pos)
	}
	delete(g.positions, id)
}

// PositionOf returns an agent's recorded position.
func (g *Grid) PositionOf(id core.AgentID) (Coord, bool) {
	pos, ok := g.positions[id]
	return pos, ok
}

// CellContents returns the occupants of a cell in ascending ID order.
func (g *Grid) CellContents(pos Coord) ([]core.AgentID, error) {
	pos, err := g.normalize(pos)
	if err != nil {
		return nil, err
	}
	return sortedIDs(g.cells[pos]), nil
}

// IsCellEmpty reports whether a cell has no occupants.
func (g *Grid) IsCellEmpty(pos Coord) (bool, error) {
	pos, err := g.normalize(pos)
	if err != nil {
		return false, err
	}
	return len(g.cells[pos]) == 0, nil
}

// NeighborhoodCoords returns the cell coordinates within radius of pos
// under the given metric, row-major. The origin cell is included only
// when includeCenter is set. On a bounded grid, cells beyond an edge are
// omitted; on a torus they wrap.
func (g *Grid) NeighborhoodCoords(pos Coord, radius int, metric Metric, includeCenter bool) ([]Coord, error) {
	pos, err := g.normalize(pos)
	if err != nil {
		return nil, err
	}
	var out []Coord
	seen := make(map[Coord]struct{})
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 && !includeCenter {
				continue
			}
			if metric == VonNeumann && abs(dx)+abs(dy) > radius {
				continue
			}
			c := Coord{X: pos.X + dx, Y: pos.Y + dy}
			if g.torus {
				c.X = mod(c.X, g.width)
				c.Y = mod(c.Y, g.height)
			} else if c.X < 0 || c.X >= g.width || c.Y < 0 || c.Y >= g.height {
				continue
			}
			// On a small torus a radius can lap the grid; visit each
			// cell once.
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

// Neighbors returns the IDs of all agents within radius of pos under the
// given metric, in ascending ID order. When includeCenter is false the
// origin cell's occupants are excluded.
func (g *Grid) Neighbors(pos Coord, radius int, metric Metric, includeCenter bool) ([]core.AgentID, error) {
	coords, err := g.NeighborhoodCoords(pos, radius, metric, includeCenter)
	if err != nil {
		return nil, err
	}
	found := make(map[core.AgentID]struct{})
	for _, c := range coords {
		for id := range g.cells[c] {
			found[id] = struct{}{}
		}
	}
	return sortedIDs(found), nil
}

// Clear removes every agent from the grid.
func (g *Grid) Clear() {
	g.cells = make(map[Coord]map[core.AgentID]struct{})
	g.positions = make(map[core.AgentID]Coord)
}

func sortedIDs(set map[core.AgentID]struct{}) []core.AgentID {
	ids := make([]core.AgentID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
