package space

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/emmagras/mesa/core"
)

// Vec is a continuous 2D position.
type Vec struct {
	X, Y float64
}

// ContinuousSpace indexes agents at floating-point positions within a
// rectangular extent. Each axis may wrap independently; distances on a
// wrapped axis follow the minimum-image convention.
type ContinuousSpace struct {
	minX, minY float64
	maxX, maxY float64
	torusX     bool
	torusY     bool

	positions map[core.AgentID]Vec
	order     []core.AgentID // placement order, for deterministic scans
	dead      int

	log *zap.Logger
}

func NewContinuousSpace(minX, minY, maxX, maxY float64, torusX, torusY bool, log *zap.Logger) (*ContinuousSpace, error) {
	if maxX <= minX || maxY <= minY {
		return nil, fmt.Errorf("continuous space: invalid bounds (%g,%g)-(%g,%g)", minX, minY, maxX, maxY)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContinuousSpace{
		minX: minX, minY: minY,
		maxX: maxX, maxY: maxY,
		torusX: torusX, torusY: torusY,
		positions: make(map[core.AgentID]Vec),
		log:       log,
	}, nil
}

func (s *ContinuousSpace) Len() int { return len(s.positions) }

// normalize wraps each torus axis into [min, max) and bounds-checks the
// others.
func (s *ContinuousSpace) normalize(p Vec) (Vec, error) {
	if s.torusX {
		p.X = wrap(p.X, s.minX, s.maxX)
	} else if p.X < s.minX || p.X >= s.maxX {
		return Vec{}, core.OutOfBoundsError{X: p.X, Y: p.Y}
	}
	if s.torusY {
		p.Y = wrap(p.Y, s.minY, s.maxY)
	} else if p.Y < s.minY || p.Y >= s.maxY {
		return Vec{}, core.OutOfBoundsError{X: p.X, Y: p.Y}
	}
	return p, nil
}

func wrap(v, min, max float64) float64 {
	span := max - min
	v = math.Mod(v-min, span)
	if v < 0 {
		v += span
	}
	return v + min
}

// Place records an agent's position. Fails with DuplicateIDError when the
// agent is already placed.
func (s *ContinuousSpace) Place(id core.AgentID, p Vec) error {
	if _, ok := s.positions[id]; ok {
		return fmt.Errorf("place agent %d: %w", id, core.DuplicateIDError{ID: id})
	}
	p, err := s.normalize(p)
	if err != nil {
		return err
	}
	s.positions[id] = p
	s.order = append(s.order, id)
	return nil
}

// Remove clears an agent's position.
func (s *ContinuousSpace) Remove(id core.AgentID) error {
	if _, ok := s.positions[id]; !ok {
		return core.UnknownAgentError{ID: id}
	}
	delete(s.positions, id)
	s.dead++
	if s.dead > len(s.positions) && s.dead > 64 {
		live := s.order[:0]
		for _, oid := range s.order {
			if _, ok := s.positions[oid]; ok {
				live = append(live, oid)
			}
		}
		s.order = live
		s.dead = 0
	}
	return nil
}

// Move relocates an agent; the position is validated before the mapping
// changes, so the move is a single logical step.
func (s *ContinuousSpace) Move(id core.AgentID, p Vec) error {
	if _, ok := s.positions[id]; !ok {
		return core.UnknownAgentError{ID: id}
	}
	p, err := s.normalize(p)
	if err != nil {
		return err
	}
	s.positions[id] = p
	return nil
}

// PositionOf returns an agent's recorded position.
func (s *ContinuousSpace) PositionOf(id core.AgentID) (Vec, bool) {
	p, ok := s.positions[id]
	return p, ok
}

// Neighbors returns the agents within Euclidean distance radius of
// center, in placement order. Wrapped axes measure minimum-image
// displacement. The scan is over placed agents, never over area.
func (s *ContinuousSpace) Neighbors(center Vec, radius float64) ([]core.AgentID, error) {
	center, err := s.normalize(center)
	if err != nil {
		return nil, err
	}
	r2 := radius * radius
	var out []core.AgentID
	for _, id := range s.order {
		p, ok := s.positions[id]
		if !ok {
			continue
		}
		dx, dy := s.displacement(center, p)
		if dx*dx+dy*dy <= r2 {
			out = append(out, id)
		}
	}
	return out, nil
}

// Distance returns the Euclidean distance between two points under the
// minimum-image convention on wrapped axes.
func (s *ContinuousSpace) Distance(a, b Vec) float64 {
	dx, dy := s.displacement(a, b)
	return math.Hypot(dx, dy)
}

// Heading returns the unit vector from a toward b along the shortest
// displacement. Zero when the points coincide.
func (s *ContinuousSpace) Heading(a, b Vec) Vec {
	dx, dy := s.displacement(a, b)
	d := math.Hypot(dx, dy)
	if d == 0 {
		return Vec{}
	}
	return Vec{X: dx / d, Y: dy / d}
}

func (s *ContinuousSpace) displacement(from, to Vec) (dx, dy float64) {
	dx = to.X - from.X
	dy = to.Y - from.Y
	if s.torusX {
		dx = minImage(dx, s.maxX-s.minX)
	}
	if s.torusY {
		dy = minImage(dy, s.maxY-s.minY)
	}
	return dx, dy
}

// minImage folds a displacement into [-span/2, span/2].
func minImage(d, span float64) float64 {
	d = math.Mod(d, span)
	switch {
	case d > span/2:
		d -= span
	case d < -span/2:
		d += span
	}
	return d
}

// Clear removes every agent from the space.
func (s *ContinuousSpace) Clear() {
	s.positions = make(map[core.AgentID]Vec)
	s.order = s.order[:0]
	s.dead = 0
}
