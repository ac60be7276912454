package core

import (
	"go.uber.org/zap"
)

// Registry owns the canonical set of live agents. The scheduler and
// spatial index hold only IDs; removal here is the single authoritative
// removal. Insertion order is preserved so default iteration is
// reproducible. Accessed only from the model's goroutine — no locks.
type Registry struct {
	agents  map[AgentID]Agent
	order   []AgentID // insertion order; retired IDs compacted lazily
	retired map[AgentID]struct{}
	nextID  AgentID
	dead    int // retired IDs still present in order
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		agents:  make(map[AgentID]Agent, 64),
		order:   make([]AgentID, 0, 64),
		retired: make(map[AgentID]struct{}),
		nextID:  1,
		log:     log,
	}
}

// NextID hands out a fresh identifier. IDs are strictly increasing and
// are considered used once returned, whether or not an agent is ever
// registered under them.
func (r *Registry) NextID() AgentID {
	id := r.nextID
	r.nextID++
	return id
}

// Add registers an agent under its own ID. Fails with DuplicateIDError if
// the ID is live or was already retired during this run.
func (r *Registry) Add(a Agent) error {
	id := a.ID()
	if _, ok := r.agents[id]; ok {
		return DuplicateIDError{ID: id}
	}
	if _, ok := r.retired[id]; ok {
		return DuplicateIDError{ID: id}
	}
	r.agents[id] = a
	r.order = append(r.order, id)
	// Externally assigned IDs advance the counter so NextID never collides.
	if id >= r.nextID {
		r.nextID = id + 1
	}
	r.log.Debug("agent registered", zap.Int64("id", int64(id)), zap.Int("population", len(r.agents)))
	return nil
}

// Remove unregisters an agent. The ID is retired for the rest of the run.
func (r *Registry) Remove(id AgentID) error {
	if _, ok := r.agents[id]; !ok {
		return UnknownAgentError{ID: id}
	}
	delete(r.agents, id)
	r.retired[id] = struct{}{}
	r.dead++
	if r.dead > len(r.agents) && r.dead > 64 {
		r.compact()
	}
	r.log.Debug("agent removed", zap.Int64("id", int64(id)), zap.Int("population", len(r.agents)))
	return nil
}

func (r *Registry) compact() {
	live := r.order[:0]
	for _, id := range r.order {
		if _, ok := r.agents[id]; ok {
			live = append(live, id)
		}
	}
	r.order = live
	r.dead = 0
}

// Get returns the agent registered under id, if any.
func (r *Registry) Get(id AgentID) (Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// Contains reports whether id is currently registered.
func (r *Registry) Contains(id AgentID) bool {
	_, ok := r.agents[id]
	return ok
}

// Len returns the number of live agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// IDs returns the live agent IDs in insertion order. The slice is a fresh
// copy, so callers may use it as an activation snapshot that survives
// registry mutation.
func (r *Registry) IDs() []AgentID {
	ids := make([]AgentID, 0, len(r.agents))
	for _, id := range r.order {
		if _, ok := r.agents[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Agents returns the live agents in insertion order.
func (r *Registry) Agents() []Agent {
	out := make([]Agent, 0, len(r.agents))
	for _, id := range r.order {
		if a, ok := r.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Each calls fn for every live agent in insertion order. Iteration is
// over a snapshot, so fn may add or remove agents.
func (r *Registry) Each(fn func(Agent)) {
	for _, id := range r.IDs() {
		if a, ok := r.agents[id]; ok {
			fn(a)
		}
	}
}

// Clear drops all agents and retired IDs and restarts the ID sequence.
// Used by model reset between runs; the never-reuse invariant is scoped
// to a single run.
func (r *Registry) Clear() {
	r.agents = make(map[AgentID]Agent, 64)
	r.order = r.order[:0]
	r.retired = make(map[AgentID]struct{})
	r.nextID = 1
	r.dead = 0
}
