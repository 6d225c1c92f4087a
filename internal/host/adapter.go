// Package host connects the simulation core to a host engine: objects of the
// host are bound to agents through an Adapter, and a goakt Driver actor paces
// the ticks from the host's frames.
package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
)

// ErrNotBound is returned when a node was never bound to the adapter.
var ErrNotBound = errors.New("node not bound")

// Node is an object of the host engine carrying a boid's transform.
type Node[V geometry.Vector[V]] interface {
	Transform() (pos, vel V)
	SetTransform(pos, vel V)
}

// Adapter binds host nodes to the agents of one flock. The core never sees
// a Node: agents are created from the node's transform and written back to
// it after each tick.
type Adapter[V geometry.Vector[V]] struct {
	flock  *simulation.Flock[V]
	params *behavior.Params

	mu    sync.Mutex
	nodes map[uint64]Node[V]
	keys  map[Node[V]]uint64
}

// NewAdapter returns an adapter spawning agents into flock with params.
func NewAdapter[V geometry.Vector[V]](flock *simulation.Flock[V], params *behavior.Params) *Adapter[V] {
	return &Adapter[V]{
		flock:  flock,
		params: params,
		nodes:  make(map[uint64]Node[V]),
		keys:   make(map[Node[V]]uint64),
	}
}

// Flock returns the adapted flock.
func (a *Adapter[V]) Flock() *simulation.Flock[V] { return a.flock }

// Bind queues one agent per node, starting from the node's transform.
// Nodes already bound are skipped. Nodes must be comparable.
func (a *Adapter[V]) Bind(nodes ...Node[V]) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range nodes {
		if _, ok := a.keys[n]; ok {
			continue
		}
		pos, vel := n.Transform()
		key, err := a.flock.Add(pos, vel, a.params)
		if err != nil {
			return fmt.Errorf("bind: %w", err)
		}
		a.nodes[key] = n
		a.keys[n] = key
	}
	return nil
}

// Unbind queues the removal of the node's agent.
func (a *Adapter[V]) Unbind(n Node[V]) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key, ok := a.keys[n]
	if !ok {
		return ErrNotBound
	}
	a.flock.Remove(key)
	delete(a.keys, n)
	delete(a.nodes, key)
	return nil
}

// SetParams replaces the parameter set of every bound agent from the next
// tick on, and uses it for agents bound later.
func (a *Adapter[V]) SetParams(p *behavior.Params) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.flock.ReplaceParams(a.params, p); err != nil {
		return err
	}
	a.params = p
	return nil
}

// Params returns the parameter set new agents are bound with.
func (a *Adapter[V]) Params() *behavior.Params {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params
}

// Push writes the last published snapshot back to the bound nodes and
// returns the number of nodes updated. Agents whose node has been unbound
// since are skipped.
func (a *Adapter[V]) Push() int {
	snap := a.flock.Snapshot()
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, ag := range snap.Agents {
		if node, ok := a.nodes[ag.Key]; ok {
			node.SetTransform(ag.Position, ag.Velocity)
			n++
		}
	}
	return n
}
