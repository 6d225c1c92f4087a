package simulation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

// Flock is an ordered set of agents ticked together.
//
// Membership and parameter changes are queued and only applied at the next
// tick boundary, so agent indices never move while a tick is running. The
// current snapshot is published atomically and can be read at any time
// without blocking the tick.
type Flock[V geometry.Vector[V]] struct {
	id   uuid.UUID
	name string

	tickMu sync.Mutex // serializes Tick and Commit

	mu      sync.Mutex // guards pending and nextKey
	pending []change[V]
	nextKey uint64

	snap    atomic.Pointer[Snapshot[V]]
	target  atomic.Pointer[V]
	enabled atomic.Bool
}

type changeKind int

const (
	addAgent changeKind = iota
	removeAgent
	replaceParams
)

type change[V geometry.Vector[V]] struct {
	kind     changeKind
	key      uint64
	pos, vel V
	params   *behavior.Params
	old      *behavior.Params
}

// NewFlock returns an empty, enabled flock.
func NewFlock[V geometry.Vector[V]](name string) *Flock[V] {
	f := &Flock[V]{id: uuid.New(), name: name}
	f.snap.Store(&Snapshot[V]{Flock: f.id})
	f.enabled.Store(true)
	return f
}

// ID returns the flock identifier.
func (f *Flock[V]) ID() uuid.UUID { return f.id }

// Name returns the flock's display name.
func (f *Flock[V]) Name() string { return f.name }

// Snapshot returns the last published snapshot. It is never nil.
func (f *Flock[V]) Snapshot() *Snapshot[V] { return f.snap.Load() }

// Enabled reports whether World.Tick processes this flock.
func (f *Flock[V]) Enabled() bool { return f.enabled.Load() }

// SetEnabled switches processing of the flock on or off; a disabled flock
// keeps its last snapshot.
func (f *Flock[V]) SetEnabled(on bool) { f.enabled.Store(on) }

// Target returns the position the flock seeks, if any.
func (f *Flock[V]) Target() (V, bool) {
	if t := f.target.Load(); t != nil {
		return *t, true
	}
	var zero V
	return zero, false
}

// SetTarget makes every agent seek t from the next tick on.
func (f *Flock[V]) SetTarget(t V) { f.target.Store(&t) }

// ClearTarget stops seeking.
func (f *Flock[V]) ClearTarget() { f.target.Store(nil) }

// Add queues a new agent and returns its key. p is validated now and
// rejected with a behavior.FieldError list if it is malformed.
func (f *Flock[V]) Add(pos, vel V, p *behavior.Params) (uint64, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("flock %s: %w", f.name, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := f.nextKey
	f.nextKey++
	f.pending = append(f.pending, change[V]{kind: addAgent, key: key, pos: pos, vel: vel, params: p})
	return key, nil
}

// Remove queues the removal of the agent with the given key. Unknown keys
// are ignored when the change is applied.
func (f *Flock[V]) Remove(key uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, change[V]{kind: removeAgent, key: key})
}

// ReplaceParams queues the replacement of every reference to old by next.
// Parameter sets are never edited in place: a tick in flight keeps reading
// old until the boundary.
func (f *Flock[V]) ReplaceParams(old, next *behavior.Params) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("flock %s: %w", f.name, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, change[V]{kind: replaceParams, old: old, params: next})
	return nil
}

// Pending returns the number of queued changes.
func (f *Flock[V]) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Commit applies queued changes and publishes the result without advancing
// the simulation.
func (f *Flock[V]) Commit() *Snapshot[V] {
	f.tickMu.Lock()
	defer f.tickMu.Unlock()

	cur, n := f.boundary()
	if n > 0 {
		f.snap.Store(cur)
		f.consume(n)
	}
	return cur
}

// Tick applies queued changes then advances the flock by dt using sched.
// On failure nothing is published and the queued changes are kept.
func (f *Flock[V]) Tick(ctx context.Context, sched *Scheduler[V], dt float64) (*Snapshot[V], error) {
	f.tickMu.Lock()
	defer f.tickMu.Unlock()

	cur, n := f.boundary()
	next, err := sched.Step(ctx, cur, dt, f.target.Load())
	if err != nil {
		return nil, fmt.Errorf("flock %s: %w", f.name, err)
	}
	f.snap.Store(next)
	f.consume(n)
	return next, nil
}

// boundary returns the current snapshot with the queued changes applied and
// the number of changes it includes.
func (f *Flock[V]) boundary() (*Snapshot[V], int) {
	f.mu.Lock()
	changes := f.pending[:len(f.pending):len(f.pending)]
	f.mu.Unlock()

	cur := f.snap.Load()
	if len(changes) == 0 {
		return cur, 0
	}
	return apply(cur, changes), len(changes)
}

func (f *Flock[V]) consume(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append([]change[V](nil), f.pending[n:]...)
}

// apply builds a new snapshot from cur and changes, in queue order, and
// re-indexes the agents.
func apply[V geometry.Vector[V]](cur *Snapshot[V], changes []change[V]) *Snapshot[V] {
	agents := make([]Agent[V], 0, len(cur.Agents)+len(changes))
	agents = append(agents, cur.Agents...)

	for _, c := range changes {
		switch c.kind {
		case addAgent:
			agents = append(agents, Agent[V]{Key: c.key, Position: c.pos, Velocity: c.vel, Params: c.params})
		case removeAgent:
			for i := range agents {
				if agents[i].Key == c.key {
					agents = append(agents[:i], agents[i+1:]...)
					break
				}
			}
		case replaceParams:
			for i := range agents {
				if agents[i].Params == c.old {
					agents[i].Params = c.params
				}
			}
		}
	}
	for i := range agents {
		agents[i].ID = i
	}
	return &Snapshot[V]{Flock: cur.Flock, Tick: cur.Tick, Agents: agents}
}
