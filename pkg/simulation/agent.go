// Package simulation runs flocks of boids tick by tick.
//
// A tick reads one immutable Snapshot and writes a new one: every agent's
// neighbors and steering are computed in parallel against the previous
// snapshot, then every agent is integrated into its own slot of the next
// snapshot. No lock is taken on that hot path; the only shared state is the
// read-only previous snapshot and the read-only behavior parameters.
package simulation

import (
	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

// Agent is the state of one boid at a tick boundary.
type Agent[V geometry.Vector[V]] struct {
	// ID is the agent's index in its flock, stable for the duration of a tick.
	ID int
	// Key is the handle returned by Flock.Add; it survives re-indexing.
	Key uint64

	Position V
	Velocity V
	// Steering is the clamped acceleration that produced this state,
	// zero for states that were not produced by a tick.
	Steering V

	Params *behavior.Params
}

// Body returns the kinematic part of a.
func (a Agent[V]) Body() behavior.Body[V] {
	return behavior.Body[V]{Position: a.Position, Velocity: a.Velocity}
}

// Snapshot is the full state of a flock at one tick boundary.
// It is never modified once published: readers may keep it as long as they
// need while the next tick is computed into a fresh Snapshot.
type Snapshot[V geometry.Vector[V]] struct {
	Flock  uuid.UUID
	Tick   uint64
	Agents []Agent[V]
}

// NewSnapshot builds a tick-zero snapshot from positions and velocities
// sharing one parameter set. IDs and keys follow slice order.
func NewSnapshot[V geometry.Vector[V]](flock uuid.UUID, p *behavior.Params, positions, velocities []V) (*Snapshot[V], error) {
	if len(positions) != len(velocities) {
		return nil, ErrLengthMismatch
	}
	s := &Snapshot[V]{Flock: flock, Agents: make([]Agent[V], len(positions))}
	for i := range positions {
		s.Agents[i] = Agent[V]{ID: i, Key: uint64(i), Position: positions[i], Velocity: velocities[i], Params: p}
	}
	return s, nil
}

// Len returns the number of agents.
func (s *Snapshot[V]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Agents)
}

// Find returns the agent with the given key.
func (s *Snapshot[V]) Find(key uint64) (Agent[V], bool) {
	for _, a := range s.Agents {
		if a.Key == key {
			return a, true
		}
	}
	return Agent[V]{}, false
}
