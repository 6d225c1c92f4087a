package simulation

import (
	"iter"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

// NeighborQuery finds the agents around each agent of a snapshot.
//
// Prepare is called once per tick with the snapshot every query of that tick
// reads and the widest radius any agent will ask for. The returned
// Neighborhood is used concurrently by all workers and must not be mutated.
type NeighborQuery[V geometry.Vector[V]] interface {
	Prepare(snap *Snapshot[V], maxRadius float64) Neighborhood
}

// Neighborhood answers neighbor queries for one prepared snapshot.
type Neighborhood interface {
	// Neighbors yields (index, squared distance) for every other agent within
	// radius of agent i, in ascending index order. Agent i itself is never
	// yielded.
	Neighbors(i int, radius float64) iter.Seq2[int, float64]
}

// AllPairs is the naive O(n²) scan.
type AllPairs[V geometry.Vector[V]] struct{}

// Prepare implements NeighborQuery.
func (AllPairs[V]) Prepare(snap *Snapshot[V], _ float64) Neighborhood {
	return allPairs[V]{agents: snap.Agents}
}

type allPairs[V geometry.Vector[V]] struct {
	agents []Agent[V]
}

func (q allPairs[V]) Neighbors(i int, radius float64) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		me := q.agents[i].Position
		radiusSq := radius * radius
		for j := range q.agents {
			if j == i {
				continue
			}
			distSq := me.DistanceSquaredTo(q.agents[j].Position)
			if distSq > radiusSq {
				continue
			}
			if !yield(j, distSq) {
				return
			}
		}
	}
}
