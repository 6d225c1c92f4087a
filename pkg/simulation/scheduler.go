package simulation

import (
	"context"
	"fmt"
	"iter"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of agents a worker claims at a time.
const DefaultChunkSize = 256

// Options configures a Scheduler.
type Options struct {
	// Workers is the size of the worker pool; 0 means runtime.GOMAXPROCS(0).
	Workers int
	// ChunkSize is the number of consecutive agents a worker claims at once;
	// 0 means DefaultChunkSize.
	ChunkSize int
	// Stats receives the timing of every tick. Nil disables timing entirely.
	Stats StatsSink
}

// Scheduler computes ticks over a fixed-size worker pool.
// A Scheduler holds no per-tick state and may be shared by many flocks.
type Scheduler[V geometry.Vector[V]] struct {
	workers int
	chunk   int
	stats   StatsSink
	query   NeighborQuery[V]
	rules   []behavior.Rule[V]
}

// NewScheduler returns a Scheduler using query for neighbor lookups
// (AllPairs when nil) and evaluating rules after the classic three.
func NewScheduler[V geometry.Vector[V]](opts Options, query NeighborQuery[V], rules ...behavior.Rule[V]) *Scheduler[V] {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if query == nil {
		query = AllPairs[V]{}
	}
	return &Scheduler[V]{
		workers: opts.Workers,
		chunk:   opts.ChunkSize,
		stats:   opts.Stats,
		query:   query,
		rules:   rules,
	}
}

// Workers returns the size of the worker pool.
func (s *Scheduler[V]) Workers() int { return s.workers }

// Step computes the snapshot following in, dt seconds later. When target is
// not nil every agent also seeks it.
//
// Step returns only once every agent has been computed. It never modifies in;
// the result has exactly in.Len() agents, index-aligned with in. Any failing
// work item fails the whole tick: the error wraps ErrTickFailed and lists
// every AgentError, and no snapshot is returned.
//
// ctx is only checked before the tick starts: a tick is never cancelled halfway.
func (s *Scheduler[V]) Step(ctx context.Context, in *Snapshot[V], dt float64, target *V) (*Snapshot[V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrTickFailed)
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return nil, fmt.Errorf("%w: dt = %v", ErrInvalidTimestep, dt)
	}
	maxRadius, err := checkParams(in)
	if err != nil {
		return nil, err
	}
	if err := checkState(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTickFailed, err)
	}

	var start time.Time
	if s.stats != nil {
		start = time.Now()
	}

	n := in.Len()
	out := &Snapshot[V]{Flock: in.Flock, Tick: in.Tick + 1, Agents: make([]Agent[V], n)}
	if n == 0 {
		if s.stats != nil {
			s.stats.Record(TickStats{Flock: in.Flock, Tick: out.Tick, Workers: s.workers})
		}
		return out, nil
	}

	rules := s.rules
	if target != nil {
		rules = append(rules[:len(rules):len(rules)], behavior.Seek[V]{Target: *target})
	}

	// Phase 1: read-only over in, each item writes steering[i] only.
	hood := s.query.Prepare(in, maxRadius)
	steering := make([]V, n)
	err = s.parallel(n, "steering", func(i int) error {
		a := &in.Agents[i]
		f := behavior.Steer(a.Body(), a.Params, neighborsOf(in, hood, i, a.Params.MaxRadius()), rules...)
		if !finite(f.Total) {
			return fmt.Errorf("non-finite steering %v", f.Total)
		}
		steering[i] = f.Total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTickFailed, err)
	}

	var phase1 time.Time
	if s.stats != nil {
		phase1 = time.Now()
	}

	// Phase 2: write-disjoint, each item owns out.Agents[i].
	err = s.parallel(n, "integration", func(i int) error {
		a := in.Agents[i]
		b := behavior.Integrate(a.Body(), steering[i], a.Params, dt)
		if !finite(b.Position) || !finite(b.Velocity) {
			return fmt.Errorf("non-finite state position %v velocity %v", b.Position, b.Velocity)
		}
		out.Agents[i] = Agent[V]{
			ID:       i,
			Key:      a.Key,
			Position: b.Position,
			Velocity: b.Velocity,
			Steering: steering[i],
			Params:   a.Params,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTickFailed, err)
	}

	if s.stats != nil {
		end := time.Now()
		s.stats.Record(TickStats{
			Flock:       in.Flock,
			Tick:        out.Tick,
			Agents:      n,
			Workers:     s.workers,
			Steering:    phase1.Sub(start),
			Integration: end.Sub(phase1),
			Total:       end.Sub(start),
		})
	}
	return out, nil
}

// parallel runs fn(i) for i in [0, n) over the worker pool. Workers claim
// chunks of consecutive indices from a shared counter, so a slow chunk never
// holds up the others. A panic inside fn is recovered and reported for that
// index only; every other index still runs.
func (s *Scheduler[V]) parallel(n int, phase string, fn func(i int) error) error {
	workers := min(s.workers, (n+s.chunk-1)/s.chunk)
	errs := make([]error, workers)
	var next atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				lo := int(next.Add(int64(s.chunk))) - s.chunk
				if lo >= n {
					return nil
				}
				hi := min(lo+s.chunk, n)
				for i := lo; i < hi; i++ {
					if err := runItem(i, phase, fn); err != nil {
						errs[w] = multierr.Append(errs[w], err)
					}
				}
			}
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}

func runItem(i int, phase string, fn func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &AgentError{Index: i, Phase: phase, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	if e := fn(i); e != nil {
		return &AgentError{Index: i, Phase: phase, Cause: e}
	}
	return nil
}

// neighborsOf adapts the index/distance sequence of hood into the neighbor
// records the steering engine consumes.
func neighborsOf[V geometry.Vector[V]](snap *Snapshot[V], hood Neighborhood, i int, radius float64) iter.Seq[behavior.Neighbor[V]] {
	return func(yield func(behavior.Neighbor[V]) bool) {
		for j, distSq := range hood.Neighbors(i, radius) {
			o := &snap.Agents[j]
			if !yield(behavior.Neighbor[V]{Index: j, Position: o.Position, Velocity: o.Velocity, DistSq: distSq}) {
				return
			}
		}
	}
}

// checkParams validates each distinct parameter set once and returns the
// widest radius in use.
func checkParams[V geometry.Vector[V]](in *Snapshot[V]) (float64, error) {
	seen := make(map[*behavior.Params]struct{})
	maxRadius := 0.0
	for i := range in.Agents {
		p := in.Agents[i].Params
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("agent %d: %w", i, err)
		}
		maxRadius = math.Max(maxRadius, p.MaxRadius())
	}
	return maxRadius, nil
}

// checkState rejects agents entering the tick with a non-finite position or
// velocity; such an agent would poison the steering of all its neighbors.
func checkState[V geometry.Vector[V]](in *Snapshot[V]) error {
	var err error
	for i := range in.Agents {
		a := &in.Agents[i]
		if !finite(a.Position) || !finite(a.Velocity) {
			err = multierr.Append(err, &AgentError{Index: i, Phase: "input",
				Cause: fmt.Errorf("non-finite state position %v velocity %v", a.Position, a.Velocity)})
		}
	}
	return err
}

func finite[V geometry.Vector[V]](v V) bool {
	for a := 0; a < v.Dim(); a++ {
		x := v.Axis(a)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
