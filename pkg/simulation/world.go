package simulation

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/multierr"
)

// World owns independent flocks sharing one scheduler. Flocks never see each
// other: neighbor queries stay inside a flock.
type World[V geometry.Vector[V]] struct {
	sched  *Scheduler[V]
	logger golog.Logger

	mu     sync.RWMutex
	flocks map[uuid.UUID]*Flock[V]
	order  []uuid.UUID
	ticks  uint64
}

// NewWorld returns an empty world. A nil logger discards output.
func NewWorld[V geometry.Vector[V]](sched *Scheduler[V], logger golog.Logger) *World[V] {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	return &World[V]{
		sched:  sched,
		logger: logger,
		flocks: make(map[uuid.UUID]*Flock[V]),
	}
}

// Scheduler returns the scheduler shared by all flocks.
func (w *World[V]) Scheduler() *Scheduler[V] { return w.sched }

// AddFlock registers f; flocks tick in registration order.
func (w *World[V]) AddFlock(f *Flock[V]) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.flocks[f.ID()]; ok {
		return
	}
	w.flocks[f.ID()] = f
	w.order = append(w.order, f.ID())
	w.logger.Infof("flock %s (%s) registered", f.Name(), f.ID())
}

// RemoveFlock unregisters a flock.
func (w *World[V]) RemoveFlock(id uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.flocks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFlock, id)
	}
	delete(w.flocks, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.logger.Infof("flock %s (%s) removed", f.Name(), id)
	return nil
}

// Flock returns a registered flock.
func (w *World[V]) Flock(id uuid.UUID) (*Flock[V], error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.flocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlock, id)
	}
	return f, nil
}

// Flocks returns the registered flocks in tick order.
func (w *World[V]) Flocks() []*Flock[V] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Flock[V], 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.flocks[id])
	}
	return out
}

// Ticks returns the number of completed World.Tick calls.
func (w *World[V]) Ticks() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ticks
}

// Tick advances every enabled flock by dt. Flocks are independent: a flock
// whose tick fails keeps its previous snapshot while the others advance, and
// all failures are returned together.
func (w *World[V]) Tick(ctx context.Context, dt float64) error {
	var err error
	for _, f := range w.Flocks() {
		if !f.Enabled() {
			continue
		}
		if _, e := f.Tick(ctx, w.sched, dt); e != nil {
			w.logger.Errorf("tick failed: %v", e)
			err = multierr.Append(err, e)
		}
	}
	w.mu.Lock()
	w.ticks++
	w.mu.Unlock()
	return err
}
