package host

import (
	"context"
	"errors"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
)

type vec = geometry.Vector2D

// sprite is a minimal host object.
type sprite struct {
	pos, vel vec
	updates  int
}

func (s *sprite) Transform() (vec, vec) { return s.pos, s.vel }

func (s *sprite) SetTransform(pos, vel vec) {
	s.pos, s.vel = pos, vel
	s.updates++
}

func unitParams() *behavior.Params {
	return &behavior.Params{
		SeparationRadius: 5, AlignmentRadius: 5, CohesionRadius: 5,
		SeparationWeight: 1, AlignmentWeight: 1, CohesionWeight: 1,
		MaxSpeed: 10, MaxForce: 10,
	}
}

func TestAdapter_BindTickPush(t *testing.T) {
	flock := simulation.NewFlock[vec]("nodes")
	a := NewAdapter(flock, unitParams())
	s1 := &sprite{pos: vec{X: 0}, vel: vec{X: 1}}
	s2 := &sprite{pos: vec{X: 100}, vel: vec{Y: -2}}

	if err := a.Bind(s1, s2, s1); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if flock.Pending() != 2 {
		t.Fatalf("Expected 2 queued agents, got %d", flock.Pending())
	}

	sched := simulation.NewScheduler[vec](simulation.Options{Workers: 1}, nil)
	if _, err := flock.Tick(context.Background(), sched, 1); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n := a.Push(); n != 2 {
		t.Fatalf("Expected 2 nodes updated, got %d", n)
	}
	if s1.pos != (vec{X: 1}) || s2.pos != (vec{X: 100, Y: -2}) {
		t.Errorf("Unexpected transforms %v %v", s1.pos, s2.pos)
	}

	if err := a.Unbind(s1); err != nil {
		t.Fatalf("Unbind failed: %v", err)
	}
	if err := a.Unbind(s1); !errors.Is(err, ErrNotBound) {
		t.Errorf("Expected ErrNotBound, got %v", err)
	}
	// Not applied yet, but the node is no longer written to.
	if n := a.Push(); n != 1 || s1.updates != 1 {
		t.Errorf("Expected only s2 to be updated, got %d (s1 updates %d)", n, s1.updates)
	}
}

func TestAdapter_SetParams(t *testing.T) {
	flock := simulation.NewFlock[vec]("nodes")
	a := NewAdapter(flock, unitParams())
	a.Bind(&sprite{})
	flock.Commit()

	next := unitParams()
	next.MaxSpeed = 1
	if err := a.SetParams(next); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if got := flock.Commit().Agents[0].Params; got != next {
		t.Errorf("Expected the bound agent to use the new params")
	}
	if a.Params() != next {
		t.Error("Expected new agents to use the new params")
	}
	if err := a.SetParams(&behavior.Params{}); !errors.Is(err, behavior.ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams, got %v", err)
	}
	if a.Params() != next {
		t.Error("Expected a rejected set to be ignored")
	}
}
