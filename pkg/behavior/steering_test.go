package behavior

import (
	"errors"
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"go.uber.org/multierr"
)

type vec = geometry.Vector2D

func neighbors(ns ...Neighbor[vec]) iter.Seq[Neighbor[vec]] {
	return slices.Values(ns)
}

// at builds a neighbor of self at position pos with velocity vel.
func at(self Body[vec], pos, vel vec) Neighbor[vec] {
	return Neighbor[vec]{Position: pos, Velocity: vel, DistSq: self.Position.DistanceSquaredTo(pos)}
}

func unitParams() *Params {
	return &Params{
		SeparationRadius: 5, AlignmentRadius: 5, CohesionRadius: 5,
		SeparationWeight: 1, AlignmentWeight: 1, CohesionWeight: 1,
		MaxSpeed: 10, MaxForce: 10,
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Params)
		wantErrs int
	}{
		{"Defaults are valid", func(p *Params) {}, 0},
		{"Zero weights are valid", func(p *Params) { p.CohesionWeight = 0; p.TargetWeight = 0 }, 0},
		{"Negative radius", func(p *Params) { p.SeparationRadius = -1 }, 1},
		{"Zero radius", func(p *Params) { p.AlignmentRadius = 0 }, 1},
		{"Negative weight", func(p *Params) { p.AlignmentWeight = -0.1 }, 1},
		{"Zero max speed", func(p *Params) { p.MaxSpeed = 0 }, 1},
		{"NaN max force", func(p *Params) { p.MaxForce = math.NaN() }, 1},
		{"Every bad field is reported", func(p *Params) {
			p.CohesionRadius = -1
			p.SeparationWeight = -1
			p.MaxSpeed = -1
			p.MaxForce = 0
		}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(p)
			err := p.Validate()
			if got := len(multierr.Errors(err)); got != tt.wantErrs {
				t.Fatalf("Validate() reported %d errors (%v); want %d", got, err, tt.wantErrs)
			}
			if err != nil && !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate() error %v is not ErrInvalidParams", err)
			}
		})
	}

	t.Run("Field is identified", func(t *testing.T) {
		p := DefaultParams()
		p.MaxSpeed = -3
		var fe *FieldError
		if !errors.As(p.Validate(), &fe) || fe.Field != "max_speed" || fe.Value != -3 {
			t.Errorf("expected FieldError on max_speed, got %v", fe)
		}
	})

	t.Run("Nil set", func(t *testing.T) {
		var p *Params
		if !errors.Is(p.Validate(), ErrInvalidParams) {
			t.Error("nil Params should be invalid")
		}
	})
}

func TestSteer_Separation(t *testing.T) {
	// Me at 0,0, friend very close at 1,0: pushed towards negative X.
	p := unitParams()
	p.AlignmentWeight, p.CohesionWeight = 0, 0
	me := Body[vec]{}

	f := Steer(me, p, neighbors(at(me, vec{X: 1, Y: 0}, vec{})))
	if f.Total.X >= 0 {
		t.Errorf("Expected negative X (separation), got %v", f.Total)
	}
	if f.Total.Y != 0 {
		t.Errorf("Expected 0 Y, got %v", f.Total.Y)
	}
}

func TestSteer_SeparationIsInverseToDistance(t *testing.T) {
	// Near neighbor at distance 1 on +x, far one at distance 4 on +y: the
	// push is mostly along -x, each neighbor weighted by 1/distance.
	p := unitParams()
	p.AlignmentWeight, p.CohesionWeight = 0, 0
	me := Body[vec]{}

	f := Steer(me, p, neighbors(at(me, vec{X: 1, Y: 0}, vec{}), at(me, vec{X: 0, Y: 4}, vec{})))
	want := vec{X: -1, Y: -0.25}.Normalize().Mul(p.MaxSpeed)
	if !f.Separation.Eq(want) {
		t.Errorf("Separation = %v; want %v", f.Separation, want)
	}
}

func TestSteer_Cohesion(t *testing.T) {
	p := unitParams()
	p.SeparationWeight, p.AlignmentWeight = 0, 0
	p.CohesionRadius = 20
	me := Body[vec]{}

	// desired (10,0) at max speed, at rest the force is the desired velocity
	f := Steer(me, p, neighbors(at(me, vec{X: 10, Y: 0}, vec{})))
	if f.Total != (vec{X: 10, Y: 0}) {
		t.Errorf("cohesion towards (10,0) = %v; want (10, 0)", f.Total)
	}

	// the pull does not grow with distance
	far := Steer(me, p, neighbors(at(me, vec{X: 19, Y: 0}, vec{})))
	if far.Total != f.Total {
		t.Errorf("cohesion at distance 19 = %v; want %v", far.Total, f.Total)
	}
}

func TestSteer_Alignment(t *testing.T) {
	p := unitParams()
	p.SeparationWeight, p.CohesionWeight = 0, 0
	p.MaxSpeed = 3
	me := Body[vec]{Velocity: vec{X: 0, Y: 1}}

	f := Steer(me, p, neighbors(
		at(me, vec{X: 3, Y: 0}, vec{X: 2, Y: 0}),
		at(me, vec{X: -3, Y: 0}, vec{X: 4, Y: 0}),
	))
	// heading of the average velocity at max speed (3,0) minus own (0,1)
	if f.Alignment != (vec{X: 3, Y: -1}) {
		t.Errorf("Alignment = %v; want (3, -1)", f.Alignment)
	}
}

func TestSteer_HandComputedPair(t *testing.T) {
	// Two boids at rest, all radii 5, max speed 10.
	tests := []struct {
		name      string
		other     vec
		mutate    func(p *Params)
		wantSep   vec
		wantCoh   vec
		wantTotal vec
	}{
		// equal weights: full speed away and full speed towards cancel
		{"Distance 1", vec{X: 1, Y: 0}, func(p *Params) {}, vec{X: -10, Y: 0}, vec{X: 10, Y: 0}, vec{X: 0, Y: 0}},
		{"Distance 2", vec{X: 2, Y: 0}, func(p *Params) {}, vec{X: -10, Y: 0}, vec{X: 10, Y: 0}, vec{X: 0, Y: 0}},
		// max force 1: each rule clamped to 1, separation halved
		{"Weaker separation", vec{X: 2, Y: 0}, func(p *Params) {
			p.MaxForce = 1
			p.SeparationWeight = 0.5
		}, vec{X: -0.5, Y: 0}, vec{X: 1, Y: 0}, vec{X: 0.5, Y: 0}},
		// stronger separation wins, total clamped to max force
		{"Stronger separation", vec{X: 2, Y: 0}, func(p *Params) {
			p.MaxForce = 1
			p.SeparationWeight = 3
		}, vec{X: -3, Y: 0}, vec{X: 1, Y: 0}, vec{X: -1, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := unitParams()
			tt.mutate(p)
			me := Body[vec]{}
			f := Steer(me, p, neighbors(at(me, tt.other, vec{})))
			if f.Separation != tt.wantSep {
				t.Errorf("Separation = %v; want %v", f.Separation, tt.wantSep)
			}
			if f.Cohesion != tt.wantCoh {
				t.Errorf("Cohesion = %v; want %v", f.Cohesion, tt.wantCoh)
			}
			if f.Alignment != (vec{}) {
				t.Errorf("Alignment = %v; want zero", f.Alignment)
			}
			if f.Total != tt.wantTotal {
				t.Errorf("Total = %v; want %v", f.Total, tt.wantTotal)
			}
		})
	}
}

func TestSteer_DefaultsKeepPersonalSpace(t *testing.T) {
	// Inside the separation radius the push must beat the pull.
	p := DefaultParams()
	me := Body[vec]{}
	for _, d := range []float64{1, 10, 20, 24} {
		f := Steer(me, p, neighbors(at(me, vec{X: d, Y: 0}, vec{})))
		if f.Total.X >= 0 {
			t.Errorf("neighbor at %v: steering %v should point away", d, f.Total)
		}
	}
	// Outside it only cohesion is left.
	f := Steer(me, p, neighbors(at(me, vec{X: 40, Y: 0}, vec{})))
	if f.Total.X <= 0 {
		t.Errorf("neighbor at 40: steering %v should point towards it", f.Total)
	}
}

func TestSteer_OutOfRangeDoesNotBrake(t *testing.T) {
	// Me moving at 1,0 with a friend far away: no force at all.
	p := unitParams()
	me := Body[vec]{Velocity: vec{X: 1, Y: 0}}

	f := Steer(me, p, neighbors(at(me, vec{X: 100, Y: 0}, vec{})))
	if f.Total != (vec{}) {
		t.Errorf("Expected zero steering for out of range neighbor, got %v", f.Total)
	}
	if f.Separated+f.Aligned+f.Cohered != 0 {
		t.Errorf("out of range neighbor was counted: %+v", f)
	}
}

func TestSteer_NoNeighbors(t *testing.T) {
	me := Body[vec]{Position: vec{X: 3, Y: 3}, Velocity: vec{X: 1, Y: 1}}
	f := Steer(me, DefaultParams(), neighbors())
	if f.Total != (vec{}) {
		t.Errorf("isolated boid steering = %v; want zero", f.Total)
	}
}

func TestSteer_CoincidentNeighbor(t *testing.T) {
	me := Body[vec]{Position: vec{X: 2, Y: 2}}
	f := Steer(me, unitParams(), neighbors(at(me, vec{X: 2, Y: 2}, vec{X: 1, Y: 0})))
	for _, v := range []vec{f.Separation, f.Alignment, f.Cohesion, f.Total} {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) {
			t.Fatalf("coincident neighbor produced NaN: %+v", f)
		}
	}
	if f.Separation != (vec{}) {
		t.Errorf("coincident separation = %v; want zero", f.Separation)
	}
	if f.Total != (vec{X: 10, Y: 0}) {
		t.Errorf("Total = %v; want alignment only (10, 0)", f.Total)
	}
}

func TestSteer_ClampedToMaxForce(t *testing.T) {
	p := unitParams()
	p.MaxForce = 1
	p.AlignmentWeight = 5
	me := Body[vec]{}

	var ns []Neighbor[vec]
	for i := 1; i <= 50; i++ {
		ns = append(ns, at(me, vec{X: 0.001 * float64(i), Y: 0.0005}, vec{X: 4, Y: 4}))
	}
	f := Steer(me, p, neighbors(ns...))
	if got := f.Total.Len(); got > p.MaxForce+geometry.Epsilon {
		t.Errorf("|Total| = %v exceeds max force %v", got, p.MaxForce)
	}
	if raw := f.Separation.Add(f.Alignment).Add(f.Cohesion); raw.Len() <= p.MaxForce {
		t.Fatalf("test setup should produce an unclamped sum above max force, got %v", raw.Len())
	}
}

func TestSteer_ExtraRules(t *testing.T) {
	p := unitParams()
	me := Body[vec]{}
	push := RuleFunc[vec](func(Body[vec], *Params, iter.Seq[Neighbor[vec]]) vec { return vec{X: 0, Y: 2} })

	f := Steer[vec](me, p, neighbors(), push, push)
	if f.Extra != (vec{X: 0, Y: 4}) || f.Total != (vec{X: 0, Y: 4}) {
		t.Errorf("extra rules = %v total %v; want (0, 4)", f.Extra, f.Total)
	}
}

func TestSeek(t *testing.T) {
	p := DefaultParams() // max speed 4, max force 1, target weight 0.8
	me := Body[vec]{Position: vec{X: 0, Y: 0}}

	got := Seek[vec]{Target: vec{X: 10, Y: 0}}.Force(me, p, nil)
	// desired (4,0), clamped to max force 1, weighted 0.8
	if !got.Eq(vec{X: 0.8, Y: 0}) {
		t.Errorf("Seek = %v; want (0.8, 0)", got)
	}
	if got := (Seek[vec]{Target: vec{X: 0, Y: 0}}).Force(me, p, nil); got != (vec{}) {
		t.Errorf("Seek on target = %v; want zero", got)
	}
}
