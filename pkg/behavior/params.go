// Package behavior holds the per-agent flocking rules: the tunable
// parameters shared by a population of boids, the steering engine that turns
// a neighborhood into one bounded acceleration, and the integrator that moves
// a boid under its speed limit.
//
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
package behavior

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// ErrInvalidParams is matched (errors.Is) by every FieldError.
var ErrInvalidParams = errors.New("invalid behavior parameters")

// Params are the tunable weights and radii of one type of boid.
// A Params value is shared by pointer between many agents and must be
// treated as read-only once it is referenced by a flock: replace it
// wholesale instead of mutating it.
type Params struct {
	SeparationRadius float64 `json:"separationRadius" toml:"separation_radius"` // Personal space radius
	AlignmentRadius  float64 `json:"alignmentRadius" toml:"alignment_radius"`
	CohesionRadius   float64 `json:"cohesionRadius" toml:"cohesion_radius"`

	SeparationWeight float64 `json:"separationWeight" toml:"separation_weight"`
	AlignmentWeight  float64 `json:"alignmentWeight" toml:"alignment_weight"`
	CohesionWeight   float64 `json:"cohesionWeight" toml:"cohesion_weight"`
	TargetWeight     float64 `json:"targetWeight" toml:"target_weight"` // only used when the flock has a target

	MaxSpeed float64 `json:"maxSpeed" toml:"max_speed"`
	MaxForce float64 `json:"maxForce" toml:"max_force"`
}

// DefaultParams returns the stock boid tuning.
func DefaultParams() *Params {
	return &Params{
		SeparationRadius: 25,
		AlignmentRadius:  50,
		CohesionRadius:   50,
		SeparationWeight: 1.2,
		AlignmentWeight:  1.5,
		CohesionWeight:   1.0,
		TargetWeight:     0.8,
		MaxSpeed:         4.0,
		MaxForce:         1.0,
	}
}

// FieldError identifies one rejected parameter.
type FieldError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s = %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports FieldError as an ErrInvalidParams.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidParams
}

// Validate checks every field and returns all violations combined with
// multierr, or nil. Nothing is clamped: a bad value is an error.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil parameter set", ErrInvalidParams)
	}
	var err error
	positive := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			err = multierr.Append(err, &FieldError{Field: field, Value: v, Reason: "must be a finite value > 0"})
		}
	}
	nonNegative := func(field string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			err = multierr.Append(err, &FieldError{Field: field, Value: v, Reason: "must be a finite value >= 0"})
		}
	}

	positive("separation_radius", p.SeparationRadius)
	positive("alignment_radius", p.AlignmentRadius)
	positive("cohesion_radius", p.CohesionRadius)
	nonNegative("separation_weight", p.SeparationWeight)
	nonNegative("alignment_weight", p.AlignmentWeight)
	nonNegative("cohesion_weight", p.CohesionWeight)
	nonNegative("target_weight", p.TargetWeight)
	positive("max_speed", p.MaxSpeed)
	positive("max_force", p.MaxForce)
	return err
}

// MaxRadius is the widest of the three perception radii.
func (p *Params) MaxRadius() float64 {
	return math.Max(p.SeparationRadius, math.Max(p.AlignmentRadius, p.CohesionRadius))
}

// Clone returns an independent copy, the starting point for a replacement set.
func (p *Params) Clone() *Params {
	c := *p
	return &c
}
