package behavior

import (
	"iter"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

// Body is the kinematic state of one boid.
type Body[V geometry.Vector[V]] struct {
	Position V
	Velocity V
}

// Neighbor is another boid seen from the focal one, with its squared
// distance already computed by the neighbor query.
type Neighbor[V geometry.Vector[V]] struct {
	Index    int
	Position V
	Velocity V
	DistSq   float64
}

// Rule is an additional steering term. Rules are summed with the classic
// separation, alignment and cohesion terms before the max force clamp.
type Rule[V geometry.Vector[V]] interface {
	Force(self Body[V], p *Params, neighbors iter.Seq[Neighbor[V]]) V
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc[V geometry.Vector[V]] func(self Body[V], p *Params, neighbors iter.Seq[Neighbor[V]]) V

// Force calls f.
func (f RuleFunc[V]) Force(self Body[V], p *Params, neighbors iter.Seq[Neighbor[V]]) V {
	return f(self, p, neighbors)
}

// Forces is the breakdown of one steering evaluation.
// Total is the clamped sum actually fed to the integrator.
type Forces[V geometry.Vector[V]] struct {
	Separation V
	Alignment  V
	Cohesion   V
	Extra      V
	Total      V

	Separated, Aligned, Cohered int // neighbor counts per rule
}

// Steer combines the classic rules and any extra rules into one acceleration
// whose magnitude never exceeds p.MaxForce.
//
// Each rule turns its raw vector into a desired velocity at full speed along
// it, then steers with (desired - velocity) clamped to p.MaxForce and scaled
// by the rule's weight. A zero raw vector gives no force.
//
// Neighbors must be yielded in a stable order (ascending index) for the
// result to be reproducible bit for bit. Neighbors outside a rule's radius
// are ignored by that rule, so the sequence may be produced with the widest
// radius.
func Steer[V geometry.Vector[V]](self Body[V], p *Params, neighbors iter.Seq[Neighbor[V]], rules ...Rule[V]) Forces[V] {
	var (
		f                    Forces[V]
		sepSum, velSum, pSum V
	)
	sepSq := p.SeparationRadius * p.SeparationRadius
	aliSq := p.AlignmentRadius * p.AlignmentRadius
	cohSq := p.CohesionRadius * p.CohesionRadius

	for n := range neighbors {
		// 1. Separation: away from the neighbor, weighted by 1/distance.
		// Coincident boids have no direction and contribute nothing.
		if n.DistSq <= sepSq {
			f.Separated++
			if n.DistSq > 0 {
				sepSum = sepSum.Add(self.Position.Sub(n.Position).Mul(1 / n.DistSq))
			}
		}
		// 2. Alignment
		if n.DistSq <= aliSq {
			f.Aligned++
			velSum = velSum.Add(n.Velocity)
		}
		// 3. Cohesion
		if n.DistSq <= cohSq {
			f.Cohered++
			pSum = pSum.Add(n.Position)
		}
	}

	if f.Separated > 0 {
		f.Separation = steerTowards(self, sepSum.Mul(1/float64(f.Separated)), p, p.SeparationWeight)
	}
	if f.Aligned > 0 {
		f.Alignment = steerTowards(self, velSum.Mul(1/float64(f.Aligned)), p, p.AlignmentWeight)
	}
	if f.Cohered > 0 {
		centroid := pSum.Mul(1 / float64(f.Cohered))
		f.Cohesion = steerTowards(self, centroid.Sub(self.Position), p, p.CohesionWeight)
	}
	for _, r := range rules {
		f.Extra = f.Extra.Add(r.Force(self, p, neighbors))
	}

	f.Total = f.Separation.Add(f.Alignment).Add(f.Cohesion).Add(f.Extra).ClampLen(p.MaxForce)
	return f
}

// Seek steers towards a fixed target at full speed, weighted by
// Params.TargetWeight. It ignores neighbors.
type Seek[V geometry.Vector[V]] struct {
	Target V
}

// Force implements Rule.
func (s Seek[V]) Force(self Body[V], p *Params, _ iter.Seq[Neighbor[V]]) V {
	return steerTowards(self, s.Target.Sub(self.Position), p, p.TargetWeight)
}

// steerTowards is the force turning self towards dir at full speed.
func steerTowards[V geometry.Vector[V]](self Body[V], dir V, p *Params, weight float64) V {
	var zero V
	dir = dir.Normalize()
	if dir.LenSqr() == 0 {
		return zero
	}
	desired := dir.Mul(p.MaxSpeed)
	return desired.Sub(self.Velocity).ClampLen(p.MaxForce).Mul(weight)
}
