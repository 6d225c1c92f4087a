package behavior

import "github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"

// Integrate advances b by one fixed timestep dt (seconds, supplied by the
// host) under acceleration accel:
//
//	v' = clamp(v + a*dt, MaxSpeed)
//	p' = p + v'*dt
//
// The clamp is applied before the position update so speed never exceeds
// MaxSpeed, not even for the step being integrated.
func Integrate[V geometry.Vector[V]](b Body[V], accel V, p *Params, dt float64) Body[V] {
	vel := b.Velocity.Add(accel.Mul(dt)).ClampLen(p.MaxSpeed)
	return Body[V]{
		Position: b.Position.Add(vel.Mul(dt)),
		Velocity: vel,
	}
}
