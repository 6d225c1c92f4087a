package behavior

import (
	"iter"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

// Bounds keeps boids inside a box with a soft turn: within Margin of a wall,
// every axis gets a push of Turn back towards the inside. Boids are never
// teleported or clamped, so a fast boid can still overshoot the box for a
// few ticks.
type Bounds[V geometry.Vector[V]] struct {
	Min, Max V
	Margin   float64
	Turn     float64
}

// Force implements Rule.
func (b Bounds[V]) Force(self Body[V], _ *Params, _ iter.Seq[Neighbor[V]]) V {
	var f V
	for a := 0; a < self.Position.Dim(); a++ {
		x := self.Position.Axis(a)
		switch {
		case x < b.Min.Axis(a)+b.Margin:
			f = f.WithAxis(a, b.Turn)
		case x > b.Max.Axis(a)-b.Margin:
			f = f.WithAxis(a, -b.Turn)
		}
	}
	return f
}
