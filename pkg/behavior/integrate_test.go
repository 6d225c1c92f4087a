package behavior

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

func TestIntegrate(t *testing.T) {
	p := unitParams() // max speed 10

	tests := []struct {
		name    string
		body    Body[vec]
		accel   vec
		dt      float64
		wantPos vec
		wantVel vec
	}{
		{"At rest", Body[vec]{}, vec{}, 1, vec{}, vec{}},
		{"Coasting", Body[vec]{Position: vec{X: 1, Y: 1}, Velocity: vec{X: 2, Y: 0}}, vec{}, 0.5, vec{X: 2, Y: 1}, vec{X: 2, Y: 0}},
		{"Accelerating", Body[vec]{Velocity: vec{X: 1, Y: 0}}, vec{X: 2, Y: 0}, 1, vec{X: 3, Y: 0}, vec{X: 3, Y: 0}},
		{"Speed capped before moving", Body[vec]{Velocity: vec{X: 8, Y: 0}}, vec{X: 6, Y: 0}, 1, vec{X: 10, Y: 0}, vec{X: 10, Y: 0}},
		{"Fast input is capped", Body[vec]{Velocity: vec{X: 0, Y: 30}}, vec{}, 0.1, vec{X: 0, Y: 1}, vec{X: 0, Y: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Integrate(tt.body, tt.accel, p, tt.dt)
			if !got.Position.Eq(tt.wantPos) || !got.Velocity.Eq(tt.wantVel) {
				t.Errorf("Integrate = {%v %v}; want {%v %v}", got.Position, got.Velocity, tt.wantPos, tt.wantVel)
			}
			if got.Velocity.Len() > p.MaxSpeed+geometry.Epsilon {
				t.Errorf("speed %v exceeds max speed %v", got.Velocity.Len(), p.MaxSpeed)
			}
		})
	}
}

func TestIntegrate3D(t *testing.T) {
	p := unitParams()
	b := Body[geometry.Vector3D]{Velocity: geometry.Vector3D{X: 0, Y: 0, Z: 9}}
	got := Integrate(b, geometry.Vector3D{X: 0, Y: 0, Z: 9}, p, 1)
	if !got.Velocity.Eq(geometry.Vector3D{Z: 10}) || !got.Position.Eq(geometry.Vector3D{Z: 10}) {
		t.Errorf("Integrate3D = %+v", got)
	}
}
