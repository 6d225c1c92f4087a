package behavior

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

func TestBounds_Force(t *testing.T) {
	b := Bounds[vec]{Min: vec{}, Max: vec{X: 800, Y: 600}, Margin: 100, Turn: 0.2}

	tests := []struct {
		name string
		pos  vec
		want vec
	}{
		{"Center", vec{X: 400, Y: 300}, vec{}},
		{"Left edge", vec{X: 50, Y: 300}, vec{X: 0.2}},
		{"Right edge", vec{X: 750, Y: 300}, vec{X: -0.2}},
		{"Top left corner", vec{X: 10, Y: 10}, vec{X: 0.2, Y: 0.2}},
		{"Outside bottom", vec{X: 400, Y: 900}, vec{Y: -0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Force(Body[vec]{Position: tt.pos}, nil, neighbors())
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBounds_3D(t *testing.T) {
	type v3 = geometry.Vector3D
	b := Bounds[v3]{Max: geometry.NewVector3D(10, 10, 10), Margin: 1, Turn: 1}
	got := b.Force(Body[v3]{Position: geometry.NewVector3D(5, 5, 9.5)}, nil, nil)
	if want := geometry.NewVector3D(0, 0, -1); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
