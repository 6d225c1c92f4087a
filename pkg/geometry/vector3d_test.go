package geometry

import (
	"math"
	"testing"
)

func TestVector3D_Arithmetic(t *testing.T) {
	a := Vector3D{1, 2, 3}
	b := Vector3D{4, 5, 6}

	if got := a.Add(b); got != (Vector3D{5, 7, 9}) {
		t.Errorf("Add = %v", got)
	}
	if got := b.Sub(a); got != (Vector3D{3, 3, 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Mul(2); got != (Vector3D{2, 4, 6}) {
		t.Errorf("Mul = %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v; want 32", got)
	}
	if got := (Vector3D{1, 0, 0}).Cross(Vector3D{0, 1, 0}); got != (Vector3D{0, 0, 1}) {
		t.Errorf("Cross X,Y = %v; want (0, 0, 1)", got)
	}
}

func TestVector3D_Magnitude(t *testing.T) {
	v := Vector3D{2, 3, 6} // length 7

	if got := v.Len(); got != 7 {
		t.Errorf("Len = %v; want 7", got)
	}
	if got := v.Normalize(); !floatEquals(got.Len(), 1) {
		t.Errorf("Normalize length = %v; want 1", got.Len())
	}
	if got := (Vector3D{}).Normalize(); got != (Vector3D{}) {
		t.Errorf("Normalize(0) = %v; want zero", got)
	}
	got := v.ClampLen(3.5)
	if !got.Eq(Vector3D{1, 1.5, 3}) {
		t.Errorf("ClampLen(3.5) = %v; want (1, 1.5, 3)", got)
	}
	if got.Len() > 3.5+Epsilon {
		t.Errorf("ClampLen exceeded bound: %v", got.Len())
	}
}

func TestVector3D_Rotations(t *testing.T) {
	v := Vector3D{1, 0, 5}
	if got := v.RotateZ(math.Pi / 2); !got.Eq(Vector3D{0, 1, 5}) {
		t.Errorf("RotateZ(90) = %v; want (0, 1, 5)", got)
	}
	w := Vector3D{3, 0, 1}
	if got := w.RotateX(math.Pi / 2); !got.Eq(Vector3D{3, -1, 0}) {
		t.Errorf("RotateX(90) = %v; want (3, -1, 0)", got)
	}
	// rotations preserve distances
	a, b := Vector3D{1, 2, 3}, Vector3D{-4, 0.5, 2}
	d := a.DistanceTo(b)
	if got := a.RotateX(0.7).RotateZ(1.3).DistanceTo(b.RotateX(0.7).RotateZ(1.3)); !floatEquals(got, d) {
		t.Errorf("rotation changed distance: %v != %v", got, d)
	}
}

func TestVector3D_Axes(t *testing.T) {
	v := FromAxes[Vector3D](1, 2, 3)
	if v != (Vector3D{1, 2, 3}) {
		t.Errorf("FromAxes = %v", v)
	}
	for i := 0; i < v.Dim(); i++ {
		if v.Axis(i) != float64(i+1) {
			t.Errorf("Axis(%d) = %v", i, v.Axis(i))
		}
	}
}
