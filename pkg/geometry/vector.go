// Package geometry provides the small value-type vectors the flocking core is
// written against. Vector2D and Vector3D share the same method set so the
// steering and integration code can be written once as generic code over
// Vector[V].
package geometry

// Epsilon is the tolerance used by Eq and by Normalize to decide that a
// vector has no usable direction.
const Epsilon = 1e-9

// Vector is the dimension-generic contract implemented by Vector2D and
// Vector3D. Every method is pure: it never mutates the receiver.
type Vector[V any] interface {
	Add(other V) V
	Sub(other V) V
	Mul(scalar float64) V
	Dot(other V) float64
	Len() float64
	LenSqr() float64
	Normalize() V
	ClampLen(max float64) V
	DistanceSquaredTo(other V) float64
	Eq(other V) bool

	// Dim is the number of components (2 or 3).
	Dim() int
	// Axis returns component i; out of range axes read as 0.
	Axis(i int) float64
	// WithAxis returns a copy with component i replaced.
	WithAxis(i int, x float64) V
}

// FromAxes builds a V from its components, ignoring extra values.
func FromAxes[V Vector[V]](axes ...float64) V {
	var v V
	for i, x := range axes {
		if i >= v.Dim() {
			break
		}
		v = v.WithAxis(i, x)
	}
	return v
}

// clampScale returns the factor to apply to a vector of squared length
// lenSqr so that its length does not exceed max.
func clampScale(lenSqr, max float64) (float64, bool) {
	if max <= 0 {
		return 0, true
	}
	if lenSqr <= max*max {
		return 1, false
	}
	return max / sqrt(lenSqr), true
}
