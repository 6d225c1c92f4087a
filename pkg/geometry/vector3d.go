package geometry

import (
	"fmt"
	"math"
)

// Vector3D represents a 3D vector or point in cartesian space.
type Vector3D struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
	Z float64 `json:"z" toml:"z"`
}

var _ Vector[Vector3D] = Vector3D{}

// NewVector3D creates a new Vector3D.
func NewVector3D(x, y, z float64) Vector3D {
	return Vector3D{X: x, Y: y, Z: z}
}

// String implements the fmt.Stringer interface.
func (v Vector3D) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// Add adds two vectors and returns the result.
func (v Vector3D) Add(other Vector3D) Vector3D {
	return Vector3D{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub subtracts the other vector from the current vector.
func (v Vector3D) Sub(other Vector3D) Vector3D {
	return Vector3D{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Mul scales the vector by a scalar value.
func (v Vector3D) Mul(scalar float64) Vector3D {
	return Vector3D{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Div scales the vector by 1/scalar, see Vector2D.Div.
func (v Vector3D) Div(scalar float64) (Vector3D, error) {
	if scalar == 0 {
		inf := math.Inf(1)
		return Vector3D{inf, inf, inf}, ErrDivideByZero
	}
	return Vector3D{v.X / scalar, v.Y / scalar, v.Z / scalar}, nil
}

// Dot calculates the dot product of two vectors.
func (v Vector3D) Dot(other Vector3D) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross calculates the cross product v × other.
func (v Vector3D) Cross(other Vector3D) Vector3D {
	return Vector3D{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// LenSqr calculates the squared magnitude of the vector.
func (v Vector3D) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len calculates the magnitude (length) of the vector.
func (v Vector3D) Len() float64 {
	return sqrt(v.LenSqr())
}

// Normalize returns a unit vector in the same direction,
// or the zero vector if the length is effectively zero.
func (v Vector3D) Normalize() Vector3D {
	l := v.Len()
	if l < Epsilon {
		return Vector3D{}
	}
	return v.Mul(1 / l)
}

// ClampLen returns v with its magnitude capped at max.
func (v Vector3D) ClampLen(max float64) Vector3D {
	scale, changed := clampScale(v.LenSqr(), max)
	if !changed {
		return v
	}
	return v.Mul(scale)
}

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector3D) DistanceTo(other Vector3D) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector3D) DistanceSquaredTo(other Vector3D) float64 {
	return v.Sub(other).LenSqr()
}

// RotateZ rotates the vector by angle (radians) around the Z axis.
func (v Vector3D) RotateZ(angle float64) Vector3D {
	xy := Vector2D{v.X, v.Y}.Rotate(angle)
	return Vector3D{xy.X, xy.Y, v.Z}
}

// RotateX rotates the vector by angle (radians) around the X axis.
func (v Vector3D) RotateX(angle float64) Vector3D {
	yz := Vector2D{v.Y, v.Z}.Rotate(angle)
	return Vector3D{v.X, yz.X, yz.Y}
}

// Dim returns 3.
func (v Vector3D) Dim() int { return 3 }

// Axis returns X, Y or Z for 0, 1 or 2.
func (v Vector3D) Axis(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	return 0
}

// WithAxis returns a copy of v with component i set to x.
func (v Vector3D) WithAxis(i int, x float64) Vector3D {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	case 2:
		v.Z = x
	}
	return v
}

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector3D) Eq(other Vector3D) bool {
	return math.Abs(v.X-other.X) <= Epsilon &&
		math.Abs(v.Y-other.Y) <= Epsilon &&
		math.Abs(v.Z-other.Z) <= Epsilon
}
