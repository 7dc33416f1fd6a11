// Package spatialmath defines spatial mathematical operations: poses, orientations and the
// conversions between quaternions, rotation matrices, axis angles and euler angles.
//
// Positions are expressed in meters and orientations follow the (w, x, y, z) quaternion layout used
// by gonum's quat.Number, which is also the layout used by the simulator.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	RotationMatrix() *RotationMatrix
	AxisAngles() *R4AA
	EulerAngles() *EulerAngles
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &Quaternion{Real: 1}
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the
// same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return OrientationAlmostEqualEps(o1, o2, 1e-5)
}

// OrientationAlmostEqualEps is OrientationAlmostEqual with a caller supplied angular tolerance in
// radians.
func OrientationAlmostEqualEps(o1, o2 Orientation, eps float64) bool {
	return QuatAngularDistance(o1.Quaternion(), o2.Quaternion()) <= eps
}

// OrientationBetween returns the orientation representing the difference between the two given
// orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := Quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// QuatAngularDistance returns the angle in radians of the smallest rotation taking q1 onto q2.
// q and -q describe the same rotation and are at distance zero.
func QuatAngularDistance(q1, q2 quat.Number) float64 {
	q1 = Normalize(q1)
	q2 = Normalize(q2)
	dot := math.Abs(q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot)
}
