package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point is in meters.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with the identity orientation.
func NewZeroPose() Pose {
	return &pose{orientation: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose. A nil orientation is the
// identity.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &pose{point: p, orientation: Normalize(o.Quaternion())}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, orientation: quat.Number{Real: 1}}
}

// NewPoseFromSlice builds a pose from the 7-element [x, y, z, qw, qx, qy, qz] layout used by the
// simulator and by embodiment configuration files. The quaternion is normalized.
func NewPoseFromSlice(values []float64) (Pose, error) {
	if len(values) != 7 {
		return nil, errors.Errorf("pose must have 7 values [x y z qw qx qy qz], got %d", len(values))
	}
	q := quat.Number{Real: values[3], Imag: values[4], Jmag: values[5], Kmag: values[6]}
	if quat.Abs(q) == 0 {
		return nil, errors.New("pose quaternion must not be zero")
	}
	o := Quaternion(q)
	return NewPose(r3.Vector{X: values[0], Y: values[1], Z: values[2]}, &o), nil
}

// PoseToSlice is the inverse of NewPoseFromSlice.
func PoseToSlice(p Pose) []float64 {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	return []float64{pt.X, pt.Y, pt.Z, q.Real, q.Imag, q.Jmag, q.Kmag}
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	q := Quaternion(p.orientation)
	return &q
}

func (p *pose) String() string {
	q := p.orientation
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f QW:%.4f QX:%.4f QY:%.4f QZ:%.4f}",
		p.point.X, p.point.Y, p.point.Z, q.Real, q.Imag, q.Jmag, q.Kmag)
}

// Compose treats Poses as functions A(x) and B(x) which produce the new poses p_A and p_B for x,
// and returns the pose of A(B(x)): b expressed in the frame a is expressed in.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &pose{
		point:       a.Point().Add(RotateVector(qa, b.Point())),
		orientation: Normalize(quat.Mul(qa, b.Orientation().Quaternion())),
	}
}

// PoseInverse returns a pose such that Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(Normalize(p.Orientation().Quaternion()))
	return &pose{
		point:       RotateVector(inv, p.Point()).Mul(-1),
		orientation: inv,
	}
}

// PoseBetween returns the pose of b expressed in the frame of a.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6, 1e-5)
}

// PoseAlmostEqualEps compares positions within linearTol meters and orientations within angularTol
// radians.
func PoseAlmostEqualEps(a, b Pose, linearTol, angularTol float64) bool {
	return a.Point().Sub(b.Point()).Norm() <= linearTol &&
		OrientationAlmostEqualEps(a.Orientation(), b.Orientation(), angularTol)
}

// PointAlmostEqual compares two vectors component wise.
func PointAlmostEqual(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
