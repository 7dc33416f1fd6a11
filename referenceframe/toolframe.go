package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/dualarm/simcore/spatialmath"
)

// FlangeToToolMount is the distance in meters along the corrected local x axis between the tool mounting
// point and the point used as the planning reference.
const FlangeToToolMount = 0.12

// orthonormalTolerance bounds how far configured correction matrices may drift from a proper rotation.
const orthonormalTolerance = 1e-6

// FlangePose is the raw world-frame pose of an arm's end-effector joint as reported by the physics engine.
// It is the frame motion planners solve for.
type FlangePose struct {
	spatialmath.Pose
}

// PlanningPose is the world-frame pose task code plans against: the flange pose with the rotation
// correction applied, offset (bias - FlangeToToolMount) along the corrected x axis.
type PlanningPose struct {
	spatialmath.Pose
}

// ToolPose is the world-frame pose of the fingertip center used for perception and grasp checks: the flange
// pose with the rotation correction applied, offset bias along the corrected x axis.
type ToolPose struct {
	spatialmath.Pose
}

// ToolFrame converts between the flange, planning and tool conventions of one arm. The rotation correction
// is R' = R * Global * Delta, where Global aligns the description's flange axes with the canonical tool
// axes and Delta is a per-embodiment adjustment.
type ToolFrame struct {
	bias       float64
	global     *spatialmath.RotationMatrix
	correction *spatialmath.RotationMatrix
	inverse    *spatialmath.RotationMatrix
}

// NewToolFrame returns a ToolFrame for a gripper whose fingertip center lies bias meters from the flange.
// Both matrices must be proper rotations.
func NewToolFrame(bias float64, global, delta *spatialmath.RotationMatrix) (*ToolFrame, error) {
	if global == nil {
		global = spatialmath.IdentityRotationMatrix()
	}
	if delta == nil {
		delta = spatialmath.IdentityRotationMatrix()
	}
	if !global.IsOrthonormal(orthonormalTolerance) {
		return nil, errors.New("global transform matrix is not a rotation")
	}
	if !delta.IsOrthonormal(orthonormalTolerance) {
		return nil, errors.New("delta matrix is not a rotation")
	}
	correction := global.Mul(delta)
	inverse, err := correction.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "rotation correction")
	}
	return &ToolFrame{bias: bias, global: global, correction: correction, inverse: inverse}, nil
}

// Bias returns the flange to fingertip distance.
func (tf *ToolFrame) Bias() float64 {
	return tf.bias
}

// project applies the rotation correction to a flange pose and offsets it by dist along the corrected x axis.
func (tf *ToolFrame) project(flange spatialmath.Pose, dist float64) spatialmath.Pose {
	corrected := flange.Orientation().RotationMatrix().Mul(tf.correction)
	p := flange.Point().Add(corrected.Rotate(r3.Vector{X: dist}))
	return spatialmath.NewPose(p, corrected)
}

// unproject is the exact inverse of project.
func (tf *ToolFrame) unproject(pose spatialmath.Pose, dist float64) spatialmath.Pose {
	corrected := pose.Orientation().RotationMatrix()
	p := pose.Point().Sub(corrected.Rotate(r3.Vector{X: dist}))
	return spatialmath.NewPose(p, corrected.Mul(tf.inverse))
}

func (tf *ToolFrame) planningOffset() float64 {
	return tf.bias - FlangeToToolMount
}

// PlanningPose projects a flange pose onto the planning reference point.
func (tf *ToolFrame) PlanningPose(flange FlangePose) PlanningPose {
	return PlanningPose{tf.project(flange, tf.planningOffset())}
}

// ToolPose projects a flange pose onto the fingertip center.
func (tf *ToolFrame) ToolPose(flange FlangePose) ToolPose {
	return ToolPose{tf.project(flange, tf.bias)}
}

// FlangeFromPlanning returns the flange pose whose planning projection is target.
func (tf *ToolFrame) FlangeFromPlanning(target PlanningPose) FlangePose {
	return FlangePose{tf.unproject(target, tf.planningOffset())}
}

// FlangeFromTool returns the flange pose whose tool projection is target.
func (tf *ToolFrame) FlangeFromTool(target ToolPose) FlangePose {
	return FlangePose{tf.unproject(target, tf.bias)}
}

// PlanningFromTool re-expresses a fingertip target as a planning reference target.
func (tf *ToolFrame) PlanningFromTool(target ToolPose) PlanningPose {
	return tf.PlanningPose(tf.FlangeFromTool(target))
}

// BaseRelative expresses a flange pose in the arm's base frame with only the global correction applied.
func (tf *ToolFrame) BaseRelative(flange FlangePose, base spatialmath.Pose) spatialmath.Pose {
	baseRot := base.Orientation().RotationMatrix().Transpose()
	p := baseRot.Rotate(flange.Point().Sub(base.Point()))
	rot := baseRot.Mul(flange.Orientation().RotationMatrix()).Mul(tf.global)
	return spatialmath.NewPose(p, rot)
}
