package robot

import (
	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/physics"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

func names(joints []physics.Joint) []string {
	out := make([]string, 0, len(joints))
	for _, j := range joints {
		out = append(out, j.Name())
	}
	return out
}

// CommandedJointState returns the last drive targets written to the arm joints and the normalized gripper
// value last commanded.
func (r *Robot) CommandedJointState(tag arm.Tag) arm.JointState {
	h := r.handle(tag)
	s := arm.JointState{
		Names:    names(h.armJoints),
		Position: make([]float64, 0, len(h.armJoints)),
		Velocity: make([]float64, 0, len(h.armJoints)),
	}
	for _, j := range h.armJoints {
		s.Position = append(s.Position, j.DriveTarget())
		s.Velocity = append(s.Velocity, j.DriveVelocityTarget())
	}
	if h.gripper.Present() {
		s.Gripper = h.gripper.Value()
	}
	return s
}

// MeasuredJointState returns the arm joint positions and velocities read back from the body, with the
// normalized gripper position.
func (r *Robot) MeasuredJointState(tag arm.Tag) arm.JointState {
	h := r.handle(tag)
	qpos, qvel := h.body.Qpos(), h.body.Qvel()
	s := arm.JointState{
		Names:    names(h.armJoints),
		Position: make([]float64, 0, len(h.armIndices)),
		Velocity: make([]float64, 0, len(h.armIndices)),
		Gripper:  r.measuredGripper(h),
	}
	for _, i := range h.armIndices {
		s.Position = append(s.Position, qpos[i])
		s.Velocity = append(s.Velocity, qvel[i])
	}
	return s
}

// BodyState returns the state of every active joint of the body carrying the arm. On a shared body it includes
// the other arm's joints.
func (r *Robot) BodyState(tag arm.Tag) arm.JointState {
	h := r.handle(tag)
	return arm.JointState{
		Names:    names(h.body.ActiveJoints()),
		Position: h.body.Qpos(),
		Velocity: h.body.Qvel(),
		Gripper:  r.measuredGripper(h),
	}
}

// FlangePose returns the world pose of the arm's end effector joint as the simulator reports it.
func (r *Robot) FlangePose(tag arm.Tag) referenceframe.FlangePose {
	return referenceframe.FlangePose{Pose: r.handle(tag).ee.GlobalPose()}
}

// PlanningPose returns the planning reference pose of the arm.
func (r *Robot) PlanningPose(tag arm.Tag) referenceframe.PlanningPose {
	h := r.handle(tag)
	return h.spec.ToolFrame().PlanningPose(r.FlangePose(tag))
}

// ToolPose returns the fingertip pose of the arm.
func (r *Robot) ToolPose(tag arm.Tag) referenceframe.ToolPose {
	h := r.handle(tag)
	return h.spec.ToolFrame().ToolPose(r.FlangePose(tag))
}

// BaseRelativePose returns the flange pose expressed in the arm's base frame.
func (r *Robot) BaseRelativePose(tag arm.Tag) spatialmath.Pose {
	h := r.handle(tag)
	return h.spec.ToolFrame().BaseRelative(r.FlangePose(tag), h.spec.BasePose())
}

// FlangeTarget converts a planning reference target into the flange target a planner expects.
func (r *Robot) FlangeTarget(tag arm.Tag, target referenceframe.PlanningPose) referenceframe.FlangePose {
	return r.handle(tag).spec.ToolFrame().FlangeFromPlanning(target)
}

// CameraPose returns the world pose of the arm's camera link.
func (r *Robot) CameraPose(tag arm.Tag) spatialmath.Pose {
	return r.handle(tag).camera.GlobalPose()
}

// CaptureOriginPoses records the current planning pose of both arms, typically right after homing.
func (r *Robot) CaptureOriginPoses() {
	for _, tag := range arm.Tags() {
		h := r.handle(tag)
		h.origin = r.PlanningPose(tag)
		h.hasOrigin = true
	}
}

// OriginPose returns the planning pose captured by CaptureOriginPoses.
func (r *Robot) OriginPose(tag arm.Tag) (referenceframe.PlanningPose, bool) {
	h := r.handle(tag)
	return h.origin, h.hasOrigin
}
