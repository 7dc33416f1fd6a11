package robot

import (
	"context"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/components/gripper"
	"github.com/dualarm/simcore/control"
	"github.com/dualarm/simcore/physics"
)

const (
	// GripperVelocityTarget is the drive velocity written with every gripper target.
	GripperVelocityTarget = 0.05
	// GripperSettleSteps is the number of steps SettleGripper takes when given none.
	GripperSettleSteps = 100
)

// measuredGripper reads the gripper position from the first gripper joint's drive target.
func (r *Robot) measuredGripper(h *armHandle) float64 {
	if len(h.gripperJoints) == 0 {
		return 0
	}
	return h.gripper.Range().Normalized(h.gripperJoints[0].DriveTarget())
}

// SetGripper commands the arm's gripper to the normalized opening g, moving at most |eps| from its measured
// position. Passive forces are applied to every body first. An arm without a gripper logs a warning and
// returns a zero command.
func (r *Robot) SetGripper(tag arm.Tag, g, eps float64) (gripper.Command, error) {
	if err := checkTag(tag); err != nil {
		return gripper.Command{}, err
	}
	h := r.handle(tag)
	if !h.gripper.Present() {
		return h.gripper.Command(g, 0, eps), nil
	}
	if err := physics.ApplyPassiveForce(r.bodies...); err != nil {
		return gripper.Command{}, err
	}
	cmd := h.gripper.Command(g, r.measuredGripper(h), eps)
	for _, j := range h.gripperJoints {
		j.SetDriveTarget(cmd.Native)
		j.SetDriveVelocityTarget(GripperVelocityTarget)
	}
	return cmd, nil
}

// GripperValue returns the last applied normalized gripper value, or 0 for an arm without a gripper.
func (r *Robot) GripperValue(tag arm.Tag) float64 {
	return r.handle(tag).gripper.Value()
}

// IsGripperOpen reports whether the gripper value is above gripper.OpenThreshold.
func (r *Robot) IsGripperOpen(tag arm.Tag) bool {
	return r.handle(tag).gripper.IsOpen()
}

// IsGripperHalfOpen reports whether the gripper value is above gripper.HalfOpenThreshold.
func (r *Robot) IsGripperHalfOpen(tag arm.Tag) bool {
	return r.handle(tag).gripper.IsHalfOpen()
}

// IsGripperClosed reports whether the gripper value is below gripper.ClosedThreshold.
func (r *Robot) IsGripperClosed(tag arm.Tag) bool {
	return r.handle(tag).gripper.IsClosed()
}

// SettleGripper steps the scene so the gripper reaches its target. A non-positive steps uses
// GripperSettleSteps.
func (r *Robot) SettleGripper(ctx context.Context, tag arm.Tag, steps int) control.Outcome {
	if err := checkTag(tag); err != nil {
		return rejected(err)
	}
	if steps <= 0 {
		steps = GripperSettleSteps
	}
	return r.executor.Settle(ctx, tag, r.bodies, steps)
}
