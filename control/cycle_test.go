package control

import (
	"testing"

	"go.viam.com/test"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/motionplan"
)

func TestCycle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := NewCycle(arm.Left)
		test.That(t, c.State(), test.ShouldEqual, Idle)
		test.That(t, c.BeginPlanning(), test.ShouldBeNil)
		test.That(t, c.State(), test.ShouldEqual, Planning)
		test.That(t, c.Planned(motionplan.NewSuccess(nil, 0.004)), test.ShouldBeNil)
		test.That(t, c.State(), test.ShouldEqual, Executing)
		test.That(t, c.Executed(Outcome{Status: Completed, FailedAt: -1}), test.ShouldBeNil)
		test.That(t, c.State(), test.ShouldEqual, Succeeded)
		final, err := c.Finish()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, final, test.ShouldEqual, Succeeded)
		test.That(t, c.State(), test.ShouldEqual, Idle)
	})

	t.Run("planning failure", func(t *testing.T) {
		c := NewCycle(arm.Right)
		test.That(t, c.BeginPlanning(), test.ShouldBeNil)
		test.That(t, c.Planned(motionplan.NewFailure("unreachable")), test.ShouldBeNil)
		test.That(t, c.State(), test.ShouldEqual, Failed)
		test.That(t, c.Reason(), test.ShouldEqual, "unreachable")
		test.That(t, c.Executed(Outcome{}), test.ShouldBeError, "right arm cycle is FAILED, expected EXECUTING")
		final, err := c.Finish()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, final, test.ShouldEqual, Failed)
		test.That(t, c.BeginPlanning(), test.ShouldBeNil)
		test.That(t, c.Reason(), test.ShouldBeEmpty)
	})

	t.Run("execution abort", func(t *testing.T) {
		c := NewCycle(arm.Left)
		test.That(t, c.BeginPlanning(), test.ShouldBeNil)
		test.That(t, c.Planned(motionplan.NewSuccess(nil, 0.004)), test.ShouldBeNil)
		test.That(t, c.Executed(Outcome{Status: Aborted, Reason: "failed at step 3"}), test.ShouldBeNil)
		test.That(t, c.State(), test.ShouldEqual, Failed)
		test.That(t, c.Reason(), test.ShouldEqual, "failed at step 3")
	})

	t.Run("illegal transitions", func(t *testing.T) {
		c := NewCycle(arm.Left)
		_, err := c.Finish()
		test.That(t, err, test.ShouldBeError, "left arm cycle cannot finish from IDLE")
		test.That(t, c.Planned(motionplan.NewFailure("x")), test.ShouldNotBeNil)
		test.That(t, c.BeginPlanning(), test.ShouldBeNil)
		test.That(t, c.BeginPlanning(), test.ShouldNotBeNil)
		test.That(t, c.State(), test.ShouldEqual, Planning)
	})
}
