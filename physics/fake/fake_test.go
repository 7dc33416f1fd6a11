package fake

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/dualarm/simcore/physics"
	"github.com/dualarm/simcore/spatialmath"
	"github.com/dualarm/simcore/utils"
)

func loadSingle(t *testing.T, s *Scene) *Body {
	t.Helper()
	b, err := s.LoadBody(utils.ResolveFile("testdata/urdf/single_arm.urdf"))
	test.That(t, err, test.ShouldBeNil)
	return b.(*Body)
}

func TestLoadBody(t *testing.T) {
	s := NewScene()
	b := loadSingle(t, s)
	test.That(t, b.Name(), test.ShouldEqual, "single_arm")
	test.That(t, len(b.ActiveJoints()), test.ShouldEqual, 6)
	test.That(t, len(b.Links()), test.ShouldEqual, 9)
	test.That(t, b.Qpos(), test.ShouldResemble, make([]float64, 6))
	test.That(t, s.Timestep(), test.ShouldEqual, DefaultTimestep)

	ee, ok := b.FindJoint("ee_joint")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, ee.Name(), test.ShouldEqual, "ee_joint")
	_, ok = b.FindJoint("nope")
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = b.FindLink("wrist_camera")
	test.That(t, ok, test.ShouldBeTrue)

	_, err := s.LoadBody(utils.ResolveFile("testdata/urdf/nope.urdf"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBodyNamesAreUnique(t *testing.T) {
	s := NewScene()
	first, second, third := loadSingle(t, s), loadSingle(t, s), loadSingle(t, s)
	test.That(t, first.Name(), test.ShouldEqual, "single_arm")
	test.That(t, second.Name(), test.ShouldEqual, "single_arm_1")
	test.That(t, third.Name(), test.ShouldEqual, "single_arm_2")
	test.That(t, second.Model().Name(), test.ShouldEqual, "single_arm")

	second.ActiveJoints()[0].SetDriveTarget(0.2)
	writes := s.Writes(DriveTarget)
	test.That(t, writes, test.ShouldHaveLength, 1)
	test.That(t, writes[0].Body, test.ShouldEqual, "single_arm_1")
}

func TestStepTracksTargets(t *testing.T) {
	s := NewScene()
	b := loadSingle(t, s)
	joints := b.ActiveJoints()
	joints[0].SetDriveTarget(0.5)
	joints[0].SetDriveVelocityTarget(0.1)

	test.That(t, b.Qpos()[0], test.ShouldEqual, 0.)
	test.That(t, s.Step(), test.ShouldBeNil)
	test.That(t, b.Qpos()[0], test.ShouldEqual, 0.5)
	test.That(t, b.Qvel()[0], test.ShouldEqual, 0.1)
	test.That(t, s.Steps(), test.ShouldEqual, 1)

	writes := s.Writes(DriveTarget)
	test.That(t, writes, test.ShouldResemble, []Write{{Step: 0, Body: "single_arm", Joint: "joint1", Kind: DriveTarget, Value: 0.5}})
	test.That(t, len(s.Writes()), test.ShouldEqual, 2)
}

func TestPassiveForce(t *testing.T) {
	s := NewScene()
	b := loadSingle(t, s)
	qf := b.ComputePassiveForce(true, false)
	test.That(t, qf[0], test.ShouldAlmostEqual, 0.1)
	test.That(t, qf[5], test.ShouldAlmostEqual, 0.6)
	test.That(t, b.ComputePassiveForce(false, true), test.ShouldResemble, make([]float64, 6))

	test.That(t, physics.ApplyPassiveForce(b, b, nil), test.ShouldBeNil)
	test.That(t, len(s.Writes(Qf)), test.ShouldEqual, 1)
	test.That(t, b.Qf()[1], test.ShouldAlmostEqual, 0.2)
	test.That(t, b.SetQf([]float64{1}), test.ShouldNotBeNil)

	test.That(t, s.Step(), test.ShouldBeNil)
	test.That(t, b.Qf(), test.ShouldResemble, make([]float64, 6))
}

func TestGlobalPoses(t *testing.T) {
	s := NewScene()
	b := loadSingle(t, s)
	b.SetRootPose(spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))

	ee, _ := b.FindJoint("ee_joint")
	test.That(t, spatialmath.PointAlmostEqual(ee.GlobalPose().Point(), r3.Vector{X: 1.6, Z: 0.2}, 1e-9), test.ShouldBeTrue)

	test.That(t, b.SetQpos([]float64{0, 0, 0, 0, 0.04, 0}), test.ShouldBeNil)
	finger, _ := b.FindLink("finger1")
	test.That(t, spatialmath.PointAlmostEqual(finger.GlobalPose().Point(), r3.Vector{X: 1.62, Y: 0.04, Z: 0.2}, 1e-9), test.ShouldBeTrue)
	test.That(t, b.SetQpos([]float64{0}), test.ShouldNotBeNil)
}

func TestFailuresAndRenders(t *testing.T) {
	s := NewScene()
	loadSingle(t, s)
	s.FailStepAt = 3

	test.That(t, s.Step(), test.ShouldBeNil)
	test.That(t, s.UpdateRender(), test.ShouldBeNil)
	test.That(t, s.Step(), test.ShouldBeNil)
	test.That(t, s.Step(), test.ShouldNotBeNil)
	test.That(t, s.Steps(), test.ShouldEqual, 2)
	test.That(t, s.Renders(), test.ShouldResemble, []int{1})

	s.ResetLog()
	test.That(t, s.Steps(), test.ShouldEqual, 0)
	test.That(t, s.Renders(), test.ShouldBeEmpty)

	s.Close()
	test.That(t, s.Step(), test.ShouldBeError, physics.ErrSceneUnavailable)
	_, err := s.LoadBody(utils.ResolveFile("testdata/urdf/single_arm.urdf"))
	test.That(t, err, test.ShouldBeError, physics.ErrSceneUnavailable)
}
