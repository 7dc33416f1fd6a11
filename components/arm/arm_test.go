package arm

import (
	"testing"

	"go.viam.com/test"
)

func TestTags(t *testing.T) {
	test.That(t, Tags(), test.ShouldResemble, []Tag{Left, Right})
	test.That(t, Left.String(), test.ShouldEqual, "left")
	test.That(t, Right.String(), test.ShouldEqual, "right")
	test.That(t, Tag(5).String(), test.ShouldEqual, "Tag(5)")
	test.That(t, Tag(5).Valid(), test.ShouldBeFalse)
	test.That(t, Right.Index(), test.ShouldEqual, 1)

	tag, err := TagFromString("right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tag, test.ShouldEqual, Right)
	_, err = TagFromString("middle")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "middle")
}

func TestJointGroupString(t *testing.T) {
	test.That(t, ArmJoints.String(), test.ShouldEqual, "arm")
	test.That(t, GripperJoints.String(), test.ShouldEqual, "gripper")
}

func TestJointState(t *testing.T) {
	s := JointState{
		Names:    []string{"a", "b"},
		Position: []float64{1, 2},
		Velocity: []float64{0, 0},
		Gripper:  0.5,
	}
	test.That(t, s.Validate(), test.ShouldBeNil)
	test.That(t, s.Len(), test.ShouldEqual, 2)

	cp := s.Copy()
	cp.Position[0] = 10
	test.That(t, s.Position[0], test.ShouldEqual, 1.)
	test.That(t, cp.Gripper, test.ShouldEqual, 0.5)

	bad := JointState{Position: []float64{1}, Velocity: []float64{}}
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
	bad = JointState{Names: []string{"a"}, Position: []float64{1, 2}, Velocity: []float64{0, 0}}
	test.That(t, bad.Validate(), test.ShouldNotBeNil)
}
