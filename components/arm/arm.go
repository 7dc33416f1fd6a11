// Package arm defines the vocabulary shared by everything that addresses one arm of a dual-arm
// manipulator: which arm, which group of its joints, and the joint state read from or written to it.
package arm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Tag names one of the two arms.
type Tag int

const (
	// Left is the arm on the negative x side in the split layout.
	Left Tag = iota
	// Right is the arm on the positive x side in the split layout.
	Right
)

// Tags returns both arms in index order.
func Tags() []Tag {
	return []Tag{Left, Right}
}

// Index returns the position used to select per-arm entries from dual-arm configuration lists.
func (t Tag) Index() int {
	return int(t)
}

func (t Tag) String() string {
	switch t {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Valid reports whether t is Left or Right.
func (t Tag) Valid() bool {
	return t == Left || t == Right
}

// TagFromString parses "left" or "right".
func TagFromString(s string) (Tag, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, errors.Errorf("unknown arm %q, expected left or right", s)
	}
}

// JointGroup selects the arm joints or the gripper joints of one arm.
type JointGroup int

const (
	// ArmJoints are the joints of the kinematic chain up to the flange.
	ArmJoints JointGroup = iota
	// GripperJoints are the finger joints.
	GripperJoints
)

func (g JointGroup) String() string {
	switch g {
	case ArmJoints:
		return "arm"
	case GripperJoints:
		return "gripper"
	default:
		return fmt.Sprintf("JointGroup(%d)", int(g))
	}
}

// JointState is an ordered set of per-joint positions and velocities plus the normalized gripper
// value of one arm. Position and Velocity are parallel to Names.
type JointState struct {
	Names    []string
	Position []float64
	Velocity []float64
	Gripper  float64
}

// Len returns the number of joints.
func (s JointState) Len() int {
	return len(s.Position)
}

// Validate checks that the parallel slices agree in length.
func (s JointState) Validate() error {
	if len(s.Velocity) != len(s.Position) {
		return errors.Errorf("joint state has %d positions but %d velocities", len(s.Position), len(s.Velocity))
	}
	if len(s.Names) != 0 && len(s.Names) != len(s.Position) {
		return errors.Errorf("joint state has %d names but %d positions", len(s.Names), len(s.Position))
	}
	return nil
}

// Copy returns a deep copy.
func (s JointState) Copy() JointState {
	return JointState{
		Names:    append([]string(nil), s.Names...),
		Position: append([]float64(nil), s.Position...),
		Velocity: append([]float64(nil), s.Velocity...),
		Gripper:  s.Gripper,
	}
}
