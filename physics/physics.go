// Package physics defines what the kinematic core needs from a physics engine: bodies loaded from robot
// description files, joint drives, passive force compensation, stepping and rendering.
//
// Engines are driven from a single goroutine. Nothing in this package is safe for concurrent use unless an
// implementation says otherwise.
package physics

import (
	"github.com/pkg/errors"

	"github.com/dualarm/simcore/spatialmath"
)

// ErrSceneUnavailable is returned by operations on a scene that has been closed or was never started.
var ErrSceneUnavailable = errors.New("physics scene unavailable")

// Scene owns every simulated body and advances them together.
type Scene interface {
	// LoadBody loads a robot description with its root link fixed in place.
	LoadBody(path string) (Body, error)
	// Step advances the simulation by one timestep.
	Step() error
	// UpdateRender refreshes the rendered view. It never affects the simulation.
	UpdateRender() error
	// Timestep returns the duration of one step in seconds.
	Timestep() float64
}

// Body is one articulated rigid body, such as a single arm or a dual-arm torso.
type Body interface {
	Name() string
	SetRootPose(pose spatialmath.Pose)
	RootPose() spatialmath.Pose

	// ActiveJoints returns the joints that take a position, in the order used by Qpos and Qvel.
	ActiveJoints() []Joint
	// FindJoint looks a joint up by name, fixed joints included.
	FindJoint(name string) (Joint, bool)
	FindLink(name string) (Link, bool)
	Links() []Link

	Qpos() []float64
	Qvel() []float64

	// ComputePassiveForce returns the generalized forces that cancel gravity and, optionally, Coriolis and
	// centrifugal effects for the current state. It has one entry per active joint.
	ComputePassiveForce(gravity, coriolisAndCentrifugal bool) []float64
	// SetQf applies generalized forces for the next step.
	SetQf(qf []float64) error
}

// Joint is a handle to one joint of a Body. Handles are comparable; two handles are equal exactly when they
// refer to the same joint.
type Joint interface {
	Name() string
	SetDriveProperty(stiffness, damping float64)
	DriveProperty() (stiffness, damping float64)
	SetDriveTarget(position float64)
	DriveTarget() float64
	SetDriveVelocityTarget(velocity float64)
	DriveVelocityTarget() float64
	// GlobalPose is the world pose of the joint frame.
	GlobalPose() spatialmath.Pose
}

// Link is a handle to one link of a Body.
type Link interface {
	Name() string
	GlobalPose() spatialmath.Pose
}

// ApplyPassiveForce sets each body's generalized forces to its own passive force, compensating gravity and
// Coriolis and centrifugal effects. Bodies listed more than once are compensated once.
func ApplyPassiveForce(bodies ...Body) error {
	seen := make(map[Body]bool, len(bodies))
	for _, b := range bodies {
		if b == nil || seen[b] {
			continue
		}
		seen[b] = true
		if err := b.SetQf(b.ComputePassiveForce(true, true)); err != nil {
			return errors.Wrapf(err, "passive force for %q", b.Name())
		}
	}
	return nil
}
