// Package motionplan connects the kinematic core to an external motion planner: it builds planning requests
// from the current joint state and a flange target, and returns the planner's path or its failure as a Result.
package motionplan

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Status is the outcome of a planning request.
type Status int

const (
	// Failure means the planner found no path. It is an expected outcome, not an error.
	Failure Status = iota
	// Success means the result carries a path.
	Success
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Waypoint is one configuration of the arm joints along a path, with the joint velocities at that point.
type Waypoint struct {
	Position []float64
	Velocity []float64
}

// Result is what a planner returns for a Request.
type Result struct {
	RequestID uuid.UUID
	Status    Status
	// Reason explains a Failure.
	Reason    string
	Waypoints []Waypoint
	// TimeStep is the time between consecutive waypoints in seconds.
	TimeStep float64
}

// NewSuccess returns a successful result for the given path.
func NewSuccess(waypoints []Waypoint, timeStep float64) Result {
	return Result{Status: Success, Waypoints: waypoints, TimeStep: timeStep}
}

// NewFailure returns a failed result.
func NewFailure(reason string) Result {
	return Result{Status: Failure, Reason: reason}
}

// OK reports whether the result is a Success.
func (r Result) OK() bool {
	return r.Status == Success
}

// Len returns the number of waypoints.
func (r Result) Len() int {
	return len(r.Waypoints)
}

// Validate checks that every waypoint has dof finite positions and, when velocities are given, dof finite
// velocities. A negative dof only checks that all waypoints agree with the first.
func (r Result) Validate(dof int) error {
	if !r.OK() {
		return nil
	}
	if dof < 0 && len(r.Waypoints) > 0 {
		dof = len(r.Waypoints[0].Position)
	}
	for k, wp := range r.Waypoints {
		if len(wp.Position) != dof {
			return errors.Errorf("waypoint %d has %d positions, expected %d", k, len(wp.Position), dof)
		}
		if len(wp.Velocity) != 0 && len(wp.Velocity) != dof {
			return errors.Errorf("waypoint %d has %d velocities, expected %d", k, len(wp.Velocity), dof)
		}
		if floats.HasNaN(wp.Position) || floats.HasNaN(wp.Velocity) {
			return errors.Errorf("waypoint %d is not a number", k)
		}
	}
	return nil
}
