package motionplan

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

// Request asks a planner for a path that brings one arm's flange to Target.
type Request struct {
	ID          uuid.UUID
	Arm         arm.Tag
	PlannerType string
	MoveGroup   string

	// Start is the full body state the plan starts from, including joints of the other arm when both arms share
	// a body.
	Start arm.JointState
	// ArmJoints names the joints the returned waypoints drive, in order.
	ArmJoints []string
	Target    referenceframe.FlangePose
	// BasePose is the world pose of the arm's base.
	BasePose spatialmath.Pose

	UsePointCloud bool
	PointCloud    []r3.Vector
	AttachObject  bool
}

// Planner is an external motion planner.
type Planner interface {
	// Plan returns a Success with waypoints for req.ArmJoints or a Failure. An error means the planner itself
	// could not run.
	Plan(ctx context.Context, req *Request) (Result, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, req *Request) (Result, error)

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, req *Request) (Result, error) {
	return f(ctx, req)
}
