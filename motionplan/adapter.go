package motionplan

import (
	"context"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

// DefaultPointCloudResolution is the voxel size, in meters, used to thin obstacle point clouds.
const DefaultPointCloudResolution = 0.02

// Options are the optional parts of a planning request.
type Options struct {
	UsePointCloud bool
	AttachObject  bool
}

// ArmContext is what the adapter needs to know about the arm it plans for.
type ArmContext struct {
	Arm         arm.Tag
	PlannerType string
	MoveGroup   string
	ArmJoints   []string
	BasePose    spatialmath.Pose
}

// Adapter builds requests for one planner and turns every way the planner can fail into a Failure result.
type Adapter struct {
	planner Planner
	logger  logging.Logger

	mu    sync.Mutex
	cloud []r3.Vector
}

// NewAdapter returns an adapter for planner. A nil planner fails every request.
func NewAdapter(planner Planner, logger logging.Logger) *Adapter {
	return &Adapter{planner: planner, logger: logger}
}

// UpdatePointCloud replaces the obstacle cloud sent with requests that ask for it. Points are thinned to one
// per voxel of the given resolution; a non-positive resolution uses DefaultPointCloudResolution. It returns the
// number of points kept.
func (a *Adapter) UpdatePointCloud(points []r3.Vector, resolution float64) int {
	if resolution <= 0 {
		resolution = DefaultPointCloudResolution
	}
	type voxel struct{ x, y, z int64 }
	kept := lo.UniqBy(points, func(p r3.Vector) voxel {
		return voxel{
			int64(math.Floor(p.X / resolution)),
			int64(math.Floor(p.Y / resolution)),
			int64(math.Floor(p.Z / resolution)),
		}
	})
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cloud = kept
	a.logger.Debugw("updated point cloud", "points", len(points), "kept", len(kept), "resolution", resolution)
	return len(kept)
}

// PointCloud returns a copy of the current obstacle cloud.
func (a *Adapter) PointCloud() []r3.Vector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]r3.Vector(nil), a.cloud...)
}

// NewRequest builds a request from the current body state and a flange target.
func (a *Adapter) NewRequest(
	ac ArmContext,
	start arm.JointState,
	target referenceframe.FlangePose,
	opts Options,
) *Request {
	req := &Request{
		ID:            uuid.New(),
		Arm:           ac.Arm,
		PlannerType:   ac.PlannerType,
		MoveGroup:     ac.MoveGroup,
		Start:         start.Copy(),
		ArmJoints:     append([]string(nil), ac.ArmJoints...),
		Target:        target,
		BasePose:      ac.BasePose,
		UsePointCloud: opts.UsePointCloud,
		AttachObject:  opts.AttachObject,
	}
	if opts.UsePointCloud {
		req.PointCloud = a.PointCloud()
	}
	return req
}

// Plan sends req to the planner and returns its result synchronously. Planner errors, cancellation and
// malformed paths all come back as a Failure.
func (a *Adapter) Plan(ctx context.Context, req *Request) Result {
	logger := a.logger.Sublogger(req.Arm.String())
	result := a.plan(ctx, req)
	result.RequestID = req.ID
	if result.OK() {
		logger.Debugw("plan succeeded", "request", req.ID, "waypoints", result.Len(), "planner", req.PlannerType)
	} else {
		logger.Warnw("plan failed", "request", req.ID, "reason", result.Reason, "planner", req.PlannerType)
	}
	return result
}

func (a *Adapter) plan(ctx context.Context, req *Request) Result {
	if a.planner == nil {
		return NewFailure("no planner configured")
	}
	if err := ctx.Err(); err != nil {
		return NewFailure(err.Error())
	}
	result, err := a.planner.Plan(ctx, req)
	if err != nil {
		return NewFailure(err.Error())
	}
	if !result.OK() {
		if result.Reason == "" {
			result.Reason = "planner returned failure"
		}
		result.Waypoints = nil
		return result
	}
	if err := result.Validate(len(req.ArmJoints)); err != nil {
		return NewFailure("invalid plan: " + err.Error())
	}
	return result
}
