package robot

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/control"
	"github.com/dualarm/simcore/motionplan"
	"github.com/dualarm/simcore/referenceframe"
)

// MoveResult is the record of one plan-and-execute cycle.
type MoveResult struct {
	Plan    motionplan.Result
	Outcome control.Outcome
	Final   control.CycleState
}

// OK reports whether the cycle succeeded.
func (m MoveResult) OK() bool {
	return m.Final == control.Succeeded
}

// UpdatePointCloud replaces the obstacle cloud used by both arms' planners. It returns the number of points
// kept after voxel filtering at resolution.
func (r *Robot) UpdatePointCloud(points []r3.Vector, resolution float64) int {
	var kept int
	for _, h := range r.arms {
		kept = h.planner.UpdatePointCloud(points, resolution)
	}
	return kept
}

// Plan asks the arm's planner for a path from the current body state to a flange target.
func (r *Robot) Plan(
	ctx context.Context,
	tag arm.Tag,
	target referenceframe.FlangePose,
	opts motionplan.Options,
) motionplan.Result {
	if err := checkTag(tag); err != nil {
		return motionplan.NewFailure(err.Error())
	}
	h := r.handle(tag)
	req := h.planner.NewRequest(motionplan.ArmContext{
		Arm:         tag,
		PlannerType: h.spec.Planner(),
		MoveGroup:   h.spec.MoveGroup(),
		ArmJoints:   h.spec.ArmJoints(),
		BasePose:    h.spec.BasePose(),
	}, r.BodyState(tag), target, opts)
	result := h.planner.Plan(ctx, req)
	r.metrics.ObservePlan(tag, result)
	return result
}

// Follow drives the arm joints along a planned path, stepping the scene once per waypoint. Every body gets
// passive force compensation on every step, including the other arm's body in the Split layout.
func (r *Robot) Follow(ctx context.Context, tag arm.Tag, result motionplan.Result) control.Outcome {
	if err := checkTag(tag); err != nil {
		return rejected(err)
	}
	h := r.handle(tag)
	return r.executor.Follow(ctx, tag, r.bodies, h.armJoints, result)
}

// MoveTo plans to a planning reference target and follows the path. A planning failure or an aborted
// trajectory comes back in the MoveResult, with the cycle back in control.Idle; the caller decides whether to
// fall back. The only error is a cycle already in progress for the arm.
func (r *Robot) MoveTo(
	ctx context.Context,
	tag arm.Tag,
	target referenceframe.PlanningPose,
	opts motionplan.Options,
) (MoveResult, error) {
	if err := checkTag(tag); err != nil {
		return MoveResult{}, err
	}
	return r.move(ctx, tag, r.FlangeTarget(tag, target), opts)
}

// MoveToolTo is MoveTo for a fingertip target.
func (r *Robot) MoveToolTo(
	ctx context.Context,
	tag arm.Tag,
	target referenceframe.ToolPose,
	opts motionplan.Options,
) (MoveResult, error) {
	if err := checkTag(tag); err != nil {
		return MoveResult{}, err
	}
	return r.move(ctx, tag, r.handle(tag).spec.ToolFrame().FlangeFromTool(target), opts)
}

func (r *Robot) move(
	ctx context.Context,
	tag arm.Tag,
	target referenceframe.FlangePose,
	opts motionplan.Options,
) (MoveResult, error) {
	h := r.handle(tag)
	if err := h.cycle.BeginPlanning(); err != nil {
		return MoveResult{}, err
	}

	var res MoveResult
	res.Plan = r.Plan(ctx, tag, target, opts)
	if err := h.cycle.Planned(res.Plan); err != nil {
		return res, err
	}
	res.Outcome = r.Follow(ctx, tag, res.Plan)
	if res.Plan.OK() {
		if err := h.cycle.Executed(res.Outcome); err != nil {
			return res, err
		}
	}
	final, err := h.cycle.Finish()
	res.Final = final
	if err != nil {
		return res, err
	}
	if !res.OK() {
		h.logger.Warnw("move failed", "reason", h.cycle.Reason())
	}
	return res, nil
}

func rejected(err error) control.Outcome {
	return control.Outcome{Status: control.NotExecuted, FailedAt: -1, Reason: err.Error(), Err: err}
}

// CycleState returns the state of the arm's plan-and-execute cycle.
func (r *Robot) CycleState(tag arm.Tag) control.CycleState {
	return r.handle(tag).cycle.State()
}
