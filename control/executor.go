// Package control drives the physics scene along planned trajectories. Every step is a complete set of drive
// writes followed by exactly one physics step; rendering is sub-sampled and never gates stepping.
package control

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/motionplan"
	"github.com/dualarm/simcore/physics"
)

// DefaultRenderEvery is the number of physics steps per render update.
const DefaultRenderEvery = 4

// OutcomeStatus says how a trajectory ended.
type OutcomeStatus int

const (
	// Completed means every waypoint was applied.
	Completed OutcomeStatus = iota
	// NotExecuted means nothing was written because the plan failed or could not be used.
	NotExecuted
	// Aborted means a step failed and the remaining waypoints were dropped.
	Aborted
)

func (s OutcomeStatus) String() string {
	switch s {
	case Completed:
		return "completed"
	case NotExecuted:
		return "not_executed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("OutcomeStatus(%d)", int(s))
	}
}

// Outcome reports what Follow did. It is a result rather than an error: callers decide whether to fall back.
type Outcome struct {
	Status OutcomeStatus
	// StepsApplied counts the physics steps that completed.
	StepsApplied int
	// FailedAt is the 0-based index of the waypoint whose step failed, or -1.
	FailedAt int
	Reason   string
	Err      error
}

// OK reports whether the trajectory completed.
func (o Outcome) OK() bool {
	return o.Status == Completed
}

func notExecuted(reason string, err error) Outcome {
	return Outcome{Status: NotExecuted, FailedAt: -1, Reason: reason, Err: err}
}

// Executor steps one physics scene. It must only be used from the goroutine that owns the scene.
type Executor struct {
	scene       physics.Scene
	logger      logging.Logger
	metrics     *Metrics
	renderEvery int
}

// NewExecutor returns an executor for scene. metrics may be nil.
func NewExecutor(scene physics.Scene, logger logging.Logger, metrics *Metrics) *Executor {
	return &Executor{scene: scene, logger: logger, metrics: metrics, renderEvery: DefaultRenderEvery}
}

// Follow drives joints through the waypoints of result. For each waypoint k it applies passive forces to
// every body, writes the position and velocity target of every joint, steps the scene and, when
// k % DefaultRenderEvery == 0, updates the render. A failed result, or one whose waypoints do not match
// joints, is rejected before anything is written. A failed step or a canceled context stops the loop with the
// targets already written left in place.
func (e *Executor) Follow(
	ctx context.Context,
	tag arm.Tag,
	bodies []physics.Body,
	joints []physics.Joint,
	result motionplan.Result,
) Outcome {
	logger := e.logger.Sublogger(tag.String())
	if !result.OK() {
		logger.Warnw("not executing failed plan", "request", result.RequestID, "reason", result.Reason)
		return notExecuted("plan failed: "+result.Reason, nil)
	}
	if err := result.Validate(len(joints)); err != nil {
		logger.Warnw("not executing invalid plan", "request", result.RequestID, "error", err)
		return notExecuted(err.Error(), err)
	}

	for k, wp := range result.Waypoints {
		if err := ctx.Err(); err != nil {
			return e.abort(logger, tag, k, err)
		}
		if err := physics.ApplyPassiveForce(bodies...); err != nil {
			return e.abort(logger, tag, k, err)
		}
		for i, j := range joints {
			j.SetDriveTarget(wp.Position[i])
			v := 0.0
			if len(wp.Velocity) != 0 {
				v = wp.Velocity[i]
			}
			j.SetDriveVelocityTarget(v)
		}
		if err := e.scene.Step(); err != nil {
			return e.abort(logger, tag, k, err)
		}
		e.metrics.step(tag)
		e.metrics.waypoint(tag)
		e.maybeRender(logger, k)
	}
	logger.Debugw("trajectory complete", "request", result.RequestID, "waypoints", result.Len())
	return Outcome{Status: Completed, StepsApplied: result.Len(), FailedAt: -1}
}

// Settle steps the scene n times with passive force compensation and no new drive targets, letting the
// drives reach targets written earlier.
func (e *Executor) Settle(ctx context.Context, tag arm.Tag, bodies []physics.Body, n int) Outcome {
	logger := e.logger.Sublogger(tag.String())
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return e.abort(logger, tag, k, err)
		}
		if err := physics.ApplyPassiveForce(bodies...); err != nil {
			return e.abort(logger, tag, k, err)
		}
		if err := e.scene.Step(); err != nil {
			return e.abort(logger, tag, k, err)
		}
		e.metrics.step(tag)
		e.maybeRender(logger, k)
	}
	return Outcome{Status: Completed, StepsApplied: n, FailedAt: -1}
}

func (e *Executor) maybeRender(logger logging.Logger, k int) {
	if k%e.renderEvery != 0 {
		return
	}
	err := e.scene.UpdateRender()
	e.metrics.render(err)
	if err != nil {
		logger.Warnw("render update failed", "step", k, "error", err)
	}
}

func (e *Executor) abort(logger logging.Logger, tag arm.Tag, k int, err error) Outcome {
	e.metrics.abort(tag)
	err = errors.Wrapf(err, "failed at step %d", k)
	logger.Errorw("trajectory aborted", "step", k, "error", err)
	return Outcome{Status: Aborted, StepsApplied: k, FailedAt: k, Reason: err.Error(), Err: err}
}
