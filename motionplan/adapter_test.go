package motionplan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.viam.com/test"

	"github.com/dualarm/simcore/components/arm"
	"github.com/dualarm/simcore/logging"
	"github.com/dualarm/simcore/motionplan"
	"github.com/dualarm/simcore/motionplan/fake"
	"github.com/dualarm/simcore/referenceframe"
	"github.com/dualarm/simcore/spatialmath"
)

var leftArm = motionplan.ArmContext{
	Arm:         arm.Left,
	PlannerType: "mplib_RRT",
	MoveGroup:   "fl_link4",
	ArmJoints:   []string{"fl_joint1", "fl_joint2"},
	BasePose:    spatialmath.NewZeroPose(),
}

func startState() arm.JointState {
	return arm.JointState{
		Names:    []string{"fl_joint1", "fl_joint2", "fr_joint1"},
		Position: []float64{0.1, 0.2, 0.3},
		Velocity: []float64{0, 0, 0},
	}
}

func target() referenceframe.FlangePose {
	return referenceframe.FlangePose{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: -0.2, Z: 0.4})}
}

func TestAdapterRequest(t *testing.T) {
	logger := logging.NewTestLogger(t)
	a := motionplan.NewAdapter(fake.NewPlanner(), logger)
	a.UpdatePointCloud([]r3.Vector{{X: 1.005}, {X: 1.006}, {X: 2.005}}, 0)

	start := startState()
	req := a.NewRequest(leftArm, start, target(), motionplan.Options{})
	test.That(t, req.ID, test.ShouldNotEqual, uuid.Nil)
	test.That(t, req.Arm, test.ShouldEqual, arm.Left)
	test.That(t, req.PlannerType, test.ShouldEqual, "mplib_RRT")
	test.That(t, req.ArmJoints, test.ShouldResemble, leftArm.ArmJoints)
	test.That(t, req.Start, test.ShouldResemble, start)
	test.That(t, req.PointCloud, test.ShouldBeEmpty)

	start.Position[0] = 9
	test.That(t, req.Start.Position[0], test.ShouldEqual, 0.1)

	withCloud := a.NewRequest(leftArm, startState(), target(), motionplan.Options{UsePointCloud: true, AttachObject: true})
	test.That(t, withCloud.PointCloud, test.ShouldHaveLength, 2)
	test.That(t, withCloud.AttachObject, test.ShouldBeTrue)
	test.That(t, withCloud.ID, test.ShouldNotEqual, req.ID)
}

func TestUpdatePointCloud(t *testing.T) {
	a := motionplan.NewAdapter(nil, logging.NewTestLogger(t))
	points := []r3.Vector{
		{X: 0.001, Y: 0.001, Z: 0.001},
		{X: 0.019, Y: 0.005, Z: 0.01},
		{X: 0.021, Y: 0.005, Z: 0.01},
		{X: -0.001, Y: 0, Z: 0},
	}
	test.That(t, a.UpdatePointCloud(points, 0.02), test.ShouldEqual, 3)
	cloud := a.PointCloud()
	test.That(t, cloud[0], test.ShouldResemble, points[0])
	test.That(t, cloud[1], test.ShouldResemble, points[2])

	test.That(t, a.UpdatePointCloud(points, 1), test.ShouldEqual, 2)
	test.That(t, a.UpdatePointCloud(nil, 1), test.ShouldEqual, 0)
	test.That(t, a.PointCloud(), test.ShouldBeEmpty)
}

func TestAdapterPlan(t *testing.T) {
	ctx := context.Background()
	path := motionplan.NewSuccess([]motionplan.Waypoint{
		{Position: []float64{0.1, 0.2}, Velocity: []float64{0, 0}},
		{Position: []float64{0.2, 0.3}, Velocity: []float64{0.1, 0.1}},
	}, 0.004)

	t.Run("success passes through", func(t *testing.T) {
		planner := fake.NewPlanner(path)
		a := motionplan.NewAdapter(planner, logging.NewTestLogger(t))
		req := a.NewRequest(leftArm, startState(), target(), motionplan.Options{})
		res := a.Plan(ctx, req)
		test.That(t, res.OK(), test.ShouldBeTrue)
		test.That(t, res.RequestID, test.ShouldEqual, req.ID)
		test.That(t, res.Waypoints, test.ShouldResemble, path.Waypoints)
		test.That(t, planner.Requests(), test.ShouldHaveLength, 1)
		test.That(t, planner.Requests()[0], test.ShouldEqual, req)
	})

	t.Run("planner failure", func(t *testing.T) {
		logger, logs := logging.NewObservedTestLogger(t)
		a := motionplan.NewAdapter(fake.NewPlanner(motionplan.NewFailure("")), logger)
		res := a.Plan(ctx, a.NewRequest(leftArm, startState(), target(), motionplan.Options{}))
		test.That(t, res.OK(), test.ShouldBeFalse)
		test.That(t, res.Reason, test.ShouldEqual, "planner returned failure")
		test.That(t, res.Waypoints, test.ShouldBeEmpty)
		test.That(t, logs.FilterMessage("plan failed").Len(), test.ShouldEqual, 1)
	})

	t.Run("planner error becomes failure", func(t *testing.T) {
		planner := fake.NewPlanner()
		planner.PushError(errors.New("planner crashed"))
		a := motionplan.NewAdapter(planner, logging.NewTestLogger(t))
		res := a.Plan(ctx, a.NewRequest(leftArm, startState(), target(), motionplan.Options{}))
		test.That(t, res.Status, test.ShouldEqual, motionplan.Failure)
		test.That(t, res.Reason, test.ShouldEqual, "planner crashed")
	})

	t.Run("malformed path becomes failure", func(t *testing.T) {
		bad := motionplan.NewSuccess([]motionplan.Waypoint{{Position: []float64{0.1}}}, 0.004)
		a := motionplan.NewAdapter(fake.NewPlanner(bad), logging.NewTestLogger(t))
		res := a.Plan(ctx, a.NewRequest(leftArm, startState(), target(), motionplan.Options{}))
		test.That(t, res.OK(), test.ShouldBeFalse)
		test.That(t, res.Reason, test.ShouldContainSubstring, "invalid plan")
	})

	t.Run("no planner", func(t *testing.T) {
		a := motionplan.NewAdapter(nil, logging.NewTestLogger(t))
		res := a.Plan(ctx, a.NewRequest(leftArm, startState(), target(), motionplan.Options{}))
		test.That(t, res.Reason, test.ShouldEqual, "no planner configured")
	})

	t.Run("canceled context", func(t *testing.T) {
		planner := fake.NewPlanner(path)
		a := motionplan.NewAdapter(planner, logging.NewTestLogger(t))
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		res := a.Plan(cancelCtx, a.NewRequest(leftArm, startState(), target(), motionplan.Options{}))
		test.That(t, res.OK(), test.ShouldBeFalse)
		test.That(t, res.Reason, test.ShouldEqual, context.Canceled.Error())
		test.That(t, planner.Requests(), test.ShouldBeEmpty)
	})

	t.Run("planner func", func(t *testing.T) {
		var seen *motionplan.Request
		a := motionplan.NewAdapter(motionplan.PlannerFunc(func(ctx context.Context, req *motionplan.Request) (motionplan.Result, error) {
			seen = req
			return path, nil
		}), logging.NewTestLogger(t))
		req := a.NewRequest(leftArm, startState(), target(), motionplan.Options{})
		test.That(t, a.Plan(ctx, req).OK(), test.ShouldBeTrue)
		test.That(t, seen, test.ShouldEqual, req)
	})
}
