package motionplan

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/dualarm/simcore/referenceframe"
)

// LinearInterpolate returns a joint space path of steps waypoints from start to goal at constant velocity,
// spaced dt seconds apart. The first waypoint is one step past start and the last equals goal. It is a fallback
// for callers that still want to move after the planner fails; it ignores obstacles.
func LinearInterpolate(start, goal []float64, steps int, dt float64) (Result, error) {
	if len(start) != len(goal) {
		return Result{}, referenceframe.NewIncorrectDoFError(len(goal), len(start))
	}
	if steps <= 0 {
		return Result{}, errors.Errorf("steps must be positive, got %d", steps)
	}
	if dt <= 0 {
		return Result{}, errors.Errorf("time step must be positive, got %v", dt)
	}
	if floats.HasNaN(start) || floats.HasNaN(goal) {
		return Result{}, errors.New("cannot interpolate NaN positions")
	}

	velocity := floats.SubTo(make([]float64, len(goal)), goal, start)
	floats.Scale(1/(float64(steps)*dt), velocity)

	from := referenceframe.FloatsToInputs(start)
	to := referenceframe.FloatsToInputs(goal)
	waypoints := make([]Waypoint, 0, steps)
	for k := 1; k <= steps; k++ {
		waypoints = append(waypoints, Waypoint{
			Position: referenceframe.InputsToFloats(referenceframe.InterpolateInputs(from, to, float64(k)/float64(steps))),
			Velocity: append([]float64(nil), velocity...),
		})
	}
	return NewSuccess(waypoints, dt), nil
}
