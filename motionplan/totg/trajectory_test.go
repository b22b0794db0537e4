package totg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/totg/logging"
)

func newTestTrajectory(t *testing.T, waypoints [][]float64, maxDeviation float64, maxVel, maxAcc []float64) *Trajectory {
	t.Helper()
	logger := logging.NewTestLogger(t)
	path, err := NewPath(waypoints, maxDeviation, logger)
	test.That(t, err, test.ShouldBeNil)
	traj, err := NewTrajectory(path, maxVel, maxAcc, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.IsValid(), test.ShouldBeTrue)
	return traj
}

func checkSteps(t *testing.T, traj *Trajectory) {
	t.Helper()
	steps := traj.Steps()
	test.That(t, len(steps), test.ShouldBeGreaterThan, 2)
	test.That(t, steps[0], test.ShouldResemble, TrajectoryStep{})
	for i := 1; i < len(steps); i++ {
		test.That(t, steps[i].PathVel, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, steps[i].PathPos, test.ShouldBeGreaterThanOrEqualTo, steps[i-1].PathPos)
		test.That(t, steps[i].Time, test.ShouldBeGreaterThan, steps[i-1].Time)
	}
	// no step reaches across a segment join by more than the one sided evaluation offset
	for _, sp := range traj.Path().SwitchingPoints() {
		if !sp.Discontinuity {
			continue
		}
		for i := 1; i < len(steps); i++ {
			if steps[i-1].PathPos < sp.Position && steps[i].PathPos > sp.Position {
				test.That(t, steps[i].PathPos-sp.Position, test.ShouldBeLessThan, eps)
			}
		}
	}
	last := steps[len(steps)-1]
	test.That(t, last.PathPos, test.ShouldAlmostEqual, traj.Path().Length())
	test.That(t, last.PathVel, test.ShouldEqual, 0.0)
	test.That(t, last.Time, test.ShouldEqual, traj.Duration())
	test.That(t, traj.EndSteps(), test.ShouldBeEmpty)
}

// checkLimits samples the trajectory and checks every joint stays within its limits.
func checkLimits(t *testing.T, traj *Trajectory, maxVel, maxAcc []float64, velTol, accTol float64) {
	t.Helper()
	for time := 0.; time <= traj.Duration(); time += 0.005 {
		velocity, err := traj.Velocity(time)
		test.That(t, err, test.ShouldBeNil)
		for i, v := range velocity {
			test.That(t, math.Abs(v), test.ShouldBeLessThanOrEqualTo, maxVel[i]+velTol)
		}
		acceleration, err := traj.Acceleration(time)
		test.That(t, err, test.ShouldBeNil)
		for i, a := range acceleration {
			test.That(t, math.Abs(a), test.ShouldBeLessThanOrEqualTo, maxAcc[i]+accTol)
		}
	}
}

func TestTriangularProfile(t *testing.T) {
	maxVel, maxAcc := []float64{1}, []float64{1}
	traj := newTestTrajectory(t, [][]float64{{0}, {1}}, 0.1, maxVel, maxAcc)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 2.0, 0.01)

	start, err := traj.Position(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, start[0], test.ShouldAlmostEqual, 0.0)
	end, err := traj.Position(traj.Duration())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, end[0], test.ShouldAlmostEqual, 1.0, 1e-6)

	// peak speed at the midpoint, no cruise phase
	peak, err := traj.Velocity(traj.Duration() / 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, peak[0], test.ShouldAlmostEqual, 1.0, 0.01)
	quarter, err := traj.Velocity(traj.Duration() / 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, quarter[0], test.ShouldAlmostEqual, 0.5, 0.01)

	accel, err := traj.Acceleration(0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, accel[0], test.ShouldAlmostEqual, 1.0, 1e-6)
	decel, err := traj.Acceleration(traj.Duration() - 0.25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decel[0], test.ShouldAlmostEqual, -1.0, 1e-6)

	checkSteps(t, traj)
	checkLimits(t, traj, maxVel, maxAcc, 1e-3, 1e-2)
}

func TestTrapezoidalProfile(t *testing.T) {
	maxVel, maxAcc := []float64{1}, []float64{1}
	traj := newTestTrajectory(t, [][]float64{{0}, {4}}, 0.1, maxVel, maxAcc)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 5.0, 0.01)

	// accelerate for a second, cruise for three, decelerate for one
	for _, tc := range []struct {
		time, position, velocity float64
	}{
		{0.5, 0.125, 0.5},
		{1.0, 0.5, 1.0},
		{2.5, 2.0, 1.0},
		{4.0, 3.5, 1.0},
		{4.5, 3.875, 0.5},
	} {
		position, err := traj.Position(tc.time)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, position[0], test.ShouldAlmostEqual, tc.position, 0.01)
		velocity, err := traj.Velocity(tc.time)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, velocity[0], test.ShouldAlmostEqual, tc.velocity, 0.01)
	}
	end, err := traj.Position(traj.Duration())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, end[0], test.ShouldAlmostEqual, 4.0, 1e-6)

	checkSteps(t, traj)
	checkLimits(t, traj, maxVel, maxAcc, 1e-3, 1e-2)
}

func TestReversingPath(t *testing.T) {
	maxVel, maxAcc := []float64{1}, []float64{1}
	traj := newTestTrajectory(t, [][]float64{{0}, {1}, {0}}, 0.1, maxVel, maxAcc)
	// the reversal has to be reached at rest, so this is two triangles
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 4.0, 0.02)
	middle, err := traj.Position(traj.Duration() / 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, middle[0], test.ShouldAlmostEqual, 1.0, 0.01)
	checkSteps(t, traj)
}

func TestExactCornerStopsAtRest(t *testing.T) {
	maxVel, maxAcc := []float64{1, 1}, []float64{1, 1}
	traj := newTestTrajectory(t, [][]float64{{0, 0}, {1, 0}, {1, 1}}, 0, maxVel, maxAcc)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 4.0, 0.02)

	atCorner := false
	for _, step := range traj.Steps() {
		if math.Abs(step.PathPos-1) < 1e-9 && step.PathVel == 0 {
			atCorner = true
		}
	}
	test.That(t, atCorner, test.ShouldBeTrue)
	checkSteps(t, traj)
	checkLimits(t, traj, maxVel, maxAcc, 1e-3, 1e-2)
}

func TestBlendedTrajectory(t *testing.T) {
	maxVel, maxAcc := []float64{1, 1}, []float64{1, 1}
	waypoints := [][]float64{{0, 0}, {1, 0}, {1, 1}}
	traj := newTestTrajectory(t, waypoints, 0.1, maxVel, maxAcc)

	start, err := traj.Position(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, start[0], test.ShouldAlmostEqual, 0.0)
	test.That(t, start[1], test.ShouldAlmostEqual, 0.0)
	end, err := traj.Position(traj.Duration())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, end[0], test.ShouldAlmostEqual, 1.0, 1e-6)
	test.That(t, end[1], test.ShouldAlmostEqual, 1.0, 1e-6)

	// slower than two independent triangles along the lines, faster than stopping at the corner
	test.That(t, traj.Duration(), test.ShouldBeGreaterThan, 2*math.Sqrt(2*(traj.Path().Length()/2)))
	test.That(t, traj.Duration(), test.ShouldBeLessThan, 4.0)

	checkSteps(t, traj)
	checkLimits(t, traj, maxVel, maxAcc, 2e-2, 5e-2)
}

func TestTimeQueries(t *testing.T) {
	traj := newTestTrajectory(t, [][]float64{{0}, {4}}, 0.1, []float64{1}, []float64{1})

	_, err := traj.Position(-0.1)
	test.That(t, errors.Is(err, ErrTimeOutOfRange), test.ShouldBeTrue)
	_, err = traj.Velocity(traj.Duration() + 0.1)
	test.That(t, errors.Is(err, ErrTimeOutOfRange), test.ShouldBeTrue)
	_, err = traj.Acceleration(math.NaN())
	test.That(t, errors.Is(err, ErrTimeOutOfRange), test.ShouldBeTrue)

	// out of order queries give the same answers as in order ones
	late, err := traj.Position(3)
	test.That(t, err, test.ShouldBeNil)
	early, err := traj.Position(1)
	test.That(t, err, test.ShouldBeNil)
	lateAgain, err := traj.Position(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lateAgain, test.ShouldResemble, late)
	earlyAgain, err := traj.Position(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, earlyAgain, test.ShouldResemble, early)
}

func TestNewTrajectoryErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path, err := NewPath([][]float64{{0, 0}, {1, 1}}, 0.1, logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = NewTrajectory(nil, []float64{1}, []float64{1}, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrajectory(path, []float64{1}, []float64{1, 1}, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldBeError, NewLimitDimensionError("velocity", 1, 2))
	_, err = NewTrajectory(path, []float64{1, 1}, []float64{1}, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldBeError, NewLimitDimensionError("acceleration", 1, 2))
	_, err = NewTrajectory(path, []float64{1, 0}, []float64{1, 1}, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldBeError, NewInvalidJointLimitError("velocity", "1", 0))
	_, err = NewTrajectory(path, []float64{1, 1}, []float64{math.Inf(1), 1}, DefaultTimeStep, logger)
	test.That(t, err, test.ShouldBeError, NewInvalidJointLimitError("acceleration", "0", math.Inf(1)))
	_, err = NewTrajectory(path, []float64{1, 1}, []float64{1, 1}, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntegrateBackwardNeverRejoins(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	path, err := NewPath([][]float64{{0}, {2}}, 0, logger)
	test.That(t, err, test.ShouldBeNil)

	// far above anything the forward steps could reach
	traj := &Trajectory{
		path:            path,
		maxVelocity:     []float64{1},
		maxAcceleration: []float64{1},
		timeStep:        DefaultTimeStep,
		logger:          logger,
		valid:           true,
		steps:           []TrajectoryStep{{}, {PathPos: 0.1, PathVel: 0.1}},
		cachedTime:      math.MaxFloat64,
	}
	traj.integrateBackward(1, 10, traj.minMaxPathAcceleration(1, 10, false))

	test.That(t, traj.IsValid(), test.ShouldBeFalse)
	test.That(t, len(traj.Steps()), test.ShouldEqual, 2)
	endSteps := traj.EndSteps()
	test.That(t, endSteps, test.ShouldNotBeEmpty)
	test.That(t, endSteps[len(endSteps)-1], test.ShouldResemble, TrajectoryStep{PathPos: 1, PathVel: 10})
	test.That(t, logs.FilterMessageSnippet("did not hit start trajectory").Len(), test.ShouldEqual, 1)

	_, err = traj.Position(0)
	test.That(t, err, test.ShouldBeError, ErrInfeasibleTrajectory)
}

func TestRandomPathsRespectLimits(t *testing.T) {
	rseed := rand.New(rand.NewSource(1))
	for trial := 0; trial < 36; trial++ {
		dof := 1 + rseed.Intn(4)
		waypoints := make([][]float64, 2+rseed.Intn(5))
		for i := range waypoints {
			waypoints[i] = make([]float64, dof)
			for j := range waypoints[i] {
				waypoints[i][j] = 2*rseed.Float64() - 1
			}
		}
		maxVel, maxAcc := make([]float64, dof), make([]float64, dof)
		for j := 0; j < dof; j++ {
			maxVel[j] = 0.5 + 1.5*rseed.Float64()
			maxAcc[j] = 0.5 + 1.5*rseed.Float64()
		}
		deviation := []float64{0, 0.1, 0.01}[trial%3]

		traj := newTestTrajectory(t, waypoints, deviation, maxVel, maxAcc)
		checkSteps(t, traj)
		for time := 0.; time <= traj.Duration(); time += 0.005 {
			velocity, err := traj.Velocity(time)
			test.That(t, err, test.ShouldBeNil)
			acceleration, err := traj.Acceleration(time)
			test.That(t, err, test.ShouldBeNil)
			for j := 0; j < dof; j++ {
				test.That(t, math.Abs(velocity[j]), test.ShouldBeLessThanOrEqualTo, 1.02*maxVel[j]+1e-2)
				test.That(t, math.Abs(acceleration[j]), test.ShouldBeLessThanOrEqualTo, 1.1*maxAcc[j]+1e-2)
			}
		}
		end, err := traj.Position(traj.Duration())
		test.That(t, err, test.ShouldBeNil)
		for j := 0; j < dof; j++ {
			test.That(t, end[j], test.ShouldAlmostEqual, waypoints[len(waypoints)-1][j], 1e-6)
		}
	}
}

func TestSpliceKeepsArcLengthIncreasing(t *testing.T) {
	traj := &Trajectory{steps: []TrajectoryStep{{}, {PathPos: 0.1, PathVel: 0.1}, {PathPos: 0.2, PathVel: 0.1}}}
	// the earliest backward step sits just behind the merge point
	backward := []TrajectoryStep{{PathPos: 0.3, PathVel: 0.05}, {PathPos: 0.1499999, PathVel: 0.11}}
	traj.splice(2, 0.15, 0, backward)
	test.That(t, traj.steps, test.ShouldResemble, []TrajectoryStep{
		{},
		{PathPos: 0.1, PathVel: 0.1},
		{PathPos: 0.15, PathVel: 0.1},
		{PathPos: 0.3, PathVel: 0.05},
	})

	// merging exactly on a forward step adds no duplicate
	traj = &Trajectory{steps: []TrajectoryStep{{}, {PathPos: 0.1, PathVel: 0.1}, {PathPos: 0.2, PathVel: 0.2}}}
	traj.splice(2, 0.1, 1, []TrajectoryStep{{PathPos: 0.3, PathVel: 0.1}, {PathPos: 0.1, PathVel: 0.1}})
	test.That(t, traj.steps, test.ShouldResemble, []TrajectoryStep{
		{},
		{PathPos: 0.1, PathVel: 0.1},
		{PathPos: 0.3, PathVel: 0.1},
	})
}

func TestBackwardStepsStopAtJoins(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path, err := NewPath([][]float64{{0, 0}, {1, 0}, {1, 1}}, 0.1, logger)
	test.That(t, err, test.ShouldBeNil)
	join := path.SwitchingPoints()[0].Position

	traj := &Trajectory{
		path:            path,
		maxVelocity:     []float64{1, 1},
		maxAcceleration: []float64{1, 1},
		timeStep:        0.05,
		logger:          logger,
		valid:           true,
		steps:           []TrajectoryStep{{}, {PathPos: 0.7, PathVel: 1}},
		cachedTime:      math.MaxFloat64,
	}
	// decelerating into the blend from past its start, with steps long enough to jump the join
	from := join + 0.03
	traj.integrateBackward(from, 0.6, traj.minMaxPathAcceleration(from, 0.6, false))
	test.That(t, traj.IsValid(), test.ShouldBeTrue)

	onJoin := false
	for _, step := range traj.Steps() {
		if step.PathPos == join {
			onJoin = true
		}
	}
	test.That(t, onJoin, test.ShouldBeTrue)
}
