package totg

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
	"go.viam.com/totg/referenceframe"
)

func singleJointGroup(t *testing.T, jointType referenceframe.JointType) *referenceframe.JointGroup {
	t.Helper()
	group, err := referenceframe.NewJointGroup("single", []referenceframe.Joint{{
		Name:            "j",
		Type:            jointType,
		Limit:           referenceframe.Limit{Min: -10, Max: 10},
		MaxVelocity:     1,
		MaxAcceleration: 1,
	}})
	test.That(t, err, test.ShouldBeNil)
	return group
}

func untimed(t *testing.T, group *referenceframe.JointGroup, positions ...[]float64) *jointtrajectory.Trajectory {
	t.Helper()
	traj := jointtrajectory.NewTrajectory(group)
	for _, p := range positions {
		test.That(t, traj.AddWaypoint(p, 0), test.ShouldBeNil)
	}
	return traj
}

func newTestGenerator(t *testing.T) (*Generator, logging.Logger) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	gen, err := NewGenerator(NewDefaultOptions(), logger)
	test.That(t, err, test.ShouldBeNil)
	return gen, logger
}

func TestComputeTimeStamps(t *testing.T) {
	gen, _ := newTestGenerator(t)
	traj := untimed(t, singleJointGroup(t, referenceframe.RevoluteJoint), []float64{0}, []float64{1})

	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	duration := traj.Duration()
	test.That(t, duration, test.ShouldAlmostEqual, 2.0, 0.01)
	test.That(t, traj.Len(), test.ShouldEqual, int(math.Ceil(duration/defaultResampleDT-1e-9))+1)

	first := traj.Waypoint(0)
	test.That(t, first.DurationFromPrevious, test.ShouldEqual, 0.0)
	test.That(t, first.Positions[0], test.ShouldAlmostEqual, 0.0)
	test.That(t, first.Velocities[0], test.ShouldAlmostEqual, 0.0)

	last := traj.Waypoint(traj.Len() - 1)
	test.That(t, last.Positions, test.ShouldResemble, []float64{1})
	test.That(t, last.Velocities, test.ShouldResemble, []float64{0})
	test.That(t, traj.TimeFromStart(traj.Len()-1), test.ShouldAlmostEqual, duration)

	for i := 1; i < traj.Len()-1; i++ {
		wp := traj.Waypoint(i)
		test.That(t, wp.DurationFromPrevious, test.ShouldAlmostEqual, defaultResampleDT, 1e-9)
		test.That(t, wp.Positions[0], test.ShouldBeGreaterThan, traj.Waypoint(i-1).Positions[0])
		test.That(t, math.Abs(wp.Velocities[0]), test.ShouldBeLessThanOrEqualTo, 1+1e-3)
		test.That(t, math.Abs(wp.Accelerations[0]), test.ShouldBeLessThanOrEqualTo, 1+1e-2)
	}
}

func TestComputeTimeStampsIdempotent(t *testing.T) {
	gen, _ := newTestGenerator(t)
	traj := untimed(t, singleJointGroup(t, referenceframe.RevoluteJoint), []float64{0}, []float64{4})

	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	first := traj.Duration()
	test.That(t, first, test.ShouldAlmostEqual, 5.0, 0.01)

	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, first, 0.01)
	test.That(t, traj.Waypoint(traj.Len()-1).Positions, test.ShouldResemble, []float64{4})
}

func TestScalingFactors(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	gen, err := NewGenerator(NewDefaultOptions(), logger)
	test.That(t, err, test.ShouldBeNil)
	group := singleJointGroup(t, referenceframe.RevoluteJoint)

	// half speed: accelerate for 0.5s over 0.125, cruise 3.75 at 0.5, decelerate for 0.5s
	traj := untimed(t, group, []float64{0}, []float64{4})
	test.That(t, gen.ComputeTimeStamps(traj, 0.5, 1), test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 8.5, 0.02)
	test.That(t, logs.FilterMessageSnippet("scaling factor").Len(), test.ShouldEqual, 0)

	// out of range factors fall back to the full limits
	traj = untimed(t, group, []float64{0}, []float64{4})
	test.That(t, gen.ComputeTimeStamps(traj, 0, 2), test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 5.0, 0.01)
	test.That(t, logs.FilterMessageSnippet("scaling factor").Len(), test.ShouldEqual, 2)
}

func TestComputeTimeStampsWithLimits(t *testing.T) {
	gen, _ := newTestGenerator(t)
	group := singleJointGroup(t, referenceframe.RevoluteJoint)

	traj := untimed(t, group, []float64{0}, []float64{4})
	test.That(t, gen.ComputeTimeStampsWithLimits(traj, map[string]float64{"j": 0.5}, nil), test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 8.5, 0.02)

	for _, tc := range []struct {
		name         string
		velocity     map[string]float64
		acceleration map[string]float64
		expected     error
	}{
		{
			"unknown joint",
			map[string]float64{"j": 1, "nope": 1, "other": 2},
			nil,
			NewUnknownJointLimitError("velocity", []string{"nope", "other"}),
		},
		{
			"unknown acceleration joint",
			nil,
			map[string]float64{"nope": 1},
			NewUnknownJointLimitError("acceleration", []string{"nope"}),
		},
		{
			"negative limit",
			map[string]float64{"j": -1},
			nil,
			NewInvalidJointLimitError("velocity", "j", -1),
		},
		{
			"zero limit",
			nil,
			map[string]float64{"j": 0},
			NewInvalidJointLimitError("acceleration", "j", 0),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			traj := untimed(t, group, []float64{0}, []float64{4})
			err := gen.ComputeTimeStampsWithLimits(traj, tc.velocity, tc.acceleration)
			test.That(t, err, test.ShouldBeError, tc.expected)
			// nothing was written
			test.That(t, traj.Len(), test.ShouldEqual, 2)
			test.That(t, traj.Waypoint(1).Velocities, test.ShouldBeNil)
		})
	}
}

func TestMissingNativeLimits(t *testing.T) {
	gen, _ := newTestGenerator(t)
	group, err := referenceframe.NewJointGroup("unbounded", []referenceframe.Joint{
		{Name: "a", Type: referenceframe.RevoluteJoint, Limit: referenceframe.Limit{Min: -1, Max: 1}, MaxAcceleration: 1},
	})
	test.That(t, err, test.ShouldBeNil)

	traj := untimed(t, group, []float64{0}, []float64{1})
	err = gen.ComputeTimeStamps(traj, 1, 1)
	test.That(t, err, test.ShouldBeError, NewMissingJointLimitError("velocity", "a"))

	err = gen.ComputeTimeStampsWithLimits(traj, nil, nil)
	test.That(t, err, test.ShouldBeError, NewMissingJointLimitError("velocity", "a"))

	// an explicit limit fills the gap
	test.That(t, gen.ComputeTimeStampsWithLimits(traj, map[string]float64{"a": 1}, nil), test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 2.0, 0.01)
}

func TestDuplicateWaypoints(t *testing.T) {
	gen, _ := newTestGenerator(t)
	group := singleJointGroup(t, referenceframe.RevoluteJoint)

	traj := untimed(t, group, []float64{0}, []float64{0.0005})
	err := gen.ComputeTimeStamps(traj, 1, 1)
	test.That(t, err, test.ShouldBeError, ErrTooFewWaypoints)
	test.That(t, traj.Len(), test.ShouldEqual, 2)
	test.That(t, traj.Waypoint(1).Positions, test.ShouldResemble, []float64{0.0005})

	traj = untimed(t, group, []float64{0})
	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeError, ErrTooFewWaypoints)

	// a near duplicate final waypoint replaces the last kept one
	traj = untimed(t, group, []float64{0}, []float64{0.5}, []float64{0.5002}, []float64{1}, []float64{1.0005})
	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	test.That(t, traj.Waypoint(traj.Len()-1).Positions, test.ShouldResemble, []float64{1.0005})
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 2*math.Sqrt(1.0005), 0.01)
}

func TestRemoveDuplicates(t *testing.T) {
	gen, _ := newTestGenerator(t)
	points := gen.removeDuplicates([][]float64{
		{0, 0}, {0.0005, 0}, {1, 0}, {1, 0.0009}, {1, 1}, {1.0001, 1},
	})
	test.That(t, points, test.ShouldResemble, [][]float64{{0, 0}, {1, 0}, {1.0001, 1}})
	test.That(t, gen.removeDuplicates(nil), test.ShouldBeEmpty)
}

func TestMixedJointTypes(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	gen, err := NewGenerator(NewDefaultOptions(), logger)
	test.That(t, err, test.ShouldBeNil)
	group, err := referenceframe.NewJointGroup("gantry_wrist", []referenceframe.Joint{
		{Name: "wrist", Type: referenceframe.RevoluteJoint, Limit: referenceframe.Limit{Min: -3, Max: 3}, MaxVelocity: 1, MaxAcceleration: 1},
		{Name: "rail", Type: referenceframe.PrismaticJoint, Limit: referenceframe.Limit{Min: 0, Max: 2}, MaxVelocity: 1, MaxAcceleration: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gen.HasMixedJointTypes(group), test.ShouldBeTrue)
	test.That(t, gen.HasMixedJointTypes(singleJointGroup(t, referenceframe.RevoluteJoint)), test.ShouldBeFalse)

	traj := untimed(t, group, []float64{0, 0}, []float64{1, 0}, []float64{1, 1})
	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("mixes revolute and prismatic").Len(), test.ShouldEqual, 1)
	last := traj.Waypoint(traj.Len() - 1)
	test.That(t, last.Positions, test.ShouldResemble, []float64{1, 1})
	test.That(t, traj.Duration(), test.ShouldBeGreaterThan, 0)
}

func TestContinuousJointUnwinding(t *testing.T) {
	gen, _ := newTestGenerator(t)
	traj := untimed(t, singleJointGroup(t, referenceframe.ContinuousJoint), []float64{3}, []float64{-3})

	test.That(t, gen.ComputeTimeStamps(traj, 1, 1), test.ShouldBeNil)
	// the short way round across pi, not six radians back
	distance := 2*math.Pi - 6
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 2*math.Sqrt(distance), 0.01)
	test.That(t, traj.Waypoint(traj.Len() - 1).Positions[0], test.ShouldAlmostEqual, 2*math.Pi-3)
}

func TestGeneratorErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewGenerator(Options{ResampleDT: 0, TimeStep: 0.001}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGenerator(Options{PathTolerance: -1, ResampleDT: 0.1, TimeStep: 0.001}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	gen, err := NewGenerator(Options{ResampleDT: 0.05}.WithDefaults(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gen.Options().ResampleDT, test.ShouldEqual, 0.05)
	test.That(t, gen.Options().TimeStep, test.ShouldEqual, DefaultTimeStep)

	traj := jointtrajectory.NewTrajectory(nil)
	test.That(t, traj.AddWaypoint([]float64{0}, 0), test.ShouldBeNil)
	test.That(t, traj.AddWaypoint([]float64{1}, 0), test.ShouldBeNil)
	err = gen.ComputeTimeStamps(traj, 1, 1)
	test.That(t, errors.Is(err, ErrNoGroup), test.ShouldBeTrue)
	err = gen.ComputeTimeStampsWithLimits(traj, nil, nil)
	test.That(t, errors.Is(err, ErrNoGroup), test.ShouldBeTrue)
}
