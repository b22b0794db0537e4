package totg

import (
	"github.com/pkg/errors"

	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
)

// maximum number of resample periods tried by the waypoint count search after the first guess.
const maxWaypointCountIterations = 64

// ComputeTimeStampsWithWaypointCount retimes traj with default options except for the resample period, which is
// chosen so the output has between numWaypoints-1 and numWaypoints+1 waypoints. On error traj is left untouched.
func ComputeTimeStampsWithWaypointCount(
	numWaypoints int,
	traj *jointtrajectory.Trajectory,
	velocityScale, accelerationScale float64,
	logger logging.Logger,
) error {
	return ComputeTimeStampsWithWaypointCountOptions(
		numWaypoints, traj, NewDefaultOptions(), velocityScale, accelerationScale, logger)
}

// ComputeTimeStampsWithWaypointCountOptions is ComputeTimeStampsWithWaypointCount starting from opts. Its
// ResampleDT is ignored.
func ComputeTimeStampsWithWaypointCountOptions(
	numWaypoints int,
	traj *jointtrajectory.Trajectory,
	opts Options,
	velocityScale, accelerationScale float64,
	logger logging.Logger,
) error {
	if numWaypoints < 2 {
		return errors.Errorf("cannot produce %d waypoints, need at least 2", numWaypoints)
	}
	timeWith := func(resampleDT float64) (*jointtrajectory.Trajectory, error) {
		opts.ResampleDT = resampleDT
		gen, err := NewGenerator(opts, logger)
		if err != nil {
			return nil, err
		}
		scratch := traj.Clone()
		if err := gen.ComputeTimeStamps(scratch, velocityScale, accelerationScale); err != nil {
			return nil, err
		}
		return scratch, nil
	}
	within := func(candidate *jointtrajectory.Trajectory) bool {
		diff := candidate.Len() - numWaypoints
		return diff >= -1 && diff <= 1
	}

	timed, err := timeWith(defaultResampleDT)
	if err != nil {
		return err
	}
	duration := timed.Duration()

	// the duration does not depend on the resample period, so this is usually exact
	resampleDT := duration / float64(numWaypoints-1)
	if timed, err = timeWith(resampleDT); err != nil {
		return err
	}

	low, high := duration/float64(4*numWaypoints), duration
	for i := 0; !within(timed); i++ {
		if i == maxWaypointCountIterations {
			return errors.Errorf("no resample period gives %d waypoints, closest had %d", numWaypoints, timed.Len())
		}
		// more waypoints means the period is too short
		if timed.Len() > numWaypoints {
			low = resampleDT
		} else {
			high = resampleDT
		}
		resampleDT = (low + high) / 2
		if timed, err = timeWith(resampleDT); err != nil {
			return err
		}
	}
	logger.Debugw("found resample period for waypoint count",
		"waypoints", timed.Len(), "target", numWaypoints, "resample_dt", resampleDT)
	return traj.ReplaceWaypoints(timed.Waypoints())
}
