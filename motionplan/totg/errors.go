package totg

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrTooFewWaypoints is returned when fewer than two distinct waypoints remain after removing duplicates.
	ErrTooFewWaypoints = errors.New("trajectory requires at least two distinct waypoints")

	// ErrInfeasibleTrajectory is returned when phase plane integration cannot reach the end of the path under
	// the given limits.
	ErrInfeasibleTrajectory = errors.New("unable to parameterize trajectory")

	// ErrTimeOutOfRange is returned when a trajectory is queried outside [0, Duration()].
	ErrTimeOutOfRange = errors.New("time is outside of the trajectory")

	// ErrNoGroup is returned when a trajectory to be timed is not bound to a joint group.
	ErrNoGroup = errors.New("trajectory has no joint group")
)

// NewUnknownJointLimitError is returned when an explicit limit map names joints that are not in the group.
func NewUnknownJointLimitError(kind string, names []string) error {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	return errors.Errorf("%s limits given for joints not in the group: %s", kind, strings.Join(sorted, ", "))
}

// NewMissingJointLimitError is returned when a joint has neither an explicit nor a native limit.
func NewMissingJointLimitError(kind, joint string) error {
	return errors.Errorf("no %s limit was defined for joint %q", kind, joint)
}

// NewInvalidJointLimitError is returned for a limit that is not a finite, strictly positive number.
func NewInvalidJointLimitError(kind, joint string, value float64) error {
	return errors.Errorf("invalid max %s %f specified for joint %q, must be greater than 0", kind, value, joint)
}

// NewLimitDimensionError is returned when the velocity or acceleration limit vector does not match the path.
func NewLimitDimensionError(kind string, actual, expected int) error {
	return errors.Errorf("%s limit vector has %d entries but the path has %d joints", kind, actual, expected)
}
