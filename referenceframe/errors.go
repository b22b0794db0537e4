package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrNoGroupInformation is used when a joint group file carries no data.
var ErrNoGroupInformation = errors.New("no joint group information")

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF of the group.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match group DoF, expected %d but got %d", expected, actual)
}

// NewDuplicateJointError returns an error indicating that two joints in a group share a name.
func NewDuplicateJointError(name string) error {
	return errors.Errorf("joint %q appears more than once in the group", name)
}

// NewUnsupportedJointTypeError returns an error indicating an unknown joint type.
func NewUnsupportedJointTypeError(name string, jointType JointType) error {
	return errors.Errorf("unsupported joint type %q for joint %q, supported types are revolute, continuous and prismatic",
		jointType, name)
}

// NewInvalidLimitError returns an error indicating that a joint position limit has min > max.
func NewInvalidLimitError(name string, limit Limit) error {
	return errors.Errorf("joint %q has invalid limits, min %f is greater than max %f", name, limit.Min, limit.Max)
}

// NewNegativeJointLimitError returns an error indicating a negative native velocity or acceleration limit.
func NewNegativeJointLimitError(name, kind string, value float64) error {
	return errors.Errorf("joint %q has negative max %s %f", name, kind, value)
}

// NewNilJointPositionsError returns an error for a nil JointPositions message.
func NewNilJointPositionsError() error {
	return errors.New("joint positions cannot be nil")
}
