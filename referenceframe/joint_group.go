package referenceframe

import (
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// JointType is the kind of motion a joint provides.
type JointType string

const (
	// RevoluteJoint rotates about an axis within position limits. Values are in radians.
	RevoluteJoint JointType = "revolute"
	// ContinuousJoint rotates about an axis without position limits. Values are in radians.
	ContinuousJoint JointType = "continuous"
	// PrismaticJoint translates along an axis. Values are in length units.
	PrismaticJoint JointType = "prismatic"
)

// IsAngular returns whether values of this joint type are angles.
func (jt JointType) IsAngular() bool {
	return jt == RevoluteJoint || jt == ContinuousJoint
}

func (jt JointType) valid() bool {
	switch jt {
	case RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return true
	}
	return false
}

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Joint describes one degree of freedom of a group. A zero MaxVelocity or MaxAcceleration means the
// joint carries no native limit of that kind.
type Joint struct {
	Name            string
	Type            JointType
	Limit           Limit
	MaxVelocity     float64
	MaxAcceleration float64
}

// VelocityBounded returns whether the joint has a native velocity limit.
func (j Joint) VelocityBounded() bool {
	return j.MaxVelocity > 0
}

// AccelerationBounded returns whether the joint has a native acceleration limit.
func (j Joint) AccelerationBounded() bool {
	return j.MaxAcceleration > 0
}

// JointGroup is an ordered set of joints that are planned and timed together, e.g. the joints of an arm.
type JointGroup struct {
	name   string
	joints []Joint
	index  map[string]int
}

// NewJointGroup validates the joints and builds a group. Continuous joints always get infinite position limits.
func NewJointGroup(name string, joints []Joint) (*JointGroup, error) {
	g := &JointGroup{
		name:   name,
		joints: make([]Joint, 0, len(joints)),
		index:  make(map[string]int, len(joints)),
	}
	var errAll error
	for _, joint := range joints {
		if _, ok := g.index[joint.Name]; ok {
			multierr.AppendInto(&errAll, NewDuplicateJointError(joint.Name))
			continue
		}
		if !joint.Type.valid() {
			multierr.AppendInto(&errAll, NewUnsupportedJointTypeError(joint.Name, joint.Type))
			continue
		}
		if joint.Type == ContinuousJoint {
			joint.Limit = Limit{Min: math.Inf(-1), Max: math.Inf(1)}
		}
		if joint.Limit.Min > joint.Limit.Max {
			multierr.AppendInto(&errAll, NewInvalidLimitError(joint.Name, joint.Limit))
		}
		if joint.MaxVelocity < 0 {
			multierr.AppendInto(&errAll, NewNegativeJointLimitError(joint.Name, "velocity", joint.MaxVelocity))
		}
		if joint.MaxAcceleration < 0 {
			multierr.AppendInto(&errAll, NewNegativeJointLimitError(joint.Name, "acceleration", joint.MaxAcceleration))
		}
		g.index[joint.Name] = len(g.joints)
		g.joints = append(g.joints, joint)
	}
	if errAll != nil {
		return nil, errors.Wrapf(errAll, "invalid joint group %q", name)
	}
	return g, nil
}

// Name returns the name of the group.
func (g *JointGroup) Name() string {
	return g.name
}

// DoF returns the number of joints in the group.
func (g *JointGroup) DoF() int {
	return len(g.joints)
}

// Joints returns a copy of the group's joints in order.
func (g *JointGroup) Joints() []Joint {
	joints := make([]Joint, len(g.joints))
	copy(joints, g.joints)
	return joints
}

// Joint returns the joint at index i.
func (g *JointGroup) Joint(i int) Joint {
	return g.joints[i]
}

// JointNames returns the joint names in order.
func (g *JointGroup) JointNames() []string {
	names := make([]string, 0, len(g.joints))
	for _, joint := range g.joints {
		names = append(names, joint.Name)
	}
	return names
}

// JointIndex returns the position of the named joint within the group.
func (g *JointGroup) JointIndex(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Limits returns the position limits of every joint in order.
func (g *JointGroup) Limits() []Limit {
	limits := make([]Limit, 0, len(g.joints))
	for _, joint := range g.joints {
		limits = append(limits, joint.Limit)
	}
	return limits
}

// HasMixedJointTypes returns whether the group mixes angular (revolute/continuous) and prismatic joints, in which
// case a single configuration space distance has no uniform unit.
func (g *JointGroup) HasMixedJointTypes() bool {
	var angular, prismatic bool
	for _, joint := range g.joints {
		if joint.Type.IsAngular() {
			angular = true
		} else {
			prismatic = true
		}
	}
	return angular && prismatic
}

// String prints out a table of each joint in the group with its type and limits.
func (g *JointGroup) String() string {
	t := table.NewWriter()
	t.SetTitle("%s", g.name)
	t.AppendHeader(table.Row{"#", "Name", "Type", "Min", "Max", "Max Velocity", "Max Acceleration"})
	for i, joint := range g.joints {
		t.AppendRow(table.Row{i, joint.Name, joint.Type, joint.Limit.Min, joint.Limit.Max, joint.MaxVelocity, joint.MaxAcceleration})
	}
	return t.Render()
}
