package totg

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
	"go.viam.com/totg/referenceframe"
)

// Generator retimes joint trajectories along their time optimal profile and resamples them at a fixed period.
// A Generator holds no per-request state and may be shared between goroutines.
type Generator struct {
	opts   Options
	logger logging.Logger
}

// NewGenerator returns a Generator using opts, which must be valid.
func NewGenerator(opts Options, logger logging.Logger) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Generator{opts: opts, logger: logger}, nil
}

// Options returns the options the generator was built with.
func (g *Generator) Options() Options {
	return g.opts
}

// HasMixedJointTypes returns whether group mixes angular and prismatic joints. The path tolerance then mixes
// radians and length units and only bounds the corner deviation approximately.
func (g *Generator) HasMixedJointTypes(group *referenceframe.JointGroup) bool {
	return group.HasMixedJointTypes()
}

// ComputeTimeStamps retimes traj using each joint's native limits multiplied by the given scaling factors.
// Factors outside (0, 1] are replaced by 1. On error traj is left untouched.
func (g *Generator) ComputeTimeStamps(traj *jointtrajectory.Trajectory, velocityScale, accelerationScale float64) error {
	group := traj.Group()
	if group == nil {
		return ErrNoGroup
	}
	velocityScale = g.verifyScalingFactor("velocity", velocityScale)
	accelerationScale = g.verifyScalingFactor("acceleration", accelerationScale)

	maxVelocity := make([]float64, 0, group.DoF())
	maxAcceleration := make([]float64, 0, group.DoF())
	for _, joint := range group.Joints() {
		if !joint.VelocityBounded() {
			return NewMissingJointLimitError("velocity", joint.Name)
		}
		if !joint.AccelerationBounded() {
			return NewMissingJointLimitError("acceleration", joint.Name)
		}
		maxVelocity = append(maxVelocity, joint.MaxVelocity*velocityScale)
		maxAcceleration = append(maxAcceleration, joint.MaxAcceleration*accelerationScale)
	}
	return g.timeParameterize(traj, maxVelocity, maxAcceleration)
}

// ComputeTimeStampsWithLimits retimes traj using explicit per-joint limits keyed by joint name. Joints missing from
// a map fall back to their native limit. Names that are not joints of the group are an error.
func (g *Generator) ComputeTimeStampsWithLimits(
	traj *jointtrajectory.Trajectory,
	velocityLimits, accelerationLimits map[string]float64,
) error {
	group := traj.Group()
	if group == nil {
		return ErrNoGroup
	}
	if unknown := unknownJoints(group, velocityLimits); len(unknown) > 0 {
		return NewUnknownJointLimitError("velocity", unknown)
	}
	if unknown := unknownJoints(group, accelerationLimits); len(unknown) > 0 {
		return NewUnknownJointLimitError("acceleration", unknown)
	}

	maxVelocity := make([]float64, 0, group.DoF())
	maxAcceleration := make([]float64, 0, group.DoF())
	for _, joint := range group.Joints() {
		velocity, err := resolveLimit("velocity", joint.Name, velocityLimits, joint.MaxVelocity)
		if err != nil {
			return err
		}
		acceleration, err := resolveLimit("acceleration", joint.Name, accelerationLimits, joint.MaxAcceleration)
		if err != nil {
			return err
		}
		maxVelocity = append(maxVelocity, velocity)
		maxAcceleration = append(maxAcceleration, acceleration)
	}
	return g.timeParameterize(traj, maxVelocity, maxAcceleration)
}

func unknownJoints(group *referenceframe.JointGroup, limits map[string]float64) []string {
	return lo.Filter(lo.Keys(limits), func(name string, _ int) bool {
		_, ok := group.JointIndex(name)
		return !ok
	})
}

func resolveLimit(kind, joint string, explicit map[string]float64, native float64) (float64, error) {
	if limit, ok := explicit[joint]; ok {
		if !validLimit(limit) {
			return 0, NewInvalidJointLimitError(kind, joint, limit)
		}
		return limit, nil
	}
	if native > 0 {
		return native, nil
	}
	return 0, NewMissingJointLimitError(kind, joint)
}

func (g *Generator) verifyScalingFactor(kind string, factor float64) float64 {
	if factor > 0 && factor <= 1 {
		return factor
	}
	g.logger.Warnf("invalid max %s scaling factor %f specified, defaulting to 1.0", kind, factor)
	return 1
}

// timeParameterize does the work shared by both entry points. Nothing is written to traj until the new waypoints
// are complete.
func (g *Generator) timeParameterize(traj *jointtrajectory.Trajectory, maxVelocity, maxAcceleration []float64) error {
	if traj.Len() < 2 {
		return ErrTooFewWaypoints
	}
	group := traj.Group()
	if g.HasMixedJointTypes(group) && g.opts.PathTolerance > 0 {
		g.logger.Warnw("group mixes revolute and prismatic joints, path tolerance will not be exact",
			"group", group.Name(), "path_tolerance", g.opts.PathTolerance)
	}

	points := g.removeDuplicates(jointtrajectory.UnwindPositions(group, traj.Positions()))
	if len(points) < 2 {
		return ErrTooFewWaypoints
	}

	path, err := NewPath(points, g.opts.PathTolerance, g.logger)
	if err != nil {
		return err
	}
	parameterized, err := NewTrajectory(path, maxVelocity, maxAcceleration, g.opts.TimeStep, g.logger)
	if err != nil {
		return err
	}
	if !parameterized.IsValid() {
		g.logger.Errorw("unable to parameterize trajectory")
		return ErrInfeasibleTrajectory
	}

	waypoints, err := g.resample(parameterized, points[len(points)-1])
	if err != nil {
		return err
	}
	return traj.ReplaceWaypoints(waypoints)
}

// removeDuplicates drops every waypoint within MinAngleChange of the previously kept one on all joints. The final
// waypoint is always kept, replacing the last kept one if the two are duplicates.
func (g *Generator) removeDuplicates(positions [][]float64) [][]float64 {
	if len(positions) == 0 {
		return nil
	}
	points := [][]float64{positions[0]}
	dropped := 0
	for i := 1; i < len(positions); i++ {
		if referenceframe.InputsLInfDistance(points[len(points)-1], positions[i]) > g.opts.MinAngleChange {
			points = append(points, positions[i])
			continue
		}
		dropped++
		if i == len(positions)-1 {
			points[len(points)-1] = positions[i]
		}
	}
	if dropped > 0 {
		g.logger.Warnw("removed duplicate waypoints", "dropped", dropped, "kept", len(points))
	}
	return points
}

// resample samples parameterized every ResampleDT and once more at its exact end, where the final configuration
// is reached at rest.
func (g *Generator) resample(parameterized *Trajectory, final []float64) ([]jointtrajectory.Waypoint, error) {
	duration := parameterized.Duration()
	count := int(math.Ceil(duration/g.opts.ResampleDT - 1e-9))
	waypoints := make([]jointtrajectory.Waypoint, 0, count+1)
	previous := 0.
	for sample := 0; sample <= count; sample++ {
		t := float64(sample) * g.opts.ResampleDT
		if sample == count {
			t = duration
		}
		position, err := parameterized.Position(t)
		if err != nil {
			return nil, errors.Wrapf(err, "sampling position at %f", t)
		}
		velocity, err := parameterized.Velocity(t)
		if err != nil {
			return nil, errors.Wrapf(err, "sampling velocity at %f", t)
		}
		acceleration, err := parameterized.Acceleration(t)
		if err != nil {
			return nil, errors.Wrapf(err, "sampling acceleration at %f", t)
		}
		if sample == count {
			position = append([]float64{}, final...)
			velocity = make([]float64, len(final))
		}
		waypoints = append(waypoints, jointtrajectory.Waypoint{
			Positions:            position,
			Velocities:           velocity,
			Accelerations:        acceleration,
			DurationFromPrevious: t - previous,
		})
		previous = t
	}
	return waypoints, nil
}
