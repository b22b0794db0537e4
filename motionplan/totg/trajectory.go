package totg

import (
	"math"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/totg/logging"
	"go.viam.com/totg/utils"
)

const (
	// offset used for one sided evaluations around switching points and numeric derivatives.
	eps = 1e-6

	// tangent components smaller than this put no limit on path velocity or acceleration.
	tangentEpsilon = 1e-12

	velocitySwitchingStep     = 0.001
	velocitySwitchingAccuracy = 1e-6
)

// TrajectoryStep is a point in the phase plane: arc length, path velocity and the time it is reached.
type TrajectoryStep struct {
	PathPos float64
	PathVel float64
	Time    float64
}

// Trajectory is the time optimal timing of a Path under per-joint velocity and acceleration limits. It is
// immutable after construction apart from a single slot cache used by time queries, so one Trajectory must not be
// queried from several goroutines at once.
type Trajectory struct {
	path            *Path
	maxVelocity     []float64
	maxAcceleration []float64
	timeStep        float64
	logger          logging.Logger

	valid    bool
	steps    []TrajectoryStep
	endSteps []TrajectoryStep

	cachedTime    float64
	cachedSegment int
}

// NewTrajectory times path. Malformed arguments return an error; limits under which the path cannot be
// traversed produce a Trajectory whose IsValid is false.
func NewTrajectory(
	path *Path,
	maxVelocity, maxAcceleration []float64,
	timeStep float64,
	logger logging.Logger,
) (*Trajectory, error) {
	if path == nil {
		return nil, errors.New("cannot time a nil path")
	}
	if len(maxVelocity) != path.DoF() {
		return nil, NewLimitDimensionError("velocity", len(maxVelocity), path.DoF())
	}
	if len(maxAcceleration) != path.DoF() {
		return nil, NewLimitDimensionError("acceleration", len(maxAcceleration), path.DoF())
	}
	for i := range maxVelocity {
		if !validLimit(maxVelocity[i]) {
			return nil, NewInvalidJointLimitError("velocity", strconv.Itoa(i), maxVelocity[i])
		}
		if !validLimit(maxAcceleration[i]) {
			return nil, NewInvalidJointLimitError("acceleration", strconv.Itoa(i), maxAcceleration[i])
		}
	}
	if !(timeStep > 0) || math.IsInf(timeStep, 0) {
		return nil, errors.Errorf("time step must be positive, got %f", timeStep)
	}

	t := &Trajectory{
		path:            path,
		maxVelocity:     append([]float64{}, maxVelocity...),
		maxAcceleration: append([]float64{}, maxAcceleration...),
		timeStep:        timeStep,
		logger:          logger,
		valid:           true,
		steps:           []TrajectoryStep{{}},
		cachedTime:      math.MaxFloat64,
	}

	afterAcceleration := t.minMaxPathAcceleration(0, 0, true)
	for t.valid && !t.integrateForward(afterAcceleration) && t.valid {
		switchingPoint, beforeAcceleration, nextAcceleration, reachedEnd := t.nextSwitchingPoint(t.last().PathPos)
		if reachedEnd {
			break
		}
		t.integrateBackward(switchingPoint.PathPos, switchingPoint.PathVel, beforeAcceleration)
		afterAcceleration = nextAcceleration
	}

	if t.valid {
		t.integrateBackward(path.Length(), 0, t.minMaxPathAcceleration(path.Length(), 0, false))
	}

	if t.valid {
		for i := 1; i < len(t.steps); i++ {
			prev := t.steps[i-1]
			t.steps[i].Time = prev.Time + (t.steps[i].PathPos-prev.PathPos)/((t.steps[i].PathVel+prev.PathVel)/2)
		}
		logger.Debugw("built trajectory", "steps", len(t.steps), "duration", t.Duration())
	}
	return t, nil
}

func validLimit(limit float64) bool {
	return limit > 0 && !math.IsInf(limit, 0)
}

func (t *Trajectory) last() TrajectoryStep {
	return t.steps[len(t.steps)-1]
}

// IsValid returns whether the path could be timed. Time queries fail on an invalid trajectory.
func (t *Trajectory) IsValid() bool {
	return t.valid
}

// Duration returns the time needed to traverse the whole path.
func (t *Trajectory) Duration() float64 {
	return t.last().Time
}

// Path returns the path being timed.
func (t *Trajectory) Path() *Path {
	return t.path
}

// Steps returns a copy of the phase plane steps. On an invalid trajectory these are the partial forward steps.
func (t *Trajectory) Steps() []TrajectoryStep {
	return append([]TrajectoryStep{}, t.steps...)
}

// EndSteps returns a copy of the backward steps that failed to rejoin the forward steps, if any.
func (t *Trajectory) EndSteps() []TrajectoryStep {
	return append([]TrajectoryStep{}, t.endSteps...)
}

// integrateForward accelerates as hard as possible from the last step and returns true once the end of the path
// is passed or integration failed. It returns false when the velocity limit curve is hit and a switching point
// has to be found.
func (t *Trajectory) integrateForward(acceleration float64) bool {
	pathPos, pathVel := t.last().PathPos, t.last().PathVel
	switchingPoints := t.path.switchingPoints
	next := 0

	for {
		for next < len(switchingPoints) &&
			(switchingPoints[next].Position <= pathPos || !switchingPoints[next].Discontinuity) {
			next++
		}

		oldPathPos, oldPathVel := pathPos, pathVel
		pathVel += t.timeStep * acceleration
		pathPos += t.timeStep * 0.5 * (oldPathVel + pathVel)

		// stop short of a corner, it is approached through its switching point at rest
		if next < len(switchingPoints) && switchingPoints[next].Corner && pathPos >= switchingPoints[next].Position {
			return false
		}
		// every step stays within one segment so its acceleration is evaluated on the side it is used on
		if next < len(switchingPoints) && pathPos > switchingPoints[next].Position {
			discontinuity := switchingPoints[next].Position
			pathVel = oldPathVel + (discontinuity-oldPathPos)*(pathVel-oldPathVel)/(pathPos-oldPathPos)
			pathPos = discontinuity
		}

		if pathPos > t.path.Length() {
			t.steps = append(t.steps, TrajectoryStep{PathPos: pathPos, PathVel: pathVel})
			return true
		} else if pathVel < 0 {
			t.valid = false
			t.logger.Errorw("error while integrating forward: negative path velocity", "path_pos", pathPos)
			return true
		}

		if pathVel > t.velocityMaxPathVelocity(pathPos) &&
			t.minMaxPhaseSlope(oldPathPos, t.velocityMaxPathVelocity(oldPathPos), false) <=
				t.velocityMaxPathVelocityDeriv(oldPathPos) {
			pathVel = t.velocityMaxPathVelocity(pathPos)
		}

		t.steps = append(t.steps, TrajectoryStep{PathPos: pathPos, PathVel: pathVel})
		acceleration = t.minMaxPathAcceleration(pathPos, pathVel, true)

		if pathVel <= t.accelerationMaxPathVelocity(pathPos) && pathVel <= t.velocityMaxPathVelocity(pathPos) {
			continue
		}

		// bisect for the crossing of the limit curves
		overshoot := t.last()
		t.steps = t.steps[:len(t.steps)-1]
		before, beforePathVel := t.last().PathPos, t.last().PathVel
		after, afterPathVel := overshoot.PathPos, overshoot.PathVel
		for after-before > eps {
			mid := 0.5 * (before + after)
			midPathVel := 0.5 * (beforePathVel + afterPathVel)

			if midPathVel > t.velocityMaxPathVelocity(mid) &&
				t.minMaxPhaseSlope(before, t.velocityMaxPathVelocity(before), false) <=
					t.velocityMaxPathVelocityDeriv(before) {
				midPathVel = t.velocityMaxPathVelocity(mid)
			}

			if midPathVel > t.accelerationMaxPathVelocity(mid) || midPathVel > t.velocityMaxPathVelocity(mid) {
				after, afterPathVel = mid, midPathVel
			} else {
				before, beforePathVel = mid, midPathVel
			}
		}
		if before > t.last().PathPos {
			t.steps = append(t.steps, TrajectoryStep{PathPos: before, PathVel: beforePathVel})
		}

		tail := t.last()
		if t.accelerationMaxPathVelocity(after) < t.velocityMaxPathVelocity(after) {
			if next < len(switchingPoints) && after > switchingPoints[next].Position {
				return false
			}
			if t.minMaxPhaseSlope(tail.PathPos, tail.PathVel, true) > t.accelerationMaxPathVelocityDeriv(tail.PathPos) {
				return false
			}
		} else if t.minMaxPhaseSlope(tail.PathPos, tail.PathVel, false) > t.velocityMaxPathVelocityDeriv(tail.PathPos) {
			return false
		}
	}
}

// integrateBackward decelerates backward in time from (pathPos, pathVel) until it meets the forward steps, then
// replaces the forward steps past the meeting point with the backward ones.
func (t *Trajectory) integrateBackward(pathPos, pathVel, acceleration float64) {
	if len(t.steps) < 2 {
		t.valid = false
		t.logger.Errorw("error while integrating backward: no forward steps to join", "path_pos", pathPos)
		return
	}
	start2 := len(t.steps) - 1
	start1 := start2 - 1
	// built in reverse, the last element is the earliest backward step
	var backward []TrajectoryStep
	var slope float64

	for start1 != 0 || pathPos >= 0 {
		if t.steps[start1].PathPos <= pathPos {
			backward = append(backward, TrajectoryStep{PathPos: pathPos, PathVel: pathVel})
			front := backward[len(backward)-1]
			pathVel -= t.timeStep * acceleration
			pathPos -= t.timeStep * 0.5 * (pathVel + front.PathVel)
			accelerationPos := pathPos
			if discontinuity, ok := t.discontinuityBetween(pathPos, front.PathPos); ok {
				if front.PathPos-discontinuity < eps {
					// too close to clip, redo the step with whichever deceleration is gentler on either side
					acceleration = math.Max(acceleration, t.minMaxPathAcceleration(discontinuity-eps, front.PathVel, false))
					pathVel = front.PathVel - t.timeStep*acceleration
					pathPos = front.PathPos - t.timeStep*0.5*(pathVel+front.PathVel)
					accelerationPos = pathPos
				} else {
					pathVel = front.PathVel + (discontinuity-front.PathPos)*(pathVel-front.PathVel)/(pathPos-front.PathPos)
					pathPos = discontinuity
					// the path at a discontinuity belongs to the following segment
					accelerationPos = discontinuity - eps
				}
			}
			acceleration = t.minMaxPathAcceleration(accelerationPos, pathVel, false)
			slope = (front.PathVel - pathVel) / (front.PathPos - pathPos)

			if pathVel < 0 {
				t.valid = false
				t.logger.Errorw("error while integrating backward: negative path velocity", "path_pos", pathPos)
				t.endSteps = reversed(backward)
				return
			}
		} else {
			start1--
			start2--
		}
		if len(backward) == 0 {
			continue
		}

		s1, s2 := t.steps[start1], t.steps[start2]
		front := backward[len(backward)-1]
		startSlope := (s2.PathVel - s1.PathVel) / (s2.PathPos - s1.PathPos)
		intersectionPathPos := (s1.PathVel - pathVel + slope*pathPos - startSlope*s1.PathPos) / (slope - startSlope)
		lower, upper := math.Max(s1.PathPos, pathPos), math.Min(s2.PathPos, front.PathPos)
		if lower-eps <= intersectionPathPos && intersectionPathPos <= upper+eps {
			t.splice(start2, math.Min(math.Max(intersectionPathPos, lower), upper), startSlope, backward)
			return
		}
	}

	t.valid = false
	t.logger.Errorw("error while integrating backward: did not hit start trajectory", "steps", len(backward))
	t.endSteps = reversed(backward)
}

// splice replaces the forward steps from index start on with the point at pathPos on the forward step ending
// there, followed by the backward steps past it. Arc length stays strictly increasing across the join.
func (t *Trajectory) splice(start int, pathPos, forwardSlope float64, backward []TrajectoryStep) {
	prev := t.steps[start-1]
	steps := t.steps[:start]
	if pathPos > prev.PathPos {
		steps = append(steps, TrajectoryStep{PathPos: pathPos, PathVel: prev.PathVel + forwardSlope*(pathPos-prev.PathPos)})
	}
	// backward is ordered latest first
	for i := len(backward) - 1; i >= 0; i-- {
		if backward[i].PathPos > steps[len(steps)-1].PathPos {
			steps = append(steps, backward[i])
		}
	}
	t.steps = steps
}

// discontinuityBetween returns the last discontinuity switching point strictly inside (from, to).
func (t *Trajectory) discontinuityBetween(from, to float64) (float64, bool) {
	points := t.path.switchingPoints
	for i := len(points) - 1; i >= 0; i-- {
		if !points[i].Discontinuity || points[i].Position >= to {
			continue
		}
		return points[i].Position, points[i].Position > from
	}
	return 0, false
}

func reversed(steps []TrajectoryStep) []TrajectoryStep {
	out := make([]TrajectoryStep, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		out = append(out, steps[i])
	}
	return out
}

// nextSwitchingPoint returns the first acceleration or velocity switching point after pathPos that lies under both
// limit curves, with the path accelerations to use before and after it. reachedEnd is true if there is none.
func (t *Trajectory) nextSwitchingPoint(pathPos float64) (
	switchingPoint TrajectoryStep, beforeAcceleration, afterAcceleration float64, reachedEnd bool,
) {
	accelerationPoint := TrajectoryStep{PathPos: pathPos}
	var accelerationBefore, accelerationAfter float64
	accelerationReachedEnd := false
	for {
		point, before, after, end := t.nextAccelerationSwitchingPoint(accelerationPoint.PathPos)
		if end {
			accelerationReachedEnd = true
			break
		}
		accelerationPoint, accelerationBefore, accelerationAfter = point, before, after
		if accelerationPoint.PathVel <= t.velocityMaxPathVelocity(accelerationPoint.PathPos) {
			break
		}
	}

	velocityPoint := TrajectoryStep{PathPos: pathPos}
	var velocityBefore, velocityAfter float64
	velocityReachedEnd := false
	found := false
	searchFrom := pathPos
	for {
		point, before, after, end := t.nextVelocitySwitchingPoint(searchFrom)
		if end {
			velocityReachedEnd = true
			break
		}
		if found && point.PathPos <= velocityPoint.PathPos {
			searchFrom += velocitySwitchingStep
			continue
		}
		velocityPoint, velocityBefore, velocityAfter, found = point, before, after, true
		searchFrom = point.PathPos
		if velocityPoint.PathPos > accelerationPoint.PathPos ||
			(velocityPoint.PathVel <= t.accelerationMaxPathVelocity(velocityPoint.PathPos-eps) &&
				velocityPoint.PathVel <= t.accelerationMaxPathVelocity(velocityPoint.PathPos+eps)) {
			break
		}
	}

	switch {
	case accelerationReachedEnd && velocityReachedEnd:
		return TrajectoryStep{}, 0, 0, true
	case !accelerationReachedEnd && (velocityReachedEnd || accelerationPoint.PathPos <= velocityPoint.PathPos):
		return accelerationPoint, accelerationBefore, accelerationAfter, false
	default:
		return velocityPoint, velocityBefore, velocityAfter, false
	}
}

// nextAccelerationSwitchingPoint walks the path's switching points after pathPos looking for one where the
// acceleration limit curve has a kink that a trajectory can pass through.
func (t *Trajectory) nextAccelerationSwitchingPoint(pathPos float64) (
	switchingPoint TrajectoryStep, beforeAcceleration, afterAcceleration float64, reachedEnd bool,
) {
	switchingPathPos := pathPos
	var switchingPathVel float64
	for {
		candidate := t.path.NextSwitchingPoint(switchingPathPos)
		switchingPathPos = candidate.Position
		if switchingPathPos > t.path.Length()-eps {
			return TrajectoryStep{}, 0, 0, true
		}

		if candidate.Corner {
			switchingPathVel = 0
			beforeAcceleration = t.minMaxPathAcceleration(switchingPathPos-eps, 0, false)
			afterAcceleration = t.minMaxPathAcceleration(switchingPathPos+eps, 0, true)
			break
		}
		if candidate.Discontinuity {
			beforePathVel := t.accelerationMaxPathVelocity(switchingPathPos - eps)
			afterPathVel := t.accelerationMaxPathVelocity(switchingPathPos + eps)
			switchingPathVel = math.Min(beforePathVel, afterPathVel)
			beforeAcceleration = t.minMaxPathAcceleration(switchingPathPos-eps, switchingPathVel, false)
			afterAcceleration = t.minMaxPathAcceleration(switchingPathPos+eps, switchingPathVel, true)

			if (beforePathVel > afterPathVel ||
				t.minMaxPhaseSlope(switchingPathPos-eps, switchingPathVel, false) >
					t.accelerationMaxPathVelocityDeriv(switchingPathPos-2*eps)) &&
				(beforePathVel < afterPathVel ||
					t.minMaxPhaseSlope(switchingPathPos+eps, switchingPathVel, true) <
						t.accelerationMaxPathVelocityDeriv(switchingPathPos+2*eps)) {
				break
			}
		} else {
			switchingPathVel = t.accelerationMaxPathVelocity(switchingPathPos)
			beforeAcceleration, afterAcceleration = 0, 0

			if t.accelerationMaxPathVelocityDeriv(switchingPathPos-eps) < 0 &&
				t.accelerationMaxPathVelocityDeriv(switchingPathPos+eps) > 0 {
				break
			}
		}
	}
	return TrajectoryStep{PathPos: switchingPathPos, PathVel: switchingPathVel}, beforeAcceleration, afterAcceleration, false
}

// nextVelocitySwitchingPoint scans forward from pathPos for the point where the maximum deceleration trajectory
// stops diverging from the velocity limit curve, then refines it by bisection.
func (t *Trajectory) nextVelocitySwitchingPoint(pathPos float64) (
	switchingPoint TrajectoryStep, beforeAcceleration, afterAcceleration float64, reachedEnd bool,
) {
	diverging := func(s float64) float64 {
		return t.minMaxPhaseSlope(s, t.velocityMaxPathVelocity(s), false) - t.velocityMaxPathVelocityDeriv(s)
	}

	start := false
	pathPos -= velocitySwitchingStep
	for {
		pathPos += velocitySwitchingStep
		if diverging(pathPos) >= 0 {
			start = true
		}
		if (start && !(diverging(pathPos) > 0)) || pathPos >= t.path.Length() {
			break
		}
	}
	if pathPos >= t.path.Length() {
		return TrajectoryStep{}, 0, 0, true
	}

	beforePathPos := pathPos - velocitySwitchingStep
	afterPathPos := pathPos
	for afterPathPos-beforePathPos > velocitySwitchingAccuracy {
		pathPos = (beforePathPos + afterPathPos) / 2
		if diverging(pathPos) > 0 {
			beforePathPos = pathPos
		} else {
			afterPathPos = pathPos
		}
	}

	beforeAcceleration = t.minMaxPathAcceleration(beforePathPos, t.velocityMaxPathVelocity(beforePathPos), false)
	afterAcceleration = t.minMaxPathAcceleration(afterPathPos, t.velocityMaxPathVelocity(afterPathPos), true)
	return TrajectoryStep{PathPos: afterPathPos, PathVel: t.velocityMaxPathVelocity(afterPathPos)},
		beforeAcceleration, afterAcceleration, false
}

// minMaxPathAcceleration returns the largest (maximum) or smallest path acceleration at a phase plane point that
// keeps every joint within its acceleration limit.
func (t *Trajectory) minMaxPathAcceleration(pathPos, pathVel float64, maximum bool) float64 {
	tangent := t.path.Tangent(pathPos)
	curvature := t.path.Curvature(pathPos)
	factor := 1.
	if !maximum {
		factor = -1
	}
	maxPathAcceleration := math.MaxFloat64
	for i := range tangent {
		if math.Abs(tangent[i]) <= tangentEpsilon {
			continue
		}
		bound := t.maxAcceleration[i] / math.Abs(tangent[i])
		if curvature[i] != 0 {
			bound -= factor * curvature[i] * pathVel * pathVel / tangent[i]
		}
		maxPathAcceleration = utils.MinIgnoringNaN(maxPathAcceleration, bound)
	}
	return factor * maxPathAcceleration
}

func (t *Trajectory) minMaxPhaseSlope(pathPos, pathVel float64, maximum bool) float64 {
	return t.minMaxPathAcceleration(pathPos, pathVel, maximum) / pathVel
}

// accelerationMaxPathVelocity is the acceleration limit curve: the highest path velocity at pathPos for which
// some path acceleration satisfies every joint's acceleration limit.
func (t *Trajectory) accelerationMaxPathVelocity(pathPos float64) float64 {
	maxPathVelocity := math.Inf(1)
	tangent := t.path.Tangent(pathPos)
	curvature := t.path.Curvature(pathPos)
	for i := range tangent {
		if math.Abs(tangent[i]) > tangentEpsilon {
			for j := i + 1; j < len(tangent); j++ {
				if math.Abs(tangent[j]) <= tangentEpsilon {
					continue
				}
				aij := curvature[i]/tangent[i] - curvature[j]/tangent[j]
				if aij != 0 {
					maxPathVelocity = utils.MinIgnoringNaN(maxPathVelocity, math.Sqrt(
						(t.maxAcceleration[i]/math.Abs(tangent[i])+t.maxAcceleration[j]/math.Abs(tangent[j]))/math.Abs(aij),
					))
				}
			}
		} else if curvature[i] != 0 {
			maxPathVelocity = utils.MinIgnoringNaN(maxPathVelocity, math.Sqrt(t.maxAcceleration[i]/math.Abs(curvature[i])))
		}
	}
	return maxPathVelocity
}

// velocityMaxPathVelocity is the velocity limit curve.
func (t *Trajectory) velocityMaxPathVelocity(pathPos float64) float64 {
	tangent := t.path.Tangent(pathPos)
	maxPathVelocity := math.MaxFloat64
	for i := range tangent {
		if math.Abs(tangent[i]) > tangentEpsilon {
			maxPathVelocity = utils.MinIgnoringNaN(maxPathVelocity, t.maxVelocity[i]/math.Abs(tangent[i]))
		}
	}
	return maxPathVelocity
}

func (t *Trajectory) accelerationMaxPathVelocityDeriv(pathPos float64) float64 {
	return (t.accelerationMaxPathVelocity(pathPos+eps) - t.accelerationMaxPathVelocity(pathPos-eps)) / (2 * eps)
}

func (t *Trajectory) velocityMaxPathVelocityDeriv(pathPos float64) float64 {
	tangent := t.path.Tangent(pathPos)
	maxPathVelocity := math.MaxFloat64
	active := -1
	for i := range tangent {
		if math.Abs(tangent[i]) <= tangentEpsilon {
			continue
		}
		if v := t.maxVelocity[i] / math.Abs(tangent[i]); v < maxPathVelocity {
			maxPathVelocity = v
			active = i
		}
	}
	if active < 0 {
		return 0
	}
	return -(t.maxVelocity[active] * t.path.Curvature(pathPos)[active]) / (tangent[active] * math.Abs(tangent[active]))
}

// trajectorySegment returns the index of the first step after time, reusing the last lookup when queries move
// forward in time.
func (t *Trajectory) trajectorySegment(time float64) int {
	if time >= t.last().Time {
		return len(t.steps) - 1
	}
	if time < t.cachedTime {
		t.cachedSegment = 0
	}
	for time >= t.steps[t.cachedSegment].Time {
		t.cachedSegment++
	}
	t.cachedTime = time
	return t.cachedSegment
}

// phaseAt interpolates the phase plane state at time assuming constant path acceleration within a step.
func (t *Trajectory) phaseAt(time float64) (pathPos, pathVel, pathAcc float64, err error) {
	if !t.valid {
		return 0, 0, 0, ErrInfeasibleTrajectory
	}
	if time < 0 || time > t.Duration() || math.IsNaN(time) {
		return 0, 0, 0, errors.Wrapf(ErrTimeOutOfRange, "%f is not in [0, %f]", time, t.Duration())
	}
	i := t.trajectorySegment(time)
	prev, cur := t.steps[i-1], t.steps[i]

	stepDuration := cur.Time - prev.Time
	acceleration := 2 * (cur.PathPos - prev.PathPos - stepDuration*prev.PathVel) / (stepDuration * stepDuration)
	dt := time - prev.Time
	pathPos = prev.PathPos + dt*prev.PathVel + 0.5*dt*dt*acceleration
	pathVel = prev.PathVel + dt*acceleration
	pathAcc = (cur.PathVel - prev.PathVel) / stepDuration
	return pathPos, pathVel, pathAcc, nil
}

// Position returns the joint configuration at time.
func (t *Trajectory) Position(time float64) ([]float64, error) {
	pathPos, _, _, err := t.phaseAt(time)
	if err != nil {
		return nil, err
	}
	return t.path.Config(pathPos), nil
}

// Velocity returns the joint velocities at time.
func (t *Trajectory) Velocity(time float64) ([]float64, error) {
	pathPos, pathVel, _, err := t.phaseAt(time)
	if err != nil {
		return nil, err
	}
	velocity := t.path.Tangent(pathPos)
	for i := range velocity {
		velocity[i] *= pathVel
	}
	return velocity, nil
}

// Acceleration returns the joint accelerations at time.
func (t *Trajectory) Acceleration(time float64) ([]float64, error) {
	pathPos, pathVel, pathAcc, err := t.phaseAt(time)
	if err != nil {
		return nil, err
	}
	acceleration := t.path.Tangent(pathPos)
	curvature := t.path.Curvature(pathPos)
	for i := range acceleration {
		acceleration[i] = acceleration[i]*pathAcc + curvature[i]*pathVel*pathVel
	}
	return acceleration, nil
}
