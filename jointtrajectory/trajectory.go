// Package jointtrajectory holds an ordered, optionally timed, sequence of joint configurations for a joint group.
// Timing algorithms read its positions and write their resampled output back into it.
package jointtrajectory

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	pb "go.viam.com/api/component/arm/v1"

	"go.viam.com/totg/referenceframe"
)

// Waypoint is one configuration of a trajectory. Velocities and Accelerations are nil until the trajectory
// has been timed.
type Waypoint struct {
	Positions     []referenceframe.Input
	Velocities    []float64
	Accelerations []float64
	// DurationFromPrevious is the time in seconds since the previous waypoint, zero for the first waypoint.
	DurationFromPrevious float64
}

func (wp Waypoint) clone() Waypoint {
	return Waypoint{
		Positions:            cloneFloats(wp.Positions),
		Velocities:           cloneFloats(wp.Velocities),
		Accelerations:        cloneFloats(wp.Accelerations),
		DurationFromPrevious: wp.DurationFromPrevious,
	}
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

// Trajectory is a sequence of waypoints for a single joint group. It is not safe for concurrent use; a caller
// handing it to a timing function must not touch it until that call returns.
type Trajectory struct {
	group     *referenceframe.JointGroup
	waypoints []Waypoint
}

// NewTrajectory returns an empty trajectory for the given group.
func NewTrajectory(group *referenceframe.JointGroup) *Trajectory {
	return &Trajectory{group: group}
}

// Group returns the joint group the trajectory moves.
func (t *Trajectory) Group() *referenceframe.JointGroup {
	return t.group
}

// Len returns the number of waypoints.
func (t *Trajectory) Len() int {
	return len(t.waypoints)
}

// Empty returns whether the trajectory has no waypoints.
func (t *Trajectory) Empty() bool {
	return len(t.waypoints) == 0
}

// AddWaypoint appends an untimed configuration.
func (t *Trajectory) AddWaypoint(positions []referenceframe.Input, durationFromPrevious float64) error {
	return t.AddTimedWaypoint(Waypoint{Positions: positions, DurationFromPrevious: durationFromPrevious})
}

// AddTimedWaypoint appends a copy of wp after checking its dimensions against the group.
func (t *Trajectory) AddTimedWaypoint(wp Waypoint) error {
	if err := t.checkWaypoint(wp); err != nil {
		return err
	}
	t.waypoints = append(t.waypoints, wp.clone())
	return nil
}

func (t *Trajectory) checkWaypoint(wp Waypoint) error {
	dof := len(wp.Positions)
	if t.group != nil {
		dof = t.group.DoF()
	}
	if len(wp.Positions) != dof {
		return referenceframe.NewIncorrectDoFError(len(wp.Positions), dof)
	}
	if wp.Velocities != nil && len(wp.Velocities) != dof {
		return referenceframe.NewIncorrectDoFError(len(wp.Velocities), dof)
	}
	if wp.Accelerations != nil && len(wp.Accelerations) != dof {
		return referenceframe.NewIncorrectDoFError(len(wp.Accelerations), dof)
	}
	if wp.DurationFromPrevious < 0 || math.IsNaN(wp.DurationFromPrevious) {
		return errors.Errorf("waypoint duration must be non-negative, got %f", wp.DurationFromPrevious)
	}
	return nil
}

// Waypoint returns a copy of the waypoint at index i.
func (t *Trajectory) Waypoint(i int) Waypoint {
	return t.waypoints[i].clone()
}

// Waypoints returns a deep copy of every waypoint.
func (t *Trajectory) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(t.waypoints))
	for _, wp := range t.waypoints {
		out = append(out, wp.clone())
	}
	return out
}

// Positions returns a deep copy of every waypoint's positions.
func (t *Trajectory) Positions() [][]referenceframe.Input {
	out := make([][]referenceframe.Input, 0, len(t.waypoints))
	for _, wp := range t.waypoints {
		out = append(out, cloneFloats(wp.Positions))
	}
	return out
}

// Duration returns the time from the first to the last waypoint.
func (t *Trajectory) Duration() float64 {
	var total float64
	for i, wp := range t.waypoints {
		if i > 0 {
			total += wp.DurationFromPrevious
		}
	}
	return total
}

// TimeFromStart returns the time at which waypoint i is reached.
func (t *Trajectory) TimeFromStart(i int) float64 {
	var total float64
	for j := 1; j <= i && j < len(t.waypoints); j++ {
		total += t.waypoints[j].DurationFromPrevious
	}
	return total
}

// Clear removes every waypoint.
func (t *Trajectory) Clear() {
	t.waypoints = nil
}

// Clone returns a deep copy sharing only the (immutable) group.
func (t *Trajectory) Clone() *Trajectory {
	return &Trajectory{group: t.group, waypoints: t.Waypoints()}
}

// ReplaceWaypoints validates every waypoint and only then swaps them in, so a failed replacement leaves the
// trajectory untouched.
func (t *Trajectory) ReplaceWaypoints(waypoints []Waypoint) error {
	replacement := make([]Waypoint, 0, len(waypoints))
	for i, wp := range waypoints {
		if err := t.checkWaypoint(wp); err != nil {
			return errors.Wrapf(err, "waypoint %d", i)
		}
		replacement = append(replacement, wp.clone())
	}
	t.waypoints = replacement
	return nil
}

// Unwind removes 2*pi jumps from the positions of continuous joints so consecutive waypoints never differ by
// more than pi on such a joint.
func (t *Trajectory) Unwind() {
	if t.group == nil {
		return
	}
	unwound := UnwindPositions(t.group, t.Positions())
	for i := range t.waypoints {
		t.waypoints[i].Positions = unwound[i]
	}
}

// UnwindPositions returns a copy of positions with continuous joints unwound.
func UnwindPositions(group *referenceframe.JointGroup, positions [][]referenceframe.Input) [][]referenceframe.Input {
	out := make([][]referenceframe.Input, 0, len(positions))
	for _, p := range positions {
		out = append(out, cloneFloats(p))
	}
	if len(out) == 0 {
		return out
	}
	for j := 0; j < group.DoF(); j++ {
		if group.Joint(j).Type != referenceframe.ContinuousJoint {
			continue
		}
		runningOffset := 0.
		lastValue := out[0][j]
		for i := 1; i < len(out); i++ {
			current := out[i][j]
			if lastValue > current+math.Pi {
				runningOffset += 2 * math.Pi
			} else if current > lastValue+math.Pi {
				runningOffset -= 2 * math.Pi
			}
			lastValue = current
			out[i][j] = current + runningOffset
		}
	}
	return out
}

// StateAt linearly interpolates positions, velocities and accelerations at the given time from start. Times
// outside the trajectory are clamped to its ends. The returned waypoint's DurationFromPrevious is zero.
func (t *Trajectory) StateAt(timeFromStart float64) (Waypoint, error) {
	if len(t.waypoints) == 0 {
		return Waypoint{}, errors.New("cannot interpolate an empty trajectory")
	}
	if timeFromStart <= 0 || len(t.waypoints) == 1 {
		wp := t.Waypoint(0)
		wp.DurationFromPrevious = 0
		return wp, nil
	}
	elapsed := 0.
	for i := 1; i < len(t.waypoints); i++ {
		next := t.waypoints[i]
		if timeFromStart > elapsed+next.DurationFromPrevious {
			elapsed += next.DurationFromPrevious
			continue
		}
		prev := t.waypoints[i-1]
		blend := 1.
		if next.DurationFromPrevious > 0 {
			blend = (timeFromStart - elapsed) / next.DurationFromPrevious
		}
		state := Waypoint{Positions: referenceframe.InterpolateInputs(prev.Positions, next.Positions, blend)}
		if prev.Velocities != nil && next.Velocities != nil {
			state.Velocities = referenceframe.InterpolateInputs(prev.Velocities, next.Velocities, blend)
		}
		if prev.Accelerations != nil && next.Accelerations != nil {
			state.Accelerations = referenceframe.InterpolateInputs(prev.Accelerations, next.Accelerations, blend)
		}
		return state, nil
	}
	wp := t.Waypoint(len(t.waypoints) - 1)
	wp.DurationFromPrevious = 0
	return wp, nil
}

// JointPositions converts every waypoint to the api JointPositions message.
func (t *Trajectory) JointPositions() ([]*pb.JointPositions, error) {
	out := make([]*pb.JointPositions, 0, len(t.waypoints))
	for _, wp := range t.waypoints {
		jp, err := referenceframe.JointPositionsFromInputs(t.group, wp.Positions)
		if err != nil {
			return nil, err
		}
		out = append(out, jp)
	}
	return out, nil
}

// String prints out a table of each waypoint with its time from start, positions and velocities.
func (t *Trajectory) String() string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Time", "Positions", "Velocities"})
	elapsed := 0.
	for i, wp := range t.waypoints {
		if i > 0 {
			elapsed += wp.DurationFromPrevious
		}
		tw.AppendRow(table.Row{i, fmt.Sprintf("%.4f", elapsed), formatFloats(wp.Positions), formatFloats(wp.Velocities)})
	}
	return tw.Render()
}

func formatFloats(values []float64) string {
	if values == nil {
		return "-"
	}
	str := "["
	for i, v := range values {
		if i > 0 {
			str += " "
		}
		str += fmt.Sprintf("%.4f", v)
	}
	return str + "]"
}
