package jointtrajectory

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/totg/referenceframe"
)

// WaypointJSON is a single waypoint of a waypoint file. TimeFromStart is optional; when every waypoint after the
// first carries one the trajectory is loaded as already timed.
type WaypointJSON struct {
	TimeFromStart *float64  `json:"time_from_start,omitempty"`
	Positions     []float64 `json:"positions"`
	Velocities    []float64 `json:"velocities,omitempty"`
	Accelerations []float64 `json:"accelerations,omitempty"`
}

// FileJSON is the on-disk representation of a trajectory.
type FileJSON struct {
	Group     string         `json:"group,omitempty"`
	Waypoints []WaypointJSON `json:"waypoints"`
}

// UnmarshalJSONForGroup parses waypoint JSON into a trajectory for group.
func UnmarshalJSONForGroup(data []byte, group *referenceframe.JointGroup) (*Trajectory, error) {
	var file FileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal waypoint json")
	}
	traj := NewTrajectory(group)
	last := 0.
	for i, wpj := range file.Waypoints {
		wp := Waypoint{Positions: wpj.Positions, Velocities: wpj.Velocities, Accelerations: wpj.Accelerations}
		if wpj.TimeFromStart != nil {
			if i > 0 {
				wp.DurationFromPrevious = *wpj.TimeFromStart - last
			}
			last = *wpj.TimeFromStart
		}
		if err := traj.AddTimedWaypoint(wp); err != nil {
			return nil, errors.Wrapf(err, "waypoint %d", i)
		}
	}
	return traj, nil
}

// ReadFile reads a waypoint JSON file for group.
func ReadFile(filename string, group *referenceframe.JointGroup) (*Trajectory, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read waypoint file")
	}
	return UnmarshalJSONForGroup(data, group)
}

// MarshalJSON encodes the trajectory in the waypoint file format, including time from start.
func (t *Trajectory) MarshalJSON() ([]byte, error) {
	file := FileJSON{Waypoints: make([]WaypointJSON, 0, len(t.waypoints))}
	if t.group != nil {
		file.Group = t.group.Name()
	}
	elapsed := 0.
	for i, wp := range t.waypoints {
		if i > 0 {
			elapsed += wp.DurationFromPrevious
		}
		timeFromStart := elapsed
		file.Waypoints = append(file.Waypoints, WaypointJSON{
			TimeFromStart: &timeFromStart,
			Positions:     wp.Positions,
			Velocities:    wp.Velocities,
			Accelerations: wp.Accelerations,
		})
	}
	return json.Marshal(file)
}

// WriteCSV writes one row per waypoint: time, then positions, velocities and accelerations per joint.
func (t *Trajectory) WriteCSV(w io.Writer) error {
	names := []string{}
	if t.group != nil {
		names = t.group.JointNames()
	} else if len(t.waypoints) > 0 {
		for i := range t.waypoints[0].Positions {
			names = append(names, "j"+strconv.Itoa(i))
		}
	}
	header := []string{"time"}
	for _, suffix := range []string{"pos", "vel", "acc"} {
		for _, name := range names {
			header = append(header, name+"_"+suffix)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	elapsed := 0.
	for i, wp := range t.waypoints {
		if i > 0 {
			elapsed += wp.DurationFromPrevious
		}
		row := []string{formatFloat(elapsed)}
		for _, values := range [][]float64{wp.Positions, wp.Velocities, wp.Accelerations} {
			for j := range names {
				if values == nil {
					row = append(row, "")
				} else {
					row = append(row, formatFloat(values[j]))
				}
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
