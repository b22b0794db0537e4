package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/totg/jointtrajectory"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// summarize renders a table of per joint velocity and acceleration statistics over the timed waypoints.
func summarize(traj *jointtrajectory.Trajectory) (string, error) {
	if traj.Group() == nil {
		return "", errors.New("trajectory has no joint group")
	}
	if traj.Len() == 0 || traj.Waypoint(0).Velocities == nil {
		return "", errors.New("trajectory has not been timed")
	}
	t := table.NewWriter()
	t.SetTitle("%s: %d waypoints over %.4fs", traj.Group().Name(), traj.Len(), traj.Duration())
	t.AppendHeader(table.Row{"Joint", "Peak |Vel|", "Mean |Vel|", "Std Dev Vel", "Peak |Acc|", "Travel"})
	waypoints := traj.Waypoints()
	for j, name := range traj.Group().JointNames() {
		velocities := make([]float64, 0, len(waypoints))
		accelerations := make([]float64, 0, len(waypoints))
		for _, wp := range waypoints {
			velocities = append(velocities, math.Abs(wp.Velocities[j]))
			if wp.Accelerations != nil {
				accelerations = append(accelerations, math.Abs(wp.Accelerations[j]))
			}
		}
		peakVel, err := stats.Max(velocities)
		if err != nil {
			return "", err
		}
		meanVel, err := stats.Mean(velocities)
		if err != nil {
			return "", err
		}
		stdDev, err := stats.StandardDeviation(velocities)
		if err != nil {
			return "", err
		}
		peakAcc := 0.
		if len(accelerations) > 0 {
			if peakAcc, err = stats.Max(accelerations); err != nil {
				return "", err
			}
		}
		travel := math.Abs(waypoints[len(waypoints)-1].Positions[j] - waypoints[0].Positions[j])
		t.AppendRow(table.Row{
			name,
			formatStat(peakVel),
			formatStat(meanVel),
			formatStat(stdDev),
			formatStat(peakAcc),
			formatStat(travel),
		})
	}
	return t.Render(), nil
}

// printSpeedHistogram prints how long the trajectory spends at each joint space speed.
func printSpeedHistogram(w io.Writer, traj *jointtrajectory.Trajectory) error {
	speeds := make([]float64, 0, traj.Len())
	for _, wp := range traj.Waypoints() {
		if wp.Velocities == nil {
			return errors.New("trajectory has not been timed")
		}
		speeds = append(speeds, floats.Norm(wp.Velocities, 2))
	}
	printf(w, "joint space speed")
	return histogram.Fprint(w, histogram.Hist(histogramBins, speeds), histogram.Linear(histogramWidth))
}

func formatStat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
