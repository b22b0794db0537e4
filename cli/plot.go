package cli

import (
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"go.viam.com/totg/jointtrajectory"
)

const (
	plotWidth     = 8 * vg.Inch
	plotRowHeight = 3 * vg.Inch
)

// plotTrajectory saves joint positions and velocities against time as two stacked plots in a PNG.
func plotTrajectory(traj *jointtrajectory.Trajectory, filename string) error {
	if traj.Group() == nil {
		return errors.New("trajectory has no joint group")
	}
	positions, err := newProfilePlot(traj, "Joint positions", "position", func(wp jointtrajectory.Waypoint) []float64 {
		return wp.Positions
	})
	if err != nil {
		return err
	}
	velocities, err := newProfilePlot(traj, "Joint velocities", "velocity", func(wp jointtrajectory.Waypoint) []float64 {
		return wp.Velocities
	})
	if err != nil {
		return err
	}

	img := vgimg.New(plotWidth, 2*plotRowHeight)
	tiles := draw.Tiles{Rows: 2, Cols: 1}
	canvases := plot.Align([][]*plot.Plot{{positions}, {velocities}}, tiles, draw.New(img))
	positions.Draw(canvases[0][0])
	velocities.Draw(canvases[1][0])

	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create plot file")
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		//nolint:errcheck
		f.Close()
		return errors.Wrap(err, "failed to write plot")
	}
	return f.Close()
}

func newProfilePlot(
	traj *jointtrajectory.Trajectory,
	title, label string,
	values func(jointtrajectory.Waypoint) []float64,
) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = label
	p.Add(plotter.NewGrid())

	waypoints := traj.Waypoints()
	for j, name := range traj.Group().JointNames() {
		pts := make(plotter.XYs, 0, len(waypoints))
		elapsed := 0.
		for i, wp := range waypoints {
			if i > 0 {
				elapsed += wp.DurationFromPrevious
			}
			v := values(wp)
			if v == nil {
				return nil, errors.Errorf("waypoint %d has no %s", i, label)
			}
			pts = append(pts, plotter.XY{X: elapsed, Y: v[j]})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(j)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}
