package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"google.golang.org/protobuf/encoding/protojson"

	"go.viam.com/totg/config"
	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
	"go.viam.com/totg/referenceframe"
)

// ComputeAction retimes a waypoint file and writes the result.
func ComputeAction(c *cli.Context) error {
	logger := newLogger(c)
	group, err := referenceframe.ParseGroupJSONFile(c.Path(generalFlagGroup), c.String(generalFlagGroupName))
	if err != nil {
		return err
	}
	traj, err := jointtrajectory.ReadFile(c.Path(computeFlagWaypoints), group)
	if err != nil {
		return err
	}

	cfg := &config.Config{}
	if path := c.Path(computeFlagConfig); path != "" {
		if cfg, err = config.Read(path, logger); err != nil {
			return err
		}
	}
	if c.IsSet(computeFlagVelScale) {
		cfg.VelocityScale = c.Float64(computeFlagVelScale)
	}
	if c.IsSet(computeFlagAccelScale) {
		cfg.AccelerationScale = c.Float64(computeFlagAccelScale)
	}

	input := traj.Len()
	if err := cfg.Apply(traj, logger); err != nil {
		return errors.Wrap(err, "failed to time trajectory")
	}
	logger.Infow("timed trajectory",
		"group", group.Name(), "input_waypoints", input, "output_waypoints", traj.Len(), "duration", traj.Duration())

	if err := writeOutput(c, traj); err != nil {
		return err
	}
	if path := c.Path(computeFlagPlot); path != "" {
		if err := plotTrajectory(traj, path); err != nil {
			return err
		}
	}
	if c.Bool(computeFlagSummary) {
		summary, err := summarize(traj)
		if err != nil {
			return err
		}
		printf(c.App.ErrWriter, "%s", summary)
	}
	if c.Bool(computeFlagHistogram) {
		if err := printSpeedHistogram(c.App.ErrWriter, traj); err != nil {
			return err
		}
	}
	return nil
}

// InspectAction prints a joint group, and the waypoints of a trajectory file if one is given.
func InspectAction(c *cli.Context) error {
	group, err := referenceframe.ParseGroupJSONFile(c.Path(generalFlagGroup), c.String(generalFlagGroupName))
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", group)
	if group.HasMixedJointTypes() {
		printf(c.App.Writer, "group mixes revolute and prismatic joints, path tolerance is only approximate")
	}
	path := c.Path(computeFlagWaypoints)
	if path == "" {
		return nil
	}
	traj, err := jointtrajectory.ReadFile(path, group)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", traj)
	printf(c.App.Writer, "%d waypoints, %.4fs", traj.Len(), traj.Duration())
	return nil
}

func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("totg")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(generalFlagDebug) {
		logger.SetLevel(logging.INFO)
	}
	return logger
}

func writeOutput(c *cli.Context, traj *jointtrajectory.Trajectory) (err error) {
	out := c.App.Writer
	if path := c.Path(computeFlagOutput); path != "" {
		//nolint:gosec
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
		out = f
	}

	switch format := c.String(computeFlagFormat); format {
	case formatCSV:
		return traj.WriteCSV(out)
	case formatJSON:
		data, err := traj.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case formatJointPositions:
		return writeJointPositions(out, traj)
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

// writeJointPositions writes one api JointPositions message per line.
func writeJointPositions(out io.Writer, traj *jointtrajectory.Trajectory) error {
	positions, err := traj.JointPositions()
	if err != nil {
		return err
	}
	for _, jp := range positions {
		data, err := protojson.Marshal(jp)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// printf prints a message with a trailing newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
