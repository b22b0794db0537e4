// Package cli contains the totg command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagDebug      = "debug"
	generalFlagGroup      = "group"
	generalFlagGroupName  = "group-name"
	computeFlagWaypoints  = "waypoints"
	computeFlagConfig     = "config"
	computeFlagOutput     = "output"
	computeFlagFormat     = "format"
	computeFlagPlot       = "plot"
	computeFlagSummary    = "summary"
	computeFlagHistogram  = "histogram"
	computeFlagVelScale   = "velocity-scale"
	computeFlagAccelScale = "acceleration-scale"
	batchFlagDir          = "dir"
	batchFlagParallel     = "parallel"

	formatCSV            = "csv"
	formatJSON           = "json"
	formatJointPositions = "joint-positions"
)

var app = &cli.App{
	Name:            "totg",
	Usage:           "time optimal trajectory generation for joint groups",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "compute",
			Usage:     "retime a waypoint file along its time optimal profile",
			UsageText: "totg compute --group <group.json> --waypoints <waypoints.json> [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     generalFlagGroup,
					Required: true,
					Usage:    "joint group description `FILE`",
				},
				&cli.StringFlag{
					Name:  generalFlagGroupName,
					Usage: "override the group name from the group file",
				},
				&cli.PathFlag{
					Name:     computeFlagWaypoints,
					Required: true,
					Usage:    "waypoint `FILE` to retime",
				},
				&cli.PathFlag{
					Name:  computeFlagConfig,
					Usage: "timing configuration `FILE`",
				},
				&cli.Float64Flag{
					Name:  computeFlagVelScale,
					Usage: "scale every joint's max velocity, overrides the config file",
				},
				&cli.Float64Flag{
					Name:  computeFlagAccelScale,
					Usage: "scale every joint's max acceleration, overrides the config file",
				},
				&cli.PathFlag{
					Name:  computeFlagOutput,
					Usage: "write the timed trajectory to `FILE` instead of stdout",
				},
				&cli.StringFlag{
					Name:  computeFlagFormat,
					Value: formatCSV,
					Usage: "output format, one of " + formatCSV + ", " + formatJSON + " or " + formatJointPositions,
				},
				&cli.PathFlag{
					Name:  computeFlagPlot,
					Usage: "save a PNG plot of joint positions and velocities to `FILE`",
				},
				&cli.BoolFlag{
					Name:  computeFlagSummary,
					Usage: "print per joint velocity and acceleration statistics",
				},
				&cli.BoolFlag{
					Name:  computeFlagHistogram,
					Usage: "print a histogram of joint space speed over the trajectory",
				},
			},
			Action: ComputeAction,
		},
		{
			Name:      "batch",
			Usage:     "retime every waypoint file in a directory, writing <name>" + timedSuffix + " next to each",
			UsageText: "totg batch --group <group.json> --dir <directory> [other options]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     generalFlagGroup,
					Required: true,
					Usage:    "joint group description `FILE`",
				},
				&cli.StringFlag{
					Name:  generalFlagGroupName,
					Usage: "override the group name from the group file",
				},
				&cli.PathFlag{
					Name:     batchFlagDir,
					Required: true,
					Usage:    "`DIRECTORY` of waypoint files",
				},
				&cli.PathFlag{
					Name:  computeFlagConfig,
					Usage: "timing configuration `FILE`",
				},
				&cli.IntFlag{
					Name:  batchFlagParallel,
					Value: 4,
					Usage: "number of files timed at once, 0 for no limit",
				},
			},
			Action: BatchAction,
		},
		{
			Name:      "inspect",
			Usage:     "print a joint group and optionally the waypoints of a trajectory file",
			UsageText: "totg inspect --group <group.json> [--waypoints <waypoints.json>]",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     generalFlagGroup,
					Required: true,
					Usage:    "joint group description `FILE`",
				},
				&cli.StringFlag{
					Name:  generalFlagGroupName,
					Usage: "override the group name from the group file",
				},
				&cli.PathFlag{
					Name:  computeFlagWaypoints,
					Usage: "waypoint `FILE` to print",
				},
			},
			Action: InspectAction,
		},
	},
}

// NewApp returns the app.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
