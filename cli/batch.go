package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"go.viam.com/totg/config"
	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
	"go.viam.com/totg/referenceframe"
)

const timedSuffix = ".timed.csv"

// BatchAction retimes every waypoint file in a directory, writing each result next to its input as CSV.
// Files are independent timing requests and run concurrently.
func BatchAction(c *cli.Context) error {
	logger := newLogger(c)
	group, err := referenceframe.ParseGroupJSONFile(c.Path(generalFlagGroup), c.String(generalFlagGroupName))
	if err != nil {
		return err
	}
	cfg := &config.Config{}
	if path := c.Path(computeFlagConfig); path != "" {
		if cfg, err = config.Read(path, logger); err != nil {
			return err
		}
	}
	inputs, err := waypointFiles(c.Path(batchFlagDir))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.Errorf("no waypoint files found in %q", c.Path(batchFlagDir))
	}

	workers, ctx := errgroup.WithContext(c.Context)
	if parallel := c.Int(batchFlagParallel); parallel > 0 {
		workers.SetLimit(parallel)
	}
	for _, input := range inputs {
		workers.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return timeFile(input, group, cfg, logger.Sublogger(filepath.Base(input)))
		})
	}
	if err := workers.Wait(); err != nil {
		return err
	}
	printf(c.App.Writer, "timed %d waypoint files", len(inputs))
	return nil
}

func waypointFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read waypoint directory")
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func timeFile(input string, group *referenceframe.JointGroup, cfg *config.Config, logger logging.Logger) (err error) {
	traj, err := jointtrajectory.ReadFile(input, group)
	if err != nil {
		return errors.Wrapf(err, "reading %s", input)
	}
	if err := cfg.Apply(traj, logger); err != nil {
		return errors.Wrapf(err, "timing %s", input)
	}
	output := strings.TrimSuffix(input, filepath.Ext(input)) + timedSuffix
	//nolint:gosec
	f, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "creating %s", output)
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := traj.WriteCSV(f); err != nil {
		return err
	}
	logger.Infow("timed waypoint file", "output", output, "waypoints", traj.Len(), "duration", traj.Duration())
	return nil
}
