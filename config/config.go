// Package config reads the JSON timing configuration used by the command line tools and turns it into
// generator options and joint limits.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/totg/jointtrajectory"
	"go.viam.com/totg/logging"
	"go.viam.com/totg/motionplan/totg"
)

// Config describes how a trajectory should be timed. Zero values mean "use the default", except for
// PathTolerance which is a pointer since zero asks for exact corners.
type Config struct {
	PathTolerance      *float64           `json:"path_tolerance,omitempty"`
	ResampleDT         float64            `json:"resample_dt,omitempty"`
	MinAngleChange     float64            `json:"min_angle_change,omitempty"`
	TimeStep           float64            `json:"time_step,omitempty"`
	VelocityScale      float64            `json:"velocity_scale,omitempty"`
	AccelerationScale  float64            `json:"acceleration_scale,omitempty"`
	VelocityLimits     map[string]float64 `json:"velocity_limits,omitempty"`
	AccelerationLimits map[string]float64 `json:"acceleration_limits,omitempty"`
	NumWaypoints       int                `json:"num_waypoints,omitempty"`
}

// FromAttributes decodes a generic attribute map into a Config. Unknown keys are logged and ignored.
func FromAttributes(attributes map[string]interface{}, logger logging.Logger) (*Config, error) {
	cfg := &Config{}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   cfg,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode timing config")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Warnw("ignoring unknown timing config keys", "keys", md.Unused)
	}
	return cfg, nil
}

// Read loads and validates a JSON timing config file.
func Read(filename string, logger logging.Logger) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read timing config")
	}
	attributes := map[string]interface{}{}
	if err := json.Unmarshal(data, &attributes); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal timing config")
	}
	cfg, err := FromAttributes(attributes, logger)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate("timing"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid. Every problem found is reported.
func (cfg *Config) Validate(path string) error {
	var errAll error
	invalid := func(field string, format string, args ...interface{}) {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError(
			fmt.Sprintf("%s.%s", path, field), errors.Errorf(format, args...)))
	}
	if cfg.PathTolerance != nil && !(*cfg.PathTolerance >= 0) {
		invalid("path_tolerance", "must be non-negative, got %f", *cfg.PathTolerance)
	}
	if cfg.ResampleDT < 0 || math.IsNaN(cfg.ResampleDT) {
		invalid("resample_dt", "must be positive, got %f", cfg.ResampleDT)
	}
	if cfg.MinAngleChange < 0 || math.IsNaN(cfg.MinAngleChange) {
		invalid("min_angle_change", "must be non-negative, got %f", cfg.MinAngleChange)
	}
	if cfg.TimeStep < 0 || math.IsNaN(cfg.TimeStep) {
		invalid("time_step", "must be positive, got %f", cfg.TimeStep)
	}
	for _, name := range sortedKeys(cfg.VelocityLimits) {
		if limit := cfg.VelocityLimits[name]; !(limit > 0) {
			invalid("velocity_limits."+name, "must be greater than 0, got %f", limit)
		}
	}
	for _, name := range sortedKeys(cfg.AccelerationLimits) {
		if limit := cfg.AccelerationLimits[name]; !(limit > 0) {
			invalid("acceleration_limits."+name, "must be greater than 0, got %f", limit)
		}
	}
	if cfg.NumWaypoints < 0 || cfg.NumWaypoints == 1 {
		invalid("num_waypoints", "must be 0 or at least 2, got %d", cfg.NumWaypoints)
	}
	if cfg.NumWaypoints > 0 && (len(cfg.VelocityLimits) > 0 || len(cfg.AccelerationLimits) > 0) {
		invalid("num_waypoints", "cannot be combined with explicit joint limits")
	}
	if cfg.NumWaypoints > 0 && cfg.ResampleDT > 0 {
		invalid("resample_dt", "cannot be combined with num_waypoints, which chooses the resample period")
	}
	return errAll
}

// Options returns the generator options, with defaults for every unset field.
func (cfg *Config) Options() totg.Options {
	opts := totg.Options{
		PathTolerance:  totg.NewDefaultOptions().PathTolerance,
		ResampleDT:     cfg.ResampleDT,
		MinAngleChange: cfg.MinAngleChange,
		TimeStep:       cfg.TimeStep,
	}
	if cfg.PathTolerance != nil {
		opts.PathTolerance = *cfg.PathTolerance
	}
	return opts.WithDefaults()
}

// ScalingFactors returns the velocity and acceleration scaling factors, 1 when unset.
func (cfg *Config) ScalingFactors() (float64, float64) {
	velocity, acceleration := cfg.VelocityScale, cfg.AccelerationScale
	if velocity == 0 {
		velocity = 1
	}
	if acceleration == 0 {
		acceleration = 1
	}
	return velocity, acceleration
}

// Apply retimes traj as the config describes: by waypoint count, with explicit limits, or with scaled native
// limits, in that order of precedence.
func (cfg *Config) Apply(traj *jointtrajectory.Trajectory, logger logging.Logger) error {
	velocityScale, accelerationScale := cfg.ScalingFactors()
	if cfg.NumWaypoints > 0 {
		return totg.ComputeTimeStampsWithWaypointCountOptions(
			cfg.NumWaypoints, traj, cfg.Options(), velocityScale, accelerationScale, logger)
	}
	gen, err := totg.NewGenerator(cfg.Options(), logger)
	if err != nil {
		return err
	}
	if len(cfg.VelocityLimits) > 0 || len(cfg.AccelerationLimits) > 0 {
		return gen.ComputeTimeStampsWithLimits(traj, cfg.VelocityLimits, cfg.AccelerationLimits)
	}
	return gen.ComputeTimeStamps(traj, velocityScale, accelerationScale)
}

func sortedKeys(m map[string]float64) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
