package totg

import (
	"math"

	"github.com/pkg/errors"
)

// default values for timing options.
const (
	// max deviation of the blended path from a corner, in configuration space units.
	defaultPathTolerance = 0.1

	// spacing of the resampled output waypoints, in seconds.
	defaultResampleDT = 0.1

	// consecutive waypoints closer than this on every joint are treated as duplicates.
	defaultMinAngleChange = 0.001

	// Euler step used by the phase plane integrator, in seconds.
	DefaultTimeStep = 0.001
)

// Options configures a Generator.
type Options struct {
	PathTolerance  float64 `json:"path_tolerance"`
	ResampleDT     float64 `json:"resample_dt"`
	MinAngleChange float64 `json:"min_angle_change"`
	TimeStep       float64 `json:"time_step"`
}

// NewDefaultOptions returns the default timing options.
func NewDefaultOptions() Options {
	return Options{
		PathTolerance:  defaultPathTolerance,
		ResampleDT:     defaultResampleDT,
		MinAngleChange: defaultMinAngleChange,
		TimeStep:       DefaultTimeStep,
	}
}

// WithDefaults fills unset (zero) sampling fields with their defaults. PathTolerance is left alone since zero is a
// meaningful value there (exact corners).
func (o Options) WithDefaults() Options {
	if o.ResampleDT == 0 {
		o.ResampleDT = defaultResampleDT
	}
	if o.MinAngleChange == 0 {
		o.MinAngleChange = defaultMinAngleChange
	}
	if o.TimeStep == 0 {
		o.TimeStep = DefaultTimeStep
	}
	return o
}

// Validate returns an error if any option could not produce a trajectory.
func (o Options) Validate() error {
	switch {
	case o.PathTolerance < 0 || math.IsNaN(o.PathTolerance):
		return errors.Errorf("path tolerance must be non-negative, got %f", o.PathTolerance)
	case !(o.ResampleDT > 0) || math.IsInf(o.ResampleDT, 0):
		return errors.Errorf("resample dt must be positive, got %f", o.ResampleDT)
	case o.MinAngleChange < 0 || math.IsNaN(o.MinAngleChange):
		return errors.Errorf("min angle change must be non-negative, got %f", o.MinAngleChange)
	case !(o.TimeStep > 0) || math.IsInf(o.TimeStep, 0):
		return errors.Errorf("time step must be positive, got %f", o.TimeStep)
	}
	return nil
}
