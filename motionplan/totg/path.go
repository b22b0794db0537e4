// Package totg computes time optimal trajectories along a joint space path under per-joint velocity and
// acceleration limits. Waypoints are joined by straight segments with circular blends at the corners and the
// resulting path is timed by integrating in the phase plane of arc length and path velocity.
package totg

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/totg/logging"
)

// cornerTolerance is the tangent change above which a segment join is an exact corner.
const cornerTolerance = 1e-6

// SwitchingPoint is an arc length along a Path where the binding constraint may change. Discontinuity is set
// where the tangent or curvature jumps, such as at segment joints. Corner is set where the tangent itself jumps,
// so the path can only be followed through it at rest.
type SwitchingPoint struct {
	Position      float64
	Discontinuity bool
	Corner        bool
}

// Path is an arc length parameterized curve through a sequence of configurations. It is immutable once built.
type Path struct {
	segments        []pathSegment
	length          float64
	switchingPoints []SwitchingPoint
	dof             int
}

// NewPath joins the waypoints with straight segments, rounding every interior corner with a circular blend that
// stays within maxDeviation of it. A maxDeviation of zero keeps exact corners.
func NewPath(waypoints [][]float64, maxDeviation float64, logger logging.Logger) (*Path, error) {
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}
	dof := len(waypoints[0])
	for i, wp := range waypoints {
		if len(wp) != dof {
			return nil, errors.Errorf("waypoint %d has %d joints, expected %d", i, len(wp), dof)
		}
	}

	p := &Path{dof: dof}
	start := waypoints[0]
	for i := 1; i < len(waypoints); i++ {
		var blend *circularSegment
		if maxDeviation > 0 && i+1 < len(waypoints) {
			blend = newCircularSegment(
				midpoint(waypoints[i-1], waypoints[i]), waypoints[i], midpoint(waypoints[i], waypoints[i+1]), maxDeviation,
			)
			// degenerate corners keep the join between the two lines, cornerAfter decides whether it is exact
			if blend.length() <= 0 {
				blend = nil
			}
		}
		if blend != nil {
			blendStart := blend.config(0)
			if floats.Distance(start, blendStart, 2) > segmentEpsilon {
				p.segments = append(p.segments, newLinearSegment(start, blendStart))
			}
			p.segments = append(p.segments, blend)
			start = blend.config(blend.length())
		} else if floats.Distance(start, waypoints[i], 2) > segmentEpsilon {
			p.segments = append(p.segments, newLinearSegment(start, waypoints[i]))
			start = waypoints[i]
		}
	}

	for i, seg := range p.segments {
		seg.setPosition(p.length)
		for _, local := range seg.switchingPoints() {
			p.switchingPoints = append(p.switchingPoints, SwitchingPoint{Position: p.length + local})
		}
		p.length += seg.length()
		for len(p.switchingPoints) > 0 && p.switchingPoints[len(p.switchingPoints)-1].Position >= p.length {
			p.switchingPoints = p.switchingPoints[:len(p.switchingPoints)-1]
		}
		p.switchingPoints = append(p.switchingPoints, SwitchingPoint{
			Position:      p.length,
			Discontinuity: true,
			Corner:        p.cornerAfter(i),
		})
	}
	if len(p.segments) == 0 || p.length <= 0 {
		return nil, ErrTooFewWaypoints
	}
	// the end of the path is not a switching point
	p.switchingPoints = p.switchingPoints[:len(p.switchingPoints)-1]

	logger.Debugw("built path",
		"segments", len(p.segments),
		"length", p.length,
		"switching_points", len(p.switchingPoints),
	)
	return p, nil
}

// cornerAfter compares the tangents on either side of the join after segment i. Every segment has a positive
// length, so both tangents are unit vectors.
func (p *Path) cornerAfter(i int) bool {
	if i+1 >= len(p.segments) {
		return false
	}
	before, after := p.segments[i], p.segments[i+1]
	return floats.Distance(before.tangent(before.length()), after.tangent(0), 2) > cornerTolerance
}

// Length returns the total arc length of the path.
func (p *Path) Length() float64 {
	return p.length
}

// DoF returns the dimension of the configurations along the path.
func (p *Path) DoF() int {
	return p.dof
}

// SwitchingPoints returns a copy of the arc length sorted switching points.
func (p *Path) SwitchingPoints() []SwitchingPoint {
	return append([]SwitchingPoint{}, p.switchingPoints...)
}

// segmentAt returns the segment containing arc length s together with s relative to that segment's start.
func (p *Path) segmentAt(s float64) (pathSegment, float64) {
	idx := 0
	for idx+1 < len(p.segments) && s >= p.segments[idx+1].position() {
		idx++
	}
	seg := p.segments[idx]
	return seg, s - seg.position()
}

// Config returns the configuration at arc length s.
func (p *Path) Config(s float64) []float64 {
	seg, local := p.segmentAt(s)
	return seg.config(local)
}

// Tangent returns the unit tangent at arc length s.
func (p *Path) Tangent(s float64) []float64 {
	seg, local := p.segmentAt(s)
	return seg.tangent(local)
}

// Curvature returns the second derivative of the configuration with respect to arc length at s.
func (p *Path) Curvature(s float64) []float64 {
	seg, local := p.segmentAt(s)
	return seg.curvature(local)
}

// NextSwitchingPoint returns the first switching point strictly after s. Past the last one it returns the end
// of the path, flagged as a discontinuity.
func (p *Path) NextSwitchingPoint(s float64) SwitchingPoint {
	idx := sort.Search(len(p.switchingPoints), func(i int) bool {
		return p.switchingPoints[i].Position > s
	})
	if idx == len(p.switchingPoints) {
		return SwitchingPoint{Position: p.length, Discontinuity: true}
	}
	return p.switchingPoints[idx]
}

func midpoint(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = 0.5 * (a[i] + b[i])
	}
	return out
}
