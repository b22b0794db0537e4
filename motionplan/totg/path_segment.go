package totg

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/totg/utils"
)

// segmentEpsilon is the distance below which two configurations are treated as coincident when building blends.
const segmentEpsilon = 1e-6

// pathSegment is a piece of path geometry parameterized by arc length s in [0, length()].
type pathSegment interface {
	length() float64
	// position is the arc length offset of the segment within its Path.
	position() float64
	setPosition(position float64)
	config(s float64) []float64
	tangent(s float64) []float64
	curvature(s float64) []float64
	// switchingPoints returns sorted local arc lengths where a joint's tangent changes sign.
	switchingPoints() []float64
}

type segmentOffset struct {
	offset float64
}

func (so *segmentOffset) position() float64 {
	return so.offset
}

func (so *segmentOffset) setPosition(position float64) {
	so.offset = position
}

// linearSegment is a straight line between two configurations.
type linearSegment struct {
	segmentOffset
	start, end []float64
	segLength  float64
}

func newLinearSegment(start, end []float64) *linearSegment {
	return &linearSegment{
		start:     start,
		end:       end,
		segLength: floats.Distance(start, end, 2),
	}
}

func (ls *linearSegment) length() float64 {
	return ls.segLength
}

func (ls *linearSegment) config(s float64) []float64 {
	by := utils.Clamp(s/ls.segLength, 0, 1)
	out := make([]float64, len(ls.start))
	for i := range out {
		out[i] = (1-by)*ls.start[i] + by*ls.end[i]
	}
	return out
}

func (ls *linearSegment) tangent(float64) []float64 {
	out := make([]float64, len(ls.start))
	floats.SubTo(out, ls.end, ls.start)
	floats.Scale(1/ls.segLength, out)
	return out
}

func (ls *linearSegment) curvature(float64) []float64 {
	return make([]float64, len(ls.start))
}

func (ls *linearSegment) switchingPoints() []float64 {
	return nil
}

// circularSegment is a circular arc blending the corner at intersection between the incoming direction from start
// and the outgoing direction toward end. The arc lies in the plane spanned by x and y around center.
type circularSegment struct {
	segmentOffset
	radius    float64
	center    []float64
	x, y      []float64
	segLength float64
}

// newCircularSegment sizes the blend so the arc stays within maxDeviation of the corner. Degenerate corners
// (coincident points, collinear or reversing directions) produce a zero length segment at the intersection whose
// tangent and curvature are zero. NewPath never places such a segment on a path.
func newCircularSegment(start, intersection, end []float64, maxDeviation float64) *circularSegment {
	dim := len(intersection)
	degenerate := &circularSegment{
		radius: 1,
		center: append([]float64{}, intersection...),
		x:      make([]float64, dim),
		y:      make([]float64, dim),
	}

	startDistance := floats.Distance(intersection, start, 2)
	endDistance := floats.Distance(end, intersection, 2)
	if startDistance < segmentEpsilon || endDistance < segmentEpsilon {
		return degenerate
	}

	startDirection := make([]float64, dim)
	floats.SubTo(startDirection, intersection, start)
	floats.Scale(1/startDistance, startDirection)
	endDirection := make([]float64, dim)
	floats.SubTo(endDirection, end, intersection)
	floats.Scale(1/endDistance, endDirection)

	startDotEnd := floats.Dot(startDirection, endDirection)
	// the formulas below divide by sin and tan of the half angle
	if startDotEnd > 1-segmentEpsilon || startDotEnd < -1+segmentEpsilon {
		return degenerate
	}

	angle := math.Acos(startDotEnd)
	halfAngle := 0.5 * angle
	distance := math.Min(startDistance, endDistance)
	distance = math.Min(distance, maxDeviation*math.Sin(halfAngle)/(1-math.Cos(halfAngle)))

	radius := distance / math.Tan(halfAngle)

	bisector := make([]float64, dim)
	floats.SubTo(bisector, endDirection, startDirection)
	floats.Scale(radius/(math.Cos(halfAngle)*floats.Norm(bisector, 2)), bisector)
	center := make([]float64, dim)
	floats.AddTo(center, intersection, bisector)

	x := make([]float64, dim)
	floats.AddScaledTo(x, intersection, -distance, startDirection)
	floats.Sub(x, center)
	floats.Scale(1/floats.Norm(x, 2), x)

	return &circularSegment{
		radius:    radius,
		center:    center,
		x:         x,
		y:         startDirection,
		segLength: angle * radius,
	}
}

func (cs *circularSegment) length() float64 {
	return cs.segLength
}

func (cs *circularSegment) config(s float64) []float64 {
	angle := s / cs.radius
	cos, sin := math.Cos(angle), math.Sin(angle)
	out := make([]float64, len(cs.center))
	for i := range out {
		out[i] = cs.center[i] + cs.radius*(cs.x[i]*cos+cs.y[i]*sin)
	}
	return out
}

func (cs *circularSegment) tangent(s float64) []float64 {
	angle := s / cs.radius
	cos, sin := math.Cos(angle), math.Sin(angle)
	out := make([]float64, len(cs.center))
	for i := range out {
		out[i] = -cs.x[i]*sin + cs.y[i]*cos
	}
	return out
}

func (cs *circularSegment) curvature(s float64) []float64 {
	angle := s / cs.radius
	cos, sin := math.Cos(angle), math.Sin(angle)
	out := make([]float64, len(cs.center))
	for i := range out {
		out[i] = -1 / cs.radius * (cs.x[i]*cos + cs.y[i]*sin)
	}
	return out
}

// The tangent of joint i is zero where atan2(y_i, x_i) equals the arc angle, which is where the binding
// acceleration constraint may change.
func (cs *circularSegment) switchingPoints() []float64 {
	var points []float64
	for i := range cs.x {
		switchingAngle := math.Atan2(cs.y[i], cs.x[i])
		if switchingAngle < 0 {
			switchingAngle += math.Pi
		}
		switchingPoint := switchingAngle * cs.radius
		if switchingPoint < cs.segLength {
			points = append(points, switchingPoint)
		}
	}
	sort.Float64s(points)
	return points
}
