package gcode

import (
	"errors"
	"math"
)

// DefaultArcSegments is the tessellation granularity when none is configured.
const DefaultArcSegments = 60

// ErrInvalidArcSegments is returned when the arc segment count is below one.
var ErrInvalidArcSegments = errors.New("arc segment count must be at least 1")

const fullTurn = 2 * math.Pi

// ArcSweep returns the signed angle travelled from start to end in the
// commanded direction. Clockwise sweeps are negative. Equal angles mean a
// full circle rather than an empty arc.
func ArcSweep(start, end float64, clockwise bool) float64 {
	delta := end - start
	if clockwise && delta > 0 {
		delta -= fullTurn
	} else if !clockwise && delta < 0 {
		delta += fullTurn
	}

	if math.Abs(delta) < 1e-12 {
		if clockwise {
			return -fullTurn
		}
		return fullTurn
	}
	return delta
}

// TessellateArc approximates an arc around center with segments chords and
// returns segments+1 points. Z moves linearly from center.Z to endZ, which
// gives helical moves.
func TessellateArc(center Point3D, radius, start, end float64, clockwise bool, segments int, endZ float64) ([]Point3D, error) {
	if segments < 1 {
		return nil, ErrInvalidArcSegments
	}

	sweep := ArcSweep(start, end, clockwise)
	angleStep := sweep / float64(segments)
	zStep := (endZ - center.Z) / float64(segments)

	points := make([]Point3D, segments+1)
	for i := 0; i <= segments; i++ {
		angle := start + angleStep*float64(i)
		points[i] = Point3D{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
			Z: center.Z + zStep*float64(i),
		}
	}
	return points, nil
}

// radiusCenter finds the arc center for an R-word arc from cur to end.
// Positive radius selects the shorter arc, negative the longer one.
func radiusCenter(cur, end Point3D, radius float64, clockwise bool) (Point3D, bool) {
	dx, dy := end.X-cur.X, end.Y-cur.Y
	chord := math.Hypot(dx, dy)
	r := math.Abs(radius)
	if chord == 0 || r == 0 {
		return Point3D{}, false
	}
	// chords slightly longer than the diameter come from rounding in the file
	half := math.Min(chord/2, r)
	offset := math.Sqrt(r*r - half*half)

	theta := math.Atan2(dy, dx)
	if clockwise == (radius > 0) {
		theta -= math.Pi / 2
	} else {
		theta += math.Pi / 2
	}

	return Point3D{
		X: (cur.X+end.X)/2 + offset*math.Cos(theta),
		Y: (cur.Y+end.Y)/2 + offset*math.Sin(theta),
		Z: cur.Z,
	}, true
}
