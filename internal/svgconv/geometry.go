package svgconv

import (
	"math"

	mt "github.com/rustyoz/Mtransform"
)

// Point is a 2D coordinate in SVG user units.
type Point struct {
	X, Y float64
}

// Polyline is a connected run of points. A closed polyline repeats its first
// point at the end.
type Polyline struct {
	Points []Point
	Closed bool
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

func apply(tf mt.Transform, p Point) Point {
	x, y := tf.Apply(p.X, p.Y)
	return Point{X: x, Y: y}
}

// matrix builds the transform for SVG's matrix(a b c d e f).
func matrix(a, b, c, d, e, f float64) mt.Transform {
	return mt.Transform{
		{a, c, e},
		{b, d, f},
		{0, 0, 1},
	}
}

// cubicPoints samples the cubic Bézier p0..p3 at n even steps, excluding p0.
func cubicPoints(p0, p1, p2, p3 Point, n int) []Point {
	out := make([]Point, 0, n)
	for k := 1; k <= n; k++ {
		t := float64(k) / float64(n)
		u := 1 - t
		out = append(out, Point{
			X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
			Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
		})
	}
	return out
}

// quadPoints samples the quadratic Bézier p0..p2 at n even steps, excluding p0.
func quadPoints(p0, p1, p2 Point, n int) []Point {
	out := make([]Point, 0, n)
	for k := 1; k <= n; k++ {
		t := float64(k) / float64(n)
		u := 1 - t
		out = append(out, Point{
			X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
			Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
		})
	}
	return out
}

// ellipsePoints samples a full ellipse starting at angle 0, closed.
func ellipsePoints(cx, cy, rx, ry float64, n int) []Point {
	out := make([]Point, 0, n+1)
	for k := 0; k <= n; k++ {
		a := 2 * math.Pi * float64(k) / float64(n)
		out = append(out, Point{X: cx + rx*math.Cos(a), Y: cy + ry*math.Sin(a)})
	}
	out[n] = out[0]
	return out
}

// arcPoints converts an SVG elliptical arc from p0 to p1 into n points,
// excluding p0. Out-of-range radii are scaled up; a zero radius is a line.
func arcPoints(p0 Point, rx, ry, rotDeg float64, large, sweep bool, p1 Point, n int) []Point {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Point{p1}
	}

	phi := rotDeg * math.Pi / 180
	cos, sin := math.Cos(phi), math.Sin(phi)

	dx, dy := (p0.X-p1.X)/2, (p0.Y-p1.Y)/2
	x1 := cos*dx + sin*dy
	y1 := -sin*dx + cos*dy

	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		s := math.Sqrt(l)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx

	cx := cos*cx1 - sin*cy1 + (p0.X+p1.X)/2
	cy := sin*cx1 + cos*cy1 + (p0.Y+p1.Y)/2

	theta := math.Atan2((y1-cy1)/ry, (x1-cx1)/rx)
	end := math.Atan2((-y1-cy1)/ry, (-x1-cx1)/rx)
	delta := end - theta
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	out := make([]Point, 0, n)
	for k := 1; k <= n; k++ {
		a := theta + delta*float64(k)/float64(n)
		ex, ey := rx*math.Cos(a), ry*math.Sin(a)
		out = append(out, Point{X: cos*ex - sin*ey + cx, Y: sin*ex + cos*ey + cy})
	}
	out[n-1] = p1
	return out
}
