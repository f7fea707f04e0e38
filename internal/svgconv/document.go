package svgconv

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	mt "github.com/rustyoz/Mtransform"
)

// Drawing is the flattened geometry of an SVG document.
type Drawing struct {
	Lines []Polyline
	// Height is the document height in user units, used to flip Y.
	Height float64
}

// skipped elements hold geometry that is referenced, not drawn
var skipped = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true,
	"marker": true, "pattern": true, "metadata": true, "title": true, "desc": true,
}

// ParseDrawing reads an SVG document and flattens every drawable element
// into polylines in document space.
func ParseDrawing(r io.Reader, curveSegments int) (*Drawing, error) {
	if curveSegments < 1 {
		curveSegments = DefaultCurveSegments
	}

	dec := xml.NewDecoder(r)
	d := &Drawing{}
	stack := []mt.Transform{mt.Identity()}
	skipDepth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSVG, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			attrs := attrMap(t.Attr)

			if skipDepth > 0 || skipped[name] {
				skipDepth++
				continue
			}

			tf := stack[len(stack)-1]
			if s, ok := attrs["transform"]; ok {
				local, err := parseTransform(s)
				if err != nil {
					return nil, err
				}
				tf = mt.MultiplyTransforms(tf, local)
			}
			stack = append(stack, tf)

			if name == "svg" && !sawRoot {
				sawRoot = true
				d.Height = documentHeight(attrs)
				continue
			}

			lines, err := shape(name, attrs, tf, curveSegments)
			if err != nil {
				return nil, err
			}
			d.Lines = append(d.Lines, lines...)

		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no <svg> element", ErrInvalidSVG)
	}
	if len(d.Lines) == 0 {
		return nil, ErrNoGeometry
	}
	if d.Height <= 0 {
		for _, l := range d.Lines {
			for _, p := range l.Points {
				d.Height = math.Max(d.Height, p.Y)
			}
		}
	}
	return d, nil
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}

// shape flattens one drawable element. Unknown elements yield nothing.
func shape(name string, a map[string]string, tf mt.Transform, segments int) ([]Polyline, error) {
	num := func(key string) float64 {
		v, _ := parseLength(a[key])
		return v
	}
	line := func(pts []Point, closed bool) []Polyline {
		if len(pts) < 2 {
			return nil
		}
		out := make([]Point, len(pts))
		for i, p := range pts {
			out[i] = apply(tf, p)
		}
		return []Polyline{{Points: out, Closed: closed}}
	}

	switch name {
	case "path":
		return parsePathData(a["d"], tf, segments)

	case "line":
		return line([]Point{{num("x1"), num("y1")}, {num("x2"), num("y2")}}, false), nil

	case "polyline", "polygon":
		pts, err := parsePoints(a["points"])
		if err != nil {
			return nil, err
		}
		if name == "polygon" && len(pts) > 2 {
			pts = append(pts, pts[0])
			return line(pts, true), nil
		}
		return line(pts, false), nil

	case "rect":
		x, y, w, h := num("x"), num("y"), num("width"), num("height")
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		// rounded corners are cut square
		return line([]Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}, {x, y}}, true), nil

	case "circle":
		r := num("r")
		if r <= 0 {
			return nil, nil
		}
		return line(ellipsePoints(num("cx"), num("cy"), r, r, 4*segments), true), nil

	case "ellipse":
		rx, ry := num("rx"), num("ry")
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return line(ellipsePoints(num("cx"), num("cy"), rx, ry, 4*segments), true), nil
	}
	return nil, nil
}

// documentHeight reads the user-space height from viewBox, then height.
func documentHeight(a map[string]string) float64 {
	if vb := strings.Fields(strings.ReplaceAll(a["viewBox"], ",", " ")); len(vb) == 4 {
		minY, err1 := strconv.ParseFloat(vb[1], 64)
		h, err2 := strconv.ParseFloat(vb[3], 64)
		if err1 == nil && err2 == nil && h > 0 {
			return minY + h
		}
	}
	h, _ := parseLength(a["height"])
	return h
}

// parseLength parses a number with an optional unit suffix such as px or mm.
func parseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyz%")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parsePoints(s string) ([]Point, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates in points", ErrInvalidSVG)
	}
	pts := make([]Point, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err1 := strconv.ParseFloat(fields[i], 64)
		y, err2 := strconv.ParseFloat(fields[i+1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: invalid coordinate pair %q,%q", ErrInvalidSVG, fields[i], fields[i+1])
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts, nil
}

// parseTransform parses a transform attribute list such as
// "translate(10 20) rotate(45) scale(2)". Functions compose left to right.
func parseTransform(s string) (mt.Transform, error) {
	tf := mt.Identity()
	rest := strings.TrimSpace(s)

	for rest != "" {
		open := strings.IndexByte(rest, '(')
		end := strings.IndexByte(rest, ')')
		if open <= 0 || end < open {
			return tf, fmt.Errorf("%w: transform %q", ErrInvalidSVG, s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := parseArgs(rest[open+1 : end])
		if err != nil {
			return tf, fmt.Errorf("%w: transform %q", ErrInvalidSVG, s)
		}
		local, err := transformFunc(name, args)
		if err != nil {
			return tf, err
		}
		tf = mt.MultiplyTransforms(tf, local)
		rest = strings.TrimLeft(rest[end+1:], " ,\t\n\r")
	}
	return tf, nil
}

func parseArgs(s string) ([]float64, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func transformFunc(name string, a []float64) (mt.Transform, error) {
	bad := fmt.Errorf("%w: %s with %d arguments", ErrInvalidSVG, name, len(a))
	switch name {
	case "matrix":
		if len(a) != 6 {
			return mt.Identity(), bad
		}
		return matrix(a[0], a[1], a[2], a[3], a[4], a[5]), nil

	case "translate":
		switch len(a) {
		case 1:
			return matrix(1, 0, 0, 1, a[0], 0), nil
		case 2:
			return matrix(1, 0, 0, 1, a[0], a[1]), nil
		}

	case "scale":
		switch len(a) {
		case 1:
			return matrix(a[0], 0, 0, a[0], 0, 0), nil
		case 2:
			return matrix(a[0], 0, 0, a[1], 0, 0), nil
		}

	case "rotate":
		if len(a) != 1 && len(a) != 3 {
			break
		}
		rad := a[0] * math.Pi / 180
		cos, sin := math.Cos(rad), math.Sin(rad)
		rot := matrix(cos, sin, -sin, cos, 0, 0)
		if len(a) == 1 {
			return rot, nil
		}
		// rotate(a cx cy) = translate(cx cy) rotate(a) translate(-cx -cy)
		tf := mt.MultiplyTransforms(matrix(1, 0, 0, 1, a[1], a[2]), rot)
		return mt.MultiplyTransforms(tf, matrix(1, 0, 0, 1, -a[1], -a[2])), nil

	case "skewX":
		if len(a) == 1 {
			return matrix(1, 0, math.Tan(a[0]*math.Pi/180), 1, 0, 0), nil
		}

	case "skewY":
		if len(a) == 1 {
			return matrix(1, math.Tan(a[0]*math.Pi/180), 0, 1, 0, 0), nil
		}

	default:
		return mt.Identity(), fmt.Errorf("%w: unknown transform %q", ErrInvalidSVG, name)
	}
	return mt.Identity(), bad
}
