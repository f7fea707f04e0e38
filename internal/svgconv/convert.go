// Package svgconv turns SVG line art into a G-code engraving program.
package svgconv

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inamate/cncview/internal/gcode"
)

var (
	ErrInvalidSVG     = errors.New("invalid svg")
	ErrPathData       = errors.New("invalid path data")
	ErrNoGeometry     = errors.New("svg has no drawable geometry")
	ErrInvalidOptions = errors.New("invalid conversion options")
)

// DefaultCurveSegments is the number of chords per Bézier or arc command.
// Circles and ellipses use four times as many.
const DefaultCurveSegments = 16

// Options controls how drawing units map onto machine moves.
type Options struct {
	Scale         float64 `json:"scale"`    // mm per SVG user unit
	FeedRate      float64 `json:"feedRate"` // mm/min for plunges and cuts
	CutDepth      float64 `json:"cutDepth"` // Z while cutting
	SafeZ         float64 `json:"safeZ"`    // Z while travelling
	CurveSegments int     `json:"curveSegments,omitempty"`
}

// DefaultOptions returns the converter defaults.
func DefaultOptions() Options {
	return Options{
		Scale:         1,
		FeedRate:      gcode.DefaultFeedRate,
		CutDepth:      -2,
		SafeZ:         5,
		CurveSegments: DefaultCurveSegments,
	}
}

// Validate rejects options that cannot produce a sensible program.
func (o Options) Validate() error {
	switch {
	case !(o.Scale > 0):
		return fmt.Errorf("%w: scale must be positive", ErrInvalidOptions)
	case !(o.FeedRate > 0):
		return fmt.Errorf("%w: feed rate must be positive", ErrInvalidOptions)
	case !(o.CutDepth < o.SafeZ):
		return fmt.Errorf("%w: cut depth must be below safe Z", ErrInvalidOptions)
	case o.CurveSegments < 0:
		return fmt.Errorf("%w: curve segments must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Convert reads an SVG document and returns the engraving program.
func Convert(r io.Reader, opts Options) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	d, err := ParseDrawing(r, opts.CurveSegments)
	if err != nil {
		return "", err
	}
	return Generate(d, opts), nil
}

// Generate writes one cut per polyline: retract, travel to the start, plunge,
// follow the points, retract. Y is flipped so the drawing reads upright on
// the machine.
func Generate(d *Drawing, opts Options) string {
	var b strings.Builder
	b.WriteString("(Generated by cncview svg converter)\n")
	b.WriteString("G21\n")
	b.WriteString("G90\n")
	fmt.Fprintf(&b, "M3 S%s\n", num(gcode.DefaultSpindleSpeed))

	feed := num(opts.FeedRate)
	for i, l := range d.Lines {
		if len(l.Points) < 2 {
			continue
		}
		fmt.Fprintf(&b, "\n(path %d)\n", i+1)
		fmt.Fprintf(&b, "G0 Z%.3f\n", opts.SafeZ)

		x, y := machineXY(l.Points[0], d.Height, opts.Scale)
		fmt.Fprintf(&b, "G0 X%.3f Y%.3f\n", x, y)
		fmt.Fprintf(&b, "G1 Z%.3f F%s\n", opts.CutDepth, feed)
		for _, p := range l.Points[1:] {
			x, y := machineXY(p, d.Height, opts.Scale)
			fmt.Fprintf(&b, "G1 X%.3f Y%.3f\n", x, y)
		}
		fmt.Fprintf(&b, "G0 Z%.3f\n", opts.SafeZ)
	}

	b.WriteString("\nM5\n")
	b.WriteString("M30\n")
	return b.String()
}

func machineXY(p Point, height, scale float64) (float64, float64) {
	return p.X * scale, (height - p.Y) * scale
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
