package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/inamate/cncview/internal/gcode"
)

// ColorMode selects how toolpath strokes are colored.
type ColorMode string

const (
	// ColorDefault colors by motion kind.
	ColorDefault ColorMode = "default"
	// ColorAxis colors cuts by their dominant axis.
	ColorAxis ColorMode = "axis"
	// ColorProgressive fades cuts from white toward their axis color in
	// program order.
	ColorProgressive ColorMode = "progressive"
)

const (
	colorRapid     = 0xffd166
	colorLinearCut = 0xff0000
	colorArcCut    = 0x00ff00
	colorAxisX     = 0xff0000
	colorAxisY     = 0x00ff00
	colorAxisZ     = 0x0000ff
	colorNeutral   = 0xffffff

	pendingOpacity = 0.35
)

// ParseColorMode validates a color mode name.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case ColorDefault, ColorAxis, ColorProgressive:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColorMode, s)
}

// DrawBatch is a run of consecutive segments that share a stroke and
// traversal state. Points holds one x,y pair per segment endpoint in the
// view plane, two per segment, for line-list rendering.
type DrawBatch struct {
	Op        string            `json:"op"`
	Kind      gcode.SegmentKind `json:"kind"`
	First     int               `json:"first"`
	Count     int               `json:"count"`
	Traversed bool              `json:"traversed"`
	Stroke    string            `json:"stroke"`
	Opacity   float64           `json:"opacity"`
	Points    []float64         `json:"points"`
}

// CompileToolpath groups segments into draw batches. Segments before
// traversed are marked as already cut by playback.
func CompileToolpath(segments []gcode.Segment, traversed int, view CameraView, mode ColorMode) []DrawBatch {
	var batches []DrawBatch
	var cur *DrawBatch

	for i, s := range segments {
		done := i < traversed
		stroke := hexColor(segmentColor(s, i, len(segments), mode))

		if cur == nil || cur.Kind != s.Kind || cur.Traversed != done || cur.Stroke != stroke {
			opacity := 1.0
			if !done {
				opacity = pendingOpacity
			}
			batches = append(batches, DrawBatch{
				Op:        "lines",
				Kind:      s.Kind,
				First:     i,
				Traversed: done,
				Stroke:    stroke,
				Opacity:   opacity,
			})
			cur = &batches[len(batches)-1]
		}

		fx, fy := view.Project(s.From)
		tx, ty := view.Project(s.To)
		cur.Points = append(cur.Points, fx, fy, tx, ty)
		cur.Count++
	}
	return batches
}

func segmentColor(s gcode.Segment, index, total int, mode ColorMode) uint32 {
	if s.Kind == gcode.KindRapid {
		return colorRapid
	}
	switch mode {
	case ColorAxis:
		return axisColor(s)
	case ColorProgressive:
		target := uint32(colorAxisY)
		if math.Abs(s.To.X-s.From.X) > math.Abs(s.To.Y-s.From.Y) {
			target = colorAxisX
		}
		return lerpColor(colorNeutral, target, float64(index)/float64(total))
	default:
		if s.Kind.IsArc() {
			return colorArcCut
		}
		return colorLinearCut
	}
}

func axisColor(s gcode.Segment) uint32 {
	dx := math.Abs(s.To.X - s.From.X)
	dy := math.Abs(s.To.Y - s.From.Y)
	dz := math.Abs(s.To.Z - s.From.Z)
	switch {
	case dx > dy && dx > dz:
		return colorAxisX
	case dy > dx && dy > dz:
		return colorAxisY
	case dz > dx && dz > dy:
		return colorAxisZ
	}
	return colorNeutral
}

func lerpColor(from, to uint32, t float64) uint32 {
	var out uint32
	for shift := 16; shift >= 0; shift -= 8 {
		a := float64((from >> shift) & 0xff)
		b := float64((to >> shift) & 0xff)
		out |= uint32(math.Round(a+(b-a)*t)) << shift
	}
	return out
}

func hexColor(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xffffff)
}

// BatchesToJSON serializes draw batches to JSON.
func BatchesToJSON(batches []DrawBatch) (string, error) {
	if batches == nil {
		batches = []DrawBatch{}
	}
	data, err := json.Marshal(batches)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
