package engine

import (
	"fmt"
	"math"

	"github.com/inamate/cncview/internal/gcode"
)

// CameraView selects which machine plane Render projects onto.
type CameraView string

const (
	ViewTop       CameraView = "top"
	ViewFront     CameraView = "front"
	ViewSide      CameraView = "side"
	ViewIsometric CameraView = "isometric"
)

var (
	isoCos = math.Cos(math.Pi / 6)
	isoSin = math.Sin(math.Pi / 6)
)

// ParseCameraView validates a view name.
func ParseCameraView(s string) (CameraView, error) {
	switch v := CameraView(s); v {
	case ViewTop, ViewFront, ViewSide, ViewIsometric:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Project maps a machine point onto the view plane.
func (v CameraView) Project(p gcode.Point3D) (float64, float64) {
	switch v {
	case ViewFront:
		return p.X, p.Z
	case ViewSide:
		return p.Y, p.Z
	case ViewIsometric:
		return (p.X - p.Y) * isoCos, (p.X+p.Y)*isoSin + p.Z
	default:
		return p.X, p.Y
	}
}

// Bounds returns the projected extent of the segments.
func (v CameraView) Bounds(segments []gcode.Segment) Rect {
	if len(segments) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segments {
		for _, p := range [2]gcode.Point3D{s.From, s.To} {
			x, y := v.Project(p)
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
