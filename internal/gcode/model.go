package gcode

import (
	"encoding/json"
	"math"
)

// Point3D is a position in millimetres. Z is up.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - o.
func (p Point3D) Sub(o Point3D) Point3D {
	return Point3D{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Lerp returns the point at fraction t along p→o.
func (p Point3D) Lerp(o Point3D, t float64) Point3D {
	return Point3D{
		X: p.X + (o.X-p.X)*t,
		Y: p.Y + (o.Y-p.Y)*t,
		Z: p.Z + (o.Z-p.Z)*t,
	}
}

// Distance returns the Euclidean distance between p and o.
func (p Point3D) Distance(o Point3D) float64 {
	d := o.Sub(p)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// SegmentKind classifies a motion segment.
type SegmentKind string

const (
	KindRapid  SegmentKind = "rapid"
	KindLinear SegmentKind = "linear"
	KindArcCW  SegmentKind = "arc_cw"
	KindArcCCW SegmentKind = "arc_ccw"
)

// IsArc reports whether the kind is one of the arc kinds.
func (k SegmentKind) IsArc() bool {
	return k == KindArcCW || k == KindArcCCW
}

// Segment is one straight move of the toolpath. Arc commands expand into many
// segments, one per tessellated chord, all sharing Center and Radius.
type Segment struct {
	Kind    SegmentKind `json:"type"`
	From    Point3D     `json:"from"`
	To      Point3D     `json:"to"`
	Feed    float64     `json:"feed,omitempty"`    // units/min, 0 when absent
	Spindle float64     `json:"spindle,omitempty"` // 0 when the spindle is off
	Center  *Point3D    `json:"center,omitempty"`
	Radius  float64     `json:"radius,omitempty"`
}

// Length returns the 3D length of the segment.
func (s Segment) Length() float64 {
	return s.From.Distance(s.To)
}

// BoundingBox is the axis-aligned extent of every visited position.
// A box that saw no motion keeps its infinite bounds; check IsFinite before use.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// EmptyBoundingBox returns a box with inverted infinite bounds.
func EmptyBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		MinX: inf, MaxX: -inf,
		MinY: inf, MaxY: -inf,
		MinZ: inf, MaxZ: -inf,
	}
}

// Extend widens the box to contain p.
func (b *BoundingBox) Extend(p Point3D) {
	b.MinX = math.Min(b.MinX, p.X)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxY = math.Max(b.MaxY, p.Y)
	b.MinZ = math.Min(b.MinZ, p.Z)
	b.MaxZ = math.Max(b.MaxZ, p.Z)
}

// IsFinite reports whether every bound is a finite number.
func (b BoundingBox) IsFinite() bool {
	for _, v := range [...]float64{b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Size returns the extent along each axis. Zero for a non-finite box.
func (b BoundingBox) Size() Point3D {
	if !b.IsFinite() {
		return Point3D{}
	}
	return Point3D{X: b.MaxX - b.MinX, Y: b.MaxY - b.MinY, Z: b.MaxZ - b.MinZ}
}

// Center returns the middle of the box. Origin for a non-finite box.
func (b BoundingBox) Center() Point3D {
	if !b.IsFinite() {
		return Point3D{}
	}
	return Point3D{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
		Z: (b.MinZ + b.MaxZ) / 2,
	}
}

// MaxDimension returns the largest axis extent.
func (b BoundingBox) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// MarshalJSON writes non-finite bounds as null; encoding/json rejects infinities.
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	finite := func(v float64) *float64 {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		MinX *float64 `json:"minX"`
		MaxX *float64 `json:"maxX"`
		MinY *float64 `json:"minY"`
		MaxY *float64 `json:"maxY"`
		MinZ *float64 `json:"minZ"`
		MaxZ *float64 `json:"maxZ"`
	}{finite(b.MinX), finite(b.MaxX), finite(b.MinY), finite(b.MaxY), finite(b.MinZ), finite(b.MaxZ)})
}

// UnmarshalJSON restores null bounds as the empty box's infinities.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var raw struct {
		MinX, MaxX, MinY, MaxY, MinZ, MaxZ *float64
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = EmptyBoundingBox()
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.MinX, raw.MinX)
	set(&b.MaxX, raw.MaxX)
	set(&b.MinY, raw.MinY)
	set(&b.MaxY, raw.MaxY)
	set(&b.MinZ, raw.MinZ)
	set(&b.MaxZ, raw.MaxZ)
	return nil
}

// Statistics are aggregate figures derived from a full segment list.
type Statistics struct {
	TotalDistance        float64 `json:"totalDistance"`
	RapidDistance        float64 `json:"rapidDistance"`
	CutDistance          float64 `json:"cutDistance"`
	EstimatedTimeSeconds float64 `json:"estimatedTime"`
	LineCount            int     `json:"lineCount"`
}

// Result is everything a parse produces.
type Result struct {
	Segments []Segment   `json:"segments"`
	BBox     BoundingBox `json:"bbox"`
	Stats    Statistics  `json:"stats"`
}
