package gcode

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxEmptyJSON(t *testing.T) {
	data, err := json.Marshal(EmptyBoundingBox())
	require.NoError(t, err)
	assert.JSONEq(t, `{"minX":null,"maxX":null,"minY":null,"maxY":null,"minZ":null,"maxZ":null}`, string(data))

	var back BoundingBox
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(back.MinX, 1))
	assert.True(t, math.IsInf(back.MaxZ, -1))
	assert.False(t, back.IsFinite())
}

func TestBoundingBoxJSON(t *testing.T) {
	b := EmptyBoundingBox()
	b.Extend(Point3D{X: -1, Y: 2, Z: 3})
	b.Extend(Point3D{X: 4, Y: -5, Z: 0})

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"minX":-1,"maxX":4,"minY":-5,"maxY":2,"minZ":0,"maxZ":3}`, string(data))

	var back BoundingBox
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b, back)
}

func TestBoundingBoxGeometry(t *testing.T) {
	b := EmptyBoundingBox()
	assert.Equal(t, Point3D{}, b.Size())
	assert.Equal(t, Point3D{}, b.Center())
	assert.Zero(t, b.MaxDimension())

	b.Extend(Point3D{X: 0, Y: 0, Z: -2})
	b.Extend(Point3D{X: 10, Y: 4, Z: 2})

	assert.True(t, b.IsFinite())
	assert.Equal(t, Point3D{10, 4, 4}, b.Size())
	assert.Equal(t, Point3D{5, 2, 0}, b.Center())
	assert.Equal(t, 10.0, b.MaxDimension())
}

func TestPointLerp(t *testing.T) {
	a := Point3D{0, 0, 0}
	b := Point3D{10, -4, 2}

	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Point3D{5, -2, 1}, a.Lerp(b, 0.5))
	assert.InDelta(t, math.Sqrt(120), a.Distance(b), eps)
}

func TestSegmentJSON(t *testing.T) {
	data, err := json.Marshal(Segment{Kind: KindRapid, To: Point3D{X: 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"rapid","from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}`, string(data))
	assert.True(t, KindArcCW.IsArc())
	assert.False(t, KindLinear.IsArc())
}
