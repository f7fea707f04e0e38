package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/cncview/internal/gcode"
)

func seg(kind gcode.SegmentKind, from, to gcode.Point3D) gcode.Segment {
	return gcode.Segment{Kind: kind, From: from, To: to}
}

func TestCompileToolpathBatches(t *testing.T) {
	segments := []gcode.Segment{
		seg(gcode.KindRapid, gcode.Point3D{}, gcode.Point3D{X: 1}),
		seg(gcode.KindLinear, gcode.Point3D{X: 1}, gcode.Point3D{X: 2}),
		seg(gcode.KindLinear, gcode.Point3D{X: 2}, gcode.Point3D{X: 3}),
		seg(gcode.KindArcCW, gcode.Point3D{X: 3}, gcode.Point3D{X: 4, Y: 1}),
	}

	batches := CompileToolpath(segments, 2, ViewTop, ColorDefault)

	require.Len(t, batches, 4)
	assert.Equal(t, DrawBatch{
		Op: "lines", Kind: gcode.KindRapid, First: 0, Count: 1, Traversed: true,
		Stroke: "#ffd166", Opacity: 1, Points: []float64{0, 0, 1, 0},
	}, batches[0])
	assert.Equal(t, "#ff0000", batches[1].Stroke)
	assert.True(t, batches[1].Traversed)
	// same kind, split by traversal
	assert.Equal(t, 2, batches[2].First)
	assert.False(t, batches[2].Traversed)
	assert.Equal(t, pendingOpacity, batches[2].Opacity)
	assert.Equal(t, "#00ff00", batches[3].Stroke)
	assert.Equal(t, []float64{3, 0, 4, 1}, batches[3].Points)
}

func TestCompileToolpathMergesRuns(t *testing.T) {
	var segments []gcode.Segment
	for i := 0; i < 10; i++ {
		segments = append(segments, seg(gcode.KindArcCCW, gcode.Point3D{X: float64(i)}, gcode.Point3D{X: float64(i + 1)}))
	}

	batches := CompileToolpath(segments, 0, ViewTop, ColorDefault)

	require.Len(t, batches, 1)
	assert.Equal(t, 10, batches[0].Count)
	assert.Len(t, batches[0].Points, 40)
}

func TestCompileToolpathEmpty(t *testing.T) {
	assert.Nil(t, CompileToolpath(nil, 0, ViewTop, ColorDefault))

	out, err := BatchesToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestAxisColors(t *testing.T) {
	tests := []struct {
		name string
		to   gcode.Point3D
		want string
	}{
		{"x dominant", gcode.Point3D{X: 5, Y: 1}, "#ff0000"},
		{"y dominant", gcode.Point3D{X: 1, Y: 5}, "#00ff00"},
		{"z dominant", gcode.Point3D{Z: -3}, "#0000ff"},
		{"tie", gcode.Point3D{X: 2, Y: 2}, "#ffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CompileToolpath([]gcode.Segment{seg(gcode.KindLinear, gcode.Point3D{}, tt.to)}, 0, ViewTop, ColorAxis)
			require.Len(t, b, 1)
			assert.Equal(t, tt.want, b[0].Stroke)
		})
	}
}

func TestProgressiveColors(t *testing.T) {
	segments := []gcode.Segment{
		seg(gcode.KindLinear, gcode.Point3D{}, gcode.Point3D{X: 1}),
		seg(gcode.KindRapid, gcode.Point3D{X: 1}, gcode.Point3D{X: 2}),
	}

	b := CompileToolpath(segments, 0, ViewTop, ColorProgressive)

	require.Len(t, b, 2)
	// first segment has progress 0, so it is still white
	assert.Equal(t, "#ffffff", b[0].Stroke)
	assert.Equal(t, "#ffd166", b[1].Stroke)
	assert.Equal(t, uint32(0xff8080), lerpColor(0xffffff, 0xff0000, 0.5))
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("progressive")
	require.NoError(t, err)
	assert.Equal(t, ColorProgressive, m)

	_, err = ParseColorMode("")
	assert.True(t, errors.Is(err, ErrUnknownColorMode))
}
