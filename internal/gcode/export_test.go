package gcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	out := Export([]Segment{
		{Kind: KindRapid, To: Point3D{Z: 5}},
		{Kind: KindLinear, From: Point3D{Z: 5}, To: Point3D{X: 10.25, Y: -1, Z: 5}, Feed: 450},
		{Kind: KindArcCCW, To: Point3D{X: 1.23456}},
	})

	want := strings.Join([]string{
		"G21 ; Units in mm",
		"G90 ; Absolute positioning",
		"",
		"G00 X0.000 Y0.000 Z5.000",
		"G01 X10.250 Y-1.000 Z5.000 F450",
		"G01 X1.235 Y0.000 Z0.000 F600",
		"",
		"M30 ; End program",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestExportEmpty(t *testing.T) {
	out := Export(nil)

	assert.True(t, strings.HasPrefix(out, "G21"))
	assert.True(t, strings.HasSuffix(out, "\n\nM30 ; End program"))
}

func TestExportRoundTrip(t *testing.T) {
	src := mustParse(t, "G0 X1 Y2 Z3\nG1 X4 F250\nG2 X8 Y2 I2 J0\nG0 Z10")

	back := mustParse(t, Export(src.Segments))

	require.Len(t, back.Segments, len(src.Segments))
	for i := range src.Segments {
		assert.InDelta(t, src.Segments[i].To.X, back.Segments[i].To.X, 1e-3)
		assert.InDelta(t, src.Segments[i].To.Y, back.Segments[i].To.Y, 1e-3)
		assert.InDelta(t, src.Segments[i].To.Z, back.Segments[i].To.Z, 1e-3)
		assert.Equal(t, src.Segments[i].Kind == KindRapid, back.Segments[i].Kind == KindRapid)
	}
	assert.InDelta(t, src.Stats.TotalDistance, back.Stats.TotalDistance, 0.05)
}
