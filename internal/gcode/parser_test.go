package gcode

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func mustParse(t *testing.T, text string) *Result {
	t.Helper()
	res, err := Parse(text, DefaultOptions())
	require.NoError(t, err)
	return res
}

func assertPoint(t *testing.T, want, got Point3D) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-6, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-6, "z")
}

func TestParseBasicProgram(t *testing.T) {
	res := mustParse(t, "G21\nG90\nG00 X0 Y0 Z5\nG01 X10 Y0 F600\nM30")

	require.Len(t, res.Segments, 2)

	rapid := res.Segments[0]
	assert.Equal(t, KindRapid, rapid.Kind)
	assert.Equal(t, Point3D{0, 0, 0}, rapid.From)
	assert.Equal(t, Point3D{0, 0, 5}, rapid.To)
	assert.Zero(t, rapid.Feed)

	cut := res.Segments[1]
	assert.Equal(t, KindLinear, cut.Kind)
	assert.Equal(t, Point3D{0, 0, 5}, cut.From)
	assert.Equal(t, Point3D{10, 0, 5}, cut.To)
	assert.Equal(t, 600.0, cut.Feed)
	assert.Zero(t, cut.Spindle)

	assert.Equal(t, BoundingBox{MinX: 0, MaxX: 10, MinY: 0, MaxY: 0, MinZ: 0, MaxZ: 5}, res.BBox)

	assert.InDelta(t, 10, res.Stats.CutDistance, eps)
	assert.InDelta(t, 5, res.Stats.RapidDistance, eps)
	assert.InDelta(t, 15, res.Stats.TotalDistance, eps)
	assert.Equal(t, 5, res.Stats.LineCount)
}

func TestParseFeedAppliesOnSameLine(t *testing.T) {
	res := mustParse(t, "G1 X10 F300\nG1 X20")

	require.Len(t, res.Segments, 2)
	assert.Equal(t, 300.0, res.Segments[0].Feed)
	assert.Equal(t, 300.0, res.Segments[1].Feed)
}

func TestParseDefaultFeed(t *testing.T) {
	res := mustParse(t, "G1 X1")

	require.Len(t, res.Segments, 1)
	assert.Equal(t, DefaultFeedRate, res.Segments[0].Feed)
}

func TestParseSpindle(t *testing.T) {
	res := mustParse(t, strings.Join([]string{
		"G1 X1",
		"M3 S8000",
		"G1 X2",
		"M5",
		"G1 X3",
		"M4",
		"G1 X4",
	}, "\n"))

	require.Len(t, res.Segments, 4)
	assert.Zero(t, res.Segments[0].Spindle)
	assert.Equal(t, 8000.0, res.Segments[1].Spindle)
	assert.Zero(t, res.Segments[2].Spindle)
	assert.Equal(t, 8000.0, res.Segments[3].Spindle)
}

func TestParseSpindleDefaultSpeed(t *testing.T) {
	res := mustParse(t, "M3\nG1 X1")

	require.Len(t, res.Segments, 1)
	assert.Equal(t, DefaultSpindleSpeed, res.Segments[0].Spindle)
}

func TestParseIncrementalKeepsAbsentAxes(t *testing.T) {
	res := mustParse(t, "G0 X1 Y2 Z3\nG91\nG0 X1\nG0 Y-1")

	require.Len(t, res.Segments, 3)
	assert.Equal(t, Point3D{2, 2, 3}, res.Segments[1].To)
	assert.Equal(t, Point3D{2, 1, 3}, res.Segments[2].To)
}

func TestParseAbsoluteIncrementalEquivalence(t *testing.T) {
	abs := mustParse(t, "G90\nG0 X5 Y5 Z2\nG1 X15 Y5\nG1 X15 Y-5 Z-1\nG1 X0 Y0 Z0")
	inc := mustParse(t, "G91\nG0 X5 Y5 Z2\nG1 X10\nG1 Y-10 Z-3\nG1 X-15 Y5 Z1")

	require.Len(t, inc.Segments, len(abs.Segments))
	last := len(abs.Segments) - 1
	assertPoint(t, abs.Segments[last].To, inc.Segments[last].To)
	assert.InDelta(t, abs.BBox.MinX, inc.BBox.MinX, eps)
	assert.InDelta(t, abs.BBox.MaxX, inc.BBox.MaxX, eps)
	assert.InDelta(t, abs.BBox.MinY, inc.BBox.MinY, eps)
	assert.InDelta(t, abs.BBox.MaxY, inc.BBox.MaxY, eps)
	assert.InDelta(t, abs.BBox.MinZ, inc.BBox.MinZ, eps)
	assert.InDelta(t, abs.BBox.MaxZ, inc.BBox.MaxZ, eps)
}

func TestParseUnitConversion(t *testing.T) {
	inch := mustParse(t, "G20\nG0 X1 Y2 Z0.5")
	mm := mustParse(t, "G21\nG0 X25.4 Y50.8 Z12.7")

	require.Len(t, inch.Segments, 1)
	require.Len(t, mm.Segments, 1)
	assertPoint(t, mm.Segments[0].To, inch.Segments[0].To)
}

func TestParseInchConversionAfterIncrementalAddition(t *testing.T) {
	// the resolved point is scaled as a whole, so the carried X is scaled again
	res := mustParse(t, "G20\nG91\nG0 X1\nG0 Y1")

	require.Len(t, res.Segments, 2)
	assertPoint(t, Point3D{25.4, 0, 0}, res.Segments[0].To)
	assertPoint(t, Point3D{(25.4 + 0) * 25.4, 25.4, 0}, res.Segments[1].To)
}

func TestParseInchModeRescalesCarriedAxes(t *testing.T) {
	// a move out of the origin converts cleanly
	inch := mustParse(t, "G20\nG0 X1")
	mm := mustParse(t, "G21\nG0 X25.4")
	assertPoint(t, mm.Segments[0].To, inch.Segments[0].To)

	// axes carried from the previous move are already millimetres and get scaled again
	inch = mustParse(t, "G20\nG0 X1\nG0 Y1")
	mm = mustParse(t, "G21\nG0 X25.4\nG0 Y25.4")

	require.Len(t, inch.Segments, 2)
	require.Len(t, mm.Segments, 2)
	assertPoint(t, Point3D{25.4 * 25.4, 25.4, 0}, inch.Segments[1].To)
	assertPoint(t, Point3D{25.4, 25.4, 0}, mm.Segments[1].To)
}

func TestParseIgnoresUnknownAndMalformed(t *testing.T) {
	res := mustParse(t, strings.Join([]string{
		"%",
		"O1000",
		"N10 G17 G40 G49",
		"G38.2 Z-5",
		"T1 M6",
		"G54",
		"(comment only)",
		"; comment",
		"G1 X(bad)",
		"X10 Y10",
		"G4 P1",
		"M30",
	}, "\n"))

	// only "G1 X(bad)" moves, and it has no axis words
	require.Len(t, res.Segments, 1)
	assert.Equal(t, Point3D{}, res.Segments[0].To)
	assert.Equal(t, 12, res.Stats.LineCount)
}

func TestParseEmptyInput(t *testing.T) {
	res := mustParse(t, "")

	assert.Empty(t, res.Segments)
	assert.False(t, res.BBox.IsFinite())
	assert.Equal(t, 1, res.Stats.LineCount)
	assert.Zero(t, res.Stats.TotalDistance)
}

func TestParseLineCountWithTrailingNewline(t *testing.T) {
	res := mustParse(t, "G0 X1\nG0 X2\n")

	assert.Equal(t, 3, res.Stats.LineCount)
	assert.Len(t, res.Segments, 2)
}

func TestParseInvalidArcSegments(t *testing.T) {
	for _, n := range []int{0, -1, -60} {
		_, err := Parse("G2 X10 I5", Options{ArcSegments: n})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArcSegments))
	}
}

func TestParseIdempotent(t *testing.T) {
	text := "G21\nG0 Z5\nG0 X10 Y0\nM3 S10000\nG1 Z-1 F200\nG2 X20 Y0 I5 J0 F400\nG3 X10 Y0 I-5\nG0 Z5\nM30\n"

	a := mustParse(t, text)
	b := mustParse(t, text)
	assert.Equal(t, a, b)
}

func TestParseReaderMatchesParse(t *testing.T) {
	text := "G0 X1\r\nG1 X2 Y3 F100\r\nG2 X4 Y3 I1\r\n"

	want := mustParse(t, text)
	got, err := ParseReader(strings.NewReader(text), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseHalfCircleCW(t *testing.T) {
	res, err := Parse("G0 X0 Y0\nG2 X20 Y0 I10 J0 F500", Options{ArcSegments: 4})
	require.NoError(t, err)

	arcs := res.Segments[1:]
	require.Len(t, arcs, 4)
	for _, s := range arcs {
		assert.Equal(t, KindArcCW, s.Kind)
		assert.Equal(t, 500.0, s.Feed)
		require.NotNil(t, s.Center)
		assert.Equal(t, Point3D{10, 0, 0}, *s.Center)
		assert.InDelta(t, 10, s.Radius, eps)
	}

	// clockwise from (0,0) around (10,0) goes over the top
	assertPoint(t, Point3D{0, 0, 0}, arcs[0].From)
	assertPoint(t, Point3D{10, 10, 0}, arcs[1].To)
	assertPoint(t, Point3D{20, 0, 0}, arcs[3].To)
	assert.InDelta(t, 10, res.BBox.MaxY, 1e-6)
}

func TestParseHalfCircleCCW(t *testing.T) {
	res, err := Parse("G3 X20 Y0 I10 J0", Options{ArcSegments: 4})
	require.NoError(t, err)

	require.Len(t, res.Segments, 4)
	assert.Equal(t, KindArcCCW, res.Segments[0].Kind)
	assertPoint(t, Point3D{10, -10, 0}, res.Segments[1].To)
	assert.InDelta(t, -10, res.BBox.MinY, 1e-6)
}

func TestParseFullCircle(t *testing.T) {
	res, err := Parse("G2 I10 J0", Options{ArcSegments: 60})
	require.NoError(t, err)

	require.Len(t, res.Segments, 60)
	assertPoint(t, Point3D{}, res.Segments[0].From)
	assertPoint(t, Point3D{}, res.Segments[59].To)
	for i := 1; i < len(res.Segments); i++ {
		assert.Equal(t, res.Segments[i-1].To, res.Segments[i].From)
	}

	assert.InDelta(t, 0, res.BBox.MinX, 1e-6)
	assert.InDelta(t, 20, res.BBox.MaxX, 1e-6)
	assert.InDelta(t, -10, res.BBox.MinY, 1e-6)
	assert.InDelta(t, 10, res.BBox.MaxY, 1e-6)
	assert.InDelta(t, 2*math.Pi*10, res.Stats.CutDistance, 0.1)
}

func TestParseHelix(t *testing.T) {
	res, err := Parse("G0 X10 Y0 Z0\nG3 X10 Y0 Z-4 I-10 J0", Options{ArcSegments: 8})
	require.NoError(t, err)

	arcs := res.Segments[1:]
	require.Len(t, arcs, 8)
	for i, s := range arcs {
		assert.InDelta(t, -0.5*float64(i), s.From.Z, eps)
		assert.InDelta(t, -0.5*float64(i+1), s.To.Z, eps)
	}
	assert.Equal(t, Point3D{10, 0, -4}, lastPoint(t, res))
}

func lastPoint(t *testing.T, res *Result) Point3D {
	t.Helper()
	require.NotEmpty(t, res.Segments)
	end := res.Segments[len(res.Segments)-1].To
	return Point3D{X: math.Round(end.X*1e6) / 1e6, Y: math.Round(end.Y*1e6) / 1e6, Z: end.Z}
}

func TestParseArcDirectionMonotonic(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		clockwise bool
	}{
		{"cw quarter", "G0 X10 Y0\nG2 X0 Y-10 I-10", true},
		{"cw three quarters", "G0 X10 Y0\nG2 X0 Y10 I-10", true},
		{"ccw quarter", "G0 X10 Y0\nG3 X0 Y10 I-10", false},
		{"ccw three quarters", "G0 X10 Y0\nG3 X0 Y-10 I-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustParse(t, tt.text)
			arcs := res.Segments[1:]
			require.Len(t, arcs, DefaultArcSegments)

			// unwrap the angle as we walk and check it only moves one way
			prev := math.Atan2(arcs[0].From.Y, arcs[0].From.X)
			for _, s := range arcs {
				a := math.Atan2(s.To.Y, s.To.X)
				d := math.Remainder(a-prev, 2*math.Pi)
				if tt.clockwise {
					assert.LessOrEqual(t, d, 1e-12)
				} else {
					assert.GreaterOrEqual(t, d, -1e-12)
				}
				prev = a
			}
		})
	}
}

func TestParseArcRadiusForm(t *testing.T) {
	res, err := Parse("G2 X10 Y0 R5", Options{ArcSegments: 2})
	require.NoError(t, err)

	require.Len(t, res.Segments, 2)
	require.NotNil(t, res.Segments[0].Center)
	assertPoint(t, Point3D{5, 0, 0}, *res.Segments[0].Center)
	// clockwise over the top of the circle
	assertPoint(t, Point3D{5, 5, 0}, res.Segments[0].To)
}

func TestParseArcRadiusFormDegenerate(t *testing.T) {
	res := mustParse(t, "G0 X1 Y1\nG2 X1 Y1 Z-1 R5\nG1 X2")

	require.Len(t, res.Segments, 2)
	assert.Equal(t, Point3D{1, 1, -1}, res.Segments[1].From)
}

func TestParseZeroRadiusArc(t *testing.T) {
	res, err := Parse("G2 X0 Y0", Options{ArcSegments: 4})
	require.NoError(t, err)

	require.Len(t, res.Segments, 4)
	for _, s := range res.Segments {
		assert.Zero(t, s.Length())
	}
	assert.Zero(t, res.Stats.TotalDistance)
}

func TestParseBoundingBoxMonotonic(t *testing.T) {
	text := "G0 X5 Y5\nG1 X-3\nG2 X-3 Y5 I4\nG0 Z20\nG1 Y-8 Z-2\nG3 X6 Y-8 I4.5"
	full := mustParse(t, text)

	in, err := NewInterpreter(DefaultOptions())
	require.NoError(t, err)

	prev := EmptyBoundingBox()
	for _, line := range strings.Split(text, "\n") {
		in.Line(line)
		box := in.Result().BBox
		assert.LessOrEqual(t, box.MinX, prev.MinX)
		assert.GreaterOrEqual(t, box.MaxX, prev.MaxX)
		assert.LessOrEqual(t, box.MinY, prev.MinY)
		assert.GreaterOrEqual(t, box.MaxY, prev.MaxY)
		assert.LessOrEqual(t, box.MinZ, prev.MinZ)
		assert.GreaterOrEqual(t, box.MaxZ, prev.MaxZ)
		prev = box
	}
	assert.Equal(t, full.BBox, prev)
}

func TestInterpreterResetClearsState(t *testing.T) {
	in, err := NewInterpreter(DefaultOptions())
	require.NoError(t, err)

	in.Line("G20 G91")
	in.Line("M3 S1000 F50")
	in.Line("G1 X1")
	require.NotEmpty(t, in.Result().Segments)

	in.Reset()
	assert.Equal(t, NewModalState(), in.State())
	assert.Empty(t, in.Result().Segments)
	assert.Zero(t, in.Result().Stats.LineCount)
}
