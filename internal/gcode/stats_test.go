package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatistics(t *testing.T) {
	segments := []Segment{
		{Kind: KindRapid, From: Point3D{}, To: Point3D{Z: 60}},
		{Kind: KindLinear, From: Point3D{Z: 60}, To: Point3D{X: 30, Z: 60}, Feed: 300},
		{Kind: KindArcCW, From: Point3D{X: 30, Z: 60}, To: Point3D{X: 30, Y: 40, Z: 60}, Feed: 400},
	}

	st := ComputeStatistics(segments, 7)

	assert.InDelta(t, 60, st.RapidDistance, eps)
	assert.InDelta(t, 70, st.CutDistance, eps)
	assert.InDelta(t, 130, st.TotalDistance, eps)
	// 60/6000 + 30/300 + 40/400 minutes
	assert.InDelta(t, (0.01+0.1+0.1)*60, st.EstimatedTimeSeconds, eps)
	assert.Equal(t, 7, st.LineCount)
}

func TestComputeStatisticsFallbackFeed(t *testing.T) {
	st := ComputeStatistics([]Segment{
		{Kind: KindLinear, To: Point3D{X: 600}},
	}, 1)

	assert.InDelta(t, 60, st.EstimatedTimeSeconds, eps)
}

func TestComputeStatisticsZeroLength(t *testing.T) {
	st := ComputeStatistics([]Segment{
		{Kind: KindRapid},
		{Kind: KindLinear, Feed: 100},
	}, 2)

	assert.Zero(t, st.TotalDistance)
	assert.Zero(t, st.EstimatedTimeSeconds)
}

func TestComputeStatisticsTotalIsSum(t *testing.T) {
	res := mustParse(t, "G0 X5 Y5\nG1 X10 F100\nG2 X20 I5\nG0 Z3\nG3 X10 I-5 F50")

	assert.InDelta(t, res.Stats.RapidDistance+res.Stats.CutDistance, res.Stats.TotalDistance, eps)
	assert.Greater(t, res.Stats.EstimatedTimeSeconds, 0.0)
}
