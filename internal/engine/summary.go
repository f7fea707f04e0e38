package engine

import (
	"fmt"

	"github.com/inamate/cncview/internal/gcode"
	"github.com/inamate/cncview/internal/playback"
)

// Settings tune parsing, playback and load warnings.
type Settings struct {
	ArcSegments          int
	EventBuffer          int
	LargeFileWarning     int
	VeryLargeFileWarning int
	ToolheadAutoHideSize float64 // mm
}

// DefaultSettings returns the viewer defaults.
func DefaultSettings() Settings {
	return Settings{
		ArcSegments:          gcode.DefaultArcSegments,
		EventBuffer:          playback.DefaultEventBuffer,
		LargeFileWarning:     50000,
		VeryLargeFileWarning: 100000,
		ToolheadAutoHideSize: 500,
	}
}

// WarningLevel grades a loaded program for the status line.
type WarningLevel string

const (
	WarningNone      WarningLevel = "ok"
	WarningLarge     WarningLevel = "large"
	WarningVeryLarge WarningLevel = "very_large"
	WarningOversized WarningLevel = "oversized"
)

// Summary describes a parse result in terms the UI can act on without
// walking the segment list.
type Summary struct {
	Segments      int          `json:"segments"`
	Lines         int          `json:"lines"`
	HasBounds     bool         `json:"hasBounds"`
	MaxDimension  float64      `json:"maxDimension"`
	EstimatedTime float64      `json:"estimatedTime"`
	HideToolhead  bool         `json:"hideToolhead"`
	Warning       WarningLevel `json:"warning"`
	Message       string       `json:"message"`
}

// Summarize grades res. An oversized part outranks a large segment count.
func (s Settings) Summarize(res *gcode.Result) Summary {
	sum := Summary{
		Segments:      len(res.Segments),
		Lines:         res.Stats.LineCount,
		HasBounds:     res.BBox.IsFinite(),
		MaxDimension:  res.BBox.MaxDimension(),
		EstimatedTime: res.Stats.EstimatedTimeSeconds,
	}
	sum.HideToolhead = sum.HasBounds && sum.MaxDimension > s.ToolheadAutoHideSize

	switch {
	case sum.HideToolhead:
		sum.Warning = WarningOversized
		sum.Message = fmt.Sprintf("Object is very large (%.1fm), check the drawing scale", sum.MaxDimension/1000)
	case sum.Segments > s.VeryLargeFileWarning:
		sum.Warning = WarningVeryLarge
		sum.Message = fmt.Sprintf("Very large file: %d segments, reduce arc segments", sum.Segments)
	case sum.Segments > s.LargeFileWarning:
		sum.Warning = WarningLarge
		sum.Message = fmt.Sprintf("Large file: %d segments, rendering may be slow", sum.Segments)
	default:
		sum.Warning = WarningNone
		sum.Message = fmt.Sprintf("G-code parsed: %d segments", sum.Segments)
	}
	return sum
}
