package gcode

import (
	"strconv"
	"strings"
)

// Export writes segments back out as absolute millimetre G-code. Rapids become
// G00, everything else G01 with its feed. Arc chords are written as lines.
// The output has no trailing newline.
func Export(segments []Segment) string {
	var b strings.Builder
	b.WriteString("G21 ; Units in mm\n")
	b.WriteString("G90 ; Absolute positioning\n")
	b.WriteString("\n")

	for _, s := range segments {
		if s.Kind == KindRapid {
			b.WriteString("G00")
			writeAxes(&b, s.To)
		} else {
			feed := s.Feed
			if feed <= 0 {
				feed = DefaultFeedRate
			}
			b.WriteString("G01")
			writeAxes(&b, s.To)
			b.WriteString(" F")
			b.WriteString(strconv.FormatFloat(feed, 'f', -1, 64))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString("M30 ; End program")
	return b.String()
}

func writeAxes(b *strings.Builder, p Point3D) {
	b.WriteString(" X")
	b.WriteString(strconv.FormatFloat(p.X, 'f', 3, 64))
	b.WriteString(" Y")
	b.WriteString(strconv.FormatFloat(p.Y, 'f', 3, 64))
	b.WriteString(" Z")
	b.WriteString(strconv.FormatFloat(p.Z, 'f', 3, 64))
}
