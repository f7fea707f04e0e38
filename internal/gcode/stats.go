package gcode

// ComputeStatistics derives distances and an estimated run time from a full
// segment list. Rapids are timed at RapidRate; other segments at their feed,
// or DefaultFeedRate when they carry none.
func ComputeStatistics(segments []Segment, lineCount int) Statistics {
	var rapid, cut, minutes float64

	for _, s := range segments {
		d := s.Length()
		if s.Kind == KindRapid {
			rapid += d
			minutes += d / RapidRate
			continue
		}
		cut += d
		feed := s.Feed
		if feed <= 0 {
			feed = DefaultFeedRate
		}
		minutes += d / feed
	}

	return Statistics{
		TotalDistance:        rapid + cut,
		RapidDistance:        rapid,
		CutDistance:          cut,
		EstimatedTimeSeconds: minutes * 60,
		LineCount:            lineCount,
	}
}
