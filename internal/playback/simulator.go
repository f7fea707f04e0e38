// Package playback animates a virtual tool along a parsed toolpath.
package playback

import (
	"time"

	"github.com/inamate/cncview/internal/gcode"
)

// Status is the simulator's lifecycle state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

const (
	// MaxSegmentsPerUpdate bounds how many segments one Update may finish,
	// so a long tick over thousands of tiny chords stays cheap.
	MaxSegmentsPerUpdate = 512

	// minSegmentLength stands in for the length of zero-length segments.
	minSegmentLength = 1e-6
)

// Simulator moves a tool along segments at each segment's feed rate scaled
// by a speed multiplier. It is not safe for concurrent use; one goroutine
// (the render loop or a session) drives it.
type Simulator struct {
	segments []gcode.Segment
	index    int
	progress float64 // fraction of segments[index] traversed
	playing  bool
	speed    float64
	tool     ToolPosition

	events *eventRing
}

// New creates a simulator whose event buffer holds bufferSize events.
// A non-positive size selects DefaultEventBuffer.
func New(bufferSize int) *Simulator {
	s := &Simulator{
		speed:  1,
		events: newEventRing(bufferSize),
	}
	s.Reset()
	return s
}

// SetSegments replaces the toolpath and resets playback. The slice is
// shared with the caller and never modified.
func (s *Simulator) SetSegments(segments []gcode.Segment) {
	s.segments = segments
	s.Reset()
}

// Segments returns the current toolpath.
func (s *Simulator) Segments() []gcode.Segment {
	return s.segments
}

// Reset rewinds to the start of the first segment, or the origin, and stops.
func (s *Simulator) Reset() {
	s.index = 0
	s.progress = 0
	s.playing = false

	if len(s.segments) > 0 {
		s.tool = toolAt(s.segments[0], s.segments[0].From)
	} else {
		s.tool = ToolPosition{}
	}

	s.emitPosition()
	s.events.push(Event{Kind: EventReset})
	s.emitState()
}

// Play starts or resumes playback. It does nothing without segments.
func (s *Simulator) Play() {
	if len(s.segments) == 0 {
		return
	}
	s.playing = true
	s.emitState()
}

// Pause stops playback and keeps the current position.
func (s *Simulator) Pause() {
	s.playing = false
	s.emitState()
}

// Toggle switches between Play and Pause.
func (s *Simulator) Toggle() {
	if s.playing {
		s.Pause()
	} else {
		s.Play()
	}
}

// SetSpeed sets the feed multiplier used from the next Update on.
func (s *Simulator) SetSpeed(multiplier float64) {
	s.speed = multiplier
	s.emitState()
}

// Speed returns the feed multiplier.
func (s *Simulator) Speed() float64 {
	return s.speed
}

// Update advances the tool by dt of simulated machine time. Time left over
// after finishing a segment carries into the next one.
func (s *Simulator) Update(dt time.Duration) {
	if !s.playing || len(s.segments) == 0 {
		return
	}
	if s.index >= len(s.segments) {
		s.finish()
		return
	}
	if dt <= 0 || !(s.speed > 0) {
		return
	}

	remaining := dt.Seconds()
	for steps := 0; remaining > 0 && s.index < len(s.segments) && steps < MaxSegmentsPerUpdate; steps++ {
		seg := s.segments[s.index]
		dist := max(seg.Length(), minSegmentLength)
		rate := feedOf(seg) / 60 * s.speed // mm/s

		need := (1 - s.progress) * dist / rate
		if remaining >= need {
			remaining -= need
			s.tool = toolAt(seg, seg.To)
			s.events.push(Event{Kind: EventSegmentComplete, Segment: s.index})
			s.index++
			s.progress = 0
			continue
		}

		s.progress = min(s.progress+remaining*rate/dist, 1)
		s.tool = toolAt(seg, seg.From.Lerp(seg.To, s.progress))
		remaining = 0
	}

	s.emitPosition()
	s.emitState()

	if s.index >= len(s.segments) {
		s.finish()
	}
}

// Position returns the current tool position.
func (s *Simulator) Position() ToolPosition {
	return s.tool
}

// Index returns the index of the segment being traversed. It equals the
// number of segments once playback is complete.
func (s *Simulator) Index() int {
	return s.index
}

// SegmentProgress returns the fraction of the current segment traversed.
func (s *Simulator) SegmentProgress() float64 {
	return s.progress
}

// Status reports the lifecycle state.
func (s *Simulator) Status() Status {
	switch {
	case s.playing:
		return StatusPlaying
	case len(s.segments) > 0 && s.index >= len(s.segments):
		return StatusComplete
	case s.index > 0 || s.progress > 0:
		return StatusPaused
	default:
		return StatusIdle
	}
}

// State returns a snapshot of the aggregate playback state.
func (s *Simulator) State() State {
	var progress float64
	if n := len(s.segments); n > 0 {
		progress = float64(s.index) / float64(n)
	}
	return State{
		Status:              s.Status(),
		IsPlaying:           s.playing,
		IsPaused:            s.Status() == StatusPaused,
		CurrentSegmentIndex: s.index,
		TotalSegments:       len(s.segments),
		Progress:            progress,
		Speed:               s.speed,
	}
}

// DrainEvents returns and clears the buffered events, oldest first.
func (s *Simulator) DrainEvents() []Event {
	return s.events.drain()
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Simulator) Dropped() uint64 {
	return s.events.dropped
}

func (s *Simulator) finish() {
	s.playing = false
	s.events.push(Event{Kind: EventComplete})
	s.emitState()
}

func (s *Simulator) emitPosition() {
	p := s.tool
	s.events.push(Event{Kind: EventPosition, Position: &p})
}

func (s *Simulator) emitState() {
	st := s.State()
	s.events.push(Event{Kind: EventState, State: &st})
}

func feedOf(seg gcode.Segment) float64 {
	if seg.Feed > 0 {
		return seg.Feed
	}
	return gcode.DefaultFeedRate
}

func toolAt(seg gcode.Segment, p gcode.Point3D) ToolPosition {
	return ToolPosition{
		X:         p.X,
		Y:         p.Y,
		Z:         p.Z,
		Feed:      feedOf(seg),
		SpindleOn: seg.Spindle != 0,
	}
}
