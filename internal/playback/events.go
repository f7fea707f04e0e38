package playback

// EventKind identifies what a playback Event reports.
type EventKind string

const (
	EventPosition        EventKind = "position"
	EventState           EventKind = "state"
	EventSegmentComplete EventKind = "segment_complete"
	EventComplete        EventKind = "complete"
	EventReset           EventKind = "reset"
)

// DefaultEventBuffer is the event capacity used when none is given.
const DefaultEventBuffer = 256

// ToolPosition is where the virtual tool is and what it is doing.
type ToolPosition struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Feed      float64 `json:"feedRate"`
	SpindleOn bool    `json:"spindleOn"`
}

// State is the aggregate playback state reported to the host.
type State struct {
	Status              Status  `json:"status"`
	IsPlaying           bool    `json:"isPlaying"`
	IsPaused            bool    `json:"isPaused"`
	CurrentSegmentIndex int     `json:"currentSegmentIndex"`
	TotalSegments       int     `json:"totalSegments"`
	Progress            float64 `json:"progress"`
	Speed               float64 `json:"speed"`
}

// Event is one notification from the simulator. Position is set for
// EventPosition, State for EventState, and Segment holds the index of the
// segment just finished for EventSegmentComplete.
type Event struct {
	Kind     EventKind     `json:"kind"`
	Position *ToolPosition `json:"position,omitempty"`
	State    *State        `json:"state,omitempty"`
	Segment  int           `json:"segment"`
}

// eventRing is a fixed-capacity FIFO. Pushing into a full ring overwrites
// the oldest event.
type eventRing struct {
	buf     []Event
	head    int
	n       int
	dropped uint64
}

func newEventRing(capacity int) *eventRing {
	if capacity <= 0 {
		capacity = DefaultEventBuffer
	}
	return &eventRing{buf: make([]Event, capacity)}
}

func (r *eventRing) push(e Event) {
	if r.n == len(r.buf) {
		r.buf[r.head] = e
		r.head = (r.head + 1) % len(r.buf)
		r.dropped++
		return
	}
	r.buf[(r.head+r.n)%len(r.buf)] = e
	r.n++
}

func (r *eventRing) drain() []Event {
	if r.n == 0 {
		return nil
	}
	out := make([]Event, r.n)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
		r.buf[(r.head+i)%len(r.buf)] = Event{}
	}
	r.head, r.n = 0, 0
	return out
}
