package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
)

// Options configures a parse.
type Options struct {
	// ArcSegments is the number of chords each G2/G3 arc is split into.
	ArcSegments int
}

// DefaultOptions returns the options used when the caller has no preference.
func DefaultOptions() Options {
	return Options{ArcSegments: DefaultArcSegments}
}

// Validate checks the options for caller mistakes.
func (o Options) Validate() error {
	if o.ArcSegments < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidArcSegments, o.ArcSegments)
	}
	return nil
}

// Interpreter turns G-code lines into motion segments. It owns its modal
// state exclusively; use one interpreter per input.
type Interpreter struct {
	opts     Options
	state    ModalState
	segments []Segment
	bbox     BoundingBox
	lines    int
}

// NewInterpreter creates an interpreter with freshly reset state.
func NewInterpreter(opts Options) (*Interpreter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	in := &Interpreter{opts: opts}
	in.Reset()
	return in, nil
}

// Parse interprets a whole program held in memory.
func Parse(text string, opts Options) (*Result, error) {
	in, err := NewInterpreter(opts)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(text, "\n") {
		in.Line(line)
	}
	return in.Result(), nil
}

// ParseReader interprets a program line by line from r. Line counting matches
// Parse: a trailing newline yields a final empty line.
func ParseReader(r io.Reader, opts Options) (*Result, error) {
	in, err := NewInterpreter(opts)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read gcode: %w", err)
		}
		in.Line(strings.TrimSuffix(line, "\n"))
		if err == io.EOF {
			break
		}
	}
	return in.Result(), nil
}

// Reset restores power-on state and discards emitted segments.
func (in *Interpreter) Reset() {
	in.state = NewModalState()
	in.segments = nil
	in.bbox = EmptyBoundingBox()
	in.lines = 0
}

// State returns a copy of the current modal state.
func (in *Interpreter) State() ModalState {
	return in.state
}

// Line interprets a single line of text. Malformed content is skipped.
func (in *Interpreter) Line(line string) {
	in.lines++

	clean := StripComments(line)
	if clean == "" {
		return
	}
	in.Execute(Tokenize(clean))
}

// Execute applies one line's words: G code, then M code, then F and S.
func (in *Interpreter) Execute(w Words) {
	if g, ok := w.Get('G'); ok {
		in.handleG(g, w)
	}
	if m, ok := w.Get('M'); ok {
		in.handleM(m)
	}
	if f, ok := w.Get('F'); ok {
		in.state.FeedRate = f
	}
	if s, ok := w.Get('S'); ok {
		in.state.SpindleSpeed = s
	}
}

// Result finishes the parse and computes statistics over the emitted segments.
func (in *Interpreter) Result() *Result {
	return &Result{
		Segments: in.segments,
		BBox:     in.bbox,
		Stats:    ComputeStatistics(in.segments, in.lines),
	}
}

// code returns the integral value of a G/M word, or -1 for fractional or
// out-of-range codes such as G38.2.
func code(v float64) int {
	if v != math.Trunc(v) || v < 0 || v > 1000 {
		return -1
	}
	return int(v)
}

func (in *Interpreter) handleG(v float64, w Words) {
	switch code(v) {
	case 0:
		in.rapid(w)
	case 1:
		in.linear(w)
	case 2:
		in.arc(w, true)
	case 3:
		in.arc(w, false)
	case 17, 18, 19:
		// plane selection; motion is modelled in XY only
	case 20:
		in.state.Units = Inches
	case 21:
		in.state.Units = Millimeters
	case 90:
		in.state.Positioning = Absolute
	case 91:
		in.state.Positioning = Incremental
	default:
		// unsupported codes are ignored so other dialects still load
	}
}

func (in *Interpreter) handleM(v float64) {
	switch code(v) {
	case 3, 4:
		in.state.SpindleOn = true
	case 5:
		in.state.SpindleOn = false
	case 2, 30:
		// program end is decided by end of input
	default:
		// unsupported codes are ignored
	}
}

// cutFeed returns the feed for a cutting move. An F word on the same line
// applies to that line's move.
func (in *Interpreter) cutFeed(w Words) float64 {
	return w.GetOr('F', in.state.FeedRate)
}

func (in *Interpreter) cutSpindle(w Words) float64 {
	if !in.state.SpindleOn {
		return 0
	}
	return w.GetOr('S', in.state.SpindleSpeed)
}

func (in *Interpreter) rapid(w Words) {
	to := in.state.Resolve(w)
	in.emit(Segment{
		Kind: KindRapid,
		From: in.state.Position,
		To:   to,
	})
	in.state.Position = to
}

func (in *Interpreter) linear(w Words) {
	to := in.state.Resolve(w)
	in.emit(Segment{
		Kind:    KindLinear,
		From:    in.state.Position,
		To:      to,
		Feed:    in.cutFeed(w),
		Spindle: in.cutSpindle(w),
	})
	in.state.Position = to
}

func (in *Interpreter) arc(w Words, clockwise bool) {
	cur := in.state.Position
	to := in.state.Resolve(w)

	var center Point3D
	var radius float64
	if !w.Has('I') && !w.Has('J') && w.Has('R') {
		c, ok := radiusCenter(cur, to, w.GetOr('R', 0), clockwise)
		if !ok {
			in.state.Position = to
			return
		}
		center = c
		radius = math.Hypot(cur.X-c.X, cur.Y-c.Y)
	} else {
		i, j := w.GetOr('I', 0), w.GetOr('J', 0)
		center = Point3D{X: cur.X + i, Y: cur.Y + j, Z: cur.Z}
		radius = math.Hypot(i, j)
	}

	start := math.Atan2(cur.Y-center.Y, cur.X-center.X)
	end := math.Atan2(to.Y-center.Y, to.X-center.X)

	points, err := TessellateArc(center, radius, start, end, clockwise, in.opts.ArcSegments, to.Z)
	if err != nil {
		// options were validated on construction
		return
	}

	kind := KindArcCCW
	if clockwise {
		kind = KindArcCW
	}
	feed := in.cutFeed(w)
	spindle := in.cutSpindle(w)
	// chords of one arc share the center; segments are never mutated
	c := &center
	for k := 0; k+1 < len(points); k++ {
		in.emit(Segment{
			Kind:    kind,
			From:    points[k],
			To:      points[k+1],
			Feed:    feed,
			Spindle: spindle,
			Center:  c,
			Radius:  radius,
		})
	}
	in.state.Position = to
}

func (in *Interpreter) emit(s Segment) {
	in.segments = append(in.segments, s)
	in.bbox.Extend(s.From)
	in.bbox.Extend(s.To)
}
