package gcode

// Positioning is the G90/G91 mode.
type Positioning int

const (
	Absolute Positioning = iota
	Incremental
)

// Units is the G20/G21 mode.
type Units int

const (
	Millimeters Units = iota
	Inches
)

const (
	// DefaultFeedRate is used when no F word has been seen and as the
	// time-estimate fallback for segments without a feed.
	DefaultFeedRate = 600.0
	// DefaultSpindleSpeed is the modal spindle speed before any S word.
	DefaultSpindleSpeed = 12000.0
	// RapidRate is the nominal G0 speed used for time estimates, units/min.
	RapidRate = 6000.0

	mmPerInch = 25.4
)

// ModalState is the interpreter state that persists from line to line.
type ModalState struct {
	Position     Point3D
	FeedRate     float64
	SpindleSpeed float64
	SpindleOn    bool
	Positioning  Positioning
	Units        Units
}

// NewModalState returns the power-on defaults: origin, absolute, millimetres,
// spindle off.
func NewModalState() ModalState {
	return ModalState{
		FeedRate:     DefaultFeedRate,
		SpindleSpeed: DefaultSpindleSpeed,
		Positioning:  Absolute,
		Units:        Millimeters,
	}
}

// Resolve computes the target of a move from the axis words present on the
// line. Absent axes keep the current position. In inch mode the whole
// resolved point is scaled after incremental addition, including axes the
// line did not name.
func (s ModalState) Resolve(w Words) Point3D {
	p := s.Position
	axes := [3]struct {
		letter byte
		dst    *float64
	}{{'X', &p.X}, {'Y', &p.Y}, {'Z', &p.Z}}

	for _, a := range axes {
		v, ok := w.Get(a.letter)
		if !ok {
			continue
		}
		if s.Positioning == Absolute {
			*a.dst = v
		} else {
			*a.dst += v
		}
	}

	if s.Units == Inches {
		p.X *= mmPerInch
		p.Y *= mmPerInch
		p.Z *= mmPerInch
	}
	return p
}
