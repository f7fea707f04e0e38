package session

import (
	"encoding/json"

	"github.com/inamate/cncview/internal/engine"
	"github.com/inamate/cncview/internal/gcode"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client → server
	TypeLoad   = "load"
	TypePlay   = "play"
	TypePause  = "pause"
	TypeToggle = "toggle"
	TypeReset  = "reset"
	TypeSpeed  = "speed"

	// Server → client
	TypeWelcome = "welcome"
	TypeLoaded  = "loaded"
	TypeEvents  = "events"
	TypeError   = "error"
)

type LoadPayload struct {
	GCode       string `json:"gcode"`
	ArcSegments int    `json:"arcSegments,omitempty"`
}

type SpeedPayload struct {
	Speed float64 `json:"speed"`
}

type WelcomePayload struct {
	SessionID string          `json:"sessionId"`
	ClientID  string          `json:"clientId"`
	State     json.RawMessage `json:"state"`
}

type LoadedPayload struct {
	Summary  engine.Summary    `json:"summary"`
	BBox     gcode.BoundingBox `json:"bbox"`
	Stats    gcode.Statistics  `json:"stats"`
	Segments []gcode.Segment   `json:"segments"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
