package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/inamate/cncview/internal/engine"
	"github.com/inamate/cncview/internal/gcode"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 32 << 20
	sendBuffer = 256
)

// Session is one playback socket. Run owns the engine; ReadPump and
// WritePump only move bytes.
type Session struct {
	conn      *websocket.Conn
	engine    *engine.Engine
	send      chan []byte
	commands  chan *Message
	tick      time.Duration
	now       func() time.Time
	SessionID string
	ClientID  string
}

func NewSession(conn *websocket.Conn, eng *engine.Engine, tick time.Duration, sessionID, clientID string) *Session {
	return &Session{
		conn:      conn,
		engine:    eng,
		send:      make(chan []byte, sendBuffer),
		commands:  make(chan *Message, 16),
		tick:      tick,
		now:       time.Now,
		SessionID: sessionID,
		ClientID:  clientID,
	}
}

func (s *Session) ReadPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "client", s.ClientID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", s.ClientID)
			s.sendError("invalid message")
			continue
		}

		select {
		case s.commands <- &msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "client", s.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Run applies client commands and advances playback by the wall-clock time
// between ticks.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.Send(TypeWelcome, WelcomePayload{
		SessionID: s.SessionID,
		ClientID:  s.ClientID,
		State:     json.RawMessage(s.engine.GetPlaybackState()),
	})

	last := s.now()
	for {
		select {
		case msg := <-s.commands:
			s.handleMessage(msg)
			s.flushEvents()
			last = s.now()

		case <-ticker.C:
			now := s.now()
			events := s.engine.Tick(now.Sub(last))
			last = now
			if events != "[]" {
				s.sendRaw(TypeEvents, json.RawMessage(events))
			}

		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleMessage(msg *Message) {
	switch msg.Type {
	case TypeLoad:
		s.handleLoad(msg)
	case TypePlay:
		s.engine.Play()
	case TypePause:
		s.engine.Pause()
	case TypeToggle:
		s.engine.TogglePlay()
	case TypeReset:
		s.engine.Reset()
	case TypeSpeed:
		var p SpeedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			slog.Warn("invalid speed payload", "error", err, "client", s.ClientID)
			s.sendError("invalid speed payload")
			return
		}
		s.engine.SetSpeed(p.Speed)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", s.ClientID)
		s.sendError("unknown message type: " + msg.Type)
	}
}

func (s *Session) handleLoad(msg *Message) {
	var p LoadPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		slog.Warn("invalid load payload", "error", err, "client", s.ClientID)
		s.sendError("invalid load payload")
		return
	}

	if p.ArcSegments != 0 {
		if err := s.engine.SetArcSegments(p.ArcSegments); err != nil {
			s.sendError(err.Error())
			return
		}
	}

	summary, err := s.engine.LoadProgram(p.GCode)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	res := s.engine.Result()
	segments := res.Segments
	if segments == nil {
		segments = []gcode.Segment{}
	}
	s.Send(TypeLoaded, LoadedPayload{
		Summary:  summary,
		BBox:     res.BBox,
		Stats:    res.Stats,
		Segments: segments,
	})
	slog.Info("program loaded", "client", s.ClientID, "segments", summary.Segments)
}

func (s *Session) flushEvents() {
	if events := s.engine.DrainEvents(); events != "[]" {
		s.sendRaw(TypeEvents, json.RawMessage(events))
	}
}

func (s *Session) sendError(message string) {
	s.Send(TypeError, ErrorPayload{Message: message})
}

// Send queues a message for the client, dropping it if the client is too
// far behind.
func (s *Session) Send(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "error", err)
		return
	}
	s.sendRaw(msgType, data)
}

func (s *Session) sendRaw(msgType string, payload json.RawMessage) {
	data, err := json.Marshal(&Message{Type: msgType, Payload: payload})
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	select {
	case s.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "client", s.ClientID, "type", msgType)
	}
}
