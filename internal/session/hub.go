package session

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/cncview/internal/auth"
	"github.com/inamate/cncview/internal/engine"
	"github.com/inamate/cncview/internal/typeid"
)

// Hub tracks live playback sessions so they can be closed on shutdown.
// Sessions share nothing; each owns its engine.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*Session // clientID -> session
	register   chan *Session
	unregister chan *Session
	done       chan struct{}
	stopOnce   sync.Once

	settings       engine.Settings
	tick           time.Duration
	originPatterns []string
}

func NewHub(settings engine.Settings, tick time.Duration, allowedOrigins []string) *Hub {
	return &Hub{
		sessions:       make(map[string]*Session),
		register:       make(chan *Session),
		unregister:     make(chan *Session),
		done:           make(chan struct{}),
		settings:       settings,
		tick:           tick,
		originPatterns: originPatterns(allowedOrigins),
	}
}

// originPatterns turns configured origins into the host patterns the
// websocket handshake matches against.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}

func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s.ClientID] = s
			h.mu.Unlock()
			slog.Info("playback session opened", "session", s.SessionID, "client", s.ClientID)
		case s := <-h.unregister:
			h.mu.Lock()
			delete(h.sessions, s.ClientID)
			h.mu.Unlock()
			slog.Info("playback session closed", "session", s.SessionID, "client", s.ClientID)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stop closes every open session and stops the hub loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		sessions := make([]*Session, 0, len(h.sessions))
		for _, s := range h.sessions {
			sessions = append(sessions, s)
		}
		h.sessions = make(map[string]*Session)
		h.mu.Unlock()

		for _, s := range sessions {
			s.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
	})
}

// ServeWS upgrades the request and runs a playback session until the client
// goes away. Authentication happens in middleware before the upgrade.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID = typeid.NewSessionID()
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := NewSession(conn, engine.NewEngine(h.settings), h.tick, sessionID, uuid.New().String())
	h.Register(s)
	defer h.Unregister(s)

	go s.WritePump(ctx)
	go s.Run(ctx)
	s.ReadPump(ctx)
	conn.Close(websocket.StatusNormalClosure, "")
}
