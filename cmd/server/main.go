package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/cncview/internal/api"
	"github.com/inamate/cncview/internal/auth"
	"github.com/inamate/cncview/internal/config"
	mw "github.com/inamate/cncview/internal/middleware"
	"github.com/inamate/cncview/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.AccessKeyHash, cfg.TokenTTL)
	authHandler := auth.NewHandler(authService)
	if !authService.Enabled() {
		slog.Warn("ACCESS_KEY_HASH is empty, authentication is disabled")
	}

	settings := cfg.EngineSettings()
	apiHandler := api.NewHandler(settings, cfg.MaxUploadBytes)

	hub := session.NewHub(settings, cfg.TickInterval(), cfg.Origins())
	go hub.Run()

	r := newRouter(cfg, authService, authHandler, apiHandler, hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Close playback sockets first; Shutdown does not wait for hijacked connections
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "arcSegments", settings.ArcSegments, "tickRate", cfg.PlaybackTickRate)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config, authService *auth.Service, authHandler *auth.Handler, apiHandler *api.Handler, hub *session.Hub) *mux.Router {
	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Public routes
	r.HandleFunc("/health", apiHandler.Health).Methods("GET")
	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	// Protected API routes
	a := r.PathPrefix("/api").Subrouter()
	a.Use(authService.AuthMiddleware)

	a.HandleFunc("/parse", apiHandler.Parse).Methods("POST", "OPTIONS")
	a.HandleFunc("/upload", apiHandler.Upload).Methods("POST", "OPTIONS")
	a.HandleFunc("/convert/svg", apiHandler.ConvertSVG).Methods("POST", "OPTIONS")
	a.HandleFunc("/export", apiHandler.Export).Methods("POST", "OPTIONS")

	// WebSocket endpoint, token in the query string
	r.Handle("/ws/playback", authService.AuthMiddleware(http.HandlerFunc(hub.ServeWS)))

	return r
}
