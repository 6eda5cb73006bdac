// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/undercover/internal/auth"
	"github.com/jason-s-yu/undercover/internal/game"
	"github.com/jason-s-yu/undercover/internal/middleware"
	"github.com/jason-s-yu/undercover/internal/models"
	"github.com/sirupsen/logrus"
)

// HistoryLister serves finished games; *database.HistoryStore satisfies it.
type HistoryLister interface {
	RecentGames(ctx context.Context, limit int) ([]models.GameSummary, error)
}

// Server exposes a session directory over REST and WebSocket.
type Server struct {
	Directory *game.Directory
	Issuer    *auth.Issuer
	Logger    logrus.FieldLogger

	// History is optional; without it GET /history is not routed.
	History HistoryLister
	// AllowedOrigins restricts CORS. Empty allows any http(s) origin.
	AllowedOrigins []string
	// PublicURL is the client base URL encoded in join QR codes. Empty
	// derives it from the request.
	PublicURL string
}

// NewServer wires a server around dir.
func NewServer(dir *game.Directory, issuer *auth.Issuer, logger logrus.FieldLogger) *Server {
	return &Server{Directory: dir, Issuer: issuer, Logger: logger}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))

	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.PlayerToken(s.Issuer))

	r.Post("/sessions", s.createSession)
	r.Route("/sessions/{code}", func(r chi.Router) {
		r.Get("/", s.getView)
		r.Get("/ws", s.subscribe)
		r.Get("/qr.png", s.qrCode)
		r.Post("/players", s.join)
		r.Delete("/players/me", s.command(cmdLeave))
		r.Delete("/players/{playerId}", s.command(cmdKick))
		r.Put("/config", s.command(cmdConfigure))
		r.Post("/start", s.command(cmdStart))
		r.Post("/begin", s.command(cmdBegin))
		r.Post("/acknowledge", s.command(cmdAcknowledge))
		r.Post("/eliminate", s.command(cmdEliminate))
		r.Post("/votes", s.command(cmdVote))
		r.Post("/restart", s.command(cmdRestart))
		r.Post("/lobby", s.command(cmdLobby))
	})
	r.Get("/words/themes", s.listThemes)
	r.Get("/words/pair", s.randomPair)
	if s.History != nil {
		r.Get("/history", s.listHistory)
	}
	return r
}
