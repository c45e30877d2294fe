// ABOUTME: HTTP JSON API for the CRM dashboard
// ABOUTME: chi router with CORS, JWT auth, and role-gated admin routes

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zapdesk/zapdesk/internal/auth"
	"github.com/zapdesk/zapdesk/internal/conversation"
	"github.com/zapdesk/zapdesk/internal/directory"
	"github.com/zapdesk/zapdesk/internal/instance"
	"github.com/zapdesk/zapdesk/internal/metrics"
	"github.com/zapdesk/zapdesk/internal/session"
	"github.com/zapdesk/zapdesk/internal/store"
)

// Server wires the service layer into HTTP handlers
type Server struct {
	sessions      *session.Manager
	conversations *conversation.Service
	team          *directory.Service
	instances     *instance.Manager
	stats         *metrics.Service
	users         auth.UserStore
	verifier      *auth.JWTVerifier
	tokenTTL      time.Duration
	corsOrigins   []string
	logger        *slog.Logger
}

// Options bundles the server's collaborators
type Options struct {
	Sessions      *session.Manager
	Conversations *conversation.Service
	Team          *directory.Service
	Instances     *instance.Manager
	Stats         *metrics.Service
	Users         auth.UserStore
	Verifier      *auth.JWTVerifier
	TokenTTL      time.Duration
	CORSOrigins   []string
	Logger        *slog.Logger
}

// New creates an API server. Pass a nil logger for the default.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Server{
		sessions:      opts.Sessions,
		conversations: opts.Conversations,
		team:          opts.Team,
		instances:     opts.Instances,
		stats:         opts.Stats,
		users:         opts.Users,
		verifier:      opts.Verifier,
		tokenTTL:      ttl,
		corsOrigins:   opts.CORSOrigins,
		logger:        logger.With("component", "api"),
	}
}

// Router builds the full route table
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Instance-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Public routes
	r.Post("/api/login", s.handleLogin)
	r.Get("/api/health", s.handleHealth)

	// Channel ingest authenticates by instance token, not operator JWT
	r.Post("/api/ingest", s.handleIngest)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.users, s.verifier))

		r.Post("/api/logout", s.handleLogout)
		r.Get("/api/me", s.handleMe)
		r.Put("/api/me", s.handleMeUpdate)

		r.Get("/api/chats", s.handleChatsList)
		r.Get("/api/chats/{id}", s.handleChatOpen)
		r.Put("/api/chats/{id}/status", s.handleChatStatus)
		r.Put("/api/chats/{id}/assignee", s.handleChatAssignee)
		r.Post("/api/chats/{id}/messages", s.handleChatSend)
		r.Get("/api/chats/{id}/events", s.handleChatEvents)

		r.Get("/api/dashboard", s.handleDashboard)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(store.RoleAdmin))

			r.Get("/api/users", s.handleUsersList)
			r.Post("/api/users", s.handleUserCreate)
			r.Put("/api/users/{id}", s.handleUserUpdate)
			r.Delete("/api/users/{id}", s.handleUserDelete)

			r.Get("/api/instances", s.handleInstancesList)
			r.Post("/api/instances", s.handleInstanceCreate)
			r.Post("/api/instances/{id}/connect", s.handleInstanceConnect)
			r.Post("/api/instances/{id}/disconnect", s.handleInstanceDisconnect)
			r.Get("/api/instances/{id}/qr", s.handleInstanceQR)
			r.Delete("/api/instances/{id}", s.handleInstanceDelete)

			r.Get("/api/dashboard/export", s.handleDashboardExport)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// writeError maps a service error onto an HTTP status and JSON body
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateUser),
		errors.Is(err, store.ErrDuplicateChat),
		errors.Is(err, store.ErrDuplicateInstance),
		errors.Is(err, store.ErrUserAssigned):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeBadRequest reports a malformed or invalid request body
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// decodeBody parses a JSON request body into v
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
