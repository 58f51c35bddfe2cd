package httpapi

import (
	"net/http"
	"time"

	"github.com/LonleySailor/zkpaste/internal/chat"
	"github.com/LonleySailor/zkpaste/internal/config"
	"github.com/LonleySailor/zkpaste/internal/paste"
	"github.com/LonleySailor/zkpaste/internal/pow"
	"github.com/LonleySailor/zkpaste/internal/ratelimit"
	"github.com/LonleySailor/zkpaste/internal/storage"
	"github.com/LonleySailor/zkpaste/pkg/validation"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server holds every dependency a handler needs, passed explicitly
// rather than through package-level globals.
type Server struct {
	Config    *config.Config
	Store     storage.Store
	Pastes    *paste.Service
	Chat      *chat.Service
	Pow       *pow.Service
	Limiter   *ratelimit.Limiter
	Validator *validation.Validator
	Now       func() int64
	StartedAt time.Time
}

// NewServer wires the given dependencies into a Server with a
// real-time clock.
func NewServer(cfg *config.Config, store storage.Store, pastes *paste.Service, chatSvc *chat.Service, powSvc *pow.Service, limiter *ratelimit.Limiter, validator *validation.Validator) *Server {
	return &Server{
		Config:    cfg,
		Store:     store,
		Pastes:    pastes,
		Chat:      chatSvc,
		Pow:       powSvc,
		Limiter:   limiter,
		Validator: validator,
		Now:       func() int64 { return time.Now().Unix() },
		StartedAt: time.Now(),
	}
}

// NewRouter builds the gorilla/mux router with global middleware,
// rate limiting, and every route, wrapped in a CORS handler.
func NewRouter(s *Server) http.Handler {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/health/detailed", s.handleDetailedHealth).Methods(http.MethodGet)

	limited := api.PathPrefix("").Subrouter()
	limited.Use(RateLimitMiddleware(s.Limiter))

	limited.HandleFunc("/pow", s.handlePowIssue).Methods(http.MethodGet)
	limited.HandleFunc("/pastes", s.handleCreatePaste).Methods(http.MethodPost)
	limited.HandleFunc("/pastes/{id}", s.handleGetPaste).Methods(http.MethodGet)
	limited.HandleFunc("/pastes/{id}", s.handleDeleteByToken).Methods(http.MethodDelete)
	limited.HandleFunc("/pastes/{id}/delete", s.handleDeleteByAuth).Methods(http.MethodPost)
	limited.HandleFunc("/pastes/{id}/messages", s.handleAppendChat).Methods(http.MethodPost)
	limited.HandleFunc("/pastes/{id}/messages", s.handleListChat).Methods(http.MethodGet)

	corsOptions := cors.Options{
		AllowedOrigins: s.Config.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.Config.IsDevelopment() {
		corsOptions.AllowedOrigins = append(corsOptions.AllowedOrigins, "http://localhost:*")
		corsOptions.Debug = true
	}

	return cors.New(corsOptions).Handler(router)
}
