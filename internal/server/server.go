package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/fintrack-be/internal/auth"
	"github.com/hongminglow/fintrack-be/internal/config"
	"github.com/hongminglow/fintrack-be/internal/http/handlers"
	"github.com/hongminglow/fintrack-be/internal/middleware"
	"github.com/hongminglow/fintrack-be/internal/onboarding"
	"github.com/hongminglow/fintrack-be/internal/reconcile"
	"github.com/hongminglow/fintrack-be/internal/storage"
	"github.com/hongminglow/fintrack-be/internal/users"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, relay handlers.Replier) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(Routes(store, tokens, relay, time.Now)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.InferenceTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Routes builds the API mux over store. now drives dashboard projections.
func Routes(store storage.Store, tokens *auth.TokenManager, relay handlers.Replier, now func() time.Time) *http.ServeMux {
	protect := func(next http.Handler) http.Handler {
		return middleware.Authenticate(tokens, next)
	}

	resolver := users.NewResolver(store)
	rec := reconcile.New(store)
	markers := onboarding.NewStoreMarkers(store)
	wizards := onboarding.NewService(markers, resolver, rec)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(now(), store).Register(mux)
	handlers.NewAuthHandler(store, tokens, markers).Register(mux, protect)
	handlers.NewSetupHandler(wizards).Register(mux, protect)
	handlers.NewFinanceHandler(resolver, rec).Register(mux, protect)
	handlers.NewDashboardHandler(resolver, rec, now).Register(mux, protect)
	handlers.NewChatHandler(relay).Register(mux, protect)
	return mux
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
