package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"orgfees/internal/auth"
	"orgfees/internal/log"
	"orgfees/internal/middleware/ratelimit"
	"orgfees/internal/middleware/security"
	"orgfees/internal/middleware/trace"
	"orgfees/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the HTTP surface.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	DefaultPageSize    int
	MaxPageSize        int
	CookieSecure       bool
	Logger             *log.Logger
}

// Dependencies are the services the server exposes.
type Dependencies struct {
	Transactions TransactionService
	Directory    *services.DirectoryService
	Auth         *auth.Service
	Issuer       *auth.Issuer
	Store        Pinger
}

type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, deps Dependencies) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	detector := security.NewDetector()
	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Methods:           []string{http.MethodPost, http.MethodPut, http.MethodDelete},
	})

	mux := http.NewServeMux()
	protect := auth.Middleware(deps.Issuer, writeUnauthorized)
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	tx := NewTransactionHandler(deps.Transactions, opts.DefaultPageSize, opts.MaxPageSize)
	route("GET /transaction", tx.handleList)
	route("POST /transaction", tx.handleCreate)
	route("GET /transaction/{id}", tx.handleGet)
	route("PUT /transaction/{id}", tx.handleUpdate)
	route("PUT /transaction/{id}/amount", tx.handleUpdateAmount)
	route("DELETE /transaction/{id}", tx.handleDelete)

	dir := NewDirectoryHandler(deps.Directory)
	route("GET /organization", dir.handleListOrganizations)
	route("POST /organization", dir.handleCreateOrganization)
	route("GET /organization/{id}", dir.handleGetOrganization)
	route("DELETE /organization/{id}", dir.handleDeleteOrganization)
	route("GET /category", dir.handleListCategories)
	route("POST /category", dir.handleCreateCategory)
	route("GET /category/{id}", dir.handleGetCategory)
	route("PUT /category/{id}", dir.handleUpdateCategory)
	route("DELETE /category/{id}", dir.handleDeleteCategory)
	route("GET /student", dir.handleListStudents)
	route("POST /student", dir.handleCreateStudent)
	route("GET /student/{studentID}", dir.handleGetStudent)
	route("PUT /student/{studentID}", dir.handleUpdateStudent)
	route("DELETE /student/{studentID}", dir.handleDeleteStudent)

	authHandler := NewAuthHandler(deps.Auth, opts.CookieSecure)
	mux.HandleFunc("POST /auth/login", authHandler.handleLogin)
	mux.HandleFunc("POST /auth/logout", authHandler.handleLogout)
	route("GET /auth/me", authHandler.handleMe)
	route("PUT /auth/me", authHandler.handleUpdateMe)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", readinessHandler(deps.Store))

	var handler http.Handler = mux
	handler = limiter.Middleware(detector.ClientIP, writeRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), detector.ClientIP).Middleware(handler)

	return &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		limiter: limiter,
	}
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func readinessHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				log.FromContext(r.Context()).WithComponent(log.ComponentStorage).WarnContext(r.Context(),
					"Readiness check failed", log.FieldError, err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
