package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/server/handler"
	"github.com/alanyoungcy/hedgesim/internal/server/middleware"
	"github.com/alanyoungcy/hedgesim/internal/server/ws"
)

// Paths reachable without credentials.
var publicPaths = []string{"/api/health"}

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication
	// With a non-nil RateLimiter and a positive RateLimit each client is held
	// to RateLimit requests per RateWindow.
	RateLimiter domain.RateLimiter
	RateLimit   int
	RateWindow  time.Duration
}

// Handlers are the endpoint handlers the server routes to.
type Handlers struct {
	Health      *handler.HealthHandler
	Status      *handler.StatusHandler
	Policies    *handler.PolicyHandler
	Simulations *handler.SimulationHandler
	Quote       *handler.QuoteHandler
}

// Server is the HTTP and websocket API in front of the simulator.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

type middlewareFunc = func(http.Handler) http.Handler

// NewServer routes handlers and wsHub (which may be nil) behind the
// middleware chain: CORS, logging, auth, then the optional rate limit.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "http"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/policies", handlers.Policies.List)
	mux.HandleFunc("GET /api/quote", handlers.Quote.GetQuote)
	mux.HandleFunc("POST /api/simulations", handlers.Simulations.Create)
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	chain := []middlewareFunc{
		middleware.CORS(cfg.CORSOrigins),
		middleware.Logging(logger),
		middleware.Auth(cfg.APIKey, publicPaths...),
	}
	if cfg.RateLimiter != nil && cfg.RateLimit > 0 {
		chain = append(chain, middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.RateWindow, logger))
	}
	h := wrap(mux, chain)

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Simulation requests stream up to the record cap before replying.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: h,
		logger:  logger,
	}
}

// wrap applies chain so its first element is the outermost handler.
func wrap(h http.Handler, chain []middlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server: listen: %w", err)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
