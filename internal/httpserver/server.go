package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/config"
	"photoshare/backend/internal/observability"
	authusecase "photoshare/backend/internal/usecase/auth"
	cardusecase "photoshare/backend/internal/usecase/card"
	userusecase "photoshare/backend/internal/usecase/user"
	"photoshare/backend/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Auth      *authusecase.Service
	Users     *userusecase.Service
	Cards     *cardusecase.Service
	Validator *validation.Validator
	Reporter  *apperror.Reporter
	Logger    *slog.Logger
	// Metrics and MetricsHandler are optional.
	Metrics        *observability.Metrics
	MetricsHandler http.Handler
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer   *http.Server
	router       *http.ServeMux
	auth         *authusecase.Service
	users        *userusecase.Service
	cards        *cardusecase.Service
	validator    *validation.Validator
	reporter     *apperror.Reporter
	log          *slog.Logger
	metrics      *observability.Metrics
	metricsH     http.Handler
	tracer       trace.Tracer
	maxBodyBytes int64
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.HTTPConfig, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = apperror.NewReporter(log, nil)
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	mux := http.NewServeMux()
	srv := &Server{
		router:       mux,
		auth:         deps.Auth,
		users:        deps.Users,
		cards:        deps.Cards,
		validator:    deps.Validator,
		reporter:     reporter,
		log:          log,
		metrics:      deps.Metrics,
		metricsH:     deps.MetricsHandler,
		tracer:       tp.Tracer("photoshare/httpserver"),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if srv.maxBodyBytes <= 0 {
		srv.maxBodyBytes = 1 << 20
	}

	handler := srv.withRecover(srv.withLogging(withCORS(mux, cfg.AllowedOrigins)))

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeoutSec) * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}
	srv.registerRoutes()
	return srv
}

// Start serves on the configured address until Shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
