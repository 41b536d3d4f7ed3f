package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/config"
	"photoshare/backend/internal/httpserver"
	"photoshare/backend/internal/infrastructure/password"
	"photoshare/backend/internal/infrastructure/token"
	"photoshare/backend/internal/logging"
	"photoshare/backend/internal/observability"
	authusecase "photoshare/backend/internal/usecase/auth"
	cardusecase "photoshare/backend/internal/usecase/card"
	userusecase "photoshare/backend/internal/usecase/user"
	"photoshare/backend/internal/validation"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Configuration is read from defaults, the optional
config file, the environment and finally the flags below.`,
		RunE: runServe,
	}

	flags := cmd.Flags()
	flags.String("port", "", "HTTP listen port")
	flags.String("database-driver", "", "storage driver: postgres or sqlite")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.Bool("auto-migrate", true, "apply pending PostgreSQL migrations on start")
	flags.String("redis-url", "", "Redis URL for the card feed cache")
	flags.String("log-format", "", "log format: json or text")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("trace-exporter", "", "request span exporter: none, stdout or otlp")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configOptions(cmd))
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	log := logging.Setup("photoshare", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.NewTracerProvider(ctx, "photoshare", version, cfg.Tracing.Exporter, cmd.OutOrStdout())
	if err != nil {
		return oops.Code("TRACING_SETUP_FAILED").Wrap(err)
	}
	otel.SetTracerProvider(tp)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Warn("flushing spans failed", "error", err)
		}
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := observability.NewRegistry()
	metrics := observability.NewMetrics(registry)
	reporter := apperror.NewReporter(log, metrics, st.reclassify)

	validator, err := validation.New()
	if err != nil {
		return oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}

	cardOpts := []cardusecase.Option{cardusecase.WithLogger(log)}
	if st.cache != nil {
		cardOpts = append(cardOpts, cardusecase.WithCache(st.cache))
	}

	server := httpserver.NewServer(cfg.HTTP, httpserver.Deps{
		Auth:           authusecase.NewService(st.users, token.NewJWTManager(cfg.JWTSecret), password.NewBcryptHasher(cfg.BcryptCost)),
		Users:          userusecase.NewService(st.users),
		Cards:          cardusecase.NewService(st.cards, cardOpts...),
		Validator:      validator,
		Reporter:       reporter,
		Logger:         log,
		Metrics:        metrics,
		MetricsHandler: observability.Handler(registry),
		TracerProvider: tp,
	})

	listener, err := net.Listen("tcp", server.Addr())
	if err != nil {
		return oops.Code("LISTEN_FAILED").With("addr", server.Addr()).Wrap(err)
	}
	log.Info("HTTP server listening", "addr", listener.Addr().String(), "driver", cfg.Database.Driver)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.Code("SERVER_FAILED").Wrap(err)
	}
	log.Info("server stopped")
	return nil
}
