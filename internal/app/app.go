// Package app assembles and runs a greeter page server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Aidin1998/greeter/internal/cache"
	"github.com/Aidin1998/greeter/internal/config"
	"github.com/Aidin1998/greeter/internal/database"
	"github.com/Aidin1998/greeter/internal/server"
	"github.com/Aidin1998/greeter/internal/telemetry"
	"github.com/Aidin1998/greeter/pkg/logger"
)

// Options selects which page is served
type Options struct {
	Name string
	// WithVisits adds the database round-trip to the page
	WithVisits bool
}

// Main parses flags, runs the server until SIGINT or SIGTERM and exits
// the process with a non-zero status on failure.
func Main(opts Options) {
	flags := pflag.NewFlagSet(opts.Name, pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to a YAML config file")
	envFile := flags.String("env-file", ".env", "dotenv file loaded before reading configuration")
	_ = flags.Parse(os.Args[1:])

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", opts.Name, err)
		os.Exit(1)
	}
}

// Run serves the page described by opts until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.Named(opts.Name)

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			zapLogger.Error("Failed to shut down tracing", zap.Error(err))
		}
	}()

	gin.SetMode(cfg.Server.Mode)

	greeter := cache.NewGreeter(cfg.Redis, zapLogger.Named("cache"))

	// a nil *database.Visits must not reach the server as a non-nil interface
	var visits server.VisitRecorder
	if opts.WithVisits {
		visits = database.NewVisits(cfg.Database, zapLogger.Named("database"))
	}

	apiServer := server.NewServer(zapLogger, greeter, visits, cfg.Tracing.ServiceName)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	fields := []zap.Field{
		zap.String("addr", httpServer.Addr),
		zap.String("redis", cfg.Redis.Addr()),
		zap.Bool("with_visits", opts.WithVisits),
	}
	if opts.WithVisits {
		fields = append(fields, zap.String("database_driver", cfg.Database.Driver))
	}
	zapLogger.Info("Starting server", fields...)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	zapLogger.Info("Server exited properly")
	return nil
}
