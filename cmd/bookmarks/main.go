package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bookmarks/internal/api"
	"bookmarks/internal/catalog"
	"bookmarks/internal/config"
	"bookmarks/internal/logger"
	"bookmarks/internal/models"
	"bookmarks/internal/observability"
	"bookmarks/internal/ratelimit"
	"bookmarks/internal/storage"
	"bookmarks/internal/version"
)

const shutdownTimeout = 30 * time.Second

var (
	configFile         = flag.String("config", "", "Path to configuration file")
	writeExampleConfig = flag.String("write-example-config", "", "Write an example configuration file to this path and exit")
	showVersion        = flag.Bool("version", false, "Print build information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetInfo().String())
		return
	}

	if *writeExampleConfig != "" {
		if err := config.SaveExample(*writeExampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Example configuration written to %s\n", *writeExampleConfig)
		return
	}

	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Initialize structured logging
	ver := version.GetInfo()
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		return fmt.Errorf("initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	instrument := cfg.Metrics.Enabled || cfg.Observability.Tracing.Enabled

	// Initialize storage
	store, err := initializeStorage(cfg, instrument)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	// Initialize the sliding-window limiter
	limiter, windows, err := initializeLimiter(ctx, cfg, instrument, log)
	if err != nil {
		return fmt.Errorf("initialize rate limiter: %w", err)
	}
	if windows != nil {
		defer windows.Close()
	}

	svc := catalog.NewService(store,
		catalog.WithOperationTimeout(cfg.Storage.OperationTimeout),
		catalog.WithLogger(log),
	)
	handlers := api.NewHandlers(svc, api.WithStorage(store))

	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	if limiter != nil {
		rl := cfg.RateLimit
		routeOpts = append(routeOpts,
			api.WithReadLimiter(ratelimit.Middleware(limiter,
				ratelimit.TierFromConfig(ratelimit.ScopeReads, rl.Reads))),
			api.WithSubmitLimiter(ratelimit.Middleware(limiter,
				ratelimit.TierFromConfig(ratelimit.ScopeSubmitBurst, rl.SubmitBurst),
				ratelimit.TierFromConfig(ratelimit.ScopeSubmitDay, rl.SubmitDay))),
		)
	} else {
		slog.Warn("Rate limiting disabled")
	}

	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server", "addr", server.Addr, "tls", cfg.Server.TLSEnabled)

		var err error
		if cfg.Server.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics, otelProvider)
		g.Go(func() error {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	// Wait for a signal or a failed listener, then drain both servers
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	slog.Info("Server shutdown complete")
	return err
}

// initializeStorage creates the configured backend, wrapped with
// instrumentation when metrics or tracing are on.
func initializeStorage(cfg *models.Config, instrument bool) (storage.Storage, error) {
	store, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return nil, err
	}
	slog.Info("Storage initialized", "type", cfg.Storage.Type)

	if !instrument {
		return store, nil
	}

	instrumented, err := observability.NewInstrumentedStorage(store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("instrument storage: %w", err)
	}
	return instrumented, nil
}

// initializeLimiter builds the limiter over the configured window store.
// Both results are nil when rate limiting is disabled.
func initializeLimiter(ctx context.Context, cfg *models.Config, instrument bool, log *slog.Logger) (*ratelimit.Limiter, io.Closer, error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, nil, nil
	}

	var windows ratelimit.Store
	switch rl.Store {
	case models.LimiterStoreRedis:
		client, err := ratelimit.ConnectRedis(ctx, rl.Redis, log)
		if err != nil {
			return nil, nil, err
		}
		windows = ratelimit.NewRedisStore(client)
	default:
		windows = ratelimit.NewMemoryStore(rl.CleanupInterval)
	}

	if instrument {
		instrumented, err := observability.NewInstrumentedWindowStore(windows)
		if err != nil {
			_ = windows.Close()
			return nil, nil, fmt.Errorf("instrument window store: %w", err)
		}
		windows = instrumented
	}

	slog.Info("Rate limiter initialized",
		"store", rl.Store,
		"reads", rl.Reads.Limit,
		"submit_burst", rl.SubmitBurst.Limit,
		"submit_day", rl.SubmitDay.Limit)

	return ratelimit.NewLimiter(windows, ratelimit.WithTimeout(rl.Timeout)), windows, nil
}
