package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niatpaceya/greeting-metrics/internal/http/routes"
	"github.com/niatpaceya/greeting-metrics/internal/platform/admin"
	"github.com/niatpaceya/greeting-metrics/internal/platform/config"
	applog "github.com/niatpaceya/greeting-metrics/internal/platform/logging"
	"github.com/niatpaceya/greeting-metrics/internal/platform/metrics"
	appmiddleware "github.com/niatpaceya/greeting-metrics/internal/platform/middleware"
	"github.com/niatpaceya/greeting-metrics/internal/platform/respond"
	greetingsvc "github.com/niatpaceya/greeting-metrics/internal/service/greeting"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	serviceName = "greeting-metrics"
	docsPath    = "/api-docs"

	readTimeout       = 5 * time.Second
	readHeaderTimeout = 2 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 64 << 10 // 64 KB
	maxBodyBytes      = 1 << 20  // 1 MB

	// writeTimeoutBase leaves room for a 10s CPU profile from the admin index.
	writeTimeoutBase = 30 * time.Second
)

func main() {
	ctx := context.Background()
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(ctx, "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(ctx, "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogFatal(ctx, "invalid configuration", err)
	}
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		applog.LogFatal(ctx, "invalid log level", err, zap.String("level", cfg.LogLevel))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		applog.LogError(ctx, "server failed", err)
		stop()
		_ = applog.Sync()
		os.Exit(1)
	}
}

// application bundles what newApplication wires together.
type application struct {
	router   chi.Router
	api      huma.API
	registry *metrics.Registry
	service  *greetingsvc.MeteredService
}

func newApplication(cfg config.Config) (*application, error) {
	registry := metrics.NewRegistry()

	svc, err := greetingsvc.NewMeteredService(registry, cfg.GreetingDelay)
	if err != nil {
		return nil, err
	}

	adm, err := admin.New(admin.Options{
		Gatherer:      registry.Gatherer(),
		MaxGoroutines: cfg.HealthMaxGoroutines,
		Component:     serviceName,
		Version:       Version,
	})
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(docsPath, admin.MountPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP trusts X-Real-IP and X-Forwarded-For; only run behind a trusted proxy.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(maxBodyBytes),
		applog.RequestLogger(),
		applog.AccessLogger(),
		registry.Middleware(),
		respond.Recoverer(),
	)

	humaCfg := huma.DefaultConfig("Greeting Metrics API", Version)
	humaCfg.DocsPath = docsPath
	api := humachi.New(router, humaCfg)

	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, advertiseCBOR)

	routes.Register(api, svc)
	routes.Mount(router, adm)

	return &application{router: router, api: api, registry: registry, service: svc}, nil
}

// advertiseCBOR lists application/cbor next to every JSON response schema.
func advertiseCBOR(_ *huma.OpenAPI, op *huma.Operation) {
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}

func newServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout(cfg.GreetingDelay),
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}

// writeTimeout always exceeds the simulated greeting delay.
func writeTimeout(delay time.Duration) time.Duration {
	return writeTimeoutBase + delay
}

// run serves until ctx is cancelled, then shuts down within cfg.ShutdownTimeout.
func run(ctx context.Context, cfg config.Config) error {
	app, err := newApplication(cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	srv := newServer(cfg, app.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		applog.LogInfo(ctx, "server listening",
			zap.String("addr", srv.Addr),
			zap.Duration("greetingDelay", cfg.GreetingDelay),
			zap.String("version", Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.LogInfo(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	applog.LogInfo(ctx, "server exited", zap.Int64("lastGreetingId", app.service.Counter().Current()))
	return err
}
