// Package admin serves the metrics administration pages: Prometheus
// exposition, health checks, ping, a goroutine dump and CPU profiling.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/pprof"
	"runtime"
	runtimepprof "runtime/pprof"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hellofresh/health-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	applog "github.com/niatpaceya/greeting-metrics/internal/platform/logging"
	"github.com/niatpaceya/greeting-metrics/internal/platform/respond"
)

// MountPath is where the admin handler is mounted on the main router.
const MountPath = "/metrics/admin"

// DefaultCheckTimeout bounds every registered health check.
const DefaultCheckTimeout = 5 * time.Second

// Check is an additional health check reported by the healthcheck page.
type Check struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Options configures the admin handler.
type Options struct {
	// Gatherer supplies the metrics page and the "metrics" health check. Required.
	Gatherer prometheus.Gatherer
	// MaxGoroutines is the "goroutines" check threshold; zero or less disables it.
	MaxGoroutines int
	Component     string
	Version       string
	Checks        []Check
}

// Admin is the mounted admin surface.
type Admin struct {
	router chi.Router
	health *health.Health
}

// New builds the admin router and registers the default health checks.
func New(opts Options) (*Admin, error) {
	if opts.Gatherer == nil {
		return nil, errors.New("admin: gatherer is required")
	}

	h, err := newHealth(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create health checks: %w", err)
	}

	r := chi.NewRouter()
	r.NotFound(respond.NotFoundHandler())
	r.MethodNotAllowed(respond.MethodNotAllowedHandler())
	r.Get("/", index)
	r.Get("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	}).ServeHTTP)
	r.Get("/ping", ping)
	r.Get("/threads", threads)
	r.Get("/healthcheck", h.HandlerFunc)
	r.Get("/pprof", pprof.Profile)

	return &Admin{router: r, health: h}, nil
}

// Handler returns the admin surface as an http.Handler.
func (a *Admin) Handler() http.Handler {
	return a.router
}

// Measure runs the health checks directly, outside of HTTP.
func (a *Admin) Measure(ctx context.Context) health.Check {
	return a.health.Measure(ctx)
}

func newHealth(opts Options) (*health.Health, error) {
	component := opts.Component
	if component == "" {
		component = "greeting-metrics"
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	h, err := health.New(health.WithComponent(health.Component{Name: component, Version: version}))
	if err != nil {
		return nil, err
	}

	checks := make([]Check, 0, len(opts.Checks)+2)
	if opts.MaxGoroutines > 0 {
		checks = append(checks, Check{Name: "goroutines", Check: goroutineCheck(opts.MaxGoroutines)})
	}
	checks = append(checks, Check{Name: "metrics", Check: gatherCheck(opts.Gatherer)})
	checks = append(checks, opts.Checks...)

	for _, c := range checks {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultCheckTimeout
		}
		err = h.Register(health.Config{
			Name:      c.Name,
			Timeout:   timeout,
			SkipOnErr: false,
			Check:     c.Check,
		})
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

func goroutineCheck(limit int) health.CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return fmt.Errorf("goroutine count %d exceeds %d", n, limit)
		}
		return nil
	}
}

func gatherCheck(g prometheus.Gatherer) health.CheckFunc {
	return func(context.Context) error {
		if _, err := g.Gather(); err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		return nil
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Metrics</title></head>
<body>
<h1>Operational Menu</h1>
<ul>
{{range .}}<li><a href="{{.Path}}">{{.Label}}</a></li>
{{end}}</ul>
</body>
</html>
`))

type indexLink struct {
	Path  string
	Label string
}

var indexLinks = []indexLink{
	{Path: "metrics", Label: "Metrics"},
	{Path: "ping", Label: "Ping"},
	{Path: "threads", Label: "Threads"},
	{Path: "healthcheck", Label: "Healthcheck"},
	{Path: "pprof?seconds=10", Label: "CPU Profile"},
}

func index(w http.ResponseWriter, r *http.Request) {
	// Relative links only resolve below the trailing slash.
	if !strings.HasSuffix(r.URL.Path, "/") {
		respond.WriteRedirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	if err := indexTemplate.Execute(w, indexLinks); err != nil {
		applog.LogWarn(r.Context(), "failed to render admin index", zap.Error(err))
	}
}

func ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	_, _ = w.Write([]byte("pong"))
}

func threads(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "must-revalidate,no-cache,no-store")
	if err := runtimepprof.Lookup("goroutine").WriteTo(w, 2); err != nil {
		applog.LogWarn(r.Context(), "failed to write goroutine dump", zap.Error(err))
	}
}

// promLogger routes promhttp errors into the application logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	applog.Sugar().Errorw("metrics exposition error", "error", fmt.Sprint(v...))
}
