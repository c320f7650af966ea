package routes

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/niatpaceya/greeting-metrics/internal/http/greeting"
	"github.com/niatpaceya/greeting-metrics/internal/http/health"
	"github.com/niatpaceya/greeting-metrics/internal/platform/admin"
	greetingsvc "github.com/niatpaceya/greeting-metrics/internal/service/greeting"
)

// Register wires the greeting operations into the huma API.
func Register(api huma.API, greetingService greetingsvc.Service) {
	greeting.Register(api, greetingService)
}

// Mount adds the plain handlers that bypass huma: the liveness probe and,
// when a is non-nil, the metrics admin surface.
func Mount(router chi.Router, a *admin.Admin) {
	router.Get(health.Path, health.Handler)
	router.Head(health.Path, health.Handler)
	if a != nil {
		router.Mount(admin.MountPath, a.Handler())
	}
}
