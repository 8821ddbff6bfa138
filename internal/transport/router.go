package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/internal/form"
	"github.com/andeantech/ventas-bff/internal/observability"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Manager      *form.Manager
	Readiness    observability.ReadinessChecks
	Authenticate func(http.Handler) http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(deps.Logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	r.Use(observability.TracingMiddleware)

	// Public routes — bypass authentication.
	r.Get("/ui/health", observability.HandleHealth())
	r.Get("/ui/ready", observability.HandleReady(deps.Readiness))
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(deps.Logger))
		r.Use(deps.Metrics.MetricsMiddleware)

		r.Route("/ui/report-filter", func(r chi.Router) {
			r.Get("/descriptor", handleGetDescriptor(deps.Manager))

			r.Post("/sessions", handleOpenSession(deps.Manager, deps.Metrics))
			r.Route("/sessions/{sessionId}", func(r chi.Router) {
				r.Get("/", handleGetSession(deps.Manager))
				r.Delete("/", handleCloseSession(deps.Manager, deps.Metrics))
				r.Patch("/fields", handleUpdateFields(deps.Manager, deps.Metrics))
				r.Post("/submit", handleSubmit(deps.Manager, deps.Metrics))
				r.Get("/report", handleReportView(deps.Manager))
				r.Post("/panel", handlePanel(deps.Manager))
			})
		})
	})

	return r
}
