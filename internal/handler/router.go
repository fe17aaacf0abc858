package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/callpurity/callpurity-api/internal/infra/observability"
	"github.com/callpurity/callpurity-api/internal/service"
)

var tracer = otel.Tracer("handler")

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	Auth     *service.AuthService
	Access   *service.AccessService
	Clients  *service.ClientsService
	Numbers  *service.NumbersService
	Feedback *service.FeedbackService

	// Store backs the readiness probe. Nil reports ready.
	Store Pinger

	MaxFileSize    int64
	AllowedOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(deps Dependencies, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(deps.Store, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Public ---
	r.Post("/register", registerHandler(deps.Auth, logger))
	r.Post("/login", loginHandler(deps.Auth, logger))
	r.Post("/feedback", feedbackHandler(deps.Feedback, deps.MaxFileSize, logger))

	// --- Authenticated ---
	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(deps.Auth, deps.Access, logger))

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", createClientHandler(deps.Clients, logger))
			r.Get("/", listClientsHandler(deps.Clients, logger))
			r.Patch("/", updateClientHandler(deps.Clients, logger))
			r.Get("/byId", getClientHandler(deps.Clients, logger))
		})

		r.Route("/numbers", func(r chi.Router) {
			r.Post("/", uploadNumbersHandler(deps.Numbers, deps.MaxFileSize, logger))
			r.Get("/", listNumbersHandler(deps.Numbers, logger))
			r.Patch("/", patchNumberHandler(deps.Numbers, logger))
			r.Delete("/", deleteNumberHandler(deps.Numbers, logger))
			r.Post("/ftc", crossCheckHandler(deps.Numbers, deps.MaxFileSize, logger))
			r.Get("/download", downloadNumbersHandler(deps.Numbers, logger))
			r.Get("/phone", lookupNumberHandler(deps.Numbers, logger))
			r.Get("/all", allNumbersHandler(deps.Numbers, logger))
		})
	})

	return r
}
