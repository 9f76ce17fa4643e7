package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"bookmarks/internal/models"
)

// Route prefixes.
const (
	APIPrefix  = "/bookmarks/v1"
	DocsPath   = "/bookmarks/docs/"
	HealthPath = APIPrefix + "/health/"
)

type routeOptions struct {
	otelServiceName string
	readLimiter     mux.MiddlewareFunc
	submitLimiter   mux.MiddlewareFunc
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeOptions)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(o *routeOptions) { o.otelServiceName = serviceName }
}

// WithReadLimiter guards the public listing and detail routes.
func WithReadLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(o *routeOptions) { o.readLimiter = middleware }
}

// WithSubmitLimiter guards the submission route.
func WithSubmitLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(o *routeOptions) { o.submitLimiter = middleware }
}

// untraced reports paths excluded from tracing.
func untraced(path string) bool {
	return path == HealthPath ||
		path == APIPrefix+"/ready/" ||
		path == APIPrefix+"/openapi.yaml" ||
		strings.HasPrefix(path, DocsPath)
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	o := routeOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	router := mux.NewRouter()

	if o.otelServiceName != "" {
		router.Use(otelmux.Middleware(o.otelServiceName,
			otelmux.WithFilter(func(r *http.Request) bool { return !untraced(r.URL.Path) }),
		))
	}

	// Browsers preflight the public routes; corsMiddleware answers OPTIONS
	// before any rate limiter runs.
	publicMethods := func(method string) []string {
		if config.Server.CORS.Enabled {
			return []string{method, http.MethodOptions}
		}
		return []string{method}
	}

	api := router.PathPrefix(APIPrefix).Subrouter()

	api.HandleFunc("/health/", handlers.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/ready/", handlers.Readiness).Methods(http.MethodGet)
	api.HandleFunc("/openapi.yaml", handlers.ServeOpenAPIDocument).Methods(http.MethodGet)
	router.HandleFunc(DocsPath, handlers.ServeDocs).Methods(http.MethodGet)

	submitAPI := api.PathPrefix("/bookmarks/submit").Subrouter()
	if o.submitLimiter != nil {
		submitAPI.Use(o.submitLimiter)
	}
	submitAPI.HandleFunc("/", handlers.SubmitBookmark).Methods(publicMethods(http.MethodPost)...)

	readAPI := api.PathPrefix("/bookmarks").Subrouter()
	if o.readLimiter != nil {
		readAPI.Use(o.readLimiter)
	}
	readAPI.HandleFunc("/", handlers.ListBookmarks).Methods(publicMethods(http.MethodGet)...)
	readAPI.HandleFunc("/{id:[0-9]+}/", handlers.GetBookmark).Methods(publicMethods(http.MethodGet)...)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(moderatorMiddleware(config.Security))
	adminAPI.HandleFunc("/bookmarks/approve/", handlers.ApproveBookmarks).Methods(http.MethodPost)
	adminAPI.HandleFunc("/bookmarks/pending/", handlers.ListPending).Methods(http.MethodGet)
	adminAPI.HandleFunc("/tags/", handlers.ListTags).Methods(http.MethodGet)
	adminAPI.HandleFunc("/tags/", handlers.CreateTag).Methods(http.MethodPost)

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, models.ErrorCodeNotFound, "Not found.")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed, "Method not allowed")
	})

	return router
}
