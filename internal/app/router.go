package app

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/subscriber-pipeline/internal/http/health"
	"github.com/janisto/subscriber-pipeline/internal/http/v1/routes"
	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
	"github.com/janisto/subscriber-pipeline/internal/platform/metrics"
	appmiddleware "github.com/janisto/subscriber-pipeline/internal/platform/middleware"
	"github.com/janisto/subscriber-pipeline/internal/platform/respond"
)

const docsPath = "/api-docs"

// RouterConfig tunes NewRouter.
type RouterConfig struct {
	Version string
	Metrics bool
}

// NewRouter builds the HTTP handler shared by the server and the cloud
// function: middleware stack, health, metrics, and the API routes.
func NewRouter(svc routes.Services, cfg RouterConfig) http.Handler {
	respond.Install()

	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		appmiddleware.ClientIP(),
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
	)
	if cfg.Metrics {
		router.Use(metrics.Middleware)
		router.Handle("/metrics", metrics.Handler())
	}
	router.Get("/health", health.Handler)

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	hcfg := huma.DefaultConfig("Subscriber Pipeline API", version)
	hcfg.DocsPath = docsPath
	api := humachi.New(router, hcfg)

	// Add CBOR content type to OpenAPI requests and responses
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)

	routes.Register(api, svc)
	return router
}
