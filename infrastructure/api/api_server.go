package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/careerpath"
	apimiddleware "github.com/helixml/careerpath/infrastructure/api/middleware"
	v1 "github.com/helixml/careerpath/infrastructure/api/v1"
	mcpinternal "github.com/helixml/careerpath/internal/mcp"
)

// Version is reported by the MCP get_version tool.
var Version = "dev"

// APIServer provides an HTTP API backed by a careerpath Client.
type APIServer struct {
	client       *careerpath.Client
	apiKeys      []string
	server       *Server
	router       chi.Router
	routerCalled bool
	logger       *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given Client.
// apiKeys configures write-protection: mutating requests under /users,
// /recs and /career-event require a valid key. Inference, /rank, health,
// MCP and docs remain open.
func NewAPIServer(client *careerpath.Client, apiKeys []string) *APIServer {
	return &APIServer{
		client:  client,
		apiKeys: apiKeys,
		logger:  client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	a.routerCalled = true
	return a.router
}

// MountRoutes wires up all API routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	traitsRouter := v1.NewTraitsRouter(c)
	recsRouter := v1.NewRecsRouter(c)
	eventsRouter := v1.NewEventsRouter(c)

	router.Get("/health", v1.HealthHandler(c))

	router.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		// Open routes: inference and ranking do not change stored state.
		r.Mount("/ai", traitsRouter.InferRoutes())
		r.Mount("/rank", recsRouter.RankRoutes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(a.apiKeys))
			r.Mount("/users", traitsRouter.UserRoutes())
			r.Mount("/recs", recsRouter.Routes())
			r.Mount("/career-event", eventsRouter.Routes())
		})
	})

	// MCP streams responses and manages session state through headers, so
	// it stays outside the timeout group.
	mcpSrv := mcpinternal.NewServer(c.Recommend, c.Traits, c.Catalog, Version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// DocsRouter returns a router for Swagger UI and the OpenAPI document.
func (a *APIServer) DocsRouter(specURL string) *DocsRouter {
	return NewDocsRouter(specURL)
}

// ListenAndServe starts the HTTP server on the given address.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.routerCalled && a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the router as an http.Handler for use with custom servers.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
