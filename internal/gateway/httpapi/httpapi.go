// Package httpapi implements the HTTP API gateway for Ligi.
//
// Security:
//   - Bearer-token authentication on every protected route via the request gate
//   - Claims-based role authorization (servant, admin)
//   - Request body size limits (default 1 MB)
//   - All rejected requests logged with path and reason
//   - TLS expected via reverse proxy (not handled here)
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/jkaninda/okapi"

	"github.com/jkaninda/ligi/internal/auth"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/observability"
	"github.com/jkaninda/ligi/internal/storage"
)

const defaultMaxRequestSize = 1 << 20 // 1 MB

// ErrorBody is the error response shape for every non-2xx answer.
type ErrorBody struct {
	Error string `json:"error"`
}

// errorHandler renders rejected requests as {"error": message}, replacing
// okapi's default code/message/details envelope.
func errorHandler(c *okapi.Context, code int, message string, _ error) error {
	return c.JSON(code, ErrorBody{Error: message})
}

// Config configures the HTTP API gateway.
type Config struct {
	ListenAddr     string // e.g., ":8080"
	EnableDocs     bool
	MaxRequestSize int64  // Maximum request body in bytes. 0 = 1 MB default.
	EmailDomain    string // Roster email domain for username logins.

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	HealthChecker   *observability.HealthChecker    // Health checker for /readyz endpoint.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Gateway is the HTTP API gateway.
type Gateway struct {
	config Config
	store  storage.Store
	gate   *auth.Gate // nil = auth backend unavailable, protected routes answer 503.
	tokens *auth.TokenService
	ids    identity.Store
	logger *slog.Logger
	server *http.Server

	okapi *okapi.Okapi
}

// NewGateway creates an HTTP API gateway. gate may be nil when the auth
// backend failed to initialize; protected routes then answer 503 while the
// public league endpoints keep serving.
func NewGateway(cfg Config, store storage.Store, gate *auth.Gate, tokens *auth.TokenService, ids identity.Store, logger *slog.Logger) *Gateway {
	maxSize := cfg.MaxRequestSize
	if maxSize <= 0 {
		maxSize = defaultMaxRequestSize
	}
	return &Gateway{
		config: cfg,
		store:  store,
		gate:   gate,
		tokens: tokens,
		ids:    ids,
		logger: logger,
		okapi: okapi.New(
			okapi.WithMaxMultipartMemory(maxSize),
			okapi.WithErrorHandler(errorHandler),
		),
	}
}

// WithOpenAPIDocs enables the OpenAPI documentation UI.
func (g *Gateway) WithOpenAPIDocs() *Gateway {
	g.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "Ligi",
			Version: "v0.1.0",
		},
	)
	return g
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (g *Gateway) Start(ctx context.Context) error {
	g.registerRoutes()

	g.server = &http.Server{
		Addr:              g.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g.logger.Info("http api gateway starting", slog.String("addr", g.config.ListenAddr))

	return g.okapi.StartServer(g.server)
}

// registerRoutes attaches the middleware and the full route surface.
func (g *Gateway) registerRoutes() {
	// Metrics/tracing middleware (applied globally).
	if g.config.Metrics != nil || g.config.Tracer != nil {
		g.okapi.UseMiddleware(func(next http.Handler) http.Handler {
			return observability.HTTPMetricsMiddleware(g.config.Metrics, g.config.Tracer, next)
		})
	}

	// Public endpoints: login and league standings.
	public := g.okapi.Group("/api")
	public.Post("/login", g.handleLogin,
		okapi.DocSummary("Exchange credentials for a bearer token"),
		okapi.DocTags("Auth"),
		okapi.DocRequestBody(LoginRequest{}),
		okapi.DocResponse(LoginResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusUnauthorized, ErrorBody{}),
	)
	public.Get("/public/stats", g.handlePublicStats,
		okapi.DocSummary("League standings, top students, and MVP"),
		okapi.DocTags("Public"),
		okapi.DocResponse(StatsResponse{}),
	)
	public.Get("/public/teams", g.handlePublicTeams,
		okapi.DocSummary("All teams ordered by points"),
		okapi.DocTags("Public"),
		okapi.DocResponse([]TeamResponse{}),
	)
	public.Get("/public/students", g.handlePublicStudents,
		okapi.DocSummary("All students with team names, ordered by points"),
		okapi.DocTags("Public"),
		okapi.DocResponse([]StudentResponse{}),
	)

	// Servant endpoints: class rosters and field data entry. Admins may
	// use them too, scoped by the URL class rather than a claim.
	servant := g.okapi.Group("/api/servant",
		g.gate.Authenticate(),
		g.gate.RequireRoles(identity.RoleServant, identity.RoleAdmin),
	)
	servant.Get("/students/{classId}", g.handleClassStudents,
		okapi.DocSummary("Students of one class"),
		okapi.DocTags("Servant"),
		okapi.DocPathParam("classId", "int", "Class ID (ignored for servants, who see their own class)"),
		okapi.DocResponse([]StudentResponse{}),
		okapi.DocResponse(http.StatusForbidden, ErrorBody{}),
	)
	servant.Post("/attendance", g.handleAttendance,
		okapi.DocSummary("Record an attendance mark"),
		okapi.DocTags("Servant"),
		okapi.DocRequestBody(AttendanceRequest{}),
		okapi.DocResponse(SuccessResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	servant.Post("/points", g.handlePoints,
		okapi.DocSummary("Award points to a student"),
		okapi.DocTags("Servant"),
		okapi.DocRequestBody(PointsRequest{}),
		okapi.DocResponse(SuccessResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)
	servant.Post("/followup", g.handleFollowUp,
		okapi.DocSummary("Record a follow-up note"),
		okapi.DocTags("Servant"),
		okapi.DocRequestBody(FollowUpRequest{}),
		okapi.DocResponse(SuccessResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
		okapi.DocResponse(http.StatusNotFound, ErrorBody{}),
	)

	// Admin endpoints: dashboard, account listings, league management.
	admin := g.okapi.Group("/api",
		g.gate.Authenticate(),
		g.gate.RequireRoles(identity.RoleAdmin),
	)
	admin.Get("/leader/dashboard", g.handleDashboard,
		okapi.DocSummary("Aggregate league statistics"),
		okapi.DocTags("Admin"),
		okapi.DocResponse(DashboardResponse{}),
	)
	admin.Get("/admin/accounts/{role}", g.handleAccounts,
		okapi.DocSummary("Provisioned account documents for a role"),
		okapi.DocTags("Admin"),
		okapi.DocPathParam("role", "string", "Account role: servant or admin"),
		okapi.DocResponse([]AccountResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	admin.Post("/admin/teams", g.handleCreateTeam,
		okapi.DocSummary("Create a team"),
		okapi.DocTags("Admin"),
		okapi.DocRequestBody(CreateTeamRequest{}),
		okapi.DocResponse(http.StatusCreated, TeamResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	admin.Post("/admin/students", g.handleCreateStudent,
		okapi.DocSummary("Create a student"),
		okapi.DocTags("Admin"),
		okapi.DocRequestBody(CreateStudentRequest{}),
		okapi.DocResponse(http.StatusCreated, StudentResponse{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)

	// Observability endpoints (unauthenticated).
	g.okapi.Get("/healthz", g.handleLiveness)
	g.okapi.Get("/readyz", g.handleReadiness)

	if g.config.MetricsRegistry != nil {
		path := g.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		g.okapi.HandleStd("GET", path, promhttp.HandlerFor(g.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if g.config.EnableDocs {
		g.WithOpenAPIDocs()
	}
}

// Stop gracefully shuts down the HTTP server.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	g.logger.Info("http api gateway stopping")
	return g.okapi.Shutdown(g.server)
}

// HealthResponse is the JSON response for the liveness probe.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleLiveness is the Kubernetes liveness probe.
func (g *Gateway) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness checks all registered dependencies and returns 200 or 503.
func (g *Gateway) handleReadiness(c *okapi.Context) error {
	if g.config.HealthChecker == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	status := g.config.HealthChecker.CheckReady(c.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
