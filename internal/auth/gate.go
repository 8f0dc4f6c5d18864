// Package auth implements the request gate: bearer-token authentication
// and claims-based role authorization as composable middleware.
//
// The gate has three states: "required" verifies every bearer credential,
// "open" allows all requests (explicit local-development mode, replacing
// the old unguarded server variant), and unavailable — the identity
// backend failed to initialize — in which protected routes answer 503.
package auth

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/jkaninda/okapi"

	"github.com/jkaninda/ligi/internal/observability"
)

// Gate modes.
const (
	ModeRequired = "required"
	ModeOpen     = "open"
)

// Context keys for principal fields attached by Authenticate.
const (
	ctxUID     = "principal.uid"
	ctxEmail   = "principal.email"
	ctxName    = "principal.name"
	ctxRole    = "principal.role"
	ctxClassID = "principal.classID"
)

// Principal is the authenticated caller derived from a verified bearer
// credential. Lifetime is one request. ClassID is nil unless the claims
// carried one (only meaningful for servants).
type Principal struct {
	UID     string
	Email   string
	Name    string
	Role    string
	ClassID *int
}

// Verifier turns a raw bearer credential into a Principal.
type Verifier interface {
	Verify(token string) (*Principal, error)
}

// Gate guards protected routes. A nil *Gate is the unavailable state.
type Gate struct {
	mode     string
	verifier Verifier
	logger   *slog.Logger
	metrics  *observability.MetricsCollector
}

// NewGate creates a request gate. In ModeOpen the verifier may be nil.
func NewGate(mode string, verifier Verifier, logger *slog.Logger) *Gate {
	return &Gate{mode: mode, verifier: verifier, logger: logger}
}

// WithMetrics attaches a metrics collector; every gate decision is then
// counted by outcome.
func (g *Gate) WithMetrics(m *observability.MetricsCollector) *Gate {
	g.metrics = m
	return g
}

// decision counts one gate outcome when metrics are attached.
func (g *Gate) decision(outcome string) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.GateDecisionsTotal.WithLabelValues(outcome).Inc()
}

// Authenticate verifies the Authorization bearer header and attaches the
// principal to the request context. Failures short-circuit with 401; an
// unavailable gate answers 503 before any handler logic runs.
func (g *Gate) Authenticate() okapi.Middleware {
	return func(next okapi.HandlerFunc) okapi.HandlerFunc {
		return func(c *okapi.Context) error {
			if g == nil {
				return c.AbortServiceUnavailable("Auth backend unavailable")
			}
			if g.mode == ModeOpen {
				return next(c)
			}

			authHeader := c.Header("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				g.decision("unauthorized")
				return c.AbortUnauthorized("Missing bearer token")
			}
			raw := strings.TrimPrefix(authHeader, "Bearer ")

			principal, err := g.verifier.Verify(raw)
			if err != nil {
				g.logger.Warn("bearer verification failed",
					slog.String("path", c.Request().URL.Path),
					slog.String("error", err.Error()),
				)
				g.decision("unauthorized")
				return c.AbortUnauthorized("Invalid or expired token")
			}

			setPrincipal(c, principal)
			return next(c)
		}
	}
}

// RequireRoles rejects with 403 unless the principal's role is exactly one
// of the allowed roles. Any other claimed value, including absent, is no
// role. ModeOpen passes everything through.
func (g *Gate) RequireRoles(roles ...string) okapi.Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next okapi.HandlerFunc) okapi.HandlerFunc {
		return func(c *okapi.Context) error {
			if g == nil {
				return c.AbortServiceUnavailable("Auth backend unavailable")
			}
			if g.mode == ModeOpen {
				return next(c)
			}

			p := PrincipalFrom(c)
			if p == nil || !validRole(p.Role) {
				g.decision("forbidden")
				return c.AbortForbidden("Forbidden")
			}
			if _, ok := allowed[p.Role]; !ok {
				g.logger.Warn("role not allowed",
					slog.String("uid", p.UID),
					slog.String("role", p.Role),
					slog.String("path", c.Request().URL.Path),
				)
				g.decision("forbidden")
				return c.AbortForbidden("Forbidden")
			}
			g.decision("allowed")
			return next(c)
		}
	}
}

// Open reports whether the gate allows all requests.
func (g *Gate) Open() bool {
	return g != nil && g.mode == ModeOpen
}

// validRole accepts exactly the two managed roles.
func validRole(role string) bool {
	return role == "servant" || role == "admin"
}

func setPrincipal(c *okapi.Context, p *Principal) {
	c.Set(ctxUID, p.UID)
	c.Set(ctxEmail, p.Email)
	c.Set(ctxName, p.Name)
	c.Set(ctxRole, p.Role)
	if p.ClassID != nil {
		c.Set(ctxClassID, strconv.Itoa(*p.ClassID))
	}
}

// PrincipalFrom reassembles the principal attached by Authenticate.
// Returns nil when no principal is attached (unauthenticated route or
// open gate).
func PrincipalFrom(c *okapi.Context) *Principal {
	uid := c.GetString(ctxUID)
	role := c.GetString(ctxRole)
	if uid == "" && role == "" {
		return nil
	}
	p := &Principal{
		UID:   uid,
		Email: c.GetString(ctxEmail),
		Name:  c.GetString(ctxName),
		Role:  role,
	}
	if raw := c.GetString(ctxClassID); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			p.ClassID = &id
		}
	}
	return p
}
