package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jkaninda/okapi"

	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/observability"
)

func gateLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gateApp mounts a trivial guarded route so requests can be driven through
// the full okapi chain without a listening socket.
func gateApp(g *Gate, roles ...string) *okapi.Okapi {
	o := okapi.New()
	grp := o.Group("/guarded", g.Authenticate(), g.RequireRoles(roles...))
	grp.Get("/whoami", func(c *okapi.Context) error {
		p := PrincipalFrom(c)
		if p == nil {
			return c.OK(okapi.M{"role": ""})
		}
		body := okapi.M{"uid": p.UID, "role": p.Role}
		if p.ClassID != nil {
			body["class_id"] = *p.ClassID
		}
		return c.OK(body)
	})
	return o
}

func doGet(t *testing.T, o *okapi.Okapi, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	o.ServeHTTP(rec, req)
	return rec
}

func issueFor(t *testing.T, svc *TokenService, role string, classID *int) string {
	t.Helper()
	token, err := svc.Issue(&identity.Record{
		UID:         "uid-" + role,
		Email:       role + "Edady1@e3dady.com",
		DisplayName: role + "Edady1",
		Claims:      identity.Claims{Role: role, ClassID: classID},
	})
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	return token
}

func gateDecisionCount(t *testing.T, m *observability.MetricsCollector, outcome string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "ligi_auth_gate_decisions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "decision" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestGate_MissingBearerRejected(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	gate := NewGate(ModeRequired, svc, gateLogger())
	o := gateApp(gate, "servant", "admin")

	rec := doGet(t, o, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestGate_InvalidTokenRejected(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	gate := NewGate(ModeRequired, svc, gateLogger())
	o := gateApp(gate, "servant", "admin")

	rec := doGet(t, o, "not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestGate_ValidServantReachesHandler(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	gate := NewGate(ModeRequired, svc, gateLogger())
	o := gateApp(gate, "servant", "admin")

	classID := 3
	rec := doGet(t, o, issueFor(t, svc, "servant", &classID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var body struct {
		UID     string `json:"uid"`
		Role    string `json:"role"`
		ClassID int    `json:"class_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.UID != "uid-servant" || body.Role != "servant" || body.ClassID != 3 {
		t.Errorf("principal did not survive the chain: %+v", body)
	}
}

func TestGate_UnmanagedRoleForbidden(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	gate := NewGate(ModeRequired, svc, gateLogger())
	o := gateApp(gate, "servant", "admin")

	for _, role := range []string{"public", "student", ""} {
		rec := doGet(t, o, issueFor(t, svc, role, nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("role %q: expected 403, got %d (%s)", role, rec.Code, rec.Body.String())
		}
	}
}

func TestGate_ServantCannotReachAdminRoute(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	gate := NewGate(ModeRequired, svc, gateLogger())
	o := gateApp(gate, "admin")

	classID := 2
	rec := doGet(t, o, issueFor(t, svc, "servant", &classID))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for servant on admin route, got %d", rec.Code)
	}

	rec = doGet(t, o, issueFor(t, svc, "admin", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestGate_OpenModePassesWithoutHeader(t *testing.T) {
	gate := NewGate(ModeOpen, nil, gateLogger())
	o := gateApp(gate, "admin")

	rec := doGet(t, o, "")
	if rec.Code != http.StatusOK {
		t.Errorf("open gate must pass unauthenticated requests, got %d", rec.Code)
	}
	if !gate.Open() {
		t.Error("Open() must report true in open mode")
	}
}

func TestGate_NilGateUnavailable(t *testing.T) {
	var gate *Gate
	o := gateApp(gate, "admin")

	rec := doGet(t, o, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil gate must answer 503, got %d", rec.Code)
	}
	if gate.Open() {
		t.Error("nil gate must not report open")
	}
}

func TestGate_DecisionsCounted(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	metrics := observability.NewMetricsCollector()
	gate := NewGate(ModeRequired, svc, gateLogger()).WithMetrics(metrics)
	o := gateApp(gate, "servant", "admin")

	// One request per outcome: no header, unmanaged role, managed role.
	doGet(t, o, "")
	doGet(t, o, issueFor(t, svc, "public", nil))
	classID := 5
	doGet(t, o, issueFor(t, svc, "servant", &classID))

	for outcome, want := range map[string]float64{
		"unauthorized": 1,
		"forbidden":    1,
		"allowed":      1,
	} {
		if got := gateDecisionCount(t, metrics, outcome); got != want {
			t.Errorf("decision %q: expected %v, got %v", outcome, want, got)
		}
	}
}
