package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// readinessTimeout bounds one readiness sweep across all probes.
const readinessTimeout = 3 * time.Second

// HealthChecker answers the liveness and readiness probes. Liveness is
// unconditional; readiness runs every registered dependency probe and
// degrades when any of them fails.
type HealthChecker struct {
	mu     sync.Mutex
	probes []probe
	logger *slog.Logger
}

type probe struct {
	name string
	fn   func(ctx context.Context) error
}

// HealthStatus is the probe response payload.
type HealthStatus struct {
	Status string                 `json:"status"` // "ok" or "degraded"
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult reports one dependency probe.
type CheckResult struct {
	Status  string `json:"status"`            // "ok" or "fail"
	Message string `json:"message,omitempty"` // Failure detail.
}

func NewHealthChecker(logger *slog.Logger) *HealthChecker {
	return &HealthChecker{logger: logger}
}

// AddCheck registers a named dependency probe. Safe to call while the
// checker is serving.
func (h *HealthChecker) AddCheck(name string, fn func(ctx context.Context) error) {
	h.mu.Lock()
	h.probes = append(h.probes, probe{name: name, fn: fn})
	h.mu.Unlock()
}

// CheckHealth is liveness: a running process is alive.
func (h *HealthChecker) CheckHealth() HealthStatus {
	return HealthStatus{Status: "ok"}
}

// CheckReady sweeps the registered probes. The result is "ok" only when
// every probe passes; otherwise "degraded", with per-probe detail.
func (h *HealthChecker) CheckReady(ctx context.Context) HealthStatus {
	h.mu.Lock()
	probes := make([]probe, len(h.probes))
	copy(probes, h.probes)
	h.mu.Unlock()

	if len(probes) == 0 {
		return HealthStatus{Status: "ok"}
	}

	sweepCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	status := HealthStatus{
		Status: "ok",
		Checks: make(map[string]CheckResult, len(probes)),
	}
	for _, p := range probes {
		err := p.fn(sweepCtx)
		if err == nil {
			status.Checks[p.name] = CheckResult{Status: "ok"}
			continue
		}
		status.Status = "degraded"
		status.Checks[p.name] = CheckResult{Status: "fail", Message: err.Error()}
		if h.logger != nil {
			h.logger.Warn("readiness probe failed",
				slog.String("check", p.name),
				slog.String("error", err.Error()),
			)
		}
	}
	return status
}
