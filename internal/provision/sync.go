package provision

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SyncScheduler re-runs the provisioner on a cron schedule in serve mode,
// keeping claims and documents fresh for an already-provisioned roster.
// Runs are idempotent; a failed run is logged and the schedule continues.
type SyncScheduler struct {
	provisioner *Provisioner
	specs       []Spec
	schedule    string
	logger      *slog.Logger
	cron        *cron.Cron
}

// NewSyncScheduler creates a SyncScheduler for the given cron expression
// (standard 5-field syntax).
func NewSyncScheduler(p *Provisioner, specs []Spec, schedule string, logger *slog.Logger) *SyncScheduler {
	return &SyncScheduler{provisioner: p, specs: specs, schedule: schedule, logger: logger}
}

// Start validates the schedule and begins running. The returned stop
// function halts the scheduler and waits for an in-flight run.
func (s *SyncScheduler) Start(ctx context.Context) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		results := s.provisioner.Run(ctx, s.specs)
		summary := Summarize(results)
		failedTotal := 0
		for _, n := range summary.Failed {
			failedTotal += n
		}
		s.logger.Info("roster sync completed",
			slog.Int("total", len(results)),
			slog.Int("failed", failedTotal),
		)
	})
	if err != nil {
		return nil, err
	}
	s.cron = c
	c.Start()
	s.logger.Info("roster sync scheduler started", slog.String("schedule", s.schedule))

	return func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}, nil
}
