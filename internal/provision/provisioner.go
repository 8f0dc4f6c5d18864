package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
)

// Result statuses.
const (
	StatusCreated  = "created"
	StatusExisting = "existing"
	StatusFailed   = "failed"
)

// Result is the per-specification outcome of one provisioning run.
// Ephemeral: persisted only as the CSV audit artifact.
type Result struct {
	Role     string
	Username string
	Email    string
	UID      string
	ClassID  *int
	Status   string
	Password string // Present only when the account was created this run.
	Error    string // Present only when Status is "failed".
}

// Summary counts outcomes per role.
type Summary struct {
	Created  map[string]int
	Existing map[string]int
	Failed   map[string]int
}

// Provisioner ensures the roster exists in the identity store and mirrors
// account status into the document store. Specifications are processed
// strictly one at a time so the CSV row order is deterministic.
type Provisioner struct {
	ids    identity.Store
	docs   docstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(ids identity.Store, docs docstore.Store, logger *slog.Logger) *Provisioner {
	return &Provisioner{ids: ids, docs: docs, logger: logger, now: time.Now}
}

// Run processes every specification and returns one result each, in input
// order. A specification's failure is captured in its result; the batch
// always continues.
func (p *Provisioner) Run(ctx context.Context, specs []Spec) []Result {
	results := make([]Result, 0, len(specs))
	for _, spec := range specs {
		result := p.ensureAccount(ctx, spec)
		results = append(results, result)
		p.logger.Info("account processed",
			slog.String("status", result.Status),
			slog.String("role", result.Role),
			slog.String("email", result.Email),
		)
	}
	return results
}

// ensureAccount provisions a single specification: resolve-or-create the
// identity record, stamp claims, and merge-upsert the role document.
func (p *Provisioner) ensureAccount(ctx context.Context, spec Spec) Result {
	result := Result{
		Role:     spec.Role,
		Username: spec.Username,
		Email:    spec.Email,
		ClassID:  spec.ClassID,
		Status:   StatusExisting,
	}

	existing, err := p.ids.GetByEmail(ctx, spec.Email)
	switch {
	case err == nil:
		result.UID = existing.UID
	case errors.Is(err, identity.ErrUserNotFound):
		password, err := GeneratePassword()
		if err != nil {
			return failed(result, err)
		}
		uid, err := p.ids.Create(ctx, spec.Email, password, spec.Username)
		if err != nil {
			return failed(result, fmt.Errorf("creating identity: %w", err))
		}
		result.UID = uid
		result.Status = StatusCreated
		result.Password = password
	default:
		// Only a clean not-found falls into the create path.
		return failed(result, fmt.Errorf("looking up identity: %w", err))
	}

	if err := p.ids.SetClaims(ctx, result.UID, spec.claims()); err != nil {
		return failed(result, fmt.Errorf("setting claims: %w", err))
	}

	now := p.now().UTC()
	doc := &docstore.Document{
		UID:       result.UID,
		Username:  spec.Username,
		Email:     spec.Email,
		Role:      spec.Role,
		ClassID:   spec.ClassID,
		Status:    "active",
		UpdatedAt: now,
	}
	if result.Status == StatusCreated {
		doc.CreatedAt = now
	}
	if err := p.docs.Set(ctx, spec.Collection, doc); err != nil {
		return failed(result, fmt.Errorf("syncing document: %w", err))
	}

	return result
}

// failed marks a result failed, clearing fields that are only meaningful
// for a successful outcome.
func failed(r Result, err error) Result {
	r.Status = StatusFailed
	r.UID = ""
	r.Password = ""
	r.Error = err.Error()
	return r
}

// Summarize tallies results per role.
func Summarize(results []Result) Summary {
	s := Summary{
		Created:  map[string]int{},
		Existing: map[string]int{},
		Failed:   map[string]int{},
	}
	for _, r := range results {
		switch r.Status {
		case StatusCreated:
			s.Created[r.Role]++
		case StatusExisting:
			s.Existing[r.Role]++
		case StatusFailed:
			s.Failed[r.Role]++
		}
	}
	return s
}
