package provision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
)

// deprovisionPageSize bounds each identity listing page.
const deprovisionPageSize = 1000

// cleanupCollections is the fixed set of document collections swept for
// stale student-role documents.
var cleanupCollections = []string{
	docstore.CollectionUsers,
	docstore.CollectionServants,
	docstore.CollectionAdmins,
}

// CleanupCollections returns the swept collections in sweep order, for
// callers that report per-collection counts.
func CleanupCollections() []string {
	out := make([]string, len(cleanupCollections))
	copy(out, cleanupCollections)
	return out
}

// CleanupReport counts deletions per store.
type CleanupReport struct {
	AuthUsers   int64
	Collections map[string]int64 // collection name → documents removed.
}

// Deprovisioner removes every account whose claims role is "student" —
// stale data from before role-managed provisioning. It is a rare, manual
// operation: the first failure aborts the run.
type Deprovisioner struct {
	ids    identity.Store
	docs   docstore.Store
	logger *slog.Logger
}

// NewDeprovisioner creates a Deprovisioner.
func NewDeprovisioner(ids identity.Store, docs docstore.Store, logger *slog.Logger) *Deprovisioner {
	return &Deprovisioner{ids: ids, docs: docs, logger: logger}
}

// Run deletes student-claimed identity records (paged) and then student-role
// documents in each cleanup collection (batched per collection).
func (d *Deprovisioner) Run(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{Collections: make(map[string]int64, len(cleanupCollections))}

	token := ""
	for {
		page, err := d.ids.List(ctx, deprovisionPageSize, token)
		if err != nil {
			return nil, fmt.Errorf("listing identity records: %w", err)
		}
		for _, rec := range page.Records {
			if rec.Claims.Role != identity.RoleStudent {
				continue
			}
			if err := d.ids.Delete(ctx, rec.UID); err != nil {
				return nil, fmt.Errorf("deleting identity %s: %w", rec.UID, err)
			}
			report.AuthUsers++
			d.logger.Info("identity record deleted", slog.String("uid", rec.UID), slog.String("email", rec.Email))
		}
		if page.Token == "" {
			break
		}
		token = page.Token
	}

	for _, collection := range cleanupCollections {
		n, err := d.docs.DeleteByRole(ctx, collection, identity.RoleStudent)
		if err != nil {
			return nil, fmt.Errorf("deleting student documents from %s: %w", collection, err)
		}
		report.Collections[collection] = n
	}

	return report, nil
}
