// Package docstore defines the document-store capability: denormalized
// per-role account documents keyed by identity uid, kept in sync by the
// provisioner and pruned by the deprovisioner.
package docstore

import (
	"context"
	"errors"
	"time"
)

// Collections mirrored from the identity store, one per role plus the
// legacy users collection.
const (
	CollectionUsers    = "users"
	CollectionServants = "servants"
	CollectionAdmins   = "admins"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a per-role account record. CreatedAt is set once on first
// write; UpdatedAt is refreshed on every sync.
type Document struct {
	UID       string    `json:"uid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ClassID   *int      `json:"class_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the document-store contract. Documents are keyed by
// (collection, uid) so re-provisioning is idempotent.
type Store interface {
	// Set merge-upserts the document: all fields are written, except that
	// an existing document keeps its original CreatedAt.
	Set(ctx context.Context, collection string, doc *Document) error
	Get(ctx context.Context, collection, uid string) (*Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	// DeleteByRole removes every document in the collection whose role
	// field matches, all in one batch, and returns the count removed.
	DeleteByRole(ctx context.Context, collection, role string) (int64, error)
}
