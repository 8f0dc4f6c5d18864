// Package identity defines the identity-store capability: user records with
// credentials and an attached claims bag used for authorization decisions.
// The claims bag is the sole authorization source of truth read by the
// request gate; the provisioner is the only writer during provisioning.
package identity

import (
	"context"
	"errors"
	"time"
)

// Roles carried in claims. Anything else is treated as no role.
const (
	RoleServant = "servant"
	RoleAdmin   = "admin"
	RoleStudent = "student" // Legacy role removed by the deprovisioner.
)

// ErrUserNotFound is returned by lookups that miss. The provisioner treats
// it as the signal to create; any other lookup error is a real failure.
var ErrUserNotFound = errors.New("identity: user not found")

// ErrInvalidCredentials is returned when password verification fails.
var ErrInvalidCredentials = errors.New("identity: invalid credentials")

// Claims is the authorization claims bag attached to a record.
// ClassID is present iff the role is servant — absence, not null, is the
// contract for admins.
type Claims struct {
	Role    string `json:"role"`
	ClassID *int   `json:"class_id,omitempty"`
}

// Record is a stored identity. PasswordHash never leaves the store.
type Record struct {
	UID         string
	Email       string
	DisplayName string
	Claims      Claims
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page is one page of a listing, with a continuation token.
// Token is empty when the listing is exhausted.
type Page struct {
	Records []Record
	Token   string
}

// Store is the identity-store contract.
type Store interface {
	// GetByEmail returns ErrUserNotFound when no record has the email.
	GetByEmail(ctx context.Context, email string) (*Record, error)
	GetByUID(ctx context.Context, uid string) (*Record, error)
	// Create stores a new record with a bcrypt-hashed password and returns
	// its store-assigned uid.
	Create(ctx context.Context, email, password, displayName string) (string, error)
	// SetClaims replaces the record's claims bag wholesale.
	SetClaims(ctx context.Context, uid string, claims Claims) error
	// List pages through all records. pageToken "" starts from the top.
	List(ctx context.Context, pageSize int, pageToken string) (*Page, error)
	Delete(ctx context.Context, uid string) error
	// VerifyPassword returns the record on success, ErrInvalidCredentials
	// on mismatch, ErrUserNotFound on a missing email.
	VerifyPassword(ctx context.Context, email, password string) (*Record, error)
}
