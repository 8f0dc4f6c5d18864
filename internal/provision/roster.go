// Package provision implements batch account provisioning against the
// identity and document stores: a fixed roster is ensured to exist, claims
// are stamped, and per-role documents are mirrored. A companion
// deprovisioner removes stale student-role accounts across both stores.
package provision

import (
	"fmt"

	"github.com/jkaninda/ligi/internal/config"
	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
)

// Spec is one roster entry. Generated deterministically from the roster
// configuration; immutable once generated.
type Spec struct {
	Role       string
	Username   string
	Email      string
	ClassID    *int // Present iff Role is servant.
	Collection string
}

// BuildRoster expands the roster configuration into the full ordered list
// of account specifications: servants 1..N, then admins 1..M.
func BuildRoster(cfg *config.RosterConfig) []Spec {
	specs := make([]Spec, 0, cfg.Servants()+cfg.Admins())

	classID := cfg.DefaultClassID()
	for i := 1; i <= cfg.Servants(); i++ {
		username := fmt.Sprintf("%s%d", cfg.ServantPrefix(), i)
		cid := classID
		specs = append(specs, Spec{
			Role:       identity.RoleServant,
			Username:   username,
			Email:      fmt.Sprintf("%s@%s", username, cfg.Domain()),
			ClassID:    &cid,
			Collection: docstore.CollectionServants,
		})
	}
	for i := 1; i <= cfg.Admins(); i++ {
		username := fmt.Sprintf("%s%d", cfg.AdminPrefix(), i)
		specs = append(specs, Spec{
			Role:       identity.RoleAdmin,
			Username:   username,
			Email:      fmt.Sprintf("%s@%s", username, cfg.Domain()),
			Collection: docstore.CollectionAdmins,
		})
	}
	return specs
}

// claims builds the claims bag for a specification. ClassID is carried for
// servants only — admins get no class_id key at all.
func (s Spec) claims() identity.Claims {
	c := identity.Claims{Role: s.Role}
	if s.Role == identity.RoleServant {
		c.ClassID = s.ClassID
	}
	return c
}
