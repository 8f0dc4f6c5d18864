package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jkaninda/ligi/internal/identity"
)

func servantRecord() *identity.Record {
	classID := 3
	return &identity.Record{
		UID:         "uid-servant",
		Email:       "servantEdady3@e3dady.com",
		DisplayName: "servantEdady3",
		Claims:      identity.Claims{Role: identity.RoleServant, ClassID: &classID},
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(servantRecord())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	p, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verifying token: %v", err)
	}
	if p.UID != "uid-servant" || p.Email != "servantEdady3@e3dady.com" || p.Name != "servantEdady3" {
		t.Errorf("unexpected principal: %+v", p)
	}
	if p.Role != identity.RoleServant {
		t.Errorf("expected servant role, got %q", p.Role)
	}
	if p.ClassID == nil || *p.ClassID != 3 {
		t.Errorf("expected class id 3, got %v", p.ClassID)
	}
}

func TestTokenService_AdminHasNoClassID(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(&identity.Record{
		UID:         "uid-admin",
		Email:       "adminEdady1@e3dady.com",
		DisplayName: "adminEdady1",
		Claims:      identity.Claims{Role: identity.RoleAdmin},
	})
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	p, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verifying token: %v", err)
	}
	if p.Role != identity.RoleAdmin {
		t.Errorf("expected admin role, got %q", p.Role)
	}
	if p.ClassID != nil {
		t.Errorf("admin principal must not carry a class id, got %d", *p.ClassID)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuing := NewTokenService("secret-a", time.Hour)
	verifying := NewTokenService("secret-b", time.Hour)

	token, err := issuing.Issue(servantRecord())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	if _, err := verifying.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue(servantRecord())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(30 * time.Minute) }
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("token must still verify before expiry: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenService_Tampered(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue(servantRecord())
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three token segments, got %d", len(parts))
	}
	tampered := parts[0] + ".eyJzdWIiOiJ1aWQtb3RoZXIifQ." + parts[2]
	if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered payload, got %v", err)
	}

	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage input, got %v", err)
	}
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService("test-secret", 0)
	if svc.ttl != 12*time.Hour {
		t.Errorf("expected 12h default ttl, got %v", svc.ttl)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{"servant", "admin"} {
		if !validRole(role) {
			t.Errorf("role %q must be valid", role)
		}
	}
	for _, role := range []string{"", "student", "Servant", "superadmin"} {
		if validRole(role) {
			t.Errorf("role %q must not be valid", role)
		}
	}
}
