package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/identity"
)

// IdentityRepository implements identity.Store on top of GORM. Passwords
// are bcrypt-hashed on the way in and never returned.
type IdentityRepository struct {
	db         *gorm.DB
	bcryptCost int
}

// NewIdentityRepository creates an IdentityRepository. cost <= 0 falls
// back to bcrypt.DefaultCost.
func NewIdentityRepository(db *gorm.DB, cost int) *IdentityRepository {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &IdentityRepository{db: db, bcryptCost: cost}
}

// GetByEmail returns identity.ErrUserNotFound when no record has the email.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*identity.Record, error) {
	var m IdentityModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity by email: %w", err)
	}
	return toIdentityDomain(&m)
}

// GetByUID retrieves an identity by uid.
func (r *IdentityRepository) GetByUID(ctx context.Context, uid string) (*identity.Record, error) {
	var m IdentityModel
	err := r.db.WithContext(ctx).First(&m, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity %s: %w", uid, err)
	}
	return toIdentityDomain(&m)
}

// Create stores a new identity with a hashed password and empty claims,
// and returns the assigned uid.
func (r *IdentityRepository) Create(ctx context.Context, email, password, displayName string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	m := IdentityModel{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Claims:       "{}",
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return "", fmt.Errorf("creating identity %q: %w", email, err)
	}
	return m.UID, nil
}

// SetClaims replaces the identity's claims bag wholesale.
func (r *IdentityRepository) SetClaims(ctx context.Context, uid string, claims identity.Claims) error {
	raw, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encoding claims: %w", err)
	}
	res := r.db.WithContext(ctx).
		Model(&IdentityModel{}).
		Where("uid = ?", uid).
		Update("claims", string(raw))
	if res.Error != nil {
		return fmt.Errorf("setting claims for %s: %w", uid, res.Error)
	}
	if res.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// List pages through identities ordered by uid. The continuation token is
// the last uid of the previous page; "" starts from the top.
func (r *IdentityRepository) List(ctx context.Context, pageSize int, pageToken string) (*identity.Page, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	q := r.db.WithContext(ctx).Order("uid ASC").Limit(pageSize)
	if pageToken != "" {
		q = q.Where("uid > ?", pageToken)
	}
	var models []IdentityModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}
	page := &identity.Page{Records: make([]identity.Record, 0, len(models))}
	for i := range models {
		rec, err := toIdentityDomain(&models[i])
		if err != nil {
			return nil, err
		}
		page.Records = append(page.Records, *rec)
	}
	if len(models) == pageSize {
		page.Token = models[len(models)-1].UID
	}
	return page, nil
}

// Delete removes an identity by uid.
func (r *IdentityRepository) Delete(ctx context.Context, uid string) error {
	res := r.db.WithContext(ctx).Delete(&IdentityModel{}, "uid = ?", uid)
	if res.Error != nil {
		return fmt.Errorf("deleting identity %s: %w", uid, res.Error)
	}
	if res.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// VerifyPassword checks the password against the stored bcrypt hash and
// returns identity.ErrInvalidCredentials on mismatch or a disabled account.
func (r *IdentityRepository) VerifyPassword(ctx context.Context, email, password string) (*identity.Record, error) {
	var m IdentityModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity by email: %w", err)
	}
	if m.Disabled {
		return nil, identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, identity.ErrInvalidCredentials
	}
	return toIdentityDomain(&m)
}

func toIdentityDomain(m *IdentityModel) (*identity.Record, error) {
	var claims identity.Claims
	if m.Claims != "" {
		if err := json.Unmarshal([]byte(m.Claims), &claims); err != nil {
			return nil, fmt.Errorf("decoding claims for %s: %w", m.UID, err)
		}
	}
	return &identity.Record{
		UID:         m.UID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Claims:      claims,
		Disabled:    m.Disabled,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}
