package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jkaninda/ligi/internal/identity"
)

const issuer = "ligi"

// ErrInvalidToken is returned when a bearer credential fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// tokenClaims is the JWT claims payload carried by bearer tokens.
// ClassID is present iff the identity's claims carry it.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	ClassID *int   `json:"class_id,omitempty"`
}

// TokenService signs and verifies HS256 bearer tokens whose claims mirror
// the identity store's claims bag.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. ttl <= 0 defaults to 12h.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed bearer token for the identity record.
func (t *TokenService) Issue(rec *identity.Record) (string, error) {
	now := t.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   rec.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email:   rec.Email,
		Name:    rec.DisplayName,
		Role:    rec.Claims.Role,
		ClassID: rec.Claims.ClassID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token and returns the principal it
// carries. Any parse or validation failure maps to ErrInvalidToken.
func (t *TokenService) Verify(tokenString string) (*Principal, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return t.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(func() time.Time { return t.now() }))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return &Principal{
		UID:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    claims.Role,
		ClassID: claims.ClassID,
	}, nil
}
