package httpapi

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jkaninda/okapi"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
)

// LoginRequest is the JSON body for POST /api/login. Username may be a
// bare roster username or a full email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUser is the authenticated user's profile, without credentials.
type LoginUser struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	ClassID *int   `json:"class_id,omitempty"`
}

// LoginResponse is the JSON response for POST /api/login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

func (g *Gateway) handleLogin(c *okapi.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return c.AbortBadRequest("username and password are required")
	}
	if g.ids == nil || g.tokens == nil {
		return c.AbortServiceUnavailable("Auth backend unavailable")
	}

	email := req.Username
	if !strings.Contains(email, "@") && g.config.EmailDomain != "" {
		email = email + "@" + g.config.EmailDomain
	}

	rec, err := g.ids.VerifyPassword(c.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrInvalidCredentials) {
			if g.config.Metrics != nil {
				g.config.Metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			}
			return c.AbortUnauthorized("Invalid credentials")
		}
		return g.serverError(c, "verifying credentials", err)
	}

	token, err := g.tokens.Issue(rec)
	if err != nil {
		return g.serverError(c, "issuing token", err)
	}

	if g.config.Metrics != nil {
		g.config.Metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	}
	g.logger.Info("login",
		slog.String("uid", rec.UID),
		slog.String("role", rec.Claims.Role),
	)

	return c.OK(LoginResponse{
		Token: token,
		User: LoginUser{
			UID:     rec.UID,
			Name:    rec.DisplayName,
			Email:   rec.Email,
			Role:    rec.Claims.Role,
			ClassID: rec.Claims.ClassID,
		},
	})
}

// AccountResponse is one provisioned account document.
type AccountResponse struct {
	UID       string    `json:"uid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ClassID   *int      `json:"class_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// handleAccounts lists the account documents of one role collection.
func (g *Gateway) handleAccounts(c *okapi.Context) error {
	var collection string
	switch role := c.Param("role"); role {
	case identity.RoleServant:
		collection = docstore.CollectionServants
	case identity.RoleAdmin:
		collection = docstore.CollectionAdmins
	default:
		return c.AbortBadRequest("role must be \"servant\" or \"admin\"")
	}

	docs, err := g.store.Documents().List(c.Context(), collection)
	if err != nil {
		return g.serverError(c, "listing accounts", err)
	}

	out := make([]AccountResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, AccountResponse{
			UID:       d.UID,
			Username:  d.Username,
			Email:     d.Email,
			Role:      d.Role,
			ClassID:   d.ClassID,
			Status:    d.Status,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return c.OK(out)
}
