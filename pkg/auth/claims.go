// Package auth provides JWT-based authentication for projectvault.
// It validates tokens issued by the identity provider using JWKS endpoints
// and turns them into the Actor that services authorize against.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
	// ActorKey is the context key for storing the resolved Actor.
	ActorKey contextKey = "actor"
)

// ErrMissingSubject is returned when a token carries no subject.
var ErrMissingSubject = errors.New("missing subject in token")

// Claims represents the JWT claims issued by the identity provider.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds the profile claims used to provision users.
type Claims struct {
	jwt.RegisteredClaims
	Name              string   `json:"name,omitempty"`
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Email             string   `json:"email,omitempty"`
	Roles             []string `json:"roles,omitempty"`
}

// HasRole reports whether role appears in the roles claim.
func (c *Claims) HasRole(role string) bool {
	if role == "" {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserID returns the user UUID for the token subject.
// Subjects that are not UUIDs map to a stable name-based UUID scoped by issuer.
func (c *Claims) UserID() (uuid.UUID, error) {
	if c.Subject == "" {
		return uuid.Nil, ErrMissingSubject
	}
	if id, err := uuid.Parse(c.Subject); err == nil {
		return id, nil
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.Issuer+"#"+c.Subject)), nil
}

// Username returns the login handle: preferred_username, else the local part
// of the email, else the subject.
func (c *Claims) Username() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	if local, _, ok := strings.Cut(c.Email, "@"); ok && local != "" {
		return local
	}
	return c.Subject
}

// DisplayName returns the name claim, falling back to the username.
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Username()
}

// Actor converts the claims into the caller identity used by services.
func (c *Claims) Actor(adminRole string) (models.Actor, error) {
	id, err := c.UserID()
	if err != nil {
		return models.Actor{}, err
	}
	return models.Actor{
		UserID:   id,
		UserName: c.DisplayName(),
		Username: c.Username(),
		IsAdmin:  c.HasRole(adminRole),
	}, nil
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
// Returns empty string and false if token is not present.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
