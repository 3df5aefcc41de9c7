package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
// It is thin and delegates token validation to AuthService.
type Middleware struct {
	authService AuthService
	adminRole   string
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware. Tokens whose roles claim
// contains adminRole authenticate as administrators.
func NewMiddleware(authService AuthService, adminRole string, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		adminRole:   adminRole,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and resolves the caller.
// Sets claims, token and actor in context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		actor, err := claims.Actor(m.adminRole)
		if err != nil {
			m.logger.Debug("Token has no usable subject", zap.Error(err))
			m.unauthorized(w, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		ctx = WithActor(ctx, actor)
		next(w, r.WithContext(ctx))
	}
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
