package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/auth"
)

// TokenValidator checks a session token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests without a valid, unrevoked token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "AuthMiddleware.RequireAuth"

		token := extractToken(c)
		if token == "" {
			shared.Fail(c, op, apperrors.Unauthorized(op, "missing authorization token"))
			return
		}

		claims, err := m.validator.Validate(c.Request.Context(), token)
		if err != nil {
			shared.Fail(c, op, err)
			return
		}

		c.Set(shared.ClaimsKey, claims)
		c.Set(shared.UsernameKey, claims.Username)
		c.Next()
	}
}

// RequirePermission passes profiles that hold the system permission code.
// Admin profiles pass every guard. An empty code only requires authentication.
func (m *AuthMiddleware) RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "AuthMiddleware.RequirePermission"

		claims, ok := ClaimsFrom(c)
		if !ok {
			shared.Fail(c, op, apperrors.Unauthorized(op, "user not authenticated"))
			return
		}
		if code != "" && !claims.Profile.HasSystemPermission(code) {
			shared.Fail(c, op, apperrors.Forbidden(op, "insufficient permissions"))
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequireAuth.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(shared.ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// extractToken reads a bearer token from the Authorization header or, for
// websocket clients that cannot set headers, the token query parameter.
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}
