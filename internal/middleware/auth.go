package middleware

import (
	"context"
	"it-asset-tracker/internal/auth"
	"it-asset-tracker/internal/model"
	apperrors "it-asset-tracker/pkg/errors"
	"net/http"
	"strings"
)

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the token claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// AuthMiddleware verifies bearer tokens and enforces roles.
type AuthMiddleware struct {
	tokens *auth.TokenManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate rejects requests without a valid bearer token.
func (am *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, apperrors.UnauthorizedError("missing or malformed bearer token"))
			return
		}

		claims, err := am.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, apperrors.UnauthorizedError("invalid or expired token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole allows only authenticated users whose role is at least minimum.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, apperrors.UnauthorizedError("authentication required"))
				return
			}
			if !model.RoleAtLeast(claims.Role, minimum) {
				writeError(w, apperrors.ForbiddenError(minimum+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
