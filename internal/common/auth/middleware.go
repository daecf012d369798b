package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "huusy-marketplace/internal/common/errors"
)

type claimsKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims placed by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// Middleware rejects requests without a valid "Bearer <token>" header.
func Middleware(v *Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apperrors.WriteError(w, http.StatusUnauthorized,
					apperrors.NewAuthenticationError("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apperrors.WriteError(w, http.StatusUnauthorized,
					apperrors.NewAuthenticationError("authorization header must use Bearer scheme"))
				return
			}

			claims, err := v.ParseToken(strings.TrimSpace(parts[1]))
			if err != nil {
				apperrors.WriteError(w, http.StatusUnauthorized, apperrors.NewAuthenticationError(err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only requests whose claims carry one of roles.
// It must run after Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apperrors.WriteError(w, http.StatusUnauthorized,
					apperrors.NewAuthenticationError("missing claims"))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			apperrors.WriteError(w, http.StatusForbidden,
				apperrors.New(apperrors.ErrCodeForbidden, "Insufficient role", fmt.Errorf("role %q", claims.Role)))
		})
	}
}
