package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-identity-api/internal/domain"
	jwtinfra "github.com/go-identity-api/internal/infrastructure/jwt"
)

type contextKey string

const AccountKey contextKey = "account"

// AccountGetter loads an account by id for the auth guard.
type AccountGetter interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

// Auth returns middleware that validates the Bearer token and injects the
// authenticated account into context. Beyond signature and expiry, the
// presented token must equal the account's currently stored session token:
// once a logout clears it, the same signed token is rejected even while
// cryptographically valid. Every failure yields the same 401.
func Auth(provider *jwtinfra.Provider, accounts AccountGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			a, err := accounts.Get(r.Context(), claims.AccountID)
			if err != nil || a.SessionToken != tokenStr {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), AccountKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext extracts the authenticated account from the request context.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	a, ok := ctx.Value(AccountKey).(*domain.Account)
	return a, ok
}
