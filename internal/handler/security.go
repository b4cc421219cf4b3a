package handler

import (
	"net/http"

	"github.com/xenking/orderdesk/internal/domain/auth"
)

// APIKeyHeader carries the administrator API key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests without a valid admin key with 401. The
// authenticated key is stored in the request context.
func RequireAPIKey(a *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, err := a.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
			if err != nil {
				fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithKey(r.Context(), info)))
		})
	}
}
