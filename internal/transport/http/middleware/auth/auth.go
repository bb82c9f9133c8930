// Package auth resolves the authenticated principal forwarded by the API
// gateway. Token issuance and validation happen upstream; this service only
// trusts the identity headers the gateway injects after authentication.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/google/uuid"
)

const (
	headerUserID    = "X-User-Id"
	headerEmail     = "X-User-Email"
	headerFirstName = "X-User-First-Name"
	headerLastName  = "X-User-Last-Name"
	headerAddress   = "X-User-Address"
)

type ctxKey struct{}

// Middleware rejects requests without a resolvable principal.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(headerUserID))
		if err != nil {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)

			return
		}

		p := principal.Principal{
			ID:        userID,
			Email:     r.Header.Get(headerEmail),
			FirstName: r.Header.Get(headerFirstName),
			LastName:  r.Header.Get(headerLastName),
		}
		if raw := r.Header.Get(headerAddress); raw != "" && json.Valid([]byte(raw)) {
			p.DefaultAddress = json.RawMessage(raw)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

// FromContext returns the principal resolved by Middleware.
func FromContext(ctx context.Context) (principal.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(principal.Principal)

	return p, ok
}
