package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/microarena/api/internal/model"
)

// UserIDHeader names the calling user. Authentication happens upstream of
// this service; the engine trusts the gateway to set it.
const UserIDHeader = "X-User-ID"

// Identity stores the X-User-ID header in the request context. Requests
// without it continue anonymously.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			model.NewUnidentifiedError("missing " + UserIDHeader + " header").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a context carrying the calling user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
