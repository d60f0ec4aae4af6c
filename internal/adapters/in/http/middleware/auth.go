// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// TokenVerifier verifies a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// typed context keys (no string keys)
type ctxKey struct{ name string }

var (
	ctxKeyUID       = ctxKey{name: "uid"}
	ctxKeyRequestID = ctxKey{name: "requestId"}
)

// WithUID returns ctx carrying uid.
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUID, strings.TrimSpace(uid))
}

// CurrentUserUID returns the authenticated Firebase UID.
func CurrentUserUID(r *http.Request) (string, bool) {
	u, ok := r.Context().Value(ctxKeyUID).(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}
