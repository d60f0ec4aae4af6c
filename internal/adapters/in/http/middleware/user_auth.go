// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DevAvatarHeader carries the uid when auth is disabled (local dev only).
const DevAvatarHeader = "X-Avatar-Id"

// UserAuthMiddleware verifies the Firebase ID token (buyer side) and stores the uid in context.
// The uid doubles as the avatarId that keys the cart document.
type UserAuthMiddleware struct {
	Verifier TokenVerifier

	// Disabled trusts DevAvatarHeader instead of a bearer token.
	Disabled bool

	Logger *zap.Logger
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight carries no credentials
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if m.Disabled {
			uid := strings.TrimSpace(r.Header.Get(DevAvatarHeader))
			if uid == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized: missing "+DevAvatarHeader)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUID(r.Context(), uid)))
			return
		}

		if m.Verifier == nil {
			// fail closed so wiring bugs are obvious
			writeError(w, http.StatusServiceUnavailable, "user auth middleware not initialized")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized: empty bearer token")
			return
		}

		token, err := m.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			m.logger().Info("id token rejected", zap.String("requestId", RequestIDFrom(r.Context())), zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			writeError(w, http.StatusUnauthorized, "invalid uid in token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUID(r.Context(), uid)))
	})
}

func (m *UserAuthMiddleware) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
