package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireIdentity validates the bearer token and stores the caller identity
// in the request context.
func (m *AuthMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeUnauthorized(w, "missing authorization header")
			return
		}

		claims, err := m.authSvc.ValidateToken(token)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, claims.Identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeUnauthorized emits the same JSON error envelope the handlers use.
// The handler package imports this one, so the helper is mirrored here
// instead of shared.
func writeUnauthorized(w http.ResponseWriter, message string) {
	structured := apperr.New(apperr.CodeUnauthorized, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(structured.Code))
	json.NewEncoder(w).Encode(map[string]*apperr.Error{"error": structured})
}

// GetIdentity extracts the caller identity from context.
func GetIdentity(ctx context.Context) string {
	if v := ctx.Value(identityKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
