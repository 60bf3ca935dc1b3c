package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluesumk/mjjf/internal/apperr"
	"github.com/bluesumk/mjjf/internal/service"
)

func TestRequireIdentity(t *testing.T) {
	authSvc := service.NewAuthService("test-secret")
	mw := NewAuthMiddleware(authSvc)

	var sawIdentity string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawIdentity = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := mw.RequireIdentity(next)

	t.Run("valid token passes the identity through", func(t *testing.T) {
		login, err := authSvc.Login()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, login.Identity, sawIdentity)
	})

	rejected := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "malformed token", header: "Bearer not-a-jwt"},
		{name: "wrong scheme", header: "Basic abc"},
	}

	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			// Same envelope as the handlers' writeError, JSON all the way.
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]*apperr.Error
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body["error"])
			assert.Equal(t, apperr.CodeUnauthorized, body["error"].Code)
		})
	}
}
