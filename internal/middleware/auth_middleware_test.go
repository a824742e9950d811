package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/auth"
	"movie-social/internal/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "k", JWTExpiry: time.Minute}
	tok, err := auth.GenerateToken(11, "carol", cfg)
	require.NoError(t, err)

	var seen uint
	h := AuthMiddleware(cfg.JWTSecretKey, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		claims, ok := GetClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "carol", claims.Username)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + tok, http.StatusNoContent},
		{"lowercase scheme", "bearer " + tok, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + tok, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
	assert.Equal(t, uint(11), seen)
}

func TestRequireRole(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "k", JWTExpiry: time.Minute}
	plain, err := auth.GenerateToken(11, "carol", cfg)
	require.NoError(t, err)
	editor, err := auth.GenerateToken(12, "editor", cfg, auth.RoleCatalogPublisher)
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := AuthMiddleware(cfg.JWTSecretKey, nil)(RequireRole(auth.RoleCatalogPublisher)(ok))

	tests := []struct {
		name string
		tok  string
		want int
		code string
	}{
		{"publisher", editor, http.StatusNoContent, ""},
		{"ordinary user", plain, http.StatusForbidden, "forbidden"},
		{"anonymous", "", http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.tok != "" {
				req.Header.Set("Authorization", "Bearer "+tt.tok)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
			}
		})
	}

	// 未经过 AuthMiddleware 时没有 claims
	rec := httptest.NewRecorder()
	RequireRole(auth.RoleCatalogPublisher)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
