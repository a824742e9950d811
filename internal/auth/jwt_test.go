package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/config"
)

type memBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Time
	err  error
}

func newMemBlacklist() *memBlacklist { return &memBlacklist{jtis: map[string]time.Time{}} }

func (m *memBlacklist) Add(_ context.Context, jti string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[jti] = exp
	return nil
}

func (m *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jtis[jti]
	return ok, nil
}

var testAuth = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Minute}

func TestGenerateAndValidate(t *testing.T) {
	tok, err := GenerateToken(7, "alice", testAuth)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), tok, testAuth.JWTSecretKey, newMemBlacklist())
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
	assert.False(t, claims.HasRole(RoleCatalogPublisher))
}

func TestGenerateToken_Roles(t *testing.T) {
	tok, err := GenerateToken(9, "editor", testAuth, RoleCatalogPublisher)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), tok, testAuth.JWTSecretKey, nil)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleCatalogPublisher))
	assert.False(t, claims.HasRole("admin"))
}

func TestValidateToken_Rejects(t *testing.T) {
	tok, err := GenerateToken(7, "alice", testAuth)
	require.NoError(t, err)

	expired, err := GenerateToken(7, "alice", config.AuthConfig{JWTSecretKey: testAuth.JWTSecretKey, JWTExpiry: -time.Minute})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		key   string
	}{
		{"wrong key", tok, "other-secret"},
		{"expired", expired, testAuth.JWTSecretKey},
		{"garbage", "not-a-jwt", testAuth.JWTSecretKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(context.Background(), tt.token, tt.key, nil)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestRevokeToken(t *testing.T) {
	bl := newMemBlacklist()
	tok, err := GenerateToken(3, "bob", testAuth)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), tok, testAuth.JWTSecretKey, bl)
	require.NoError(t, err)
	require.NoError(t, RevokeToken(context.Background(), claims, bl))

	_, err = ValidateToken(context.Background(), tok, testAuth.JWTSecretKey, bl)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestValidateToken_BlacklistUnavailable(t *testing.T) {
	bl := newMemBlacklist()
	bl.err = errors.New("redis down")
	tok, err := GenerateToken(3, "bob", testAuth)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), tok, testAuth.JWTSecretKey, bl)
	assert.Error(t, err)
}
