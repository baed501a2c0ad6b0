package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/config"
)

func newTestAuth() *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:     "test-secret",
		HostUsername:  "admin",
		HostPassword:  "s3cret",
		AdminTokenTTL: time.Hour,
	})
}

func TestLogin(t *testing.T) {
	auth := newTestAuth()

	resp, err := auth.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Regexp(t, `^admin_[0-9a-f]{8}$`, resp.AdminID)

	claims, err := auth.ValidateAdminToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.AdminID, claims.AdminID)

	_, err = auth.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRespondentTokenIsNotAnAdminToken(t *testing.T) {
	auth := newTestAuth()

	token, err := auth.GenerateRespondentToken("session-1", time.Minute)
	require.NoError(t, err)

	claims, err := auth.ValidateRespondentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)

	_, err = auth.ValidateAdminToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejects(t *testing.T) {
	auth := newTestAuth()

	expired, err := auth.GenerateRespondentToken("session-1", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateRespondentToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(&config.Config{JWTSecret: "another-secret"})
	foreign, err := other.GenerateRespondentToken("session-1", time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateRespondentToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ValidateAdminToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthDefaults(t *testing.T) {
	auth := NewAuthService(&config.Config{})
	_, err := auth.Login(defaultAdminUsername, defaultAdminPassword)
	assert.NoError(t, err)
}
