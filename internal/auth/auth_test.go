package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestService(t *testing.T) *Service {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "1h")
	s, err := NewService()
	assert.NoError(t, err)
	return s
}

func TestGenerateAndValidateToken(t *testing.T) {
	s := newTestService(t)

	token, err := s.GenerateToken("ops@example.com", "admin")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := s.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Greater(t, claims.Exp, time.Now().Unix())
}

func TestValidateTokenWithBearerPrefix(t *testing.T) {
	s := newTestService(t)
	token, err := s.GenerateToken("ops@example.com", "viewer")
	assert.NoError(t, err)

	claims, err := s.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
	assert.Equal(t, "viewer", claims.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := newTestService(t)
	_, err := s.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "-1h")
	s, err := NewService()
	assert.NoError(t, err)

	token, err := s.GenerateToken("ops@example.com", "admin")
	assert.NoError(t, err)
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	s := newTestService(t)
	hash, err := s.HashPassword("hunter22")
	assert.NoError(t, err)
	assert.True(t, s.CheckPassword("hunter22", hash))
	assert.False(t, s.CheckPassword("hunter23", hash))
}

func TestExtractTokenFromHeader(t *testing.T) {
	s := newTestService(t)

	token, err := s.ExtractTokenFromHeader("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = s.ExtractTokenFromHeader("")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.ExtractTokenFromHeader("Basic abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.ExtractTokenFromHeader("Bearer")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
