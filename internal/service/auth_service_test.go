package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/config"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
)

func newAuthServiceForTest(ttl time.Duration) *AuthService {
	cfg := &config.JWTConfig{
		Secret:   "test-secret-do-not-use",
		Issuer:   "neurallempire-api",
		TokenTTL: ttl,
	}
	return NewAuthService(memstorage.NewUserRepositoryMock(), cfg, zap.NewNop())
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc := newAuthServiceForTest(time.Hour)
	ctx := context.Background()

	token, err := svc.Login(ctx, "admin", "adminpassword")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "neurallempire-api", claims.Issuer)
	assert.NotEmpty(t, claims.Subject)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthServiceForTest(time.Hour)
	ctx := context.Background()

	_, err := svc.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "adminpassword")
	assert.ErrorIs(t, err, ierr.ErrInvalidCredentials)
}

func TestAuthServiceValidateRejectsGarbage(t *testing.T) {
	svc := newAuthServiceForTest(time.Hour)

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestAuthServiceValidateRejectsExpiredToken(t *testing.T) {
	issuer := newAuthServiceForTest(-time.Minute)
	token, err := issuer.Login(context.Background(), "admin", "adminpassword")
	require.NoError(t, err)

	validator := newAuthServiceForTest(time.Hour)
	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}

func TestAuthServiceValidateRejectsForeignSecret(t *testing.T) {
	issuer := newAuthServiceForTest(time.Hour)
	token, err := issuer.Login(context.Background(), "admin", "adminpassword")
	require.NoError(t, err)

	other := NewAuthService(memstorage.NewUserRepositoryMock(), &config.JWTConfig{
		Secret:   "a-different-secret",
		Issuer:   "neurallempire-api",
		TokenTTL: time.Hour,
	}, zap.NewNop())

	_, err = other.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ierr.ErrInvalidToken)
}
