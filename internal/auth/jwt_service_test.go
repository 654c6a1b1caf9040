package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, clock func() time.Time) *JWTService {
	t.Helper()

	svc, err := NewJWTService(JWTConfig{
		Secret:         "test-secret",
		Issuer:         "mailforge",
		AccessTokenTTL: time.Hour,
		Clock:          clock,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(t, nil)

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:         "user-1",
		OrganizationID: "org-1",
		Role:           "admin",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "org-1", claims.OrganizationID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "mailforge", claims.Issuer)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return current })

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:         "user-1",
		OrganizationID: "org-1",
		Role:           "user",
	})
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	svc := newTestService(t, nil)

	other, err := NewJWTService(JWTConfig{Secret: "different-secret"})
	require.NoError(t, err)

	token, err := other.GenerateAccessToken(AccessTokenInput{
		UserID:         "user-1",
		OrganizationID: "org-1",
	})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestGenerateRequiresIdentity(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.GenerateAccessToken(AccessTokenInput{OrganizationID: "org-1"})
	require.Error(t, err)

	_, err = svc.GenerateAccessToken(AccessTokenInput{UserID: "user-1"})
	require.Error(t, err)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
