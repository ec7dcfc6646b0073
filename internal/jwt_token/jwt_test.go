package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/reconcile/models"
	dErrors "storefront/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)

func testSession(expiresAt time.Time) *models.Session {
	return &models.Session{
		ID:        "provider-session",
		AccountID: "acc-1",
		Email:     "jane@example.com",
		ExpiresAt: expiresAt,
	}
}

func Test_IssueSessionToken(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := jwtService.IssueSessionToken(testSession(now.Add(24*time.Hour)), "profile-1", now, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, now.Add(time.Hour), expiresAt, time.Second)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "acc-1", claims.Subject)
	assert.Equal(t, "provider-session", claims.ProviderSessionID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "profile-1", claims.ProfileID)
	assert.NotEmpty(t, claims.ID)
}

func Test_IssueSessionToken_CappedByProviderSession(t *testing.T) {
	now := time.Now()
	providerExpiry := now.Add(10 * time.Minute)

	_, expiresAt, err := jwtService.IssueSessionToken(testSession(providerExpiry), "", now, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, providerExpiry, expiresAt, time.Second)
}

func Test_IssueSessionToken_RequiresSession(t *testing.T) {
	_, _, err := jwtService.IssueSessionToken(nil, "", time.Now(), time.Hour)
	assert.Error(t, err)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	token, _, err := jwtService.IssueSessionToken(testSession(time.Time{}), "", past, time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "other-audience")
	token, _, err := other.IssueSessionToken(testSession(time.Time{}), "", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{AccountID: "acc-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_JWTServiceAdapter(t *testing.T) {
	token, _, err := jwtService.IssueSessionToken(testSession(time.Time{}), "profile-1", time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "profile-1", claims.ProfileID)
	assert.NotEmpty(t, claims.JTI)
}
