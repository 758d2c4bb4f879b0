package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "floodrelief/pkg/domain"
	dErrors "floodrelief/pkg/domain-errors"
)

func newService() *JWTService {
	return NewJWTService("test-signing-key", "floodrelief-test")
}

func Test_IssueSessionToken_NoExpiry(t *testing.T) {
	svc := newService()
	sessionID := id.NewSessionID()

	token, err := svc.IssueSessionToken(sessionID, 7, 0)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "7", claims.Subject)
	assert.Nil(t, claims.ExpiresAt, "sessions without ttl carry no exp")
}

func Test_IssueSessionToken_WithTTL(t *testing.T) {
	svc := newService()
	token, err := svc.IssueSessionToken(id.NewSessionID(), 7, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_Expired(t *testing.T) {
	svc := newService()
	token, err := svc.IssueSessionToken(id.NewSessionID(), 7, time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func Test_ValidateToken_Rejects(t *testing.T) {
	svc := newService()

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("invalid-token-string")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewJWTService("another-key", "floodrelief-test")
		token, err := other.IssueSessionToken(id.NewSessionID(), 1, 0)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "someone-else")
		token, err := other.IssueSessionToken(id.NewSessionID(), 1, 0)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: id.NewSessionID().String()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("missing sid", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "floodrelief-test"},
		}).SignedString([]byte("test-signing-key"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func Test_Adapter_ParsesSessionID(t *testing.T) {
	svc := newService()
	sessionID := id.NewSessionID()
	token, err := svc.IssueSessionToken(sessionID, 3, 0)
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.NotEmpty(t, claims.JTI)
}
