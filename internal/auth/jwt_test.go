package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "edusuite")

	token, err := svc.GenerateToken("staff-7", "Ms. Rao")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-7", claims.Subject)
	assert.Equal(t, "Ms. Rao", claims.Name)
	assert.Equal(t, "edusuite", claims.Issuer)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "edusuite")

	otherSecret, err := NewJWTService("other", "edusuite").GenerateToken("u1", "")
	require.NoError(t, err)
	otherIssuer, err := NewJWTService("secret", "elsewhere").GenerateToken("u1", "")
	require.NoError(t, err)
	noSubject, err := svc.GenerateToken("", "")
	require.NoError(t, err)

	expiredSvc := NewJWTService("secret", "edusuite")
	expiredSvc.expiry = -time.Minute
	expired, err := expiredSvc.GenerateToken("u1", "")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1", Issuer: "edusuite"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": otherSecret,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"expired":      expired,
		"alg none":     none,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromBearer("bearer abc"))
	assert.Empty(t, ExtractTokenFromBearer("Basic abc"))
	assert.Empty(t, ExtractTokenFromBearer("Bearer "))
}
