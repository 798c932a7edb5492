package movieverse_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	movieverse "github.com/movieverse/go-movieverse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(key []byte) movieverse.TokenService {
	return movieverse.NewTokenService(
		key,
		168,
		"movieverse-test",
		jwt.ClaimStrings{"movieverse-test"},
		noopLogger{},
	)
}

func TestTokenService_Generate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := newTestTokenService(signingKey)

	identity := &MockIdentity{}
	identity.On("ID").Return("user-123")
	identity.On("Username").Return("alice123")

	tokenString, err := service.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwt.ParseWithClaims(tokenString, &movieverse.JWTClaims{}, func(token *jwt.Token) (any, error) {
		return signingKey, nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(*movieverse.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "alice123", claims.Username())
	assert.Equal(t, "movieverse-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	// seven day TTL
	ttl := claims.Expires().Sub(claims.IssuedAt())
	assert.InDelta(t, (168 * time.Hour).Seconds(), ttl.Seconds(), 5)

	identity.AssertExpectations(t)
}

func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService([]byte("round-trip-key"))

	identity := &MockIdentity{}
	identity.On("ID").Return("user-abc")
	identity.On("Username").Return("roundtrip")

	tokenString, err := service.Generate(identity)
	require.NoError(t, err)

	claims, err := service.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", claims.Subject())
	assert.Equal(t, "roundtrip", claims.Username())
}

func TestTokenService_Validate_WrongKey(t *testing.T) {
	issuing := newTestTokenService([]byte("key-one"))
	validating := newTestTokenService([]byte("key-two"))

	identity := &MockIdentity{}
	identity.On("ID").Return("user-abc")
	identity.On("Username").Return("forged")

	tokenString, err := issuing.Generate(identity)
	require.NoError(t, err)

	claims, err := validating.Validate(tokenString)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	signingKey := []byte("expiry-key")
	service := newTestTokenService(signingKey)

	now := time.Now()
	expired := &movieverse.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "movieverse-test",
			Subject:   "user-abc",
			Audience:  jwt.ClaimStrings{"movieverse-test"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID: "user-abc",
	}

	tokenString, err := service.SignClaims(expired)
	require.NoError(t, err)

	claims, err := service.Validate(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, movieverse.ErrTokenExpired)
}

func TestTokenService_Validate_Malformed(t *testing.T) {
	service := newTestTokenService([]byte("malformed-key"))

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := service.Validate(raw)
		assert.Error(t, err)
		assert.Nil(t, claims)
	}
}

func TestTokenService_Validate_RejectsNoneAlgorithm(t *testing.T) {
	service := newTestTokenService([]byte("alg-key"))

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &movieverse.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-abc",
			Issuer:    "movieverse-test",
			Audience:  jwt.ClaimStrings{"movieverse-test"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.Validate(raw)
	assert.Error(t, err)
	assert.Nil(t, claims)
}
