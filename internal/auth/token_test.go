package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "ops@example.com",
		Issuer:    "snapbrief",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}

func TestVerifyToken(t *testing.T) {
	v, err := NewVerifier(Config{SecretKey: testSecret, Issuer: "snapbrief"})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		subject, err := v.VerifyToken(context.Background(), signToken(t, testSecret, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "ops@example.com", subject)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.VerifyToken(context.Background(), signToken(t, "other-secret", validClaims()))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = nil

		_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims.Issuer = "someone-else"

		_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims()
		claims.Subject = ""

		_, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.VerifyToken(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong algorithm rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.VerifyToken(context.Background(), signed)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestVerifyToken_NoIssuerCheck(t *testing.T) {
	v, err := NewVerifier(Config{SecretKey: testSecret})
	require.NoError(t, err)

	claims := validClaims()
	claims.Issuer = "anything"

	subject, err := v.VerifyToken(context.Background(), signToken(t, testSecret, claims))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", subject)
}
