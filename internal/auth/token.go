// Package auth verifies admin bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors.
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Config holds token verifier configuration.
type Config struct {
	SecretKey string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
}

// Verifier validates HS256-signed admin tokens.
type Verifier struct {
	config Config
}

// NewVerifier creates a token verifier.
// Returns error if the secret key is missing.
func NewVerifier(config Config) (*Verifier, error) {
	if config.SecretKey == "" {
		return nil, errors.New("token verifier: secret key is required")
	}
	return &Verifier{config: config}, nil
}

// VerifyToken parses and validates a bearer token and returns its subject.
func (v *Verifier) VerifyToken(_ context.Context, tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(v.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}
