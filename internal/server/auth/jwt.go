// Package auth implements the credential and token primitives of the server:
// bcrypt password hashing and HS256 session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dkolesnikov/bookshelf/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies signed, time-limited session tokens.
// The signing secret and TTL are fixed at construction; rotating the secret
// invalidates all previously issued tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a TokenService for the given HMAC secret and token
// lifetime.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue returns a signed token whose subject claim is the given username.
// Expiry is issued-at plus the configured TTL.
func (s *TokenService) Issue(subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the subject claim.
// Failures map onto the sentinel kinds in common:
//
//	common.ErrTokenExpired   — expiry elapsed
//	common.ErrTokenMalformed — not a JWT, or required claims absent
//	common.ErrInvalidToken   — bad signature or any other verification failure
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", common.ErrTokenMalformed
	case err != nil:
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", common.ErrTokenMalformed
	}

	return claims.Subject, nil
}
