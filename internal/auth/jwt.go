// Package auth issues and checks the credentials of the mentorship API.
//
// REQUEST AUTHENTICATION:
//  1. Register, login or GitHub sign-in returns a signed token
//  2. The client sends it back as "Authorization: Bearer <token>"
//  3. RequireAuth reads the subject, loads that user and stores it in the
//     request context
//
// A token payload looks like:
//
//	{"iss":"mentorship-platform","sub":"<user id>","iat":1700000000,"exp":1700086400}
//
// Only the user id travels in the token. Role, name and email are always read
// from the users table, so a deleted account is locked out on its next request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer         = "mentorship-platform"
	minSecretBytes = 16
)

var (
	// ErrTokenExpired is returned by Subject for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid covers every other rejection: bad signature, wrong
	// issuer or algorithm, missing expiry or subject, malformed input.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService signs session tokens with one HS256 secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService needs a secret of at least 16 bytes and a positive lifetime.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	switch {
	case len(secret) < minSecretBytes:
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretBytes)
	case ttl <= 0:
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue returns a token for userID that is valid from now for the
// configured lifetime.
func (s *TokenService) Issue(userID string) (string, error) {
	return s.IssueAt(userID, time.Now())
}

// IssueAt is Issue with an explicit issue time. A time further back than the
// lifetime yields a token that is already expired.
func (s *TokenService) IssueAt(userID string, issuedAt time.Time) (string, error) {
	registered := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, registered).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token for %s: %w", userID, err)
	}
	return signed, nil
}

// Subject verifies token and returns the user id it was issued for.
//
// The parser pins HS256, so "alg":"none" and RS/HS confusion tokens fail
// before the key is consulted.
func (s *TokenService) Subject(token string) (string, error) {
	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &registered,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case registered.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrTokenInvalid)
	}
	return registered.Subject, nil
}
