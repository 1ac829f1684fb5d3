// Package auth provides session tokens and PIN hashing for the collaborator
// API. Core identity logic (canonical keys, legacy migration) lives in the
// service layer; this package only covers the HTTP session mechanics.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the session token. Athletes and coaches are separate
// identity namespaces, so the canonical key alone does not identify an
// account; the role claim disambiguates.
const (
	RoleAthlete = "athlete"
	RoleCoach   = "coach"
)

const issuer = "pulselink"

// TokenService signs and verifies the JWT session tokens issued on login.
// HS256 with a single shared secret: same key signs and verifies.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the token payload: the canonical key in the standard Subject
// claim plus our role claim.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const sessionLifetime = 12 * time.Hour

// Generate creates and signs a session token for the given canonical key
// and role.
func (s *TokenService) Generate(subject, role string) (string, error) {
	return s.GenerateWithDuration(subject, role, sessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests
// to exercise the expired-token path.
func (s *TokenService) GenerateWithDuration(subject, role string, d time.Duration) (string, error) {
	if role != RoleAthlete && role != RoleCoach {
		return "", fmt.Errorf("auth: unknown role %q", role)
	}

	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the canonical key and
// role it encodes. Rejects expired tokens, foreign issuers, and anything
// not signed with HS256 (algorithm confusion guard).
func (s *TokenService) Validate(tokenStr string) (subject, role string, err error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: token expired")
		}
		return "", "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", "", fmt.Errorf("auth: token has no subject")
	}
	if c.Role != RoleAthlete && c.Role != RoleCoach {
		return "", "", fmt.Errorf("auth: token has no usable role")
	}

	return c.Subject, c.Role, nil
}
