// Package auth issues and verifies identity tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"kointos-backend/internal/entity"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an identity token.
type Claims struct {
	Email  string   `json:"email"`
	Groups []string `json:"groups,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 identity tokens.
type TokenIssuer struct {
	issuer string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. issuer is written to and required in the iss claim.
func NewTokenIssuer(issuer, secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s", ttl)
	}
	return &TokenIssuer{issuer: issuer, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for identity and returns it with its expiry.
func (t *TokenIssuer) Issue(identity *entity.Identity) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Email:  identity.Email,
		Groups: identity.Groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and returns the identity it asserts.
func (t *TokenIssuer) Verify(token string) (*schema.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errs.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, errs.ErrInvalidToken
	}
	return &schema.Identity{Subject: claims.Subject, Email: claims.Email, Groups: claims.Groups}, nil
}
