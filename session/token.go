package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned for tokens that fail signature, structure, or
// expiry checks.
var ErrTokenInvalid = errors.New("invalid session token")

// TokenCodec wraps session IDs in signed HS256 tokens so the UI layer gets a
// tamper-evident browser handle instead of a bare ID. The token is only a
// pointer: possession of a valid token still requires the session to be live
// in the Registry.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec returns a TokenCodec signing with secret.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) < 16 {
		return nil, errors.New("session token secret must be at least 16 bytes")
	}
	return &TokenCodec{secret: secret}, nil
}

type tokenClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sign encodes s into a signed token expiring with the session.
func (c *TokenCodec) Sign(s Session) (string, error) {
	claims := tokenClaims{
		Role: s.Role,
		Name: s.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Username,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the embedded session ID.
func (c *TokenCodec) Parse(token string) (string, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if claims.ID == "" {
		return "", ErrTokenInvalid
	}
	return claims.ID, nil
}
