// Package auth implements the session token contract: a compact HS256 JWT
// carrying the user's id and email, transported to the browser in an
// HTTP-only cookie. Tokens are not persisted server-side; validity is purely
// cryptographic and time-bound, so logout only clears the cookie and a
// previously issued token stays valid until its natural expiry.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
)

// Claims is the identity embedded in a session token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// TokenIssuer signs and verifies session tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer from the configured secret and TTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime; the cookie max-age mirrors it.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue signs the claims with an expiry of now+TTL. A missing secret is a
// configuration error, not an auth failure.
func (i *TokenIssuer) Issue(claims Claims) (string, error) {
	if len(i.secret) == 0 {
		return "", apperr.Config("JWT secret not configured")
	}
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    claims.ID,
		"email": claims.Email,
		"exp":   now.Add(i.ttl).Unix(),
		"iat":   now.Unix(),
	})
	return t.SignedString(i.secret)
}

// Verify parses and validates a token. It returns ok=false on every failure
// (malformed, expired, bad signature, wrong algorithm); callers treat the
// absence of claims as "not authenticated" rather than an error.
func (i *TokenIssuer) Verify(token string) (Claims, bool) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, false
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, false
	}
	id, _ := mc["id"].(string)
	email, _ := mc["email"].(string)
	if id == "" || email == "" {
		return Claims{}, false
	}
	return Claims{ID: id, Email: email}, true
}
