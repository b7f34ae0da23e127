// Package auth verifies the bearer token a client presents when it opens a
// socket and maps it to a stable user identity.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthentication is returned for a missing, malformed, forged or expired token.
var ErrAuthentication = errors.New("authentication error")

// Identity is who a connection belongs to.
type Identity struct {
	UserID   int64
	Username string
}

type claims struct {
	jwt.RegisteredClaims
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify validates the signature and, when present, the expiry of token.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, fmt.Errorf("%w: no token", ErrAuthentication)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: token expired", ErrAuthentication)
		}
		return Identity{}, fmt.Errorf("%w: invalid token", ErrAuthentication)
	}
	if parsed.ID == 0 {
		return Identity{}, fmt.Errorf("%w: token has no user id", ErrAuthentication)
	}
	return Identity{UserID: parsed.ID, Username: parsed.Username}, nil
}

// Issue signs a token for id. A zero ttl produces a token without expiry.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	c := claims{ID: id.UserID, Username: id.Username}
	now := v.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
