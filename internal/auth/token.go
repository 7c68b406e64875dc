package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 bearer tokens. Issuing tokens is left to
// an external identity service; Sign exists for tooling and tests.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewTokens(secret string, lifetime time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), lifetime: lifetime, now: time.Now}
}

func (t *Tokens) Sign(id domain.Identity) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Staff: id.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Verify(raw string) (domain.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{UserID: userID, Staff: c.Staff}, nil
}
