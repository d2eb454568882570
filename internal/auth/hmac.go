package auth

import (
	"context"
	"errors"
	"time"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 tokens signed with a shared secret. It backs
// local development and the token command.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("set JWT_SECRET to use hmac auth")
	}
	return &HMACVerifier{secret: []byte(secret)}, nil
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *HMACVerifier) Verify(ctx context.Context, tokenString string) (types.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return types.Identity{}, unauthenticated("failed to parse JWT", err)
	}

	if c.Email == "" {
		return types.Identity{}, unauthenticated("no email claim in JWT", nil)
	}

	return types.Identity{Subject: c.Subject, Email: utils.NormalizeEmail(c.Email)}, nil
}

// Sign issues a token for email that expires after ttl.
func (v *HMACVerifier) Sign(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: utils.NormalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   utils.NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
