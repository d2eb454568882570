package auth

import (
	"context"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// KeySetSource is satisfied by *jwk.Cache.
type KeySetSource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

// JWKSVerifier validates RS256 ID tokens against the issuer's published key set.
type JWKSVerifier struct {
	keys    KeySetSource
	jwksURL string
}

func NewJWKSVerifier(keys KeySetSource, jwksURL string) *JWKSVerifier {
	return &JWKSVerifier{keys: keys, jwksURL: jwksURL}
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (types.Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return types.Identity{}, err
	}

	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return types.Identity{}, unauthenticated("failed to parse JWT", err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return types.Identity{}, unauthenticated("no user ID in JWT subject claim", nil)
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return types.Identity{}, unauthenticated("no email claim in JWT", err)
	}

	return types.Identity{Subject: userID, Email: utils.NormalizeEmail(email)}, nil
}
