package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"foodlink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	jwxjwt "github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/require"
)

func TestHMACRoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("s3cret")
	require.NoError(t, err)

	token, err := v.Sign("Ann@X.com", time.Hour)
	require.NoError(t, err)

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "ann@x.com", identity.Email)
}

func TestHMACRejectsBadTokens(t *testing.T) {
	v, err := NewHMACVerifier("s3cret")
	require.NoError(t, err)
	other, err := NewHMACVerifier("different")
	require.NoError(t, err)

	expired, err := v.Sign("ann@x.com", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	require.ErrorIs(t, err, types.ErrUnauthenticated)

	forged, err := other.Sign("ann@x.com", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), forged)
	require.ErrorIs(t, err, types.ErrUnauthenticated)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "ann@x.com"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), noExpiry)
	require.ErrorIs(t, err, types.ErrUnauthenticated)

	_, err = NewHMACVerifier("")
	require.Error(t, err)
}

type fakeCognito struct {
	out *cognitoidentityprovider.GetUserOutput
	err error
}

func (f *fakeCognito) GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error) {
	return f.out, f.err
}

func TestCognitoVerifier(t *testing.T) {
	v := NewCognitoVerifier(&fakeCognito{out: &cognitoidentityprovider.GetUserOutput{
		Username: aws.String("ann"),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("sub"), Value: aws.String("sub-1")},
			{Name: aws.String("email"), Value: aws.String("Ann@X.com")},
		},
	}})

	identity, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	require.Equal(t, types.Identity{Subject: "sub-1", Email: "ann@x.com"}, identity)

	rejected := NewCognitoVerifier(&fakeCognito{err: errors.New("NotAuthorizedException")})
	_, err = rejected.Verify(context.Background(), "token")
	require.ErrorIs(t, err, types.ErrUnauthenticated)

	noEmail := NewCognitoVerifier(&fakeCognito{out: &cognitoidentityprovider.GetUserOutput{Username: aws.String("ann")}})
	_, err = noEmail.Verify(context.Background(), "token")
	require.ErrorIs(t, err, types.ErrUnauthenticated)
}

type staticKeys struct {
	set jwk.Set
}

func (s staticKeys) Lookup(ctx context.Context, u string) (jwk.Set, error) {
	return s.set, nil
}

func TestJWKSVerifier(t *testing.T) {
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	private, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.RS256()))

	public, err := jwk.PublicKeyOf(private)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	v := NewJWKSVerifier(staticKeys{set: set}, "https://issuer.test/.well-known/jwks.json")

	sign := func(email string) string {
		builder := jwxjwt.NewBuilder().Subject("sub-1").Expiration(time.Now().Add(time.Hour))
		if email != "" {
			builder = builder.Claim("email", email)
		}
		token, err := builder.Build()
		require.NoError(t, err)
		signed, err := jwxjwt.Sign(token, jwxjwt.WithKey(jwa.RS256(), private))
		require.NoError(t, err)
		return string(signed)
	}

	identity, err := v.Verify(context.Background(), sign("Ann@X.com"))
	require.NoError(t, err)
	require.Equal(t, types.Identity{Subject: "sub-1", Email: "ann@x.com"}, identity)

	_, err = v.Verify(context.Background(), sign(""))
	require.ErrorIs(t, err, types.ErrUnauthenticated)

	_, err = v.Verify(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, types.ErrUnauthenticated)
}
