package auth

import (
	"context"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

type CognitoAPI interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// CognitoVerifier asks Cognito who owns an access token. Access tokens carry no
// email claim, so the attribute comes back from GetUser instead.
type CognitoVerifier struct {
	client CognitoAPI
}

func NewCognitoVerifier(client CognitoAPI) *CognitoVerifier {
	return &CognitoVerifier{client: client}
}

func (v *CognitoVerifier) Verify(ctx context.Context, accessToken string) (types.Identity, error) {
	out, err := v.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return types.Identity{}, unauthenticated("cognito rejected access token", err)
	}

	identity := types.Identity{Subject: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			identity.Subject = aws.ToString(attr.Value)
		case "email":
			identity.Email = utils.NormalizeEmail(aws.ToString(attr.Value))
		}
	}

	if identity.Email == "" {
		return types.Identity{}, unauthenticated("cognito user has no email attribute", nil)
	}

	return identity, nil
}
