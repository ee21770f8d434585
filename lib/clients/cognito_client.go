package clients

import (
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// NewCognitoIdentityProviderClient creates the client used for the Cognito admin API
func NewCognitoIdentityProviderClient(opts Options) *cognitoidentityprovider.Client {
	return cognitoidentityprovider.NewFromConfig(loadAWSConfig(opts))
}
