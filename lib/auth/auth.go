package auth

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Claims represents the Cognito claims passed through the API Gateway authorizer context
type Claims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Username string `json:"cognito:username"`
	Role     string `json:"custom:role"`
}

// ExtractClaimsFromRequest extracts Cognito claims from the API Gateway authorizer context
func ExtractClaimsFromRequest(request events.APIGatewayProxyRequest) (*Claims, error) {
	var claimsMap map[string]interface{}
	var ok bool

	// Cognito user pool authorizers nest the claims under "claims"
	if authClaims, exists := request.RequestContext.Authorizer["claims"]; exists {
		claimsMap, ok = authClaims.(map[string]interface{})
	}

	// Lambda authorizers put them directly on the context
	if !ok {
		claimsMap = request.RequestContext.Authorizer
		ok = claimsMap != nil
	}

	if !ok || len(claimsMap) == 0 {
		return nil, fmt.Errorf("claims not found in authorizer context")
	}

	sub, ok := claimsMap["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("sub not found or invalid in claims")
	}

	claims := &Claims{Sub: sub}
	claims.Email, _ = claimsMap["email"].(string)
	claims.Username, _ = claimsMap["cognito:username"].(string)
	claims.Role, _ = claimsMap["custom:role"].(string)

	return claims, nil
}

// Actor returns the best human-readable identifier for audit logs
func (c *Claims) Actor() string {
	if c == nil {
		return "anonymous"
	}
	if c.Email != "" {
		return c.Email
	}
	if c.Username != "" {
		return c.Username
	}
	return c.Sub
}
