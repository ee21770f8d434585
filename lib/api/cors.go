package api

import (
	"clinic/lib/constants"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const (
	allowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
	allowMethods = "GET,POST,PUT,DELETE,OPTIONS"
	maxAge       = "86400"
	wildcard     = "*"
)

// CORSPolicy decides which Access-Control-Allow-Origin value a request gets
type CORSPolicy struct {
	Stage          string
	AllowedOrigins []string
}

// NewCORSPolicy creates a policy for the given stage and allow-list
func NewCORSPolicy(stage string, allowedOrigins []string) *CORSPolicy {
	return &CORSPolicy{
		Stage:          strings.ToLower(stage),
		AllowedOrigins: allowedOrigins,
	}
}

// ResolveOrigin returns the origin to echo back. In the dev stage any localhost
// origin is accepted. Otherwise only allow-listed origins are echoed and all
// others receive the first allow-listed origin, or "*" when the list is empty.
func (c *CORSPolicy) ResolveOrigin(origin string) string {
	if origin != "" {
		if c.Stage == constants.STAGE_DEV && isLocalOrigin(origin) {
			return origin
		}
		for _, allowed := range c.AllowedOrigins {
			if allowed == origin {
				return origin
			}
		}
	}

	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins[0]
	}
	return wildcard
}

// Headers returns the CORS header set for a request coming from origin
func (c *CORSPolicy) Headers(origin string) map[string]string {
	resolved := c.ResolveOrigin(origin)

	headers := map[string]string{
		"Access-Control-Allow-Origin":  resolved,
		"Access-Control-Allow-Headers": allowHeaders,
		"Access-Control-Allow-Methods": allowMethods,
		"Access-Control-Max-Age":       maxAge,
		"Vary":                         "Origin",
	}
	// Browsers reject credentialed requests against a wildcard origin
	if resolved != wildcard {
		headers["Access-Control-Allow-Credentials"] = "true"
	}
	return headers
}

// PreflightResponse answers an OPTIONS request: 200, no body, CORS headers only
func (c *CORSPolicy) PreflightResponse(origin string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    c.Headers(origin),
	}
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// OriginFromHeaders finds the Origin header regardless of its case
func OriginFromHeaders(headers map[string]string, multiValue map[string][]string) string {
	for name, value := range headers {
		if strings.EqualFold(name, "origin") {
			return value
		}
	}
	for name, values := range multiValue {
		if strings.EqualFold(name, "origin") && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
