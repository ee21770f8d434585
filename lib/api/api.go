package api

import (
	"clinic/lib/apperrors"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	Status        int      `json:"status"`
	MissingFields []string `json:"missingFields,omitempty"`
	RequestID     string   `json:"requestId,omitempty"`
}

// Result is what a route handler returns. A nil Body produces an empty response body.
type Result struct {
	StatusCode int
	Body       interface{}
}

func OK(body interface{}) *Result {
	return &Result{StatusCode: http.StatusOK, Body: body}
}

func Created(body interface{}) *Result {
	return &Result{StatusCode: http.StatusCreated, Body: body}
}

func NoContent() *Result {
	return &Result{StatusCode: http.StatusNoContent}
}

// SuccessResponse creates a successful API Gateway response
func SuccessResponse(statusCode int, data interface{}, headers map[string]string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	response := events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    jsonHeaders(headers),
	}
	if data == nil {
		return response
	}

	body, err := json.Marshal(data)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal response data")
		return ErrorResponse(http.StatusInternalServerError, ErrorBody{Message: "Internal server error"}, headers, logger)
	}
	response.Body = string(body)
	return response
}

// ErrorResponse creates an error API Gateway response. The status and error name
// are filled in from statusCode.
func ErrorResponse(statusCode int, errorBody ErrorBody, headers map[string]string, logger *logrus.Logger) events.APIGatewayProxyResponse {
	errorBody.Status = statusCode
	if errorBody.Error == "" {
		errorBody.Error = errorName(statusCode)
	}

	body, err := json.Marshal(errorBody)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal error response")
		body = []byte(`{"error":"InternalServerError","message":"Internal server error","status":500}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    jsonHeaders(headers),
	}
}

// StatusFor maps an error to its HTTP status and error name
func StatusFor(err error) (int, string) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, "ValidationError"
	case apperrors.ErrorTypeJSONParse:
		return http.StatusBadRequest, "JSONParseError"
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, "NotFound"
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict, "Conflict"
	case apperrors.ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed, "MethodNotAllowed"
	default:
		return http.StatusInternalServerError, "InternalServerError"
	}
}

func errorName(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BadRequest"
	case http.StatusNotFound:
		return "NotFound"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	default:
		return "InternalServerError"
	}
}

func jsonHeaders(extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+1)
	for name, value := range extra {
		headers[name] = value
	}
	headers["Content-Type"] = "application/json"
	return headers
}
