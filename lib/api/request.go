package api

import (
	"clinic/lib/apperrors"
	"clinic/lib/auth"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// Request is the platform-neutral view of an API Gateway proxy event
type Request struct {
	Method          string
	Path            string
	Resource        string
	RequestID       string
	Headers         map[string]string
	PathParameters  map[string]string
	QueryParameters map[string]string
	RawBody         string
	Body            map[string]interface{}
	Claims          *auth.Claims
}

// Normalize extracts method, path, parameters and the JSON body from the event.
// An empty body becomes an empty object; a body that is present but is not a
// JSON object yields a JSON_PARSE error.
func Normalize(event events.APIGatewayProxyRequest) (*Request, error) {
	req := &Request{
		Method:          strings.ToUpper(event.HTTPMethod),
		Path:            event.Path,
		Resource:        event.Resource,
		RequestID:       event.RequestContext.RequestID,
		Headers:         mergeHeaders(event.Headers, event.MultiValueHeaders),
		PathParameters:  copyMap(event.PathParameters),
		QueryParameters: mergeQuery(event.QueryStringParameters, event.MultiValueQueryStringParameters),
		Body:            map[string]interface{}{},
	}

	// Claims are informational here; the API Gateway authorizer enforces authentication
	req.Claims, _ = auth.ExtractClaimsFromRequest(event)

	raw := event.Body
	if event.IsBase64Encoded && raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return req, apperrors.NewJSONParse(err)
		}
		raw = string(decoded)
	}
	req.RawBody = raw

	if strings.TrimSpace(raw) == "" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(raw), &req.Body); err != nil {
		req.Body = map[string]interface{}{}
		return req, apperrors.NewJSONParse(err)
	}
	if req.Body == nil {
		// a literal "null" body
		req.Body = map[string]interface{}{}
	}
	return req, nil
}

// Header returns a request header by case-insensitive name
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

func (r *Request) PathParam(name string) string {
	return r.PathParameters[name]
}

func (r *Request) Query(name string) string {
	return r.QueryParameters[name]
}

// Has reports whether the body carries a usable value for field.
// Absent, null and blank string values count as missing.
func (r *Request) Has(field string) bool {
	value, ok := r.Body[field]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// MissingFields returns the subset of fields that are missing, in declared order
func (r *Request) MissingFields(fields []string) []string {
	var missing []string
	for _, field := range fields {
		if !r.Has(field) {
			missing = append(missing, field)
		}
	}
	return missing
}

// Decode unmarshals the body into v and runs its `validate` struct tags
func (r *Request) Decode(v interface{}) error {
	raw := r.RawBody
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperrors.NewValidation(fmt.Sprintf("Invalid value for field %s: expected %s", typeErr.Field, typeErr.Type))
		}
		return apperrors.NewJSONParse(err)
	}

	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names the way the client sent them
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidation(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
		fields = append(fields, e.Field())
	}

	return &apperrors.AppError{
		Type:    apperrors.ErrorTypeValidation,
		Message: strings.Join(messages, "; "),
		Fields:  fields,
	}
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "e164":
		return fmt.Sprintf("%s must be an E.164 phone number", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func mergeHeaders(single map[string]string, multi map[string][]string) map[string]string {
	headers := make(map[string]string, len(single))
	for name, values := range multi {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}
	for name, value := range single {
		headers[strings.ToLower(name)] = value
	}
	return headers
}

func mergeQuery(single map[string]string, multi map[string][]string) map[string]string {
	query := make(map[string]string, len(single))
	for name, values := range multi {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}
	for name, value := range single {
		query[name] = value
	}
	return query
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
