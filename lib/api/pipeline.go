package api

import (
	"clinic/lib/apperrors"
	"clinic/lib/util"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
)

// HandlerFunc serves one route after the pipeline has validated the request
type HandlerFunc func(ctx context.Context, req *Request) (*Result, error)

// Route declares a handler together with the body fields it requires.
// Path parameters named in Resource ("/reports/{reportId}") are always required.
type Route struct {
	Method         string
	Resource       string
	RequiredFields []string
	Handle         HandlerFunc
}

// Pipeline turns API Gateway proxy events into CORS-shaped JSON responses:
// preflight, normalize, route, validate, handle, map errors.
type Pipeline struct {
	Routes []Route
	CORS   *CORSPolicy
	Logger *logrus.Logger

	// ExposeErrors puts the raw error text into 500 responses. Only the dev stage sets it.
	ExposeErrors bool
}

// NewPipeline creates a pipeline with no routes
func NewPipeline(cors *CORSPolicy, logger *logrus.Logger, exposeErrors bool) *Pipeline {
	return &Pipeline{
		CORS:         cors,
		Logger:       logger,
		ExposeErrors: exposeErrors,
	}
}

// Register adds routes to the pipeline
func (p *Pipeline) Register(routes ...Route) {
	p.Routes = append(p.Routes, routes...)
}

// Handle is the Lambda entry point. It never returns an error: every failure is
// expressed as an HTTP response.
func (p *Pipeline) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	origin := OriginFromHeaders(event.Headers, event.MultiValueHeaders)

	if strings.EqualFold(event.HTTPMethod, http.MethodOptions) {
		return p.CORS.PreflightResponse(origin), nil
	}

	headers := p.CORS.Headers(origin)
	log := p.Logger.WithFields(logrus.Fields{
		"operation":  "Pipeline",
		"method":     event.HTTPMethod,
		"path":       event.Path,
		"resource":   event.Resource,
		"request_id": event.RequestContext.RequestID,
	})
	log.Info("Request received")

	req, err := Normalize(event)
	if err != nil {
		return p.errorResponse(log, req, err, headers), nil
	}
	if req.Claims != nil {
		log = log.WithField("actor", req.Claims.Actor())
	}

	route, err := p.match(req)
	if err != nil {
		return p.errorResponse(log, req, err, headers), nil
	}

	if missing := missingPathParams(route.Resource, req.PathParameters); len(missing) > 0 {
		return p.errorResponse(log, req, apperrors.NewMissingPathParams(missing), headers), nil
	}
	if missing := req.MissingFields(route.RequiredFields); len(missing) > 0 {
		return p.errorResponse(log, req, apperrors.NewMissingFields(route.RequiredFields, missing), headers), nil
	}

	result, err := route.Handle(ctx, req)
	if err != nil {
		return p.errorResponse(log, req, err, headers), nil
	}
	if result == nil {
		result = NoContent()
	}

	log.WithField("status", result.StatusCode).Debug("Request completed")
	return SuccessResponse(result.StatusCode, result.Body, headers, p.Logger), nil
}

// match finds the route for the request. API Gateway supplies the resource
// template; direct invocations only carry a path, which is matched against the
// templates with literal segments taking precedence over parameters.
func (p *Pipeline) match(req *Request) (*Route, error) {
	template := req.Resource
	if template == "" || !p.knowsResource(template) {
		best := -1
		template = ""
		for _, route := range p.Routes {
			if score, ok := matchPath(route.Resource, req.Path); ok && score > best {
				best = score
				template = route.Resource
			}
		}
		if template == "" {
			return nil, apperrors.NewNotFound("Route not found")
		}
	}

	for i := range p.Routes {
		route := &p.Routes[i]
		if route.Resource == template && route.Method == req.Method {
			fillPathParams(route.Resource, req.Path, req.PathParameters)
			return route, nil
		}
	}
	return nil, apperrors.NewMethodNotAllowed(req.Method)
}

func (p *Pipeline) knowsResource(resource string) bool {
	for _, route := range p.Routes {
		if route.Resource == resource {
			return true
		}
	}
	return false
}

func (p *Pipeline) errorResponse(log *logrus.Entry, req *Request, err error, headers map[string]string) events.APIGatewayProxyResponse {
	status, name := StatusFor(err)

	body := ErrorBody{Error: name}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Message = appErr.Message
		if appErr.Type == apperrors.ErrorTypeValidation {
			body.MissingFields = appErr.Fields
		}
	}
	if req != nil {
		body.RequestID = req.RequestID
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		body.Message = util.ConditionalString(p.ExposeErrors, err.Error(), "Internal server error")
	} else {
		log.WithError(err).WithField("status", status).Warn("Request rejected")
	}

	return ErrorResponse(status, body, headers, p.Logger)
}

// matchPath reports whether path fits the template and how many literal segments matched
func matchPath(template, path string) (int, bool) {
	tmpl := splitPath(template)
	segments := splitPath(path)
	if len(tmpl) != len(segments) {
		return 0, false
	}

	score := 0
	for i, part := range tmpl {
		if isParam(part) {
			if segments[i] == "" {
				return 0, false
			}
			continue
		}
		if part != segments[i] {
			return 0, false
		}
		score++
	}
	return score, true
}

func fillPathParams(template, path string, params map[string]string) {
	tmpl := splitPath(template)
	segments := splitPath(path)
	if len(tmpl) != len(segments) {
		return
	}
	for i, part := range tmpl {
		if !isParam(part) {
			continue
		}
		name := strings.Trim(part, "{}")
		if params[name] == "" {
			params[name] = segments[i]
		}
	}
}

func missingPathParams(template string, params map[string]string) []string {
	var missing []string
	for _, part := range splitPath(template) {
		if !isParam(part) {
			continue
		}
		name := strings.Trim(part, "{}")
		if strings.TrimSpace(params[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func isParam(segment string) bool {
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}")
}
