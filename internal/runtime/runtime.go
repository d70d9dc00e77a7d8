// Package runtime adapts the form handler to the AWS Lambda proxy payloads and to plain HTTP.
package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/isometry/recaptcha-form-app/internal/handler/processor"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/isometry/recaptcha-form-app/internal/models"
)

// Supported Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

// Handler processes a single normalised request.
type Handler interface {
	Process(ctx context.Context, req models.Request) models.Response
}

// Option is a function that configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithPayloadType sets the Lambda payload type decoded by HandleEvent.
func WithPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		r.payloadType = payloadType
	}
}

// Runtime converts invocation payloads into models.Request and handler responses back into payload responses.
type Runtime struct {
	handler     Handler
	payloadType string
	logger      *slog.Logger
}

// NewRuntime creates a new runtime instance
func NewRuntime(handler Handler, opts ...Option) (*Runtime, error) {
	_inst := &Runtime{handler: handler, payloadType: PayloadAPIGatewayV1}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.payloadType = strings.TrimSpace(strings.ToLower(_inst.payloadType))
	switch _inst.payloadType {
	case PayloadAPIGatewayV1, PayloadAPIGatewayV2, PayloadLambdaURL:
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", _inst.payloadType)
	}
	return _inst, nil
}

// HandleEvent is the Lambda handler for the runtime. Failures are always reported through the response, so the
// returned error is nil.
func (r *Runtime) HandleEvent(ctx context.Context, payload json.RawMessage) (any, error) {
	logger := r.logger.With(slog.String("payloadType", r.payloadType))
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(slog.String("requestId", lc.AwsRequestID))
	}
	logger.Info("received lambda event")

	switch r.payloadType {
	case PayloadAPIGatewayV2:
		var event events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Error("failed to decode event", slog.Any("error", err))
			return toV2(malformed()), nil
		}
		req, err := newRequest(event.RequestContext.HTTP.Method, event.Body, event.IsBase64Encoded, event.Headers, event.RequestContext.HTTP.SourceIP)
		if err != nil {
			logger.Error("failed to decode body", slog.Any("error", err))
			return toV2(malformed()), nil
		}
		return toV2(r.handler.Process(ctx, req)), nil
	case PayloadLambdaURL:
		var event events.LambdaFunctionURLRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Error("failed to decode event", slog.Any("error", err))
			return toURL(malformed()), nil
		}
		req, err := newRequest(event.RequestContext.HTTP.Method, event.Body, event.IsBase64Encoded, event.Headers, event.RequestContext.HTTP.SourceIP)
		if err != nil {
			logger.Error("failed to decode body", slog.Any("error", err))
			return toURL(malformed()), nil
		}
		return toURL(r.handler.Process(ctx, req)), nil
	default:
		var event events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Error("failed to decode event", slog.Any("error", err))
			return toV1(malformed()), nil
		}
		req, err := newRequest(event.HTTPMethod, event.Body, event.IsBase64Encoded, event.Headers, event.RequestContext.Identity.SourceIP)
		if err != nil {
			logger.Error("failed to decode body", slog.Any("error", err))
			return toV1(malformed()), nil
		}
		return toV1(r.handler.Process(ctx, req)), nil
	}
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("method", req.Method), slog.Any("path", req.URL.Path))

	body, err := io.ReadAll(req.Body)
	if err != nil {
		r.logger.Error("failed to read request body", slog.Any("error", err))
		helpers.RespondHTTP(malformed(), resp)
		return
	}

	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		headers[strings.ToLower(k)] = v[0]
	}
	sourceIP, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		sourceIP = req.RemoteAddr
	}

	request := models.Request{Method: req.Method, Headers: headers, SourceIP: sourceIP}
	if len(body) > 0 {
		request.Body = helpers.Ptr(string(body))
	}
	helpers.RespondHTTP(r.handler.Process(req.Context(), request), resp)
}

func newRequest(method, body string, isBase64 bool, headers map[string]string, sourceIP string) (models.Request, error) {
	lch := make(map[string]string, len(headers))
	for k, v := range headers {
		lch[strings.ToLower(k)] = v
	}
	req := models.Request{Method: method, Headers: lch, SourceIP: sourceIP}
	if body == "" {
		return req, nil
	}
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return req, err
		}
		body = string(decoded)
	}
	req.Body = &body
	return req, nil
}

func malformed() models.Response {
	return processor.ErrorResponse(http.StatusInternalServerError, processor.MsgException)
}

func toV1(response models.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		Body:       response.Body,
		Headers:    response.Headers,
		StatusCode: response.StatusCode,
	}
}

func toV2(response models.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		Body:       response.Body,
		Headers:    response.Headers,
		StatusCode: response.StatusCode,
	}
}

func toURL(response models.Response) events.LambdaFunctionURLResponse {
	return events.LambdaFunctionURLResponse{
		Body:       response.Body,
		Headers:    response.Headers,
		StatusCode: response.StatusCode,
	}
}
