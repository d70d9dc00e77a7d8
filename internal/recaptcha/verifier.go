// Package recaptcha provides a client for Google's reCAPTCHA siteverify API.
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

const (
	// DefaultEndpoint is Google's verification endpoint.
	DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"
	// DefaultThreshold is the minimum accepted score.
	DefaultThreshold = 0.5
)

// Outcome is the interpretation of a verification response.
type Outcome string

const (
	// Verified means the token passed every check.
	Verified Outcome = "verified"
	// Rejected means the upstream reported success=false.
	Rejected Outcome = "rejected"
	// BelowThreshold means the upstream scored the token below the configured threshold.
	BelowThreshold Outcome = "below-threshold"
)

// Result is the interpreted verification response.
type Result struct {
	Success bool
	// Score is nil when the upstream did not return one (reCAPTCHA v2).
	Score *float64
	// ErrorCodes is never nil. Absent upstream error codes become an empty sequence.
	ErrorCodes []string
	Outcome    Outcome
}

// LogValue implements slog.LogValuer.
func (r *Result) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("outcome", string(r.Outcome)),
		slog.Bool("success", r.Success),
	}
	if r.Score != nil {
		attrs = append(attrs, slog.Float64("score", *r.Score))
	}
	if len(r.ErrorCodes) > 0 {
		attrs = append(attrs, slog.Any("errorCodes", r.ErrorCodes))
	}
	return slog.GroupValue(attrs...)
}

// TransportError is returned when the verification service could not be reached or answered with something other
// than a 200 JSON document.
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("recaptcha transport error: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("recaptcha transport error: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// RejectionError reports a token that the upstream rejected or scored too low.
type RejectionError struct {
	Result *Result
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("recaptcha rejection: %s", e.Result.Outcome)
}

// Err returns a *RejectionError for results that are not Verified, nil otherwise.
func (r *Result) Err() error {
	if r.Outcome == Verified {
		return nil
	}
	return &RejectionError{Result: r}
}

// Verifier checks a client-supplied token.
type Verifier interface {
	Verify(ctx context.Context, secret, token, remoteIP string) (*Result, error)
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the verification endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithThreshold overrides the minimum accepted score.
func WithThreshold(threshold float64) Option {
	return func(c *Client) {
		c.threshold = threshold
	}
}

// WithHTTPClient replaces the pooled HTTP client. A non-zero WithTimeout applies to a copy of client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client is a Verifier backed by the siteverify HTTP API.
type Client struct {
	endpoint   string
	threshold  float64
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	_inst := &Client{
		endpoint:  DefaultEndpoint,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.httpClient == nil {
		_inst.httpClient = cleanhttp.DefaultPooledClient()
		_inst.httpClient.Timeout = _inst.timeout
	} else if _inst.timeout > 0 {
		client := *_inst.httpClient
		client.Timeout = _inst.timeout
		_inst.httpClient = &client
	}
	return _inst
}

type siteVerifyResponse struct {
	Success    *bool    `json:"success"`
	Score      *float64 `json:"score,omitempty"`
	Action     string   `json:"action,omitempty"`
	Hostname   string   `json:"hostname,omitempty"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Verify posts secret and token to the verification endpoint and interprets the answer.
// Network errors, non-200 statuses and malformed documents are reported as *TransportError.
func (c *Client) Verify(ctx context.Context, secret, token, remoteIP string) (*Result, error) {
	logger := c.logger.With(slog.String("token", helpers.Truncate(token, 12)))

	form := url.Values{
		"secret":   {secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Cause: errors.Wrap(err, "failed to create verification request")}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logger.Debug("sending verification request...", slog.String("endpoint", c.endpoint))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Cause: errors.Wrap(err, "failed to send verification request")}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.Warn("unexpected verification status", slog.Int("status", resp.StatusCode))
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	var payload siteVerifyResponse
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &TransportError{Cause: errors.Wrap(err, "failed to decode verification response")}
	}
	if payload.Success == nil {
		return nil, &TransportError{Cause: errors.New("verification response has no success field")}
	}

	result := c.interpret(payload)
	logger.Info("token verified", slog.Any("result", result), slog.String("action", payload.Action), slog.String("hostname", payload.Hostname))
	return result, nil
}

func (c *Client) interpret(payload siteVerifyResponse) *Result {
	result := &Result{
		Success:    *payload.Success,
		Score:      payload.Score,
		ErrorCodes: payload.ErrorCodes,
		Outcome:    Verified,
	}
	if result.ErrorCodes == nil {
		result.ErrorCodes = []string{}
	}
	switch {
	case !result.Success:
		result.Outcome = Rejected
	case result.Score != nil && *result.Score < c.threshold:
		result.Outcome = BelowThreshold
	}
	return result
}
