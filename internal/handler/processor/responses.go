package processor

import (
	"encoding/json"
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/models"
)

// Response messages. Clients match on them, so they must not change.
const (
	MsgMethodNotAllowed    = "Method not allowed"
	MsgSecretUnavailable   = "Unable to resolve secret"
	MsgEmptyBody           = "Empty body"
	MsgException           = "Exception occurred"
	MsgTransportFailure    = "ReCaptcha validation failed"
	MsgValidationFailed    = "ReCaptcha validation failed."
	MsgBelowThreshold      = "Score below threshhold"
	MsgValidationSucceeded = "ReCaptcha validation succeeded"
	MsgEmailFailed         = "Unable to send email"
	MsgEmailSent           = "Email sent successfully"
)

// emptyBodyStatus is a client error really, kept at 500 for compatibility with existing deployments.
const emptyBodyStatus = http.StatusInternalServerError

type errorBody struct {
	Error string `json:"Error"`
}

type rejectionBody struct {
	Error      string   `json:"Error"`
	ErrorCodes []string `json:"error-codes"`
}

type messageBody struct {
	Message string   `json:"message"`
	Score   *float64 `json:"score,omitempty"`
}

// CORSHeaders returns the headers set on every response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": "OPTIONS,POST,GET",
		"Content-Type":                 "application/json",
	}
}

// NewResponse encodes payload as the JSON body of a response carrying the CORS headers.
func NewResponse(statusCode int, payload any) models.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body = []byte(`{"Error":"` + MsgException + `"}`)
	}
	return models.Response{
		Body:       string(body),
		Headers:    CORSHeaders(),
		StatusCode: statusCode,
	}
}

// ErrorResponse is a response with an {"Error": msg} body.
func ErrorResponse(statusCode int, msg string) models.Response {
	return NewResponse(statusCode, errorBody{Error: msg})
}
