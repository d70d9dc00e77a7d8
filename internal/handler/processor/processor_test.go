package processor_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/isometry/recaptcha-form-app/internal/form"
	"github.com/isometry/recaptcha-form-app/internal/handler/processor"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/isometry/recaptcha-form-app/internal/models"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
	"github.com/isometry/recaptcha-form-app/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	result   *recaptcha.Result
	err      error
	secret   string
	token    string
	remoteIP string
}

func (f *fakeVerifier) Verify(_ context.Context, secret, token, remoteIP string) (*recaptcha.Result, error) {
	f.secret, f.token, f.remoteIP = secret, token, remoteIP
	return f.result, f.err
}

func TestProcess_StopsAtFirstError(t *testing.T) {
	bus := &processor.Bus{Request: models.Request{Method: http.MethodGet}}
	after := processor.NewVerifiedProcessor()

	err := processor.Process(context.Background(), helpers.NewNoopLogger(), bus,
		processor.NewMethodProcessor(), after)
	require.ErrorIs(t, err, processor.ErrMethodNotAllowed)
	assert.Equal(t, err, bus.Error)
	assert.Equal(t, http.StatusMethodNotAllowed, bus.Response.StatusCode)
	assert.JSONEq(t, `{"Error":"Method not allowed"}`, bus.Response.Body)
	assert.Equal(t, http.MethodPost, bus.Response.Headers["Allow"])
}

func TestBodyProcessor(t *testing.T) {
	testCases := []struct {
		Name          string
		Body          *string
		ExpectedToken string
		ExpectedBody  string
		ExpectedInput bool
	}{
		{Name: "nil", ExpectedBody: `{"Error":"Empty body"}`, ExpectedInput: true},
		{Name: "blank", Body: helpers.Ptr("  \n"), ExpectedBody: `{"Error":"Empty body"}`, ExpectedInput: true},
		{Name: "array", Body: helpers.Ptr(`["a"]`), ExpectedBody: `{"Error":"Exception occurred"}`, ExpectedInput: true},
		{Name: "missing_token", Body: helpers.Ptr(`{"name":"Alice"}`), ExpectedBody: `{"Error":"Exception occurred"}`, ExpectedInput: true},
		{Name: "empty_token", Body: helpers.Ptr(`{"name":"Alice","g-recaptcha-response":""}`)},
		{Name: "token", Body: helpers.Ptr(`{"g-recaptcha-response":"abc","name":"Alice"}`), ExpectedToken: "abc"},
		{Name: "duplicate_token", Body: helpers.Ptr(`{"g-recaptcha-response":"abc","g-recaptcha-response":"xyz"}`), ExpectedToken: "xyz"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			bus := &processor.Bus{Request: models.Request{Method: http.MethodPost, Body: tc.Body}}
			err := processor.NewBodyProcessor("g-recaptcha-response").Process(context.Background(), bus)
			if tc.ExpectedBody != "" {
				require.Error(t, err)
				var inputErr *form.InputError
				assert.Equal(t, tc.ExpectedInput, errors.As(err, &inputErr))
				assert.Equal(t, http.StatusInternalServerError, bus.Response.StatusCode)
				assert.JSONEq(t, tc.ExpectedBody, bus.Response.Body)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedToken, bus.Token)
			assert.NotEmpty(t, bus.Fields)
		})
	}
}

func TestSecretProcessor(t *testing.T) {
	bus := &processor.Bus{}
	require.NoError(t, processor.NewSecretProcessor(secret.Static("s3cr3t")).Process(context.Background(), bus))
	assert.Equal(t, "s3cr3t", bus.Secret)

	bus = &processor.Bus{}
	err := processor.NewSecretProcessor(secret.Static("")).Process(context.Background(), bus)
	var unavailable *secret.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.JSONEq(t, `{"Error":"Unable to resolve secret"}`, bus.Response.Body)
}

func TestVerifyProcessor(t *testing.T) {
	score := 0.9
	testCases := []struct {
		Name            string
		Verifier        *fakeVerifier
		ForwardRemoteIP bool
		ExpectError     bool
		ExpectedStatus  int
		ExpectedBody    string
		ExpectedIP      string
	}{
		{
			Name:     "verified",
			Verifier: &fakeVerifier{result: &recaptcha.Result{Success: true, Score: &score, ErrorCodes: []string{}, Outcome: recaptcha.Verified}},
		},
		{
			Name:            "verified_forwarding_ip",
			Verifier:        &fakeVerifier{result: &recaptcha.Result{Success: true, ErrorCodes: []string{}, Outcome: recaptcha.Verified}},
			ForwardRemoteIP: true,
			ExpectedIP:      "192.0.2.1",
		},
		{
			Name:           "transport_error",
			Verifier:       &fakeVerifier{err: &recaptcha.TransportError{StatusCode: http.StatusServiceUnavailable}},
			ExpectError:    true,
			ExpectedStatus: http.StatusInternalServerError,
			ExpectedBody:   `{"Error":"ReCaptcha validation failed"}`,
		},
		{
			Name:           "rejected",
			Verifier:       &fakeVerifier{result: &recaptcha.Result{ErrorCodes: []string{"timeout-or-duplicate"}, Outcome: recaptcha.Rejected}},
			ExpectError:    true,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   `{"Error":"ReCaptcha validation failed.","error-codes":["timeout-or-duplicate"]}`,
		},
		{
			Name:           "below_threshold",
			Verifier:       &fakeVerifier{result: &recaptcha.Result{Success: true, Score: helpers.Ptr(0.1), ErrorCodes: []string{}, Outcome: recaptcha.BelowThreshold}},
			ExpectError:    true,
			ExpectedStatus: http.StatusOK,
			ExpectedBody:   `{"Error":"Score below threshhold"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			bus := &processor.Bus{
				Request: models.Request{Method: http.MethodPost, SourceIP: "192.0.2.1"},
				Secret:  "s3cr3t",
				Token:   "token",
			}
			err := processor.NewVerifyProcessor(tc.Verifier, tc.ForwardRemoteIP).Process(context.Background(), bus)

			assert.Equal(t, "s3cr3t", tc.Verifier.secret)
			assert.Equal(t, "token", tc.Verifier.token)
			assert.Equal(t, tc.ExpectedIP, tc.Verifier.remoteIP)
			if !tc.ExpectError {
				require.NoError(t, err)
				assert.Zero(t, bus.Response.StatusCode)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.ExpectedStatus, bus.Response.StatusCode)
			assert.JSONEq(t, tc.ExpectedBody, bus.Response.Body)
		})
	}
}

func TestNewResponse(t *testing.T) {
	response := processor.ErrorResponse(http.StatusTeapot, "nope")
	assert.Equal(t, http.StatusTeapot, response.StatusCode)
	assert.JSONEq(t, `{"Error":"nope"}`, response.Body)
	assert.Equal(t, processor.CORSHeaders(), response.Headers)

	response = processor.NewResponse(http.StatusOK, map[string]any{"bad": func() {}})
	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.JSONEq(t, `{"Error":"Exception occurred"}`, response.Body)
}
