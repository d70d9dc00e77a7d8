package recaptcha_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	Status int
	Body   string
	Delay  time.Duration
	Form   url.Values
	Calls  int
}

func (u *upstream) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.Calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		u.Form, _ = url.ParseQuery(string(raw))
		if u.Delay > 0 {
			time.Sleep(u.Delay)
		}
		w.WriteHeader(u.Status)
		_, _ = w.Write([]byte(u.Body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func score(v float64) *float64 {
	return &v
}

func TestClient_Verify(t *testing.T) {
	testCases := []struct {
		Name            string
		Upstream        upstream
		ExpectTransport bool
		ExpectedOutcome recaptcha.Outcome
		ExpectedScore   *float64
		ExpectedCodes   []string
	}{
		{
			Name:            "verified_with_score",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.9}`},
			ExpectedOutcome: recaptcha.Verified,
			ExpectedScore:   score(0.9),
			ExpectedCodes:   []string{},
		},
		{
			Name:            "verified_at_threshold",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.5}`},
			ExpectedOutcome: recaptcha.Verified,
			ExpectedScore:   score(0.5),
			ExpectedCodes:   []string{},
		},
		{
			Name:            "verified_without_score",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": true, "hostname": "example.com"}`},
			ExpectedOutcome: recaptcha.Verified,
			ExpectedCodes:   []string{},
		},
		{
			Name:            "rejected_with_error_codes",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": false, "error-codes": ["invalid-input-secret"]}`},
			ExpectedOutcome: recaptcha.Rejected,
			ExpectedCodes:   []string{"invalid-input-secret"},
		},
		{
			Name:            "rejected_without_error_codes",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": false}`},
			ExpectedOutcome: recaptcha.Rejected,
			ExpectedCodes:   []string{},
		},
		{
			Name:            "rejected_takes_precedence_over_score",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": false, "score": 0.1, "error-codes": ["timeout-or-duplicate"]}`},
			ExpectedOutcome: recaptcha.Rejected,
			ExpectedScore:   score(0.1),
			ExpectedCodes:   []string{"timeout-or-duplicate"},
		},
		{
			Name:            "below_threshold",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.3}`},
			ExpectedOutcome: recaptcha.BelowThreshold,
			ExpectedScore:   score(0.3),
			ExpectedCodes:   []string{},
		},
		{
			Name:            "non_200_status",
			Upstream:        upstream{Status: http.StatusServiceUnavailable, Body: `{"success": true, "score": 0.9}`},
			ExpectTransport: true,
		},
		{
			Name:            "malformed_json",
			Upstream:        upstream{Status: http.StatusOK, Body: `<html>`},
			ExpectTransport: true,
		},
		{
			Name:            "missing_success_field",
			Upstream:        upstream{Status: http.StatusOK, Body: `{"score": 0.9}`},
			ExpectTransport: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			up := tc.Upstream
			srv := up.serve(t)
			client := recaptcha.NewClient(recaptcha.WithEndpoint(srv.URL))

			result, err := client.Verify(context.Background(), "s3cr3t", "token-value", "")
			assert.Equal(t, 1, up.Calls)
			assert.Equal(t, "s3cr3t", up.Form.Get("secret"))
			assert.Equal(t, "token-value", up.Form.Get("response"))
			assert.False(t, up.Form.Has("remoteip"))

			if tc.ExpectTransport {
				var transportErr *recaptcha.TransportError
				assert.ErrorAs(t, err, &transportErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedOutcome, result.Outcome)
			assert.Equal(t, tc.ExpectedScore, result.Score)
			assert.Equal(t, tc.ExpectedCodes, result.ErrorCodes)
			if tc.ExpectedOutcome == recaptcha.Verified {
				assert.NoError(t, result.Err())
			} else {
				var rejectionErr *recaptcha.RejectionError
				assert.ErrorAs(t, result.Err(), &rejectionErr)
			}
		})
	}
}

func TestClient_VerifyForwardsRemoteIP(t *testing.T) {
	up := upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.9}`}
	srv := up.serve(t)
	client := recaptcha.NewClient(recaptcha.WithEndpoint(srv.URL))

	_, err := client.Verify(context.Background(), "s3cr3t", "token-value", "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", up.Form.Get("remoteip"))
}

func TestClient_VerifyCustomThreshold(t *testing.T) {
	up := upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.6}`}
	srv := up.serve(t)
	client := recaptcha.NewClient(recaptcha.WithEndpoint(srv.URL), recaptcha.WithThreshold(0.7))

	result, err := client.Verify(context.Background(), "s3cr3t", "token-value", "")
	require.NoError(t, err)
	assert.Equal(t, recaptcha.BelowThreshold, result.Outcome)
}

func TestClient_VerifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := recaptcha.NewClient(recaptcha.WithEndpoint(endpoint)).Verify(context.Background(), "s3cr3t", "token-value", "")
	var transportErr *recaptcha.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestClient_VerifyTimeout(t *testing.T) {
	up := upstream{Status: http.StatusOK, Body: `{"success": true}`, Delay: 200 * time.Millisecond}
	srv := up.serve(t)
	client := recaptcha.NewClient(recaptcha.WithEndpoint(srv.URL), recaptcha.WithTimeout(20*time.Millisecond))

	_, err := client.Verify(context.Background(), "s3cr3t", "token-value", "")
	var transportErr *recaptcha.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(req)
}

func TestClient_VerifyWithHTTPClient(t *testing.T) {
	transport := &countingTransport{}
	injected := &http.Client{Transport: transport}

	up := upstream{Status: http.StatusOK, Body: `{"success": true, "score": 0.9}`}
	srv := up.serve(t)
	client := recaptcha.NewClient(recaptcha.WithEndpoint(srv.URL), recaptcha.WithHTTPClient(injected))

	result, err := client.Verify(context.Background(), "s3cr3t", "token-value", "")
	require.NoError(t, err)
	assert.Equal(t, recaptcha.Verified, result.Outcome)
	assert.Equal(t, 1, transport.calls)

	slow := upstream{Status: http.StatusOK, Body: `{"success": true}`, Delay: 200 * time.Millisecond}
	slowSrv := slow.serve(t)
	client = recaptcha.NewClient(
		recaptcha.WithEndpoint(slowSrv.URL),
		recaptcha.WithHTTPClient(injected),
		recaptcha.WithTimeout(20*time.Millisecond))

	_, err = client.Verify(context.Background(), "s3cr3t", "token-value", "")
	var transportErr *recaptcha.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 2, transport.calls)
	assert.Zero(t, injected.Timeout)
}
