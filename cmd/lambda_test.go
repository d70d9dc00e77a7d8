package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/isometry/recaptcha-form-app/internal/config"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig restores the configuration globals after the test and keeps the AWS SDK away from the host.
func isolateConfig(t *testing.T) {
	t.Helper()
	global, sec, rc, email, lmb := config.Global, config.Secret, config.Recaptcha, config.Email, config.Lambda
	t.Cleanup(func() {
		config.Global, config.Secret, config.Recaptcha, config.Email, config.Lambda = global, sec, rc, email, lmb
	})
	require.NoError(t, config.SetDefaults())

	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	logger = helpers.NewNoopLogger()
}

func TestSetup(t *testing.T) {
	testCases := []struct {
		Name          string
		Function      string
		Provider      string
		PayloadType   string
		ExpectedAWS   bool
		ExpectedError bool
	}{
		{Name: "plain_verify", Function: config.FunctionVerify, Provider: config.SecretProviderPlain, ExpectedAWS: false},
		{Name: "plain_submit", Function: config.FunctionSubmit, Provider: config.SecretProviderPlain, ExpectedAWS: true},
		{Name: "kms_verify", Function: config.FunctionVerify, Provider: config.SecretProviderKMS, ExpectedAWS: true},
		{Name: "ssm_submit", Function: config.FunctionSubmit, Provider: config.SecretProviderSSM, ExpectedAWS: true},
		{Name: "mixed_case_plain_verify", Function: " Verify ", Provider: "PLAIN", ExpectedAWS: false},
		{Name: "unknown_function", Function: "relay", Provider: config.SecretProviderPlain, ExpectedError: true},
		{Name: "unknown_provider", Function: config.FunctionVerify, Provider: "vault", ExpectedAWS: true, ExpectedError: true},
		{Name: "unknown_payload_type", Function: config.FunctionVerify, Provider: config.SecretProviderPlain, PayloadType: "sqs", ExpectedError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			isolateConfig(t)
			config.Global.Function = tc.Function
			config.Secret.Provider = tc.Provider
			config.Secret.Value = "s3cr3t"
			config.Secret.SSMKey = "/forms/recaptcha"
			if tc.PayloadType != "" {
				config.Lambda.PayloadType = tc.PayloadType
			}

			assert.Equal(t, tc.ExpectedAWS, needsAWS())

			rt, err := setup(context.Background())
			if tc.ExpectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rt)
		})
	}
}
