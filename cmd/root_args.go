package cmd

import (
	"time"

	"github.com/isometry/recaptcha-form-app/internal/config"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'lambda' and 'service'",
		Short:       helpers.Ptr("m"),
	},
	&config.Global.Function: {
		Name:        "function",
		Description: "The handler variant. Possible values are 'verify' and 'submit'",
		Short:       helpers.Ptr("f"),
	},
	&config.Secret.Provider: {
		Name:        "secret-provider",
		Description: "The reCAPTCHA secret provider. Supported values are 'kms', 'ssm' and 'plain'",
	},
	&config.Secret.Value: {
		Name:        "secret-value",
		Description: "The base64 KMS ciphertext of the reCAPTCHA secret, or the secret itself with the 'plain' provider",
		Env:         helpers.Ptr("recaptchaKey"),
		Hidden:      true,
	},
	&config.Secret.SSMKey: {
		Name:        "secret-ssm-key",
		Description: "The SSM parameter key holding the reCAPTCHA secret with the 'ssm' provider",
	},
	&config.Recaptcha.Endpoint: {
		Name:        "recaptcha-endpoint",
		Description: "The reCAPTCHA siteverify endpoint",
	},
	&config.Recaptcha.TokenField: {
		Name:        "recaptcha-token-field",
		Description: "The form field carrying the reCAPTCHA token",
	},
	&config.Email.From: {
		Name:        "email-from",
		Description: "The sender address of the form notification emails",
		Env:         helpers.Ptr("emailFrom"),
	},
	&config.Email.Subject: {
		Name:        "email-subject",
		Description: "The subject of the form notification emails",
	},
	&config.Email.Region: {
		Name:        "email-region",
		Description: "The AWS region of the SES endpoint. Defaults to the SDK region",
	},
	&config.Lambda.PayloadType: {
		Name:        "lambda-payload-type",
		Description: "The Lambda payload type. Supported values are 'api-gateway-v1', 'api-gateway-v2' and 'lambda-url'",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Recaptcha.ForwardRemoteIP: {
		Name:        "recaptcha-forward-remote-ip",
		Description: "Forward the client source IP to the siteverify endpoint",
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapFloat = map[*float64]boundEnvVar[float64]{
	&config.Recaptcha.Threshold: {
		Name:        "recaptcha-threshold",
		Description: "The minimum reCAPTCHA score accepted",
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Recaptcha.Timeout: {
		Name:        "recaptcha-timeout",
		Description: "The timeout of the siteverify call. Zero disables it",
	},
}

var envMapStringSlice = map[*[]string]boundEnvVar[[]string]{
	&config.Email.To: {
		Name:        "email-to",
		Description: "The comma-separated recipients of the form notification emails",
		Env:         helpers.Ptr("emailTo"),
	},
}
