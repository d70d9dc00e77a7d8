// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

const (
	// ModeLambda runs the handler inside the AWS Lambda runtime.
	ModeLambda = "lambda"
	// ModeService runs the handler behind a local HTTP server.
	ModeService = "service"

	// FunctionVerify only validates the reCAPTCHA token.
	FunctionVerify = "verify"
	// FunctionSubmit validates the token and forwards the form by email.
	FunctionSubmit = "submit"

	// SecretProviderKMS decrypts a base64 ciphertext blob with AWS KMS.
	SecretProviderKMS = "kms"
	// SecretProviderSSM reads a SecureString parameter from AWS SSM.
	SecretProviderSSM = "ssm"
	// SecretProviderPlain uses the configured value as-is.
	SecretProviderPlain = "plain"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Secret is a struct that contains the configuration of the reCAPTCHA secret source.
	Secret secret
	// Recaptcha is a struct that contains the configuration for the verification client.
	Recaptcha recaptcha
	// Email is a struct that contains the configuration for the notification dispatcher.
	Email email
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"lambda"`
	// Function selects the handler variant.
	Function string `yaml:"function,omitempty" default:"submit"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type secret struct {
	Provider string `yaml:"provider,omitempty" default:"kms"`
	// Value is the base64 KMS ciphertext for the kms provider, or the secret itself for the plain provider.
	Value  string `yaml:"value,omitempty"`
	SSMKey string `yaml:"ssmKey,omitempty"`
}

type recaptcha struct {
	Endpoint string `yaml:"endpoint,omitempty" default:"https://www.google.com/recaptcha/api/siteverify"`
	// Threshold is the minimum accepted score. An explicit 0 in the configuration file is kept by SetDefaults.
	Threshold  float64 `yaml:"threshold,omitempty" default:"0.5"`
	TokenField string  `yaml:"tokenField,omitempty" default:"g-recaptcha-response"`
	// Timeout of the verification call. Zero means no explicit timeout.
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	ForwardRemoteIP bool          `yaml:"forwardRemoteIP,omitempty"`

	thresholdSet bool
}

// UnmarshalYAML records whether the threshold was set explicitly, since defaults cannot tell 0 from unset.
func (r *recaptcha) UnmarshalYAML(value *yaml.Node) error {
	type plain recaptcha
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	var explicit struct {
		Threshold *float64 `yaml:"threshold"`
	}
	if err := value.Decode(&explicit); err != nil {
		return err
	}
	r.thresholdSet = explicit.Threshold != nil
	return nil
}

type email struct {
	To      []string `yaml:"to,omitempty"`
	From    string   `yaml:"from,omitempty"`
	Subject string   `yaml:"subject,omitempty" default:"Form Submitted"`
	// Region overrides the SDK default region for SES.
	Region string `yaml:"region,omitempty"`
}

type service struct {
	Path    string        `yaml:"path,omitempty" default:"/"`
	Addr    string        `yaml:"addr,omitempty"`
	Port    string        `yaml:"port,omitempty" default:"8080"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"5s"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v1"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	threshold, keepThreshold := Recaptcha.Threshold, Recaptcha.thresholdSet
	err := errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Secret),
		defaults.Set(&Recaptcha),
		defaults.Set(&Email),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
	if keepThreshold {
		Recaptcha.Threshold = threshold
	}
	return err
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global    global    `yaml:"global,omitempty"`
		Secret    secret    `yaml:"secret,omitempty"`
		Recaptcha recaptcha `yaml:"recaptcha,omitempty"`
		Email     email     `yaml:"email,omitempty"`
		Service   service   `yaml:"service,omitempty"`
		Lambda    lambda    `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Secret = a.Secret
	Recaptcha = a.Recaptcha
	Email = a.Email
	Service = a.Service
	Lambda = a.Lambda

	return nil
}
