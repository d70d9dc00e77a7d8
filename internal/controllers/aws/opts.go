package aws

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithContext sets a custom context to be used by the Controller instance while loading its configuration.
func WithContext(ctx context.Context) Option {
	return func(a *Controller) {
		a.ctx = ctx
	}
}

// WithConfig uses cfg instead of loading the default AWS configuration.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithSESRegion pins the SES client to region. An empty region keeps the configuration default.
func WithSESRegion(region string) Option {
	return func(a *Controller) {
		a.sesRegion = region
	}
}

// WithKMSClient injects the KMS client.
func WithKMSClient(client KMSAPI) Option {
	return func(a *Controller) {
		a.kmsClient = client
	}
}

// WithSSMClient injects the SSM client.
func WithSSMClient(client SSMAPI) Option {
	return func(a *Controller) {
		a.ssmClient = client
	}
}

// WithSESClient injects the SES client.
func WithSESClient(client SESAPI) Option {
	return func(a *Controller) {
		a.sesClient = client
	}
}
