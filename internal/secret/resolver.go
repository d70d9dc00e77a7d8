// Package secret resolves the shared reCAPTCHA secret for each invocation.
package secret

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/isometry/recaptcha-form-app/internal/config"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

// UnavailableError is returned when the secret cannot be produced. It is fatal for the invocation.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("secret unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func unavailable(format string, args ...any) error {
	return &UnavailableError{Cause: errors.Errorf(format, args...)}
}

// Resolver produces the plaintext secret.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Decrypter decrypts a base64 encoded ciphertext blob.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

// ParameterStore reads named, optionally encrypted, parameters.
type ParameterStore interface {
	GetSecret(ctx context.Context, key string, encrypted bool) (string, error)
}

// Option configures the resolver returned by NewResolver.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	decrypter Decrypter
	store     ParameterStore
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDecrypter sets the backend of the kms provider.
func WithDecrypter(d Decrypter) Option {
	return func(o *options) {
		o.decrypter = d
	}
}

// WithParameterStore sets the backend of the ssm provider.
func WithParameterStore(s ParameterStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// NewResolver returns the Resolver for provider. value is the ciphertext (kms), the parameter key (ssm) or the
// secret itself (plain).
func NewResolver(provider, value string, opts ...Option) (Resolver, error) {
	o := &options{logger: helpers.NewNoopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	switch strings.TrimSpace(strings.ToLower(provider)) {
	case config.SecretProviderKMS:
		if o.decrypter == nil {
			return nil, errors.New("kms secret provider requires a decrypter")
		}
		return &kmsResolver{ciphertext: value, decrypter: o.decrypter, logger: o.logger}, nil
	case config.SecretProviderSSM:
		if o.store == nil {
			return nil, errors.New("ssm secret provider requires a parameter store")
		}
		return &ssmResolver{key: value, store: o.store, logger: o.logger}, nil
	case config.SecretProviderPlain:
		return Static(value), nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", provider)
	}
}

// Static is a Resolver that always returns itself.
type Static string

// Resolve returns the static secret.
func (s Static) Resolve(context.Context) (string, error) {
	if s == "" {
		return "", unavailable("empty secret")
	}
	return string(s), nil
}

type kmsResolver struct {
	ciphertext string
	decrypter  Decrypter
	logger     *slog.Logger
}

func (r *kmsResolver) Resolve(ctx context.Context) (string, error) {
	if r.ciphertext == "" {
		return "", unavailable("missing ciphertext")
	}
	r.logger.Debug("decrypting secret...")
	plaintext, err := r.decrypter.Decrypt(ctx, r.ciphertext)
	if err != nil {
		return "", &UnavailableError{Cause: err}
	}
	if plaintext == "" {
		return "", unavailable("decrypted secret is empty")
	}
	return plaintext, nil
}

type ssmResolver struct {
	key    string
	store  ParameterStore
	logger *slog.Logger
}

func (r *ssmResolver) Resolve(ctx context.Context) (string, error) {
	if r.key == "" {
		return "", unavailable("missing SSM parameter key")
	}
	r.logger.Debug("retrieving secret from SSM...", slog.String("key", r.key))
	value, err := r.store.GetSecret(ctx, r.key, true)
	if err != nil {
		return "", &UnavailableError{Cause: err}
	}
	if value == "" {
		return "", unavailable("SSM parameter %s is empty", r.key)
	}
	return value, nil
}
