package handler

import (
	"log/slog"

	"github.com/isometry/recaptcha-form-app/internal/handler/processor"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
	"github.com/isometry/recaptcha-form-app/internal/secret"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithFunction selects the handler variant, either verify or submit.
func WithFunction(function string) Option {
	return func(h *Handler) {
		h.function = function
	}
}

// WithTokenField sets the body field that carries the reCAPTCHA token.
func WithTokenField(name string) Option {
	return func(h *Handler) {
		h.tokenField = name
	}
}

// WithForwardRemoteIP forwards the caller source IP to the verification service.
func WithForwardRemoteIP(enabled bool) Option {
	return func(h *Handler) {
		h.forwardRemoteIP = enabled
	}
}

// WithSecretResolver sets the source of the verification secret, resolved on every request.
func WithSecretResolver(resolver secret.Resolver) Option {
	return func(h *Handler) {
		h.resolver = resolver
	}
}

// WithVerifier sets the reCAPTCHA verifier.
func WithVerifier(verifier recaptcha.Verifier) Option {
	return func(h *Handler) {
		h.verifier = verifier
	}
}

// WithNotifier sets the notifier used by the submit function.
func WithNotifier(notifier processor.Notifier) Option {
	return func(h *Handler) {
		h.notifier = notifier
	}
}

// WithRecipients sets the notification recipients.
func WithRecipients(recipients []string) Option {
	return func(h *Handler) {
		h.recipients = recipients
	}
}

// WithSender sets the notification sender address.
func WithSender(sender string) Option {
	return func(h *Handler) {
		h.sender = sender
	}
}
