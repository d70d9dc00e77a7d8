// Package notification renders submitted form fields into a dual-format email and dispatches it.
package notification

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"

	"github.com/aws/smithy-go"
	"github.com/isometry/recaptcha-form-app/internal/controllers/aws"
	"github.com/isometry/recaptcha-form-app/internal/form"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

const (
	// DefaultSubject is the subject line of every form notification.
	DefaultSubject = "Form Submitted"
	// DefaultTokenField is the form field carrying the reCAPTCHA token.
	DefaultTokenField = "g-recaptcha-response"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	htmlBody = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/body.html.tmpl"))
	textBody = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/body.txt.tmpl"))
)

// DispatchError reports a notification that could not be sent.
type DispatchError struct {
	Cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notification dispatch error: %v", e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Sender delivers a rendered email and returns the provider message ID.
type Sender interface {
	SendEmail(ctx context.Context, email aws.Email) (string, error)
}

// Message is a rendered form notification.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSubject overrides the subject line.
func WithSubject(subject string) Option {
	return func(d *Dispatcher) {
		d.subject = subject
	}
}

// WithTokenField sets the field excluded from the rendered output.
func WithTokenField(name string) Option {
	return func(d *Dispatcher) {
		d.tokenField = name
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Dispatcher renders form fields and hands them to a Sender.
type Dispatcher struct {
	sender     Sender
	subject    string
	tokenField string
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher delivering through sender.
func NewDispatcher(sender Sender, opts ...Option) *Dispatcher {
	_inst := &Dispatcher{
		sender:     sender,
		subject:    DefaultSubject,
		tokenField: DefaultTokenField,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// Render builds the text and HTML bodies for fields, skipping the token field. HTML output is escaped.
func (d *Dispatcher) Render(fields form.Fields) (*Message, error) {
	content := fields.Without(d.tokenField)

	var text, html strings.Builder
	if err := textBody.Execute(&text, content); err != nil {
		return nil, errors.Wrap(err, "failed to render text body")
	}
	if err := htmlBody.Execute(&html, content); err != nil {
		return nil, errors.Wrap(err, "failed to render HTML body")
	}
	return &Message{
		Subject: d.subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// Notify renders fields and sends them from sender to recipients. Every failure is a *DispatchError.
func (d *Dispatcher) Notify(ctx context.Context, fields form.Fields, recipients []string, sender string) error {
	if len(recipients) == 0 {
		return &DispatchError{Cause: errors.New("no recipients configured")}
	}
	if sender == "" {
		return &DispatchError{Cause: errors.New("no sender configured")}
	}

	msg, err := d.Render(fields)
	if err != nil {
		return &DispatchError{Cause: err}
	}

	id, err := d.sender.SendEmail(ctx, aws.Email{
		From:    sender,
		To:      recipients,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			d.logger.Error("email service rejected the message",
				slog.String("code", apiErr.ErrorCode()),
				slog.String("message", apiErr.ErrorMessage()))
		} else {
			d.logger.Error("failed to send email", slog.Any("error", err))
		}
		return &DispatchError{Cause: err}
	}
	d.logger.Info("email sent", slog.String("messageId", id), slog.Int("recipients", len(recipients)))
	return nil
}
