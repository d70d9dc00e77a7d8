// Package processor provides the steps of a form request and a generic way to run them in order.
package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/recaptcha-form-app/internal/form"
	"github.com/isometry/recaptcha-form-app/internal/models"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
)

// Bus carries the state of a single invocation between processors.
type Bus struct {
	Request models.Request

	Secret       string
	Fields       form.Fields
	Token        string
	Verification *recaptcha.Result

	Response models.Response
	Error    error
}

// LogValue implements slog.LogValuer.
func (b *Bus) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("method", b.Request.Method),
		slog.Int("status", b.Response.StatusCode),
		slog.Int("fields", len(b.Fields)),
	}
	if b.Verification != nil {
		attrs = append(attrs, slog.Any("verification", b.Verification))
	}
	return slog.GroupValue(attrs...)
}

// Processor is an interface that defines a single step of the request handling.
// A processor that returns an error must have set the final response on the bus.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, bus *Bus) error
}

// Process runs processors in order and stops at the first error.
func Process(ctx context.Context, logger *slog.Logger, bus *Bus, processors ...Processor) error {
	for _, p := range processors {
		p.SetLogger(logger)
		if err := p.Process(ctx, bus); err != nil {
			bus.Error = err
			return err
		}
	}
	return nil
}
