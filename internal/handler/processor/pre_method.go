package processor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

// ErrMethodNotAllowed is returned for any request that is not a POST.
var ErrMethodNotAllowed = errors.New("method not allowed")

type methodProcessor struct {
	logger *slog.Logger
}

// NewMethodProcessor rejects every method but POST with 405.
func NewMethodProcessor() Processor {
	return &methodProcessor{logger: helpers.NewNoopLogger()}
}

func (p *methodProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:method")
}

func (p *methodProcessor) Process(_ context.Context, bus *Bus) error {
	if strings.EqualFold(bus.Request.Method, http.MethodPost) {
		return nil
	}
	p.logger.Info("rejecting request...", "reason", "method not allowed", slog.String("method", bus.Request.Method))
	bus.Response = ErrorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	bus.Response.Headers["Allow"] = http.MethodPost
	return ErrMethodNotAllowed
}
