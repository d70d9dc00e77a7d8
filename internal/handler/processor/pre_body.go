package processor

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isometry/recaptcha-form-app/internal/form"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

type bodyProcessor struct {
	logger     *slog.Logger
	tokenField string
}

// NewBodyProcessor parses the request body into form fields and extracts the token stored under tokenField.
func NewBodyProcessor(tokenField string) Processor {
	return &bodyProcessor{tokenField: tokenField, logger: helpers.NewNoopLogger()}
}

func (p *bodyProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:body")
}

func (p *bodyProcessor) Process(_ context.Context, bus *Bus) error {
	body := helpers.String(bus.Request.Body)
	if strings.TrimSpace(body) == "" {
		p.logger.Warn("empty body")
		bus.Response = ErrorResponse(emptyBodyStatus, MsgEmptyBody)
		return &form.InputError{Cause: errors.New("empty body")}
	}

	fields, err := form.Parse([]byte(body))
	if err != nil {
		p.logger.Warn("failed to parse body", slog.Any("error", err))
		bus.Response = ErrorResponse(http.StatusInternalServerError, MsgException)
		return err
	}

	token, found := fields.Get(p.tokenField)
	if !found {
		p.logger.Warn("missing token field", slog.String("field", p.tokenField))
		bus.Response = ErrorResponse(http.StatusInternalServerError, MsgException)
		return &form.InputError{Cause: errors.Errorf("missing field %s", p.tokenField)}
	}

	bus.Fields = fields
	bus.Token = token
	p.logger.Debug("parsed body", slog.Int("fields", len(fields)))
	return nil
}
