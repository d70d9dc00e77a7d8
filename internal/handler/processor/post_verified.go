package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/helpers"
)

type verifiedProcessor struct {
	logger *slog.Logger
}

// NewVerifiedProcessor sets the success response of the verify-only function.
func NewVerifiedProcessor() Processor {
	return &verifiedProcessor{logger: helpers.NewNoopLogger()}
}

func (p *verifiedProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:verified")
}

func (p *verifiedProcessor) Process(_ context.Context, bus *Bus) error {
	body := messageBody{Message: MsgValidationSucceeded}
	if bus.Verification != nil {
		body.Score = bus.Verification.Score
	}
	bus.Response = NewResponse(http.StatusOK, body)
	p.logger.Debug("token verified")
	return nil
}
