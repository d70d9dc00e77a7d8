package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
)

type verifyProcessor struct {
	logger          *slog.Logger
	verifier        recaptcha.Verifier
	forwardRemoteIP bool
}

// NewVerifyProcessor checks the bus token against the verifier. It stops the chain unless the token is Verified.
func NewVerifyProcessor(verifier recaptcha.Verifier, forwardRemoteIP bool) Processor {
	return &verifyProcessor{verifier: verifier, forwardRemoteIP: forwardRemoteIP, logger: helpers.NewNoopLogger()}
}

func (p *verifyProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:verify")
}

func (p *verifyProcessor) Process(ctx context.Context, bus *Bus) error {
	var remoteIP string
	if p.forwardRemoteIP {
		remoteIP = bus.Request.SourceIP
	}

	result, err := p.verifier.Verify(ctx, bus.Secret, bus.Token, remoteIP)
	if err != nil {
		p.logger.Warn("verification request failed", slog.Any("error", err))
		bus.Response = ErrorResponse(http.StatusInternalServerError, MsgTransportFailure)
		return err
	}
	bus.Verification = result

	switch result.Outcome {
	case recaptcha.Rejected:
		p.logger.Info("token rejected", slog.Any("result", result))
		bus.Response = NewResponse(http.StatusOK, rejectionBody{Error: MsgValidationFailed, ErrorCodes: result.ErrorCodes})
	case recaptcha.BelowThreshold:
		p.logger.Info("token scored below threshold", slog.Any("result", result))
		bus.Response = ErrorResponse(http.StatusOK, MsgBelowThreshold)
	}
	return result.Err()
}
