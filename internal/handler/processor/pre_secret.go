package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/isometry/recaptcha-form-app/internal/secret"
)

type secretProcessor struct {
	logger   *slog.Logger
	resolver secret.Resolver
}

// NewSecretProcessor resolves the verification secret onto the bus.
func NewSecretProcessor(resolver secret.Resolver) Processor {
	return &secretProcessor{resolver: resolver, logger: helpers.NewNoopLogger()}
}

func (p *secretProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:secret")
}

func (p *secretProcessor) Process(ctx context.Context, bus *Bus) error {
	value, err := p.resolver.Resolve(ctx)
	if err != nil {
		p.logger.Error("failed to resolve secret", slog.Any("error", err))
		bus.Response = ErrorResponse(http.StatusInternalServerError, MsgSecretUnavailable)
		return err
	}
	bus.Secret = value
	return nil
}
