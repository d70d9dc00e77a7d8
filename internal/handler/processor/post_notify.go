package processor

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/isometry/recaptcha-form-app/internal/form"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
)

// Notifier forwards verified form fields.
type Notifier interface {
	Notify(ctx context.Context, fields form.Fields, recipients []string, sender string) error
}

type notifyProcessor struct {
	logger     *slog.Logger
	notifier   Notifier
	recipients []string
	sender     string
}

// NewNotifyProcessor sends the verified form fields from sender to recipients.
func NewNotifyProcessor(notifier Notifier, recipients []string, sender string) Processor {
	return &notifyProcessor{notifier: notifier, recipients: recipients, sender: sender, logger: helpers.NewNoopLogger()}
}

func (p *notifyProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:notify")
}

func (p *notifyProcessor) Process(ctx context.Context, bus *Bus) error {
	if err := p.notifier.Notify(ctx, bus.Fields, p.recipients, p.sender); err != nil {
		p.logger.Error("failed to send email", slog.Any("error", err))
		bus.Response = ErrorResponse(http.StatusInternalServerError, MsgEmailFailed)
		return err
	}
	p.logger.Info("email sent")
	bus.Response = NewResponse(http.StatusOK, messageBody{Message: MsgEmailSent})
	return nil
}
