// Package handler wires the form processors into the verify and submit request handlers.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/isometry/recaptcha-form-app/internal/config"
	"github.com/isometry/recaptcha-form-app/internal/handler/processor"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/isometry/recaptcha-form-app/internal/models"
	"github.com/isometry/recaptcha-form-app/internal/notification"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
	"github.com/isometry/recaptcha-form-app/internal/secret"
	"github.com/pkg/errors"
)

// Option is a function that configures a Handler.
type Option func(*Handler)

// Handler processes one form request per call. It holds no per-request state.
type Handler struct {
	logger          *slog.Logger
	function        string
	tokenField      string
	forwardRemoteIP bool

	resolver   secret.Resolver
	verifier   recaptcha.Verifier
	notifier   processor.Notifier
	recipients []string
	sender     string
}

// NewHandler creates the handler for the configured function.
func NewHandler(options ...Option) (*Handler, error) {
	_inst := &Handler{
		logger:     helpers.NewNoopLogger(),
		function:   config.FunctionSubmit,
		tokenField: notification.DefaultTokenField,
	}
	for _, opt := range options {
		opt(_inst)
	}

	if _inst.resolver == nil {
		return nil, errors.New("missing secret resolver")
	}
	if _inst.verifier == nil {
		return nil, errors.New("missing verifier")
	}

	if _, err := _inst.pipeline(); err != nil {
		return nil, err
	}
	return _inst, nil
}

// Process handles a single request. It always returns a well-formed JSON response and never panics.
func (h *Handler) Process(ctx context.Context, req models.Request) (response models.Response) {
	logger := h.logger.With(slog.String("function", h.function))
	bus := &processor.Bus{Request: req}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered from panic", slog.Any("panic", r))
			response = processor.ErrorResponse(http.StatusInternalServerError, processor.MsgException)
		}
	}()

	processors, err := h.pipeline()
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		return processor.ErrorResponse(http.StatusInternalServerError, processor.MsgException)
	}

	logger.Info("processing request...")
	if err = processor.Process(ctx, logger, bus, processors...); err != nil {
		logger.Info("request stopped", slog.Any("bus", bus), slog.Any("error", err))
	} else {
		logger.Info("request processed", slog.Any("bus", bus))
	}

	if bus.Response.StatusCode == 0 {
		logger.Error("no response was produced")
		return processor.ErrorResponse(http.StatusInternalServerError, processor.MsgException)
	}
	return bus.Response
}

// pipeline builds the processors of a single invocation. Processors carry a request-scoped logger, so they are
// never shared between requests.
func (h *Handler) pipeline() ([]processor.Processor, error) {
	processors := []processor.Processor{
		processor.NewMethodProcessor(),
		processor.NewSecretProcessor(h.resolver),
		processor.NewBodyProcessor(h.tokenField),
		processor.NewVerifyProcessor(h.verifier, h.forwardRemoteIP),
	}
	switch strings.TrimSpace(strings.ToLower(h.function)) {
	case config.FunctionVerify:
		processors = append(processors, processor.NewVerifiedProcessor())
	case config.FunctionSubmit:
		if h.notifier == nil {
			return nil, errors.New("submit function requires a notifier")
		}
		processors = append(processors, processor.NewNotifyProcessor(h.notifier, h.recipients, h.sender))
	default:
		return nil, fmt.Errorf("unsupported function: %s", h.function)
	}
	return processors, nil
}
