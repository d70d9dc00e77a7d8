package cmd

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/recaptcha-form-app/internal/config"
	"github.com/isometry/recaptcha-form-app/internal/controllers/aws"
	"github.com/isometry/recaptcha-form-app/internal/handler"
	"github.com/isometry/recaptcha-form-app/internal/notification"
	"github.com/isometry/recaptcha-form-app/internal/recaptcha"
	"github.com/isometry/recaptcha-form-app/internal/runtime"
	"github.com/isometry/recaptcha-form-app/internal/secret"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run the handler inside the AWS Lambda runtime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}

			logger = logger.With("mode", config.ModeLambda)
			logger.Info("lambda starting...", "payloadType", config.Lambda.PayloadType)
			lambda.StartWithOptions(rt.HandleEvent,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}
}

// needsAWS reports whether the configured secret provider or function calls AWS.
func needsAWS() bool {
	provider := strings.TrimSpace(strings.ToLower(config.Secret.Provider))
	function := strings.TrimSpace(strings.ToLower(config.Global.Function))
	return provider != config.SecretProviderPlain || function == config.FunctionSubmit
}

// setup builds the runtime for the configured function. AWS clients are only created when the secret provider
// or the function needs them.
func setup(ctx context.Context) (*runtime.Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var ctl *aws.Controller
	if needsAWS() {
		logger.Debug("creating AWS controller...")
		var err error
		ctl, err = aws.NewController(
			aws.WithContext(ctx),
			aws.WithSESRegion(config.Email.Region),
			aws.WithLogger(logger.With("component", "aws")))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AWS controller")
		}
	}

	logger.Debug("creating secret resolver...", "provider", config.Secret.Provider)
	secretValue := config.Secret.Value
	if strings.EqualFold(strings.TrimSpace(config.Secret.Provider), config.SecretProviderSSM) {
		secretValue = config.Secret.SSMKey
	}
	resolverOpts := []secret.Option{secret.WithLogger(logger.With("component", "secret"))}
	if ctl != nil {
		resolverOpts = append(resolverOpts, secret.WithDecrypter(ctl), secret.WithParameterStore(ctl))
	}
	resolver, err := secret.NewResolver(config.Secret.Provider, secretValue, resolverOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create secret resolver")
	}

	verifier := recaptcha.NewClient(
		recaptcha.WithEndpoint(config.Recaptcha.Endpoint),
		recaptcha.WithThreshold(config.Recaptcha.Threshold),
		recaptcha.WithTimeout(config.Recaptcha.Timeout),
		recaptcha.WithLogger(logger.With("component", "recaptcha")))

	opts := []handler.Option{
		handler.WithFunction(config.Global.Function),
		handler.WithTokenField(config.Recaptcha.TokenField),
		handler.WithForwardRemoteIP(config.Recaptcha.ForwardRemoteIP),
		handler.WithSecretResolver(resolver),
		handler.WithVerifier(verifier),
		handler.WithLogger(logger.With("component", "handler")),
	}
	if ctl != nil {
		dispatcher := notification.NewDispatcher(ctl,
			notification.WithSubject(config.Email.Subject),
			notification.WithTokenField(config.Recaptcha.TokenField),
			notification.WithLogger(logger.With("component", "notification")))
		opts = append(opts,
			handler.WithNotifier(dispatcher),
			handler.WithRecipients(config.Email.To),
			handler.WithSender(config.Email.From))
	}

	logger.Debug("creating form handler...")
	hdl, err := handler.NewHandler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create form handler")
	}

	logger.Debug("creating runtime...")
	return runtime.NewRuntime(hdl,
		runtime.WithPayloadType(config.Lambda.PayloadType),
		runtime.WithLogger(logger.With("component", "runtime")))
}
