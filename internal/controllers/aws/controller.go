// Package aws provides the Controller struct that wraps the AWS services used by the form handlers: KMS and SSM for the
// reCAPTCHA secret, and SES for the form notification emails.
package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/recaptcha-form-app/internal/helpers"
	"github.com/pkg/errors"
)

const charset = "UTF-8"

// KMSAPI is the subset of the KMS client used by the Controller.
type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// SSMAPI is the subset of the SSM client used by the Controller.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SESAPI is the subset of the SES v2 client used by the Controller.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Email is a dual-format message ready to be handed to SES.
type Email struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Controller represents a wrapper for AWS services providing KMS, SSM and SES functionality with logging support.
type Controller struct {
	ctx    context.Context
	logger *slog.Logger

	config    *aws.Config
	sesRegion string

	kmsClient KMSAPI
	ssmClient SSMAPI
	sesClient SESAPI
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
// Clients injected through options take precedence over the ones built from the AWS configuration.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.kmsClient != nil && _inst.ssmClient != nil && _inst.sesClient != nil {
		return _inst, nil
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(_inst.ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		cfg.Retryer = func() aws.Retryer { return aws.NopRetryer{} }
		_inst.config = &cfg
	}

	if _inst.kmsClient == nil {
		_inst.kmsClient = kms.NewFromConfig(*_inst.config)
	}
	if _inst.ssmClient == nil {
		_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	}
	if _inst.sesClient == nil {
		_inst.sesClient = sesv2.NewFromConfig(*_inst.config, func(o *sesv2.Options) {
			if _inst.sesRegion != "" {
				o.Region = _inst.sesRegion
			}
		})
	}
	return _inst, nil
}

// Decrypt decodes the base64 ciphertext blob and decrypts it with KMS, returning the UTF-8 plaintext.
func (a *Controller) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}
	a.logger.Debug("decrypting KMS ciphertext...", slog.Int("size", len(blob)))
	out, err := a.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt ciphertext")
	}
	return string(out.Plaintext), nil
}

// GetSecret retrieves a secret value from SSM Parameter Store using the provided key.
// If encrypted is true, the secret is returned decrypted.
func (a *Controller) GetSecret(ctx context.Context, key string, encrypted bool) (string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to load SSM parameter")
	}
	if ssmResponse.Parameter == nil {
		return "", errors.Errorf("SSM parameter %s has no value", key)
	}
	return aws.ToString(ssmResponse.Parameter.Value), nil
}

// SendEmail sends a text and HTML message through SES. It returns the SES message ID.
func (a *Controller) SendEmail(ctx context.Context, email Email) (string, error) {
	a.logger.Debug("sending email...", slog.Any("to", email.To), slog.String("from", email.From))
	out, err := a.sesClient.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(email.From),
		Destination: &sestypes.Destination{
			ToAddresses: email.To,
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: content(email.Subject),
				Body: &sestypes.Body{
					Html: content(email.HTML),
					Text: content(email.Text),
				},
			},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to send email")
	}
	return aws.ToString(out.MessageId), nil
}

func content(data string) *sestypes.Content {
	return &sestypes.Content{Charset: aws.String(charset), Data: aws.String(data)}
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
