package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/signupd/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newSESClientFromConfig = func(cfg aws.Config, optFns ...func(*sesv2.Options)) sesAPI {
		return sesv2.NewFromConfig(cfg, optFns...)
	}
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BaseEndpoint    string
	From            string
}

// SESSender delivers messages through the Amazon SES v2 SendEmail API.
type SESSender struct {
	client sesAPI
	from   string
	logger logging.Logger
}

func NewSESSender(ctx context.Context, cfg SESConfig, l logging.Logger) (*SESSender, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newSESClientFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return &SESSender{client: client, from: cfg.From, logger: l.With("module", "mail_ses")}, nil
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return classifySES(err)
	}

	s.logger.Debug(ctx, "message accepted by ses", "to", to, "message_id", aws.ToString(out.MessageId))
	return nil
}

func classifySES(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return transient(err)
	}

	switch apiErr.ErrorCode() {
	case "TooManyRequestsException", "LimitExceededException", "InternalFailure", "ServiceUnavailable", "ThrottlingException":
		return transient(err)
	case "UnrecognizedClientException", "InvalidClientTokenId", "SignatureDoesNotMatch",
		"AccessDeniedException", "ExpiredTokenException", "MissingAuthenticationToken":
		return authentication(err)
	}

	if apiErr.ErrorFault() == smithy.FaultServer {
		return transient(err)
	}
	return permanent(err)
}
