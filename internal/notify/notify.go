// Package notify delivers operational alerts (price revision summaries,
// stale listing reminders) to the pricing team.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vutto/pricing-service/config"
)

// Alert channels.
const (
	ChannelLog = "log"
	ChannelSES = "ses"
	ChannelSNS = "sns"
)

// snsSubjectLimit is the longest subject SNS accepts.
const snsSubjectLimit = 100

// Notifier sends one alert.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// New builds the notifier selected by cfg.Channel.
func New(ctx context.Context, cfg config.AlertsConfig) (Notifier, error) {
	switch strings.ToLower(cfg.Channel) {
	case "", ChannelLog:
		return NewLogNotifier(), nil
	case ChannelSES, ChannelSNS:
	default:
		return nil, fmt.Errorf("unknown alert channel %q", cfg.Channel)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if strings.EqualFold(cfg.Channel, ChannelSES) {
		if cfg.Sender == "" || len(cfg.Recipients) == 0 {
			return nil, fmt.Errorf("ses alerts need a sender and recipients")
		}
		return NewSESNotifier(ses.NewFromConfig(awsCfg), cfg.Sender, cfg.Recipients), nil
	}
	if cfg.TopicARN == "" {
		return nil, fmt.Errorf("sns alerts need a topic ARN")
	}
	return NewSNSNotifier(sns.NewFromConfig(awsCfg), cfg.TopicARN), nil
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "notifier").Logger()}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, subject, body string) error {
	n.logger.Info().
		Str("subject", subject).
		Str("body", body).
		Msg("Alert")
	return nil
}

// SESAPI is the part of the SES client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier emails alerts.
type SESNotifier struct {
	client     SESAPI
	sender     string
	recipients []string
}

// NewSESNotifier creates an email notifier.
func NewSESNotifier(client SESAPI, sender string, recipients []string) *SESNotifier {
	return &SESNotifier{client: client, sender: sender, recipients: recipients}
}

// Send implements Notifier.
func (n *SESNotifier) Send(ctx context.Context, subject, body string) error {
	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.sender),
		Destination: &sestypes.Destination{ToAddresses: n.recipients},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

// SNSAPI is the part of the SNS client used to publish.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes alerts to a topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

// NewSNSNotifier creates a topic notifier.
func NewSNSNotifier(client SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// Send implements Notifier. Subjects are cut to the SNS limit.
func (n *SNSNotifier) Send(ctx context.Context, subject, body string) error {
	if len(subject) > snsSubjectLimit {
		subject = subject[:snsSubjectLimit]
	}
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}
