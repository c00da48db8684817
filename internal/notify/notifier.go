// internal/notify/notifier.go

// Package notify delivers report-ready notifications over SES email and,
// for red-risk results, SNS SMS. Delivery is best-effort: the pipeline
// treats every failure here as non-fatal.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclients "refcheck/internal/common/aws"
	"refcheck/internal/common/config"
	stderrors "refcheck/internal/common/errors"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

// Interfaces over the AWS clients so tests can mock delivery.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	config *config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func New(ctx context.Context, cfg *config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	sesClient, err := awsclients.NewSESClient(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("init SNS client: %w", err)
	}
	return NewWithClients(cfg, sesClient, snsClient, log), nil
}

func NewWithClients(cfg *config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// ReportReady emails the candidate's requester that the verification report
// is available. Red-risk reports additionally go out over SMS when a phone
// channel is configured.
func (n *Notifier) ReportReady(ctx context.Context, record *models.VerificationRecord) error {
	if !n.config.Enabled {
		return nil
	}
	if record.Result == nil {
		return fmt.Errorf("record %s has no report attached", record.ID)
	}

	subject := fmt.Sprintf("Verification report ready: %s", record.CandidateName)
	body := fmt.Sprintf(
		"The verification of %s has completed with risk level %s.\n\n%s\n\nReport id: %s\n",
		record.CandidateName, record.Result.Risk, record.Result.Summary, record.ID,
	)

	if record.Email != "" {
		if err := n.sendEmail(ctx, record.Email, subject, body); err != nil {
			return stderrors.NewNotificationSendFailedError("email", err)
		}
		n.logger.Info("report-ready email sent", map[string]interface{}{
			"recordId": record.ID,
			"risk":     string(record.Result.Risk),
		})
	}

	if n.config.SMSEnabled && record.Result.Risk == models.RiskRed {
		if err := n.sendSMS(ctx, subject); err != nil {
			return stderrors.NewNotificationSendFailedError("sms", err)
		}
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.SenderEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, message string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.AlertTopicARN),
		Message:  aws.String(message),
	})
	return err
}
