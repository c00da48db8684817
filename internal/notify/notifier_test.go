// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refcheck/internal/common/config"
	"refcheck/internal/common/logger"
	"refcheck/internal/models"
)

type mockSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.inputs = append(m.inputs, params)
	return &ses.SendEmailOutput{}, m.err
}

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, params)
	return &sns.PublishOutput{}, m.err
}

func completedRecord(risk models.RiskLevel) *models.VerificationRecord {
	return &models.VerificationRecord{
		ID:            "rec-1",
		CandidateName: "Jordan Candidate",
		Email:         "recruiter@example.com",
		Status:        models.StatusCompleted,
		Result: &models.Report{
			Risk:    risk,
			Summary: "Risk level " + string(risk),
		},
	}
}

func newNotifier(t *testing.T, cfg *config.NotificationConfig, sesMock *mockSES, snsMock *mockSNS) *Notifier {
	return NewWithClients(cfg, sesMock, snsMock, logger.NewTestLogger(t))
}

func TestNotifier_ReportReady_SendsEmail(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := newNotifier(t, &config.NotificationConfig{
		Enabled:     true,
		SenderEmail: "reports@refcheck.example",
	}, sesMock, snsMock)

	require.NoError(t, n.ReportReady(context.Background(), completedRecord(models.RiskGreen)))

	require.Len(t, sesMock.inputs, 1)
	input := sesMock.inputs[0]
	assert.Equal(t, []string{"recruiter@example.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Subject.Data, "Jordan Candidate")
	assert.Contains(t, *input.Message.Body.Text.Data, "green")
	assert.Equal(t, "reports@refcheck.example", *input.Source)
	assert.Empty(t, snsMock.inputs)
}

func TestNotifier_ReportReady_RedRiskTriggersSMS(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := newNotifier(t, &config.NotificationConfig{
		Enabled:       true,
		SenderEmail:   "reports@refcheck.example",
		SMSEnabled:    true,
		AlertTopicARN: "arn:aws:sns:us-east-1:123:alerts",
	}, sesMock, snsMock)

	require.NoError(t, n.ReportReady(context.Background(), completedRecord(models.RiskRed)))

	assert.Len(t, sesMock.inputs, 1)
	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:alerts", *snsMock.inputs[0].TopicArn)
}

func TestNotifier_ReportReady_YellowRiskNoSMS(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := newNotifier(t, &config.NotificationConfig{
		Enabled:     true,
		SenderEmail: "reports@refcheck.example",
		SMSEnabled:  true,
	}, sesMock, snsMock)

	require.NoError(t, n.ReportReady(context.Background(), completedRecord(models.RiskYellow)))
	assert.Empty(t, snsMock.inputs)
}

func TestNotifier_ReportReady_Disabled(t *testing.T) {
	sesMock := &mockSES{}
	n := newNotifier(t, &config.NotificationConfig{Enabled: false}, sesMock, &mockSNS{})

	require.NoError(t, n.ReportReady(context.Background(), completedRecord(models.RiskGreen)))
	assert.Empty(t, sesMock.inputs)
}

func TestNotifier_ReportReady_EmailFailure(t *testing.T) {
	sesMock := &mockSES{err: errors.New("throttled")}
	n := newNotifier(t, &config.NotificationConfig{
		Enabled:     true,
		SenderEmail: "reports@refcheck.example",
	}, sesMock, &mockSNS{})

	err := n.ReportReady(context.Background(), completedRecord(models.RiskGreen))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_SEND_FAILED")
}

func TestNotifier_ReportReady_NoReportAttached(t *testing.T) {
	n := newNotifier(t, &config.NotificationConfig{Enabled: true}, &mockSES{}, &mockSNS{})

	record := &models.VerificationRecord{ID: "rec-1", Status: models.StatusCompleted}
	assert.Error(t, n.ReportReady(context.Background(), record))
}

func TestNotifier_ReportReady_NoRecipientEmailSkipsQuietly(t *testing.T) {
	sesMock := &mockSES{}
	n := newNotifier(t, &config.NotificationConfig{
		Enabled:     true,
		SenderEmail: "reports@refcheck.example",
	}, sesMock, &mockSNS{})

	record := completedRecord(models.RiskGreen)
	record.Email = ""

	require.NoError(t, n.ReportReady(context.Background(), record))
	assert.Empty(t, sesMock.inputs)
}
