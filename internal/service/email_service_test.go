package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growthtrack/internal/models"
)

type fakeSender struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSender) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func testSummary() *models.PeriodicSummary {
	return &models.PeriodicSummary{
		ID:            "s-1",
		ChildID:       1,
		PeriodStart:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
		NarrativeText: "What a week <3\n\nKeep reading together.",
	}
}

func TestEmailServiceDisabled(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "", nil)
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.NotifySummary(context.Background(), &models.Child{ID: 1, Name: "Emma"}, testSummary()))
}

func TestNotifySummarySendsEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewEmailServiceWithClient(sender, "noreply@example.com", "GrowthTrack", "parent@example.com", nil)

	err := svc.NotifySummary(context.Background(), &models.Child{ID: 1, Name: "Emma"}, testSummary())
	require.NoError(t, err)
	require.Len(t, sender.inputs, 1)

	in := sender.inputs[0]
	assert.Equal(t, "GrowthTrack <noreply@example.com>", *in.FromEmailAddress)
	assert.Equal(t, []string{"parent@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Emma's weekly summary (Jul 1, 2024 - Jul 7, 2024)", *in.Content.Simple.Subject.Data)

	htmlBody := *in.Content.Simple.Body.Html.Data
	assert.Contains(t, htmlBody, "<p>What a week &lt;3</p>")
	assert.Contains(t, htmlBody, "<p>Keep reading together.</p>")
	assert.True(t, strings.Contains(*in.Content.Simple.Body.Text.Data, "What a week <3"))
}

func TestSendSummaryEmailError(t *testing.T) {
	sender := &fakeSender{err: errors.New("throttled")}
	svc := NewEmailServiceWithClient(sender, "noreply@example.com", "", "parent@example.com", nil)

	err := svc.SendSummaryEmail(context.Background(), "parent@example.com", "Emma", testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parent@example.com")
	assert.Equal(t, "noreply@example.com", *sender.inputs[0].FromEmailAddress)
}
