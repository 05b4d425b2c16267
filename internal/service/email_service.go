package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"growthtrack/internal/models"
)

// EmailSender is the subset of the SES client used to deliver mail
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends summary notifications via Amazon SES
type EmailService struct {
	client    EmailSender
	fromEmail string
	fromName  string
	notifyTo  string
	enabled   bool
	logger    *slog.Logger
}

// NewEmailService creates a new email service. The service is disabled when
// fromEmail or notifyTo is empty.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, notifyTo string, logger *slog.Logger) (*EmailService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fromEmail == "" || notifyTo == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL or SUMMARY_NOTIFY_EMAIL not configured")
		return &EmailService{logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return NewEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, notifyTo, logger), nil
}

// NewEmailServiceWithClient creates an enabled email service around an existing sender
func NewEmailServiceWithClient(client EmailSender, fromEmail, fromName, notifyTo string, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		notifyTo:  notifyTo,
		enabled:   true,
		logger:    logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifySummary emails a newly generated summary to the configured recipient
func (s *EmailService) NotifySummary(ctx context.Context, child *models.Child, summary *models.PeriodicSummary) error {
	if !s.enabled {
		s.logger.Debug("Skipping summary email (service disabled)", "child_id", child.ID)
		return nil
	}
	return s.SendSummaryEmail(ctx, s.notifyTo, child.Name, summary)
}

// SendSummaryEmail sends the narrative of a periodic summary to toEmail
func (s *EmailService) SendSummaryEmail(ctx context.Context, toEmail, childName string, summary *models.PeriodicSummary) error {
	if !s.enabled {
		return nil
	}

	week := fmt.Sprintf("%s - %s",
		summary.PeriodStart.Format("Jan 2, 2006"),
		summary.PeriodEnd.Format("Jan 2, 2006"))
	subject := fmt.Sprintf("%s's weekly summary (%s)", childName, week)

	var paragraphs strings.Builder
	for _, p := range strings.Split(summary.NarrativeText, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paragraphs.WriteString("<p>")
		paragraphs.WriteString(strings.ReplaceAll(html.EscapeString(p), "\n", "<br>"))
		paragraphs.WriteString("</p>\n")
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #6aa84f; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s's week</h1>
			<p>%s</p>
		</div>
		<div class="content">
%s		</div>
		<div class="footer">
			<p>This is an automated email from GrowthTrack. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(childName), week, paragraphs.String())

	textBody := fmt.Sprintf("%s's week (%s)\n\n%s\n\n---\nThis is an automated email from GrowthTrack. Please do not reply.\n",
		childName, week, summary.NarrativeText)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.logger.Info("Email sent", "to", toEmail, "subject", subject, "message_id", messageID)
	return nil
}
