// internal/mailer/ses.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	custom_errors "gitnote-backend/internal/errors"
)

const charsetUTF8 = "UTF-8"

// Mailer sends transactional notification emails through SES.
type Mailer struct {
	client      *ses.SES
	senderEmail string
	senderName  string
	logger      *slog.Logger
}

// NewMailer creates a Mailer sending from the given verified address.
func NewMailer(sess *session.Session, senderEmail, senderName string, logger *slog.Logger) *Mailer {
	return &Mailer{
		client:      ses.New(sess),
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      logger,
	}
}

// SendReportReadyEmail notifies the user that a report was generated. Failures
// surface as *custom_errors.ErrNotification; the caller decides whether to
// propagate, and the report pipeline deliberately does not.
func (m *Mailer) SendReportReadyEmail(ctx context.Context, to, userID, repository, period, reportURL string) error {
	subject := fmt.Sprintf("[GitNote] Your report for %s is ready", repository)
	htmlBody := buildReportEmailHTML(userID, repository, period, reportURL)
	textBody := buildReportEmailText(userID, repository, period, reportURL)

	source := m.senderEmail
	if m.senderName != "" {
		source = fmt.Sprintf("%s <%s>", m.senderName, m.senderEmail)
	}

	_, err := m.client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(source),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(to)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
			Body: &ses.Body{
				Html: &ses.Content{Data: aws.String(htmlBody), Charset: aws.String(charsetUTF8)},
				Text: &ses.Content{Data: aws.String(textBody), Charset: aws.String(charsetUTF8)},
			},
		},
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) {
			return &custom_errors.ErrNotification{Code: aerr.Code(), Msg: aerr.Message(), Err: err}
		}
		return &custom_errors.ErrNotification{Msg: err.Error(), Err: err}
	}

	m.logger.Info("Report-ready email sent", "user_id", userID, "repository", repository)
	return nil
}

func buildReportEmailHTML(userID, repository, period, reportURL string) string {
	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head>`)
	sb.WriteString(`<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	sb.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`)
	sb.WriteString(`<div style="background-color: #4A90E2; color: white; padding: 20px; text-align: center;"><h1 style="margin: 0;">GitNote</h1></div>`)
	sb.WriteString(`<div style="background-color: #f9f9f9; padding: 30px; border: 1px solid #ddd;">`)
	sb.WriteString(`<h2 style="color: #4A90E2;">Your report is ready</h2>`)
	fmt.Fprintf(&sb, `<p>Hello, <strong>%s</strong>!</p>`, userID)
	sb.WriteString(`<p>The report you requested has been generated.</p>`)
	sb.WriteString(`<div style="background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #4A90E2;">`)
	fmt.Fprintf(&sb, `<p style="margin: 5px 0;"><strong>Repository:</strong> %s</p>`, repository)
	fmt.Fprintf(&sb, `<p style="margin: 5px 0;"><strong>Period:</strong> %s</p>`, period)
	sb.WriteString(`</div>`)
	if reportURL != "" {
		fmt.Fprintf(&sb, `<p style="text-align: center; margin: 30px 0;"><a href="%s" style="background-color: #4A90E2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View report</a></p>`, reportURL)
	}
	sb.WriteString(`<p style="color: #666; font-size: 14px; margin-top: 30px;">Thank you for using GitNote.</p>`)
	sb.WriteString(`</div>`)
	sb.WriteString(`<div style="text-align: center; padding: 20px; color: #999; font-size: 12px;"><p>This email was sent automatically.</p><p>&copy; GitNote. All rights reserved.</p></div>`)
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

func buildReportEmailText(userID, repository, period, reportURL string) string {
	var sb strings.Builder
	sb.WriteString("GitNote report ready\n\n")
	fmt.Fprintf(&sb, "Hello, %s!\n\n", userID)
	sb.WriteString("The report you requested has been generated.\n\n")
	fmt.Fprintf(&sb, "Repository: %s\n", repository)
	fmt.Fprintf(&sb, "Period: %s\n\n", period)
	if reportURL != "" {
		fmt.Fprintf(&sb, "View report: %s\n\n", reportURL)
	}
	sb.WriteString("Thank you for using GitNote.\n\n")
	sb.WriteString("---\nThis email was sent automatically.\n© GitNote. All rights reserved.")
	return sb.String()
}
