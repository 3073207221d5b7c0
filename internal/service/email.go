package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/templui/filesmanager/internal/markdown"
)

type EmailService struct {
	client    *resend.Client
	parser    *markdown.Parser
	fromEmail string
	isDev     bool
	appName   string
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		parser:    markdown.NewParser(),
		fromEmail: fromEmail,
		isDev:     isDev,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email string) error {
	msg, err := welcomeEmailTemplate(s.parser, email, s.appName)
	if err != nil {
		return err
	}

	// Without a Resend key the greeting is only logged
	if s.isDev || s.client == nil {
		slog.Info(fmt.Sprintf("Welcome %s!", email), "type", "welcome", "to", email, "subject", msg.Subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	_, err = s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	slog.Info("email sent", "type", "welcome", "to", email)
	return nil
}
