// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"time"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/email/templates"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/pkg/config"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock
// implementations in tests.
type Service interface {
	SendTicketNotification(ticketID, fromEmail, subject, body string) error
	SendPurchaseReceipt(toEmail, name, saleRef string, purchasedAt time.Time) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client       *resend.Client
	from         string
	supportInbox string
	logger       *logging.ChanneledLogger
}

// NewService creates a new email service client, returning the Service interface.
func NewService(logger *logging.ChanneledLogger) (Service, error) {
	if config.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	return &ResendClient{
		client:       resend.NewClient(config.ResendAPIKey),
		from:         config.EmailFrom,
		supportInbox: config.SupportInbox,
		logger:       logger,
	}, nil
}

// SendTicketNotification forwards a new support ticket to the support inbox.
func (c *ResendClient) SendTicketNotification(ticketID, fromEmail, subject, body string) error {
	content := templates.GetTicketEmailContent(templates.TicketEmailProps{
		TicketID: ticketID,
		Email:    fromEmail,
		Subject:  subject,
		Body:     body,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "New support ticket: " + subject,
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{c.supportInbox},
		ReplyTo: fromEmail,
		Subject: fmt.Sprintf("[ticket %s] %s", ticketID, subject),
		Html:    htmlContent,
	}

	start := time.Now()
	if _, err := c.client.Emails.Send(params); err != nil {
		c.logger.Email().Error("Failed to send ticket notification", "error", err.Error(), "ticketId", ticketID)
		return fmt.Errorf("failed to send ticket notification via Resend: %w", err)
	}

	c.logger.Email().Info("Ticket notification sent", "ticketId", ticketID, "duration", time.Since(start))
	return nil
}

// SendPurchaseReceipt sends the lifetime purchase receipt to the buyer.
func (c *ResendClient) SendPurchaseReceipt(toEmail, name, saleRef string, purchasedAt time.Time) error {
	content := templates.GetReceiptEmailContent(templates.ReceiptEmailProps{
		Name:        name,
		SaleRef:     saleRef,
		PurchasedAt: purchasedAt,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "Your lifetime access is active",
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{toEmail},
		Subject: "Your AI/ML Glossary lifetime access",
		Html:    htmlContent,
	}

	start := time.Now()
	if _, err := c.client.Emails.Send(params); err != nil {
		c.logger.Email().Error("Failed to send purchase receipt", "error", err.Error())
		return fmt.Errorf("failed to send purchase receipt via Resend: %w", err)
	}

	c.logger.Email().Info("Purchase receipt sent", "duration", time.Since(start))
	return nil
}
