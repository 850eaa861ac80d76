// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/maihouses/leadradar-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendPurchaseReceipt(toEmail string, props templates.PurchaseReceiptProps) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("RADAR_EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@maihouses.com"
	}

	fromName := os.Getenv("RADAR_EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "Lead Radar"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendPurchaseReceipt composes and sends the purchase receipt email.
func (c *ResendClient) SendPurchaseReceipt(toEmail string, props templates.PurchaseReceiptProps) error {
	subject := fmt.Sprintf("Lead purchased: %s-grade visitor on %s", props.Grade, props.Property)

	htmlContent := templates.GetPurchaseReceiptContent(props)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send purchase receipt via Resend: %w", err)
	}

	return nil
}
