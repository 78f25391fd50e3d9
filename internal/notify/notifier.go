// Package notify delivers outbound customer notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Notifier delivers a message over one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, msg *Message) error
}

// TicketConfirmation carries the fields shown in the ticket receipt.
type TicketConfirmation struct {
	TicketNumber string
	Name         string
	Email        string
	Subject      string
	Priority     string
	Department   string
}

var ticketCreatedTemplate = template.Must(template.New("ticket_created").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4cc9f0;">Thank you for contacting Glow Support!</h2>
  <p>Hi {{.Name}}, your support ticket has been created successfully.</p>
  <div style="background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Ticket Number:</strong> {{.TicketNumber}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <p><strong>Priority:</strong> {{.Priority}}</p>
    <p><strong>Department:</strong> {{.Department}}</p>
  </div>
  <p>We'll get back to you as soon as possible. You can check your ticket status anytime using your ticket number.</p>
  <hr>
  <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</div>`))

// RenderTicketConfirmation builds the receipt sent after a ticket is filed.
func RenderTicketConfirmation(c TicketConfirmation) (*Message, error) {
	var buf bytes.Buffer
	if err := ticketCreatedTemplate.Execute(&buf, c); err != nil {
		return nil, fmt.Errorf("render ticket confirmation: %w", err)
	}
	return &Message{
		To:       c.Email,
		Subject:  fmt.Sprintf("Support Ticket Created: %s", c.TicketNumber),
		HTMLBody: buf.String(),
	}, nil
}
