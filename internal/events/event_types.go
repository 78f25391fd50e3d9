package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, ticketNumber string, payload interface{}) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketNumber: ticketNumber,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Name       string                `json:"name"`
	Email      string                `json:"email"`
	Subject    string                `json:"subject"`
	Priority   domain.TicketPriority `json:"priority"`
	Department string                `json:"department"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
