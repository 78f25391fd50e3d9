package dto

import (
	"time"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Name       string `json:"name" form:"name"`
	Email      string `json:"email" form:"email"`
	Subject    string `json:"subject" form:"subject"`
	Priority   string `json:"priority" form:"priority"`
	Department string `json:"department" form:"department"`
	Message    string `json:"message" form:"message"`
}

// CreateTicketResponse acknowledges a stored ticket.
type CreateTicketResponse struct {
	Success      bool   `json:"success"`
	TicketNumber string `json:"ticketNumber"`
	Message      string `json:"message" form:"message"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" form:"status"`
}

// TicketResponse is the public view of a ticket.
type TicketResponse struct {
	TicketNumber string                `json:"ticket_number"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Subject      string                `json:"subject"`
	Priority     domain.TicketPriority `json:"priority"`
	Department   string                `json:"department"`
	Message      string                `json:"message"`
	Status       domain.TicketStatus   `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketHistoryResponse is one status change.
type TicketHistoryResponse struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	CreatedAt time.Time           `json:"created_at"`
}

// StatusCountResponse is one ledger row.
type StatusCountResponse struct {
	Status domain.TicketStatus `json:"status"`
	Count  int64               `json:"count"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketNumber: t.TicketNumber,
		Name:         t.Name,
		Email:        t.Email,
		Subject:      t.Subject,
		Priority:     t.Priority,
		Department:   t.Department,
		Message:      t.Message,
		Status:       t.Status,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketHistoryResponses maps history entries, oldest first.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

// NewStatusCountResponses maps ledger rows.
func NewStatusCountResponses(counts []domain.StatusCount) []StatusCountResponse {
	resp := make([]StatusCountResponse, 0, len(counts))
	for _, c := range counts {
		resp = append(resp, StatusCountResponse{Status: c.Status, Count: c.Count})
	}
	return resp
}
