package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the fixed statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates request urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// TicketPriorities lists the accepted priorities.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether p is one of the fixed priorities.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if p == candidate {
			return true
		}
	}
	return false
}

// DefaultDepartment is assigned when a submission names none.
const DefaultDepartment = "Technical Support"

// Ticket is a support request submitted through the public form.
type Ticket struct {
	ID           int64
	TicketNumber string
	Name         string
	Email        string
	Subject      string
	Priority     TicketPriority
	Department   string
	Message      string
	Status       TicketStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StatusCount is one row of the per-status ledger.
type StatusCount struct {
	Status TicketStatus
	Count  int64
}

// StatusTransition describes an applied status change.
type StatusTransition struct {
	TicketNumber string
	From         TicketStatus
	To           TicketStatus
	UpdatedAt    time.Time
}

// Changed reports whether the transition moved the ticket to another status.
func (t StatusTransition) Changed() bool {
	return t.From != t.To
}
