package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/observability"
	"github.com/spec-kit/skilllink-support/internal/repository"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

const (
	// MaxTicketNumberAttempts bounds regeneration after a ticket number collision.
	MaxTicketNumberAttempts = 5
	// MaxStatusUpdateAttempts bounds retries when a concurrent writer changed the status.
	MaxStatusUpdateAttempts = 3
)

// TicketService coordinates ticket workflows and keeps the status ledger honest.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	numbers    *TicketNumberGenerator
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Numbers     *TicketNumberGenerator
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Name       string
	Email      string
	Subject    string
	Priority   string
	Department string
	Message    string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	numbers := deps.Numbers
	if numbers == nil {
		numbers = NewTicketNumberGenerator()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		numbers:    numbers,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// CreateTicket validates the submission, stores it as Pending and announces it.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket, err := buildTicket(input)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= MaxTicketNumberAttempts; attempt++ {
		ticket.TicketNumber = s.numbers.Next()
		lastErr = s.tickets.Create(ctx, ticket)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, repository.ErrDuplicateTicketNumber) {
			return nil, apperrors.NewInternalError(fmt.Errorf("create ticket: %w", lastErr))
		}
		s.logger.Warn("ticket number collision",
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Int("attempt", attempt))
	}
	if lastErr != nil {
		return nil, apperrors.NewDuplicateTicketNumber(MaxTicketNumberAttempts, lastErr)
	}

	s.metrics.RecordTicketCreated()
	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.TicketNumber, events.TicketCreatedPayload{
		Name:       ticket.Name,
		Email:      ticket.Email,
		Subject:    ticket.Subject,
		Priority:   ticket.Priority,
		Department: ticket.Department,
	}))
	return ticket, nil
}

func buildTicket(input TicketCreateInput) (*domain.Ticket, error) {
	details := map[string]any{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		details["name"] = "required"
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		details["email"] = "required"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		details["email"] = "invalid email address"
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		details["message"] = "required"
	}

	priority := domain.TicketPriority(strings.TrimSpace(input.Priority))
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		details["priority"] = fmt.Sprintf("must be one of %v", domain.TicketPriorities)
	}

	department := strings.TrimSpace(input.Department)
	if department == "" {
		department = domain.DefaultDepartment
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid ticket submission", details)
	}

	return &domain.Ticket{
		Name:       name,
		Email:      email,
		Subject:    strings.TrimSpace(input.Subject),
		Priority:   priority,
		Department: department,
		Message:    message,
		Status:     domain.TicketStatusPending,
	}, nil
}

// GetTicket returns the ticket with the exact number.
func (s *TicketService) GetTicket(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, ticketNumber)
	if err != nil {
		return nil, mapTicketError(err, ticketNumber)
	}
	return ticket, nil
}

// UpdateStatus moves a ticket to status, retrying when a concurrent writer
// changed it between read and write.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketNumber, status string) (*domain.StatusTransition, error) {
	target := domain.TicketStatus(status)
	if !target.Valid() {
		allowed := make([]string, 0, len(domain.TicketStatuses))
		for _, st := range domain.TicketStatuses {
			allowed = append(allowed, string(st))
		}
		return nil, apperrors.NewInvalidStatus(status, allowed)
	}

	var (
		transition *domain.StatusTransition
		err        error
	)
	for attempt := 1; attempt <= MaxStatusUpdateAttempts; attempt++ {
		transition, err = s.tickets.UpdateStatus(ctx, ticketNumber, target)
		if !errors.Is(err, repository.ErrStatusConflict) {
			break
		}
		s.logger.Warn("ticket status changed concurrently; retrying",
			zap.String("ticket_number", ticketNumber),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, mapTicketError(err, ticketNumber)
	}

	if transition.Changed() {
		s.metrics.RecordStatusTransition(string(transition.From), string(transition.To))
		s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, ticketNumber, events.TicketStatusChangedPayload{
			OldStatus: transition.From,
			NewStatus: transition.To,
		}))
	}
	return transition, nil
}

// StatusSummary returns every status with its ledger count in lifecycle order.
func (s *TicketService) StatusSummary(ctx context.Context) ([]domain.StatusCount, error) {
	counts, err := s.tickets.StatusCounts(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("status counts: %w", err))
	}
	return counts, nil
}

// ReconcileStats rewrites ledger rows that drifted from the ticket table.
func (s *TicketService) ReconcileStats(ctx context.Context) ([]repository.StatusDrift, error) {
	drift, err := s.tickets.ReconcileStatusCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile ticket stats: %w", err)
	}
	for _, d := range drift {
		s.metrics.RecordLedgerRepair(string(d.Status))
		s.logger.Warn("ticket stats drift repaired",
			zap.String("status", string(d.Status)),
			zap.Int64("ledger", d.Ledger),
			zap.Int64("actual", d.Actual))
	}
	return drift, nil
}

// History lists a ticket's status changes, oldest first.
func (s *TicketService) History(ctx context.Context, ticketNumber string) ([]domain.TicketHistory, error) {
	ticket, err := s.GetTicket(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("ticket history: %w", err))
	}
	return entries, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_number", event.TicketNumber),
			zap.Error(err))
	}
}

func mapTicketError(err error, ticketNumber string) error {
	if errors.Is(err, repository.ErrTicketNotFound) {
		return apperrors.NewNotFound("Ticket", map[string]any{"ticket_number": ticketNumber})
	}
	return apperrors.NewInternalError(err)
}
