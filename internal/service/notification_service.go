package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/notify"
	"github.com/spec-kit/skilllink-support/internal/observability"
)

// NotificationService turns ticket events into customer notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

// handleTicketCreated sends the receipt. Failures are logged and counted,
// never retried.
func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	msg, err := notify.RenderTicketConfirmation(notify.TicketConfirmation{
		TicketNumber: event.TicketNumber,
		Name:         payload.Name,
		Email:        payload.Email,
		Subject:      payload.Subject,
		Priority:     string(payload.Priority),
		Department:   payload.Department,
	})
	if err != nil {
		return err
	}

	err = n.notifier.Send(ctx, msg)
	n.metrics.RecordNotification(n.notifier.Channel(), err)
	if err != nil {
		n.logger.Warn("ticket confirmation failed",
			zap.String("ticket_number", event.TicketNumber),
			zap.String("channel", n.notifier.Channel()),
			zap.Error(err))
		return nil
	}
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_number", event.TicketNumber), zap.Any("payload", event.Payload))
	return nil
}
