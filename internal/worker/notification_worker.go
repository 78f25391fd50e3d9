package worker

import (
	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/service"
)

// StartNotificationWorker registers the customer notification handlers and,
// when configured, the Kafka event sink on the same dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, sink *events.KafkaSink) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if sink != nil && dispatcher != nil {
		sink.Register(dispatcher)
	}
}
