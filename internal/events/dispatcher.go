package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	Close(ctx context.Context) error
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers on the caller's goroutine.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish synchronously invokes handlers for the given event.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		// continue processing other handlers despite errors
		if err := handler(ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_number", event.TicketNumber),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) Close(context.Context) error { return nil }

// asyncDispatcher runs every handler on its own goroutine so publishers never
// wait on email or broker round trips.
type asyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	wg        sync.WaitGroup
	closed    bool
}

// NewAsyncDispatcher creates a fire-and-forget dispatcher.
func NewAsyncDispatcher(logger *zap.Logger) Dispatcher {
	return &asyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish hands the event to each subscriber and returns immediately. Handlers
// get a context detached from the request so they outlive it.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return ErrDispatcherClosed
	}
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.wg.Add(len(handlers))
	d.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go d.run(detached, handler, event)
	}
	return nil
}

func (d *asyncDispatcher) run(ctx context.Context, handler EventHandler, event Event) {
	defer d.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("event handler panic",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_number", event.TicketNumber),
				zap.Any("panic", rec))
		}
	}()

	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_number", event.TicketNumber),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops accepting events and waits for in-flight handlers or ctx expiry.
func (d *asyncDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for event handlers: %w", ctx.Err())
	}
}
