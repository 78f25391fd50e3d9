package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

func TestAsyncDispatcherDoesNotBlockPublisher(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop())
	release := make(chan struct{})
	var handled atomic.Int32

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-release
		handled.Add(1)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketCreated, "GLOW-000000001", nil)))
	assert.Equal(t, int32(0), handled.Load())

	close(release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(1), handled.Load())
}

func TestAsyncDispatcherSurvivesPanicsAndErrors(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop())
	var handled atomic.Int32

	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error { panic("boom") })
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error { return errors.New("smtp down") })
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		handled.Add(1)
		return nil
	})

	payload := TicketStatusChangedPayload{OldStatus: domain.TicketStatusPending, NewStatus: domain.TicketStatusClosed}
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketStatusChanged, "GLOW-000000002", payload)))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(1), handled.Load())
}

func TestAsyncDispatcherHandlerOutlivesRequestContext(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop())
	var ctxErr atomic.Value

	d.Subscribe(EventTicketCreated, func(ctx context.Context, _ Event) error {
		time.Sleep(10 * time.Millisecond)
		ctxErr.Store(ctx.Err() == nil)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Publish(ctx, NewEvent(EventTicketCreated, "GLOW-000000003", nil)))
	cancel()

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, true, ctxErr.Load())
}

func TestAsyncDispatcherRejectsAfterClose(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop())
	require.NoError(t, d.Close(context.Background()))

	err := d.Publish(context.Background(), NewEvent(EventTicketCreated, "GLOW-000000004", nil))
	assert.ErrorIs(t, err, ErrDispatcherClosed)
}

func TestAsyncDispatcherCloseHonoursDeadline(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop())
	release := make(chan struct{})
	defer close(release)

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		<-release
		return nil
	})
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketCreated, "GLOW-000000005", nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}

func TestInMemoryDispatcherRunsHandlersInline(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var order []string

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("ignored")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketCreated, "GLOW-000000006", nil)))
	assert.Equal(t, []string{"first", "second"}, order)
}
