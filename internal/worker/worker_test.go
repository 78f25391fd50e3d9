package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/persistence/persistencetest"
	"github.com/spec-kit/skilllink-support/internal/repository"
	"github.com/spec-kit/skilllink-support/internal/service"
)

type countingReconciler struct {
	mu    sync.Mutex
	calls int
	drift []repository.StatusDrift
	err   error
}

func (r *countingReconciler) ReconcileStats(context.Context) ([]repository.StatusDrift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.drift, r.err
}

func (r *countingReconciler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestStatsReconcileWorkerRejectsBadSchedule(t *testing.T) {
	_, err := NewStatsReconcileWorker("every now and then", &countingReconciler{}, zap.NewNop())
	assert.Error(t, err)
}

func TestStatsReconcileWorkerRunsAtStartup(t *testing.T) {
	rec := &countingReconciler{drift: []repository.StatusDrift{{Status: domain.TicketStatusPending, Ledger: 3, Actual: 1}}}
	w, err := NewStatsReconcileWorker("@every 1h", rec, zap.NewNop())
	require.NoError(t, err)

	w.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	assert.Equal(t, 1, rec.count())
}

func TestStatsReconcileWorkerSurvivesErrors(t *testing.T) {
	rec := &countingReconciler{err: errors.New("database is locked")}
	w, err := NewStatsReconcileWorker("@every 1h", rec, zap.NewNop())
	require.NoError(t, err)

	assert.Zero(t, w.RunOnce(context.Background()))
	assert.Equal(t, 1, rec.count())
}

func TestStatsReconcileWorkerRepairsLedger(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	svc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db.DB),
		HistoryRepo: repository.NewTicketHistoryRepository(db.DB),
	})
	_, err := db.DB.Exec(`UPDATE ticket_stats SET count = 42 WHERE status = 'Closed'`)
	require.NoError(t, err)

	w, err := NewStatsReconcileWorker("@every 1h", svc, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, w.RunOnce(context.Background()))

	counts, err := svc.StatusSummary(context.Background())
	require.NoError(t, err)
	for _, c := range counts {
		assert.Zero(t, c.Count, c.Status)
	}
}

func TestStartNotificationWorkerWithoutSink(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	assert.NotPanics(t, func() { StartNotificationWorker(dispatcher, nil, nil) })
}
