package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/notify"
	"github.com/spec-kit/skilllink-support/internal/persistence/persistencetest"
	"github.com/spec-kit/skilllink-support/internal/repository"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

func TestKnowledgeSearchRequiresQuery(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	svc := NewKnowledgeService(repository.NewKnowledgeRepository(db.DB), zap.NewNop())

	_, err := svc.Search(context.Background(), "   ")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	results, err := svc.Search(context.Background(), "password")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "How do I reset my password?", results[0].Title)
}

func TestKnowledgeArticlesBumpViewsInBackground(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	svc := NewKnowledgeService(repository.NewKnowledgeRepository(db.DB), zap.NewNop())
	ctx := context.Background()

	first, err := svc.ArticlesByCategory(ctx, "Account")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Zero(t, first[0].Views)
	svc.Wait()

	second, err := svc.ArticlesByCategory(ctx, "Account")
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int64(1), second[0].Views)
}

func TestKnowledgeFAQsAndCategories(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	svc := NewKnowledgeService(repository.NewKnowledgeRepository(db.DB), zap.NewNop())

	faqs, err := svc.FAQs(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, faqs)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, categories)
}

func TestChatAppendAndTranscript(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	svc := NewChatService(repository.NewChatRepository(db.DB))
	ctx := context.Background()

	_, err := svc.Append(ctx, "", "hello", true)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	_, err = svc.Append(ctx, "s-1", " ", true)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	msg, err := svc.Append(ctx, "s-1", "hello", true)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	transcript, err := svc.Transcript(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, transcript, 1)
	assert.Equal(t, "hello", transcript[0].Message)
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*notify.Message
	err  error
}

func (f *fakeNotifier) Channel() string { return "email" }

func (f *fakeNotifier) Send(_ context.Context, msg *notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func TestNotificationServiceSendsConfirmationAfterCreate(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	dispatcher := events.NewAsyncDispatcher(zap.NewNop())
	notifier := &fakeNotifier{}
	NewNotificationService(dispatcher, notifier, nil, zap.NewNop()).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db.DB),
		HistoryRepo: repository.NewTicketHistoryRepository(db.DB),
		Dispatcher:  dispatcher,
	})
	ticket, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, dispatcher.Close(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "ada@example.com", notifier.sent[0].To)
	assert.Contains(t, notifier.sent[0].Subject, ticket.TicketNumber)
}

func TestNotificationFailureDoesNotFailTicket(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	dispatcher := events.NewAsyncDispatcher(zap.NewNop())
	notifier := &fakeNotifier{err: errors.New("smtp unavailable")}
	NewNotificationService(dispatcher, notifier, nil, zap.NewNop()).RegisterHandlers()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db.DB),
		HistoryRepo: repository.NewTicketHistoryRepository(db.DB),
		Dispatcher:  dispatcher,
	})
	ticket, err := svc.CreateTicket(context.Background(), validInput())
	require.NoError(t, err)
	require.NoError(t, dispatcher.Close(context.Background()))

	got, err := svc.GetTicket(context.Background(), ticket.TicketNumber)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
	assert.Len(t, notifier.sent, 1)
}
