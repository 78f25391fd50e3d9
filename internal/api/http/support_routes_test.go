package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/api/http/handlers"
	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/observability"
	"github.com/spec-kit/skilllink-support/internal/persistence/persistencetest"
	"github.com/spec-kit/skilllink-support/internal/ratelimit"
	"github.com/spec-kit/skilllink-support/internal/repository"
	"github.com/spec-kit/skilllink-support/internal/service"
)

type supportApp struct {
	app        *fiber.App
	knowledge  *service.KnowledgeService
	dispatcher events.Dispatcher
}

func newSupportApp(t *testing.T, rateLimit int) *supportApp {
	t.Helper()
	logger := zap.NewNop()
	db := persistencetest.NewSupportDB(t)
	metrics := observability.NewMetrics("test")
	dispatcher := events.NewAsyncDispatcher(logger)

	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db.DB),
		HistoryRepo: repository.NewTicketHistoryRepository(db.DB),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	knowledgeSvc := service.NewKnowledgeService(repository.NewKnowledgeRepository(db.DB), logger)
	chatSvc := service.NewChatService(repository.NewChatRepository(db.DB))

	app := NewApp("test")
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterSupportRoutes(app, SupportRoutes{
		Health:    handlers.NewHealthHandler("glow-support", "test", handlers.DependencyCheck{Name: "sqlite", Pinger: db}),
		Tickets:   handlers.NewTicketsHandler(ticketSvc),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeSvc),
		Chat:      handlers.NewChatHandler(chatSvc),
		RateLimit: ratelimit.Middleware(ratelimit.NewLocalLimiter(rateLimit, time.Minute), logger, metrics),
		Metrics:   metrics,
	})
	t.Cleanup(func() {
		knowledgeSvc.Wait()
		_ = dispatcher.Close(context.Background())
	})
	return &supportApp{app: app, knowledge: knowledgeSvc, dispatcher: dispatcher}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func statsByStatus(t *testing.T, app *fiber.App) map[string]float64 {
	t.Helper()
	status, body := doJSON(t, app, http.MethodGet, "/api/tickets/stats/summary", nil)
	require.Equal(t, http.StatusOK, status)
	out := map[string]float64{}
	for _, row := range body["stats"].([]any) {
		entry := row.(map[string]any)
		out[entry["status"].(string)] = entry["count"].(float64)
	}
	return out
}

func TestTicketLifecycleEndToEnd(t *testing.T) {
	s := newSupportApp(t, 100)
	before := statsByStatus(t, s.app)

	status, body := doJSON(t, s.app, http.MethodPost, "/api/tickets", map[string]string{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"subject": "Cannot log in",
		"message": "The login page keeps spinning.",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Support ticket created successfully", body["message"])
	number := body["ticketNumber"].(string)
	assert.Regexp(t, `^GLOW-\d{9}$`, number)

	status, body = doJSON(t, s.app, http.MethodGet, "/api/tickets/"+number, nil)
	require.Equal(t, http.StatusOK, status)
	ticket := body["ticket"].(map[string]any)
	assert.Equal(t, "Pending", ticket["status"])
	assert.Equal(t, "Medium", ticket["priority"])
	assert.Equal(t, "Technical Support", ticket["department"])

	status, body = doJSON(t, s.app, http.MethodPatch, "/api/tickets/"+number+"/status", map[string]string{"status": "Resolved"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Ticket status updated successfully", body["message"])

	_, body = doJSON(t, s.app, http.MethodGet, "/api/tickets/"+number, nil)
	assert.Equal(t, "Resolved", body["ticket"].(map[string]any)["status"])

	after := statsByStatus(t, s.app)
	assert.Equal(t, before["Pending"], after["Pending"])
	assert.Equal(t, before["Resolved"]+1, after["Resolved"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/tickets/"+number+"/history", nil)
	require.Equal(t, http.StatusOK, status)
	history := body["history"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, "Pending", history[0].(map[string]any)["old_status"])
	assert.Equal(t, "Resolved", history[0].(map[string]any)["new_status"])
}

func TestTicketErrors(t *testing.T) {
	s := newSupportApp(t, 100)

	status, body := doJSON(t, s.app, http.MethodPost, "/api/tickets", map[string]string{"name": "Ada"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_FAILED", body["code"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/tickets/GLOW-000000000", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	_, created := doJSON(t, s.app, http.MethodPost, "/api/tickets", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "help",
	})
	number := created["ticketNumber"].(string)

	status, body = doJSON(t, s.app, http.MethodPatch, "/api/tickets/"+number+"/status", map[string]string{"status": "Done"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", body["code"])
	assert.Equal(t, "Invalid status", body["error"])

	status, _ = doJSON(t, s.app, http.MethodPatch, "/api/tickets/GLOW-000000000/status", map[string]string{"status": "Closed"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestKnowledgeEndpoints(t *testing.T) {
	s := newSupportApp(t, 100)

	status, body := doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/search?query=password", nil)
	require.Equal(t, http.StatusOK, status)
	results := body["results"].([]any)
	require.NotEmpty(t, results)
	assert.Equal(t, "How do I reset my password?", results[0].(map[string]any)["title"])
	assert.Equal(t, float64(len(results)), body["count"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Search query required", body["error"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/faqs", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["faqs"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/categories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["categories"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/category/Security", nil)
	require.Equal(t, http.StatusOK, status)
	articles := body["articles"].([]any)
	require.Len(t, articles, 1)
	assert.Equal(t, "Security Best Practices", articles[0].(map[string]any)["title"])
}

func TestChatEndpoints(t *testing.T) {
	s := newSupportApp(t, 100)

	status, body := doJSON(t, s.app, http.MethodPost, "/api/chat/messages", map[string]any{"session_id": "s-1", "message": "hi"})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotZero(t, body["messageId"])

	_, _ = doJSON(t, s.app, http.MethodPost, "/api/chat/messages", map[string]any{"session_id": "s-1", "message": "hello!", "is_user": false})

	status, body = doJSON(t, s.app, http.MethodGet, "/api/chat/messages/s-1", nil)
	require.Equal(t, http.StatusOK, status)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, true, messages[0].(map[string]any)["is_user"])
	assert.Equal(t, false, messages[1].(map[string]any)["is_user"])

	status, _ = doJSON(t, s.app, http.MethodPost, "/api/chat/messages", map[string]any{"session_id": "s-1"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWriteEndpointsAreRateLimited(t *testing.T) {
	s := newSupportApp(t, 2)
	msg := map[string]any{"session_id": "s-1", "message": "hi"}

	for i := 0; i < 2; i++ {
		status, _ := doJSON(t, s.app, http.MethodPost, "/api/chat/messages", msg)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := doJSON(t, s.app, http.MethodPost, "/api/chat/messages", msg)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", body["code"])

	status, _ = doJSON(t, s.app, http.MethodGet, "/api/chat/messages/s-1", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthMetricsAndFallback(t *testing.T) {
	s := newSupportApp(t, 100)

	status, body := doJSON(t, s.app, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "glow-support", body["service"])
	assert.NotEmpty(t, body["timestamp"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/health/ready", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["dependencies"].(map[string]any)["sqlite"])

	status, body = doJSON(t, s.app, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Endpoint not found", body["error"])

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "test_http_requests_total")
}

func TestPanicsRenderInternalError(t *testing.T) {
	app := NewApp("test")
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	status, body := doJSON(t, app, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
	wg     sync.WaitGroup
}

func (r *eventRecorder) expect(n int) { r.wg.Add(n) }

func (r *eventRecorder) handle(_ context.Context, event events.Event) error {
	// let later requests reuse the connection buffers before reading the event
	time.Sleep(20 * time.Millisecond)
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.wg.Done()
	return nil
}

func (r *eventRecorder) wait(t *testing.T) []events.Event {
	t.Helper()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func createTicket(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := doJSON(t, app, http.MethodPost, "/api/tickets", map[string]string{
		"name":    "Ada Lovelace",
		"email":   email,
		"subject": "Cannot log in",
		"message": "The login page keeps spinning.",
	})
	require.Equal(t, http.StatusOK, status, body)
	return body["ticketNumber"].(string)
}

func TestStatusEventsKeepTicketNumberAfterLaterRequests(t *testing.T) {
	s := newSupportApp(t, 100)
	recorder := &eventRecorder{}
	s.dispatcher.Subscribe(events.EventTicketStatusChanged, recorder.handle)

	var numbers []string
	for i := 0; i < 5; i++ {
		numbers = append(numbers, createTicket(t, s.app, fmt.Sprintf("user%d@example.com", i)))
	}

	recorder.expect(len(numbers))
	for _, number := range numbers {
		status, body := doJSON(t, s.app, http.MethodPatch, "/api/tickets/"+number+"/status", map[string]string{"status": "In Progress"})
		require.Equal(t, http.StatusOK, status, body)

		status, _ = doJSON(t, s.app, http.MethodGet, "/api/faqs", nil)
		require.Equal(t, http.StatusOK, status)
		status, _ = doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/search?query=password", nil)
		require.Equal(t, http.StatusOK, status)
	}

	got := map[string]bool{}
	for _, event := range recorder.wait(t) {
		got[event.TicketNumber] = true
		payload := event.Payload.(events.TicketStatusChangedPayload)
		assert.Equal(t, "In Progress", string(payload.NewStatus))
	}
	for _, number := range numbers {
		assert.True(t, got[number], "missing status event for %s", number)
	}
	assert.Len(t, got, len(numbers))
}

func TestCreatedEventKeepsFormEncodedRecipient(t *testing.T) {
	s := newSupportApp(t, 100)
	recorder := &eventRecorder{}
	s.dispatcher.Subscribe(events.EventTicketCreated, recorder.handle)
	recorder.expect(1)

	form := url.Values{}
	form.Set("name", "Grace Hopper")
	form.Set("email", "grace@example.com")
	form.Set("subject", "Billing question")
	form.Set("message", "I was charged twice this month.")
	req := httptest.NewRequest(http.MethodPost, "/api/tickets", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for i := 0; i < 3; i++ {
		status, _ := doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/search?query=refund", nil)
		require.Equal(t, http.StatusOK, status)
	}

	got := recorder.wait(t)
	require.Len(t, got, 1)
	payload := got[0].Payload.(events.TicketCreatedPayload)
	assert.Equal(t, "grace@example.com", payload.Email)
	assert.Equal(t, "Grace Hopper", payload.Name)
	assert.True(t, strings.HasPrefix(got[0].TicketNumber, "GLOW-"), got[0].TicketNumber)
}

func TestMetricsScrapeAfterNotFoundTickets(t *testing.T) {
	s := newSupportApp(t, 100)

	var missing []string
	for i := 1; i <= 3; i++ {
		number := fmt.Sprintf("GLOW-%09d", i)
		missing = append(missing, number)
		status, body := doJSON(t, s.app, http.MethodGet, "/api/tickets/"+number, nil)
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", body["code"])

		status, _ = doJSON(t, s.app, http.MethodGet, "/api/knowledge-base/search?query=password", nil)
		require.Equal(t, http.StatusOK, status)
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	text := string(raw)
	assert.Contains(t, text, `test_http_errors_total{code="NOT_FOUND",method="GET",path="/api/tickets/:ticketNumber"} 3`)
	assert.Contains(t, text, `path="/api/knowledge-base/search"`)
	for _, number := range missing {
		assert.NotContains(t, text, number)
	}
}
