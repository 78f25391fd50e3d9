package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/api/tickets", "POST", 200, time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")
	m.RecordTicketCreated()
	m.RecordNotification("email", errors.New("down"))
	m.RecordMint(nil)
	assert.Nil(t, m.Registry())
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics("support")

	m.RecordTicketCreated()
	m.RecordTicketCreated()
	m.RecordStatusTransition("Pending", "Resolved")
	m.RecordNotification("email", nil)
	m.RecordNotification("email", errors.New("relay down"))
	m.RecordNotification("email", errors.New("relay down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tickets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Pending", "Resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("email", "sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("email", "failed")))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics("support")
	m.RecordRequest("/api/faqs", "GET", 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `support_http_requests_total{method="GET",path="/api/faqs",status="200"} 1`)
}
