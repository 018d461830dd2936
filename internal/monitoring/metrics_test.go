package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scrape 抓取 /metrics 的文本输出
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/api/v1/", "200", 15*time.Millisecond)
	m.RecordMailboxesGenerated(3)
	m.RecordMessageReceived()
	m.RecordMessageRead()
	m.RecordRateLimitBlock("ip")
	m.RecordSMTPRecipientRejected("domain")
	m.RecordError("not_found", "api")

	out := scrape(t, m)
	assert.Contains(t, out, `secmail_http_requests_total{endpoint="/api/v1/",method="GET",status_code="200"} 1`)
	assert.Contains(t, out, "secmail_mailboxes_generated_total 3")
	assert.Contains(t, out, "secmail_messages_received_total 1")
	assert.Contains(t, out, "secmail_messages_read_total 1")
	assert.Contains(t, out, `secmail_rate_limit_blocks_total{limit_type="ip"} 1`)
	assert.Contains(t, out, `secmail_smtp_recipients_rejected_total{reason="domain"} 1`)
	assert.Contains(t, out, `secmail_errors_total{component="api",type="not_found"} 1`)
	assert.Contains(t, out, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordMessageReceived()

	assert.Contains(t, scrape(t, a), "secmail_messages_received_total 1")
	assert.Contains(t, scrape(t, b), "secmail_messages_received_total 0")
}
