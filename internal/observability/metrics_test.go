package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsRequestsPerRoute(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/orders", "POST", 201, 12*time.Millisecond)
	m.RecordRequest("/orders", "POST", 201, 8*time.Millisecond)
	m.RecordRequest("/orders", "GET", 200, time.Millisecond)

	assert.Equal(t, int64(2), m.RequestCount("/orders", "POST", 201))
	assert.Equal(t, int64(1), m.RequestCount("/orders", "GET", 200))
	assert.Equal(t, int64(0), m.RequestCount("/orders", "GET", 500))
	assert.Equal(t, 20*time.Millisecond, m.TotalLatency("/orders", "POST", 201))
}

func TestMetricsCountsErrorsByCode(t *testing.T) {
	m := NewMetrics()
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")

	assert.Equal(t, int64(2), m.ErrorCount("/auth/login", "POST", "UNAUTHORIZED"))
	assert.Equal(t, int64(0), m.ErrorCount("/auth/login", "POST", "NOT_FOUND"))
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/health/live", "GET", 200, 0)
	m.RecordError("/health/live", "GET", "INTERNAL_ERROR")

	assert.Equal(t, int64(0), m.RequestCount("/health/live", "GET", 200))
	assert.Equal(t, int64(0), m.ErrorCount("/health/live", "GET", "INTERNAL_ERROR"))
}
