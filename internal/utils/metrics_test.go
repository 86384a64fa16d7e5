package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	mc := NewMetricsCollector()
	mc.IncrementRequests()
	mc.IncrementRequests()
	mc.IncrementErrors()

	requests, errors, uptime := mc.Snapshot()
	assert.Equal(t, uint64(2), requests)
	assert.Equal(t, uint64(1), errors)
	assert.GreaterOrEqual(t, uptime, time.Duration(0))
}

func TestOperationStatsAverages(t *testing.T) {
	mc := NewMetricsCollector()
	mc.AddOperationLatency("send_message", 10*time.Millisecond)
	mc.AddOperationLatency("send_message", 30*time.Millisecond)
	mc.AddOperationLatency("toggle_reaction", 5*time.Millisecond)

	stats := mc.OperationStats()
	assert.Equal(t, 20*time.Millisecond, stats["send_message"])
	assert.Equal(t, 5*time.Millisecond, stats["toggle_reaction"])
	assert.NotContains(t, stats, "never_recorded")
}
