package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	// Counts notifications dispatched per channel kind
	notificationCounts map[string]uint64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:     make(map[string][]int64),
		notificationCounts: make(map[string]uint64),
		systemStartTime:    time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

func (mc *MetricsCollector) IncrementNotifications(kind string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.notificationCounts[kind]++
}

// Snapshot returns the current counters plus the mean latency per
// operation, for the admin stats endpoint.
func (mc *MetricsCollector) Snapshot() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	meanLatencies := make(map[string]float64, len(mc.operationTimes))
	for op, samples := range mc.operationTimes {
		if len(samples) == 0 {
			continue
		}
		var total int64
		for _, ns := range samples {
			total += ns
		}
		meanLatencies[op] = float64(total) / float64(len(samples)) / 1e6 // milliseconds
	}

	notifications := make(map[string]uint64, len(mc.notificationCounts))
	for kind, count := range mc.notificationCounts {
		notifications[kind] = count
	}

	return map[string]interface{}{
		"requests":      mc.requestCount,
		"errors":        mc.errorCount,
		"meanLatencyMs": meanLatencies,
		"notifications": notifications,
		"uptimeSeconds": time.Since(mc.systemStartTime).Seconds(),
	}
}
