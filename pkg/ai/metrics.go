package ai

import (
	"math"
	"sync"
)

// MetricsRecorder accumulates ModelMetrics across concurrent requests. The
// backends embed it to satisfy ResetMetrics and GetMetrics.
type MetricsRecorder struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (r *MetricsRecorder) ResetMetrics() {
	r.mu.Lock()
	r.metrics = ModelMetrics{}
	r.mu.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (r *MetricsRecorder) GetMetrics() ModelMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// Record adds one request worth of metrics.
func (r *MetricsRecorder) Record(m ModelMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.Requests++
	r.metrics.InputTokens += m.InputTokens
	r.metrics.OutputTokens += m.OutputTokens
	r.metrics.TotalTokens += m.TotalTokens
	r.metrics.DurationMs += m.DurationMs

	if r.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(r.metrics.TotalTokens) * 1000.0) / float64(r.metrics.DurationMs)
		r.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}

// Since returns the metrics accumulated between earlier and m.
func (m ModelMetrics) Since(earlier ModelMetrics) ModelMetrics {
	out := ModelMetrics{
		Requests:     m.Requests - earlier.Requests,
		InputTokens:  m.InputTokens - earlier.InputTokens,
		OutputTokens: m.OutputTokens - earlier.OutputTokens,
		TotalTokens:  m.TotalTokens - earlier.TotalTokens,
		DurationMs:   m.DurationMs - earlier.DurationMs,
	}
	if out.DurationMs > 0 {
		tokensPerSecond := (float64(out.TotalTokens) * 1000.0) / float64(out.DurationMs)
		out.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
	return out
}
