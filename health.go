package renderpool

import (
	"runtime"
	"time"
)

// HealthReport is a read-only snapshot for operational visibility.
type HealthReport struct {
	Status          string    `json:"status"`
	UptimeSeconds   float64   `json:"uptime"`
	ComplianceScore float64   `json:"complianceScore"`
	Memory          MemoryUse `json:"memory"`
	Pool            PoolStats `json:"pool"`
	Timestamp       time.Time `json:"timestamp"`
}

// MemoryUse reports Go heap and total process memory, in megabytes.
type MemoryUse struct {
	HeapMB uint64 `json:"heapMb"`
	SysMB  uint64 `json:"sysMb"`
}

// ScoreSource supplies an ambient compliance score for health reports.
// *ContentGate implements it.
type ScoreSource interface {
	AmbientScore() float64
}

// HealthReporter exposes pool statistics plus process uptime and memory for
// an external health-check endpoint. Purely observational.
type HealthReporter struct {
	pool    *Pool
	scores  ScoreSource
	started time.Time
}

// HealthOption configures a HealthReporter.
type HealthOption func(*HealthReporter)

// WithScoreSource includes the source's ambient compliance score in reports.
func WithScoreSource(s ScoreSource) HealthOption {
	return func(h *HealthReporter) { h.scores = s }
}

// NewHealthReporter creates a reporter; uptime counts from this call.
func NewHealthReporter(pool *Pool, opts ...HealthOption) *HealthReporter {
	h := &HealthReporter{pool: pool, started: time.Now()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Report gathers the current snapshot. No mutation anywhere.
func (h *HealthReporter) Report() HealthReport {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	score := 1.0
	if h.scores != nil {
		score = h.scores.AmbientScore()
	}

	return HealthReport{
		Status:          "healthy",
		UptimeSeconds:   time.Since(h.started).Seconds(),
		ComplianceScore: score,
		Memory: MemoryUse{
			HeapMB: mem.HeapAlloc / 1024 / 1024,
			SysMB:  mem.Sys / 1024 / 1024,
		},
		Pool:      h.pool.Stats(),
		Timestamp: time.Now().UTC(),
	}
}
