package renderpool

import (
	"context"
	"testing"
	"time"
)

func TestHealthReporter_Report(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	pool, err := newTestPool(PoolConfig{MinInstances: 2, MaxInstances: 4}, launcher)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Shutdown()

	reporter := NewHealthReporter(pool)

	inst, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release(inst)

	report := reporter.Report()

	if report.Status != "healthy" {
		t.Errorf("Status = %q, want %q", report.Status, "healthy")
	}
	if report.UptimeSeconds < 0 {
		t.Errorf("UptimeSeconds = %f, want >= 0", report.UptimeSeconds)
	}
	if report.Pool.Total != 2 || report.Pool.InUse != 1 || report.Pool.Available != 1 {
		t.Errorf("Pool = %+v, want total=2 inUse=1 available=1", report.Pool)
	}
	if report.Memory.SysMB == 0 {
		t.Error("Memory.SysMB = 0, want process memory reported")
	}
	if time.Since(report.Timestamp) > time.Minute {
		t.Errorf("Timestamp = %v, want recent", report.Timestamp)
	}
	if report.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", report.Timestamp.Location())
	}
	if report.ComplianceScore != 1.0 {
		t.Errorf("ComplianceScore = %f, want 1.0 without a score source", report.ComplianceScore)
	}
}

type fixedScore float64

func (f fixedScore) AmbientScore() float64 { return float64(f) }

func TestHealthReporter_ScoreSource(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	pool, err := newTestPool(PoolConfig{MinInstances: 1, MaxInstances: 1}, launcher)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Shutdown()

	reporter := NewHealthReporter(pool, WithScoreSource(fixedScore(0.995)))

	if got := reporter.Report().ComplianceScore; got != 0.995 {
		t.Errorf("ComplianceScore = %f, want 0.995", got)
	}
}

func TestHealthReporter_UptimeGrows(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	pool, err := newTestPool(PoolConfig{MinInstances: 1, MaxInstances: 1}, launcher)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Shutdown()

	reporter := NewHealthReporter(pool)

	first := reporter.Report().UptimeSeconds
	time.Sleep(20 * time.Millisecond)
	second := reporter.Report().UptimeSeconds

	if second <= first {
		t.Errorf("uptime did not grow: %f then %f", first, second)
	}
}
