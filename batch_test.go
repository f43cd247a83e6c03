package renderpool

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestNewBatchRenderer_DefaultConcurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		concurrency int
		want        int
	}{
		{"explicit", 2, 2},
		{"zero uses default", 0, DefaultBatchConcurrency},
		{"negative uses default", -3, DefaultBatchConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewBatchRenderer(nil, tt.concurrency)
			if got := b.Concurrency(); got != tt.want {
				t.Errorf("Concurrency() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBatchRenderer_RenderBatch_Empty(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	r, _ := newTestRenderer(t, launcher)
	b := NewBatchRenderer(r, 2)

	if got := b.RenderBatch(context.Background(), nil); got != nil {
		t.Errorf("RenderBatch(nil) = %v, want nil", got)
	}
}

// TestBatchRenderer_RenderBatch_OrderPreserved submits requests with distinct
// viewports and checks each result lands in its submission slot.
func TestBatchRenderer_RenderBatch_OrderPreserved(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	pool, err := newTestPool(PoolConfig{MinInstances: 1, MaxInstances: 4}, launcher)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Shutdown()

	b := NewBatchRenderer(NewRenderer(pool), 3)

	requests := make([]RenderRequest, 6)
	for i := range requests {
		requests[i] = RenderRequest{
			Markup:  fmt.Sprintf("<p>item %d</p>", i),
			Options: RenderOptions{ViewportWidth: 100 + i, ViewportHeight: 50 + i},
		}
	}

	results := b.RenderBatch(context.Background(), requests)
	if len(results) != len(requests) {
		t.Fatalf("got %d results, want %d", len(results), len(requests))
	}
	for i, res := range results {
		if !res.Success {
			t.Errorf("result %d failed: %s", i, res.Message)
			continue
		}
		if res.Width != 100+i || res.Height != 50+i {
			t.Errorf("result %d dimensions = %dx%d, want %dx%d", i, res.Width, res.Height, 100+i, 50+i)
		}
	}
}

// TestBatchRenderer_RenderBatch_FailureIsolation has one bad request in the
// middle; its siblings must still succeed.
func TestBatchRenderer_RenderBatch_FailureIsolation(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	r, _ := newTestRenderer(t, launcher)
	b := NewBatchRenderer(r, 2)

	requests := []RenderRequest{
		{Markup: "<p>first</p>"},
		{Markup: "<p>bad</p>", Options: RenderOptions{Format: "tiff"}},
		{Markup: "<p>third</p>"},
	}

	results := b.RenderBatch(context.Background(), requests)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Success || !results[2].Success {
		t.Error("healthy requests failed alongside the bad one")
	}
	if results[1].Success {
		t.Error("invalid request succeeded")
	}
	if results[1].ErrorKind != KindInvalidRequest {
		t.Errorf("results[1].ErrorKind = %q, want %q", results[1].ErrorKind, KindInvalidRequest)
	}
}

func TestBatchRenderer_RenderBatch_ConcurrencyCeiling(t *testing.T) {
	t.Parallel()

	gauge := &concurrencyGauge{}
	launcher := &fakeLauncher{
		hooks: fakePageHooks{gauge: gauge, captureDelay: 20 * time.Millisecond},
	}
	pool, err := newTestPool(PoolConfig{MinInstances: 1, MaxInstances: 4}, launcher)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	defer pool.Shutdown()

	b := NewBatchRenderer(NewRenderer(pool), 2)

	requests := make([]RenderRequest, 6)
	for i := range requests {
		requests[i] = RenderRequest{Markup: fmt.Sprintf("<p>%d</p>", i)}
	}

	results := b.RenderBatch(context.Background(), requests)
	for i, res := range results {
		if !res.Success {
			t.Errorf("result %d failed: %s", i, res.Message)
		}
	}
	if got := gauge.max(); got > 2 {
		t.Errorf("observed %d concurrent captures, ceiling is 2", got)
	}
}

func TestBatchRenderer_RenderBatch_CanceledContext(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{}
	r, _ := newTestRenderer(t, launcher)
	b := NewBatchRenderer(r, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := b.RenderBatch(ctx, []RenderRequest{
		{Markup: "<p>a</p>"},
		{Markup: "<p>b</p>"},
	})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, res := range results {
		if res.Success {
			t.Errorf("result %d succeeded with canceled context", i)
		}
		if res.ErrorKind != KindCanceled {
			t.Errorf("result %d kind = %q, want %q", i, res.ErrorKind, KindCanceled)
		}
	}
}
