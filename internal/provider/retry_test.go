package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-screener/internal/logger"
	"stock-screener/internal/types"
)

func init() {
	logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text", TracingEnabled: false})
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	p := DefaultRetryPolicy(3, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return types.ErrNoData
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := DefaultRetryPolicy(3, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		calls++
		return types.ErrNoData
	})
	if !errors.Is(err, types.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnFatalError(t *testing.T) {
	p := DefaultRetryPolicy(5, time.Millisecond)

	calls := 0
	err := p.Do(context.Background(), "test", func() error {
		calls++
		return types.ErrNotFound
	})
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal)", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	p := DefaultRetryPolicy(10, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, "test", func() error {
		calls++
		return types.ErrNoData
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls > 2 {
		t.Errorf("calls = %d after cancellation", calls)
	}
}
