package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type mockRefresher struct {
	calls atomic.Int32
}

func (m *mockRefresher) RefreshRates(_ context.Context) error {
	m.calls.Add(1)
	return nil
}

func TestRateWorkerRefreshesOnStartupAndTick(t *testing.T) {
	refresher := &mockRefresher{}
	w := NewRateWorker(refresher, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	if n := refresher.calls.Load(); n < 2 {
		t.Errorf("refresh calls = %d, want at least 2 (startup + tick)", n)
	}
}

func TestRateWorkerStopsOnCancel(t *testing.T) {
	refresher := &mockRefresher{}
	w := NewRateWorker(refresher, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}
