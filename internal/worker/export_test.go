package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/presenter"
)

type mockSummarizer struct {
	errFor map[int64]error
	calls  []int64
}

func (m *mockSummarizer) Summarize(_ context.Context, pctx domain.PortfolioContext) (presenter.Summary, error) {
	m.calls = append(m.calls, pctx.Portfolio.ID)
	if err := m.errFor[pctx.Portfolio.ID]; err != nil {
		return nil, err
	}
	return presenter.Summary{"id": pctx.Portfolio.ID}, nil
}

type mockDirectory struct{}

func (mockDirectory) Portfolio(_ context.Context, id int64) (domain.Portfolio, error) {
	return domain.Portfolio{ID: id, UserID: 7}, nil
}

func (mockDirectory) PortfoliosByUser(_ context.Context, _ int64) (map[int64]domain.Portfolio, error) {
	return map[int64]domain.Portfolio{}, nil
}

type mockWriter struct {
	written []int64
}

func (m *mockWriter) Write(_ context.Context, pctx domain.PortfolioContext, _ presenter.Summary) error {
	m.written = append(m.written, pctx.Portfolio.ID)
	return nil
}

func TestExportAllContinuesPastFailures(t *testing.T) {
	summaries := &mockSummarizer{errFor: map[int64]error{2: errors.New("upstream down")}}
	writer := &mockWriter{}
	w := NewExportWorker(summaries, mockDirectory{}, writer, []int64{1, 2, 3}, "SGD", time.Hour)

	w.exportAll(context.Background())

	if len(summaries.calls) != 3 {
		t.Errorf("summarize calls = %d, want 3", len(summaries.calls))
	}
	if len(writer.written) != 2 {
		t.Fatalf("written = %d, want 2 (the failing portfolio is skipped)", len(writer.written))
	}
	if writer.written[0] != 1 || writer.written[1] != 3 {
		t.Errorf("written = %v, want [1 3]", writer.written)
	}
}

func TestExportWorkerNoWatchedPortfolios(t *testing.T) {
	w := NewExportWorker(&mockSummarizer{}, mockDirectory{}, &mockWriter{}, nil, "SGD", time.Hour)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker with nothing to export must return immediately")
	}
}
