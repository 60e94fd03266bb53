package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vantagewealth/summary/internal/api"
	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/export"
)

// ExportWorker periodically summarizes a watched set of portfolios and hands
// each summary to a writer.
type ExportWorker struct {
	summaries  api.Summarizer
	portfolios api.PortfolioDirectory
	writer     export.SummaryWriter
	watched    []int64
	currency   string
	interval   time.Duration
}

// NewExportWorker creates a new ExportWorker.
func NewExportWorker(summaries api.Summarizer, portfolios api.PortfolioDirectory, writer export.SummaryWriter, watched []int64, currency string, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		summaries:  summaries,
		portfolios: portfolios,
		writer:     writer,
		watched:    watched,
		currency:   currency,
		interval:   interval,
	}
}

// Run starts the export worker loop. It blocks until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context) {
	if len(w.watched) == 0 || w.writer == nil {
		slog.Info("ExportWorker: nothing to export, not starting")
		return
	}
	slog.Info("ExportWorker: starting", "portfolios", len(w.watched))

	w.exportAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ExportWorker: shutting down")
			return
		case <-ticker.C:
			w.exportAll(ctx)
		}
	}
}

// exportAll runs one export pass. A failing portfolio does not stop the rest.
func (w *ExportWorker) exportAll(ctx context.Context) {
	for _, portfolioID := range w.watched {
		if err := w.exportOne(ctx, portfolioID); err != nil {
			slog.Error("ExportWorker: export failed", "portfolio_id", portfolioID, "error", err)
			continue
		}
		slog.Info("ExportWorker: export completed", "portfolio_id", portfolioID)
	}
}

func (w *ExportWorker) exportOne(ctx context.Context, portfolioID int64) error {
	portfolio, err := w.portfolios.Portfolio(ctx, portfolioID)
	if err != nil {
		return err
	}
	siblings, err := w.portfolios.PortfoliosByUser(ctx, portfolio.UserID)
	if err != nil {
		return err
	}

	pctx := domain.PortfolioContext{
		Portfolio:         portfolio,
		AllPortfolios:     siblings,
		ReportingCurrency: w.currency,
		ServiceDate:       time.Now().UTC(),
		Version:           domain.V1,
		DepositConfirmed:  true,
	}

	summary, err := w.summaries.Summarize(ctx, pctx)
	if err != nil {
		return err
	}
	return w.writer.Write(ctx, pctx, summary)
}
