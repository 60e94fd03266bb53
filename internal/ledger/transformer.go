// Package ledger produces the single ordered transaction ledger consumed by
// every downstream metric.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// StatusProcessing is the presentation status of in-flight entries; the
// quick-withdrawal duplicate predicate matches on it.
const StatusProcessing = "Processing"

// StatusCompleted is the presentation status of settled entries.
const StatusCompleted = "Completed"

// CurrencyConverter converts an amount between currencies as of a date.
// Conversion semantics belong to the currency subsystem.
type CurrencyConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal, on time.Time) (decimal.Decimal, error)
}

// Grouper applies the portfolio-type-dependent grouping rule. It is a pure
// function of (entries, portfolio type); this package treats it as opaque.
type Grouper interface {
	Group(entries []Entry, portfolioType string) []Group
}

// Transformer builds the ledger Set from one snapshot.
type Transformer struct {
	fx      CurrencyConverter
	grouper Grouper
}

// NewTransformer creates a Transformer.
func NewTransformer(fx CurrencyConverter, grouper Grouper) *Transformer {
	if fx == nil {
		panic("ledger.NewTransformer: fx is nil")
	}
	if grouper == nil {
		panic("ledger.NewTransformer: grouper is nil")
	}
	return &Transformer{fx: fx, grouper: grouper}
}

// Build runs the single merge pass:
//
//  1. convert and enrich completed transactions,
//  2. merge cash flows not yet settled (excluded states never merge),
//  3. drop completed rows duplicated by an in-flight quick withdrawal,
//  4. order by (date, createdAt) ascending, reversed for presentation,
//  5. group by the portfolio-type rule.
//
// All four views of the Set come out of this one pass.
func (t *Transformer) Build(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) (Set, error) {
	flat, err := t.convertTransactions(ctx, pctx, snap)
	if err != nil {
		return Set{}, err
	}

	inProgress, err := t.mergeCashFlows(ctx, pctx, snap)
	if err != nil {
		return Set{}, err
	}

	withInCompleted := append(append([]Entry{}, flat...), inProgress...)

	completedWithoutQuick := lo.Reject(flat, isQuickWithdrawalDuplicate)

	presentation := append(append([]Entry{}, inProgress...), completedWithoutQuick...)
	sort.SliceStable(presentation, func(i, j int) bool {
		if !presentation[i].Date.Equal(presentation[j].Date) {
			return presentation[i].Date.Before(presentation[j].Date)
		}
		return presentation[i].CreatedAt.Before(presentation[j].CreatedAt)
	})
	lo.Reverse(presentation)

	return Set{
		Flat:            flat,
		WithInCompleted: withInCompleted,
		Presentation:    presentation,
		Grouped:         t.grouper.Group(presentation, pctx.Portfolio.Type),
	}, nil
}

// isQuickWithdrawalDuplicate reports whether a completed row double-counts an
// in-flight quick withdrawal: an outbound kind still in Processing, or a row
// explicitly flagged as a quick withdrawal inside a transfer.
func isQuickWithdrawalDuplicate(e Entry, _ int) bool {
	outbound := lo.Contains(domain.WithdrawalOutTypes(), e.Type)
	return (e.Status == StatusProcessing && outbound) || e.QuickWithdrawalTransfer
}

func (t *Transformer) convertTransactions(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) ([]Entry, error) {
	entries := make([]Entry, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		bucket, err := Classify(tx.Type)
		if err != nil {
			return nil, fmt.Errorf("classifying transaction %d: %w", tx.ID, err)
		}

		amount, err := t.fx.Convert(ctx, tx.Currency, pctx.ReportingCurrency, tx.Amount, pctx.ServiceDate)
		if err != nil {
			return nil, fmt.Errorf("converting transaction %d: %w", tx.ID, err)
		}

		entry := Entry{
			Date:      tx.TradeDate,
			CreatedAt: tx.CreatedAt,
			Type:      tx.Type,
			Bucket:    bucket,
			Status:    presentStatus(tx.Status),
			Amount:    amount,
			Currency:  pctx.ReportingCurrency,
		}

		if tx.SecurityID != nil {
			entry.SecurityID = tx.SecurityID
			entry.SecurityName = snap.Securities[*tx.SecurityID].Name
		}
		if tx.CounterpartyPortfolioID != nil {
			entry.CounterpartyPortfolio = pctx.AllPortfolios[*tx.CounterpartyPortfolioID].Name
		}
		if tx.WithdrawalID != nil {
			w, ok := snap.Withdrawals[*tx.WithdrawalID]
			entry.QuickWithdrawalTransfer = ok && w.Quick && w.PartOfTransfer
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// mergeCashFlows converts cash flows not yet reflected as completed
// transactions into in-progress entries. Flows in an excluded state
// (PAYMENT_FAILED) are never merged; completed flows already appear in the
// transaction feed.
func (t *Transformer) mergeCashFlows(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) ([]Entry, error) {
	excluded := domain.ExcludedCashFlowStates()

	var entries []Entry
	for _, cf := range snap.CashFlows {
		if excluded[cf.State] || cf.State == domain.CashFlowCompleted {
			continue
		}

		bucket, err := Classify(cf.Type)
		if err != nil {
			return nil, fmt.Errorf("classifying cash flow %d: %w", cf.ID, err)
		}

		amount, err := t.fx.Convert(ctx, cf.Currency, pctx.ReportingCurrency, cf.Amount, pctx.ServiceDate)
		if err != nil {
			return nil, fmt.Errorf("converting cash flow %d: %w", cf.ID, err)
		}

		entry := Entry{
			Date:       cf.Date,
			CreatedAt:  cf.CreatedAt,
			Type:       cf.Type,
			Bucket:     bucket,
			Status:     StatusProcessing,
			Amount:     amount,
			Currency:   pctx.ReportingCurrency,
			InProgress: true,
		}

		if cf.SecurityID != nil {
			entry.SecurityID = cf.SecurityID
			entry.SecurityName = snap.Securities[*cf.SecurityID].Name
		}
		if cf.WithdrawalID != nil {
			w, ok := snap.Withdrawals[*cf.WithdrawalID]
			entry.QuickWithdrawalTransfer = ok && w.Quick && w.PartOfTransfer
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// presentStatus maps upstream transaction states onto the two presentation
// statuses.
func presentStatus(status string) string {
	switch status {
	case "PENDING", "PROCESSING":
		return StatusProcessing
	default:
		return StatusCompleted
	}
}
