// Package metrics derives every figure of the portfolio summary from one
// frozen snapshot and the merged ledger. The engine assumes the snapshot is
// complete by construction; a missing required field is an invariant
// violation, not a condition to recover from.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// CurrencyConverter is the currency subsystem boundary.
type CurrencyConverter interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal, on time.Time) (decimal.Decimal, error)
	ActiveCurrencies() []string
}

// Policy is the portfolio-type policy boundary: classification tables, the
// status classifier and payout eligibility live in a separate subsystem.
type Policy interface {
	PortfolioStatus(p domain.Portfolio) string
	HasDividends(portfolioType string) bool
	HasRebates(portfolioType string) bool
	BaseComposition(portfolioType string) map[string]decimal.Decimal
	BaseCompositionOrdered(portfolioType string) []CompositionEntry
	PayoutEligible(portfolioType string, nav, netInvested decimal.Decimal, pricingPlan string) bool
	CustomRebalancing(p domain.Portfolio, inProgress []domain.Withdrawal) RebalancingStatus
}

// RebalancingStatus is the custom-rebalancing state of a portfolio.
type RebalancingStatus struct {
	Status  string `json:"status"`
	Enabled bool   `json:"enabled"`
}

// CompositionEntry is one asset-class category with its weight percentage.
type CompositionEntry struct {
	Category string          `json:"category"`
	Weight   decimal.Decimal `json:"weightage"`
}

// ValuedHolding is one holding row valued in the reporting currency.
type ValuedHolding struct {
	SecurityID int              `json:"securityId"`
	Name       string           `json:"name"`
	Symbol     string           `json:"symbol"`
	AssetClass string           `json:"assetClass"`
	Units      decimal.Decimal  `json:"units"`
	Price      decimal.Decimal  `json:"price"`
	Value      decimal.Decimal  `json:"value"`
	Weight     *decimal.Decimal `json:"weight,omitempty"`
}

// HistoricalReturn is one point of the historical return series.
type HistoricalReturn struct {
	Date             time.Time        `json:"date"`
	Nav              decimal.Decimal  `json:"nav"`
	InvestmentAmount decimal.Decimal  `json:"investmentAmount"`
	ReturnPercent    *decimal.Decimal `json:"returnPercent,omitempty"`
	Theme            string           `json:"theme,omitempty"`
}

// DividendEntry is one dividend row of the payout block.
type DividendEntry struct {
	SecurityName string          `json:"securityName"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
}

// DividendPayout is the payout block for dividend-paying portfolio types.
type DividendPayout struct {
	Total decimal.Decimal
	All   []DividendEntry
}

// Dormancy is the overlay attached when the portfolio is dormant and a
// closing transfer-out exists.
type Dormancy struct {
	Since          time.Time
	ClosingValue   decimal.Decimal
	HistoricalNavs []domain.HistoricalNav
}

// Set is the full derived metric output for one request.
type Set struct {
	Status                    string
	Nav                       decimal.Decimal
	CashFlowIn                decimal.Decimal
	CashFlowOut               decimal.Decimal
	DividendPayoutCashFlow    decimal.Decimal
	TotalDividend             decimal.Decimal
	NetInvested               decimal.Decimal
	PnlInception              decimal.Decimal
	PnlInceptionPercent       *decimal.Decimal
	TwrPercent                decimal.Decimal
	LastUpdateTimestamp       string
	LastUpdateMessage         string
	IndicativeTicksUpdateDate string
	LifetimeValue             decimal.Decimal
	DividendPayout            *DividendPayout
	HistoricalData            []HistoricalReturn
	Holdings                  []ValuedHolding
	Composition               map[string]decimal.Decimal
	CompositionOrdered        []CompositionEntry
	InceptionDate             *time.Time
	Dormancy                  *Dormancy
	WithdrawableAmounts       map[string]decimal.Decimal
	QuickWithdrawableAmounts  map[string]decimal.Decimal
	TotalCashRebate           *decimal.Decimal
	CashRebates               []domain.CashRebate
	PayoutEligible            bool
	Rebalancing               RebalancingStatus
}

// Engine derives a Set from a snapshot and ledger.
type Engine struct {
	fx     CurrencyConverter
	policy Policy
	guard  domain.RatioGuard
}

// NewEngine creates an Engine. A nil guard falls back to the default
// division-by-zero policy.
func NewEngine(fx CurrencyConverter, policy Policy, guard domain.RatioGuard) *Engine {
	if fx == nil {
		panic("metrics.NewEngine: fx is nil")
	}
	if policy == nil {
		panic("metrics.NewEngine: policy is nil")
	}
	if guard == nil {
		guard = domain.GuardedPercent
	}
	return &Engine{fx: fx, policy: policy, guard: guard}
}

// Derive runs the derivation steps in dependency order; each step reads only
// the snapshot, the ledger and earlier steps.
func (e *Engine) Derive(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot, led ledger.Set) (Set, error) {
	if snap.Info == nil {
		return Set{}, fmt.Errorf("%w: detailed portfolio info", domain.ErrMissingPrecondition)
	}

	set := Set{Status: e.policy.PortfolioStatus(pctx.Portfolio)}

	nav, err := e.portfolioNav(ctx, pctx, snap)
	if err != nil {
		return Set{}, err
	}
	set.Nav = nav

	pre := snap.Precomputed
	set.CashFlowIn = pre.CashFlowIn
	set.CashFlowOut = pre.CashFlowOut
	set.DividendPayoutCashFlow = pre.DividendPayout
	set.TotalDividend = pre.TotalDividend

	set.NetInvested = pre.CashFlowIn.Sub(pre.CashFlowOut).Add(pre.DividendPayout)
	set.PnlInception = nav.Sub(pre.CashFlowIn).Add(pre.CashFlowOut)
	set.PnlInceptionPercent = e.guard(set.PnlInception, set.NetInvested)

	set.LifetimeValue = nav
	if e.policy.HasDividends(pctx.Portfolio.Type) {
		payout := dividendPayout(led)
		set.DividendPayout = &payout
		set.LifetimeValue = nav.Add(payout.Total)
	}

	set.HistoricalData = historicalReturns(snap.HistoricalNavs, led, pctx.Portfolio.Theme, e.guard)

	e.applyIndicative(&set, pctx, snap)

	holdings, err := e.valueHoldings(ctx, pctx, snap, nav)
	if err != nil {
		return Set{}, err
	}
	set.Holdings = holdings
	set.Composition, set.CompositionOrdered = e.composition(pctx.Portfolio.Type, holdings)

	set.InceptionDate = inceptionDate(snap.Transactions)

	if set.Status == StatusDormant {
		set.Dormancy = dormancyOverlay(led, snap.HistoricalNavs)
	}

	if e.policy.HasRebates(pctx.Portfolio.Type) {
		total := lo.Reduce(snap.CashRebates, func(acc decimal.Decimal, r domain.CashRebate, _ int) decimal.Decimal {
			return acc.Add(r.Paid)
		}, decimal.Zero)
		set.TotalCashRebate = &total
		set.CashRebates = snap.CashRebates
	}

	partial, quick, err := e.withdrawableOverlay(ctx, pctx, snap)
	if err != nil {
		return Set{}, err
	}
	set.WithdrawableAmounts = partial
	set.QuickWithdrawableAmounts = quick

	set.PayoutEligible = e.policy.PayoutEligible(pctx.Portfolio.Type, nav, set.NetInvested, pctx.PricingPlan)
	set.Rebalancing = e.policy.CustomRebalancing(pctx.Portfolio, snap.InProgressWithdrawals)

	return set, nil
}

// dividendPayout builds the payout block from completed dividend entries.
func dividendPayout(led ledger.Set) DividendPayout {
	entries := lo.FilterMap(led.Flat, func(e ledger.Entry, _ int) (DividendEntry, bool) {
		if e.Bucket != ledger.BucketDividend || e.Status != ledger.StatusCompleted {
			return DividendEntry{}, false
		}
		return DividendEntry{SecurityName: e.SecurityName, Amount: e.Amount, Date: e.Date}, true
	})

	total := lo.Reduce(entries, func(acc decimal.Decimal, d DividendEntry, _ int) decimal.Decimal {
		return acc.Add(d.Amount)
	}, decimal.Zero)

	return DividendPayout{Total: total, All: entries}
}

// inceptionDate is the earliest trade date among funding transfers.
func inceptionDate(transactions []domain.Transaction) *time.Time {
	inflows := lo.Filter(transactions, func(tx domain.Transaction, _ int) bool {
		return lo.Contains(domain.InflowTypes(), tx.Type)
	})
	if len(inflows) == 0 {
		return nil
	}
	earliest := lo.MinBy(inflows, func(a, b domain.Transaction) bool {
		return a.TradeDate.Before(b.TradeDate)
	})
	return &earliest.TradeDate
}
