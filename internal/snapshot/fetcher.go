// Package snapshot builds the immutable per-request bundle of upstream data.
// Every fetch lands before any downstream computation starts; a partial
// snapshot is never exposed.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/vantagewealth/summary/internal/domain"
)

// DataSource is the subset of the FMS API used by the Fetcher.
type DataSource interface {
	Securities(ctx context.Context) (map[int]domain.Security, error)
	HoldingSnapshots(ctx context.Context, portfolioID int64, date time.Time) ([]domain.HoldingSnapshot, error)
	NextBusinessDate(ctx context.Context, from time.Time, offsetDays int) (time.Time, error)
	PortfolioTransactions(ctx context.Context, portfolioID int64) ([]domain.Transaction, error)
	PortfolioInfo(ctx context.Context, portfolioID int64) (domain.PortfolioInfo, error)
	InProgressWithdrawals(ctx context.Context, portfolioID int64) ([]domain.Withdrawal, error)
	HistoricalNavs(ctx context.Context, portfolioID int64, currency string) ([]domain.HistoricalNav, error)
	CashRebates(ctx context.Context, portfolioID int64) ([]domain.CashRebate, error)
	IndicativeNav(ctx context.Context, portfolioID int64, currency string) (domain.IndicativeNav, error)
	AllowedWithdrawalAmounts(ctx context.Context, portfolioID int64, currency string) (domain.WithdrawableAmounts, error)
	CashFlows(ctx context.Context, portfolioID int64, states []domain.CashFlowState, processType domain.ProcessType) ([]domain.CashFlow, error)
	WithdrawalsByID(ctx context.Context, ids []int64, processType domain.ProcessType) (map[int64]domain.Withdrawal, error)
	TransactionsPrecomputedData(ctx context.Context, portfolioID int64, currency string) (domain.PrecomputedCashFlows, error)
}

// FeeFetcher resolves the version-specific fee fetch into a normalized result.
type FeeFetcher interface {
	Fees(ctx context.Context, pctx domain.PortfolioContext) (domain.FeeResult, error)
}

// Snapshot is the frozen bundle of all upstream data for one request.
// Once Fetch returns, every field is populated and nothing mutates it.
type Snapshot struct {
	Securities                     map[int]domain.Security
	Holdings                       []domain.HoldingSnapshot
	Transactions                   []domain.Transaction
	InProgressWithdrawals          []domain.Withdrawal
	HistoricalNavs                 []domain.HistoricalNav
	CashRebates                    []domain.CashRebate
	IndicativeNav                  domain.IndicativeNav
	WithdrawableAmounts            domain.WithdrawableAmounts
	CashFlows                      []domain.CashFlow
	Withdrawals                    map[int64]domain.Withdrawal
	NextBusinessDate               time.Time
	NextBusinessDateIncludingToday time.Time
	Info                           *domain.PortfolioInfo
	Precomputed                    domain.PrecomputedCashFlows
	Fees                           domain.FeeResult
}

// Fetcher issues the upstream fan-out and joins it into one Snapshot.
type Fetcher struct {
	src  DataSource
	fees FeeFetcher
}

// NewFetcher creates a Fetcher. Both dependencies are required.
func NewFetcher(src DataSource, fees FeeFetcher) *Fetcher {
	if src == nil {
		panic("snapshot.NewFetcher: src is nil")
	}
	if fees == nil {
		panic("snapshot.NewFetcher: fees is nil")
	}
	return &Fetcher{src: src, fees: fees}
}

// Fetch issues every independent upstream request concurrently plus the
// cash-flows -> withdrawal-ids -> withdrawals chain, and waits for all of
// them. Each goroutine writes its own Snapshot slot; the errgroup join is the
// only synchronization barrier. Any single failure fails the whole fetch and
// cancels the siblings; there is no partial-success mode and no local retry.
func (f *Fetcher) Fetch(ctx context.Context, pctx domain.PortfolioContext) (*Snapshot, error) {
	snap := &Snapshot{}
	portfolioID := pctx.Portfolio.ID
	currency := pctx.ReportingCurrency

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		securities, err := f.src.Securities(ctx)
		snap.Securities = securities
		return err
	})

	g.Go(func() error {
		holdings, err := f.src.HoldingSnapshots(ctx, portfolioID, pctx.ServiceDate)
		snap.Holdings = holdings
		return err
	})

	g.Go(func() error {
		date, err := f.src.NextBusinessDate(ctx, pctx.ServiceDate, 1)
		snap.NextBusinessDate = date
		return err
	})

	g.Go(func() error {
		date, err := f.src.NextBusinessDate(ctx, pctx.ServiceDate.AddDate(0, 0, -1), 1)
		snap.NextBusinessDateIncludingToday = date
		return err
	})

	g.Go(func() error {
		transactions, err := f.src.PortfolioTransactions(ctx, portfolioID)
		snap.Transactions = transactions
		return err
	})

	g.Go(func() error {
		info, err := f.src.PortfolioInfo(ctx, portfolioID)
		if err != nil {
			return err
		}
		snap.Info = &info
		return nil
	})

	g.Go(func() error {
		withdrawals, err := f.src.InProgressWithdrawals(ctx, portfolioID)
		snap.InProgressWithdrawals = withdrawals
		return err
	})

	g.Go(func() error {
		navs, err := f.src.HistoricalNavs(ctx, portfolioID, currency)
		if err != nil {
			return err
		}
		snap.HistoricalNavs = navsFromFirstFunded(navs)
		return nil
	})

	g.Go(func() error {
		rebates, err := f.src.CashRebates(ctx, portfolioID)
		snap.CashRebates = rebates
		return err
	})

	g.Go(func() error {
		nav, err := f.src.IndicativeNav(ctx, portfolioID, currency)
		snap.IndicativeNav = nav
		return err
	})

	g.Go(func() error {
		limits, err := f.src.AllowedWithdrawalAmounts(ctx, portfolioID, currency)
		snap.WithdrawableAmounts = limits
		return err
	})

	g.Go(func() error {
		pre, err := f.src.TransactionsPrecomputedData(ctx, portfolioID, currency)
		snap.Precomputed = pre
		return err
	})

	// Dependent chain: the withdrawal fetch may only start once the cash-flow
	// fetch has completed and its withdrawal ids are extracted.
	g.Go(func() error {
		flows, err := f.src.CashFlows(ctx, portfolioID, domain.AllCashFlowStates(), domain.ProcessClientAPI)
		if err != nil {
			return err
		}
		snap.CashFlows = flows

		withdrawals, err := f.src.WithdrawalsByID(ctx, withdrawalIDs(flows), domain.ProcessClientAPI)
		snap.Withdrawals = withdrawals
		return err
	})

	g.Go(func() error {
		fees, err := f.fees.Fees(ctx, pctx)
		snap.Fees = fees
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching portfolio snapshot: %w", err)
	}

	return snap, nil
}

// withdrawalIDs extracts the distinct withdrawal ids referenced by cash flows
// of a withdrawal kind.
func withdrawalIDs(flows []domain.CashFlow) []int64 {
	withdrawalKinds := lo.SliceToMap(domain.WithdrawalTypes(), func(t domain.TransactionType) (domain.TransactionType, bool) {
		return t, true
	})

	ids := lo.FilterMap(flows, func(cf domain.CashFlow, _ int) (int64, bool) {
		if !withdrawalKinds[cf.Type] || cf.WithdrawalID == nil {
			return 0, false
		}
		return *cf.WithdrawalID, true
	})

	return lo.Uniq(ids)
}

// navsFromFirstFunded sorts the NAV series by date and trims everything
// before the first funded day (the first strictly positive NAV).
func navsFromFirstFunded(navs []domain.HistoricalNav) []domain.HistoricalNav {
	sorted := make([]domain.HistoricalNav, len(navs))
	copy(sorted, navs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i, nav := range sorted {
		if nav.Nav.IsPositive() {
			return sorted[i:]
		}
	}
	return nil
}
