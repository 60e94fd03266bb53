package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// mockFx converts 1:1 within a currency and halves into USD.
type mockFx struct{}

func (mockFx) Convert(_ context.Context, from, to string, amount decimal.Decimal, _ time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if to == "USD" {
		return amount.Div(decimal.NewFromInt(2)), nil
	}
	return amount, nil
}

func (mockFx) ActiveCurrencies() []string { return []string{"SGD", "USD"} }

type mockPolicy struct {
	dividends   bool
	rebates     bool
	status      string
	rebalancing RebalancingStatus
}

func (m *mockPolicy) PortfolioStatus(_ domain.Portfolio) string {
	if m.status == "" {
		return "active"
	}
	return m.status
}
func (m *mockPolicy) HasDividends(_ string) bool { return m.dividends }
func (m *mockPolicy) HasRebates(_ string) bool   { return m.rebates }
func (m *mockPolicy) BaseComposition(_ string) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{"Equities": decimal.NewFromInt(60), "Bonds": decimal.NewFromInt(40)}
}
func (m *mockPolicy) BaseCompositionOrdered(_ string) []CompositionEntry {
	return []CompositionEntry{
		{Category: "Equities", Weight: decimal.NewFromInt(60)},
		{Category: "Bonds", Weight: decimal.NewFromInt(40)},
	}
}
func (m *mockPolicy) PayoutEligible(_ string, nav, _ decimal.Decimal, _ string) bool {
	return nav.GreaterThan(decimal.NewFromInt(100))
}
func (m *mockPolicy) CustomRebalancing(_ domain.Portfolio, inProgress []domain.Withdrawal) RebalancingStatus {
	if len(inProgress) > 0 {
		return RebalancingStatus{Status: "LOCKED"}
	}
	return m.rebalancing
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func baseSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Info: &domain.PortfolioInfo{PortfolioID: 42, Nav: money("1000.00"), Currency: "SGD"},
		Precomputed: domain.PrecomputedCashFlows{
			CashFlowIn:     money("1200.00"),
			CashFlowOut:    money("300.00"),
			DividendPayout: money("50.00"),
			TotalDividend:  money("50.00"),
		},
		WithdrawableAmounts: domain.WithdrawableAmounts{
			Partial:  money("900.00"),
			Quick:    money("100.00"),
			Bonus:    money("20.00"),
			Currency: "SGD",
		},
		Securities: map[int]domain.Security{
			7: {ID: 7, Name: "Global Equity ETF", Symbol: "GEQ", AssetClass: "Equities"},
		},
	}
}

func baseMetricsContext() domain.PortfolioContext {
	return domain.PortfolioContext{
		Portfolio:         domain.Portfolio{ID: 42, Type: "CORE_GROWTH", Theme: "growth"},
		ReportingCurrency: "SGD",
		ServiceDate:       day(20),
		Version:           domain.V1,
	}
}

func TestDeriveNetInvestedInvariant(t *testing.T) {
	engine := NewEngine(mockFx{}, &mockPolicy{}, nil)

	set, err := engine.Derive(context.Background(), baseMetricsContext(), baseSnapshot(), ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// netInvestedAmount == cashFlowIn - cashFlowOut + dividendPayoutCashFlow, exactly.
	want := set.CashFlowIn.Sub(set.CashFlowOut).Add(set.DividendPayoutCashFlow)
	if !set.NetInvested.Equal(want) {
		t.Errorf("NetInvested = %s, want %s", set.NetInvested, want)
	}
	if domain.FormatMoney(set.NetInvested) != "950.00" {
		t.Errorf("NetInvested = %s, want 950.00", domain.FormatMoney(set.NetInvested))
	}

	// pnlInception = nav - cashFlowIn + cashFlowOut.
	if domain.FormatMoney(set.PnlInception) != "100.00" {
		t.Errorf("PnlInception = %s, want 100.00", domain.FormatMoney(set.PnlInception))
	}
	if set.PnlInceptionPercent == nil {
		t.Fatal("expected a PnL percentage")
	}
}

func TestDerivePnlPercentGuardedOnZeroBase(t *testing.T) {
	snap := baseSnapshot()
	snap.Precomputed = domain.PrecomputedCashFlows{}

	set, err := NewEngine(mockFx{}, &mockPolicy{}, nil).Derive(context.Background(), baseMetricsContext(), snap, ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.PnlInceptionPercent != nil {
		t.Error("zero net invested must yield nil percentage, not a division")
	}
}

func TestDeriveMissingInfoIsFatal(t *testing.T) {
	snap := baseSnapshot()
	snap.Info = nil

	_, err := NewEngine(mockFx{}, &mockPolicy{}, nil).Derive(context.Background(), baseMetricsContext(), snap, ledger.Set{})
	if !errors.Is(err, domain.ErrMissingPrecondition) {
		t.Errorf("expected ErrMissingPrecondition, got %v", err)
	}
}

func TestDeriveDormancyOverlay(t *testing.T) {
	led := ledger.Set{
		Presentation: []ledger.Entry{
			{Type: domain.TransferOut, Date: day(10), Amount: money("500.00"), Status: ledger.StatusCompleted},
			{Type: domain.TransferIn, Date: day(2), Amount: money("500.00"), Status: ledger.StatusCompleted},
		},
	}

	set, err := NewEngine(mockFx{}, &mockPolicy{status: StatusDormant}, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), led)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Dormancy == nil {
		t.Fatal("expected dormancy overlay")
	}
	if domain.FormatDate(set.Dormancy.Since) != "2024-01-10" {
		t.Errorf("DormantSince = %s, want 2024-01-10", domain.FormatDate(set.Dormancy.Since))
	}
	if domain.FormatMoney(set.Dormancy.ClosingValue) != "500.00" {
		t.Errorf("ClosingValue = %s, want 500.00", domain.FormatMoney(set.Dormancy.ClosingValue))
	}
}

func TestDeriveDormancySkipsInFlightTransfers(t *testing.T) {
	led := ledger.Set{
		Presentation: []ledger.Entry{
			{Type: domain.TransferOut, Date: day(15), Amount: money("123.00"), Status: ledger.StatusProcessing, InProgress: true},
			{Type: domain.TransferOut, Date: day(10), Amount: money("500.00"), Status: ledger.StatusCompleted},
		},
	}

	set, err := NewEngine(mockFx{}, &mockPolicy{status: StatusDormant}, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), led)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.Dormancy == nil {
		t.Fatal("expected dormancy overlay")
	}
	// The in-flight transfer hasn't settled; the completed one closes the book.
	if domain.FormatDate(set.Dormancy.Since) != "2024-01-10" {
		t.Errorf("DormantSince = %s, want 2024-01-10", domain.FormatDate(set.Dormancy.Since))
	}
	if domain.FormatMoney(set.Dormancy.ClosingValue) != "500.00" {
		t.Errorf("ClosingValue = %s, want 500.00", domain.FormatMoney(set.Dormancy.ClosingValue))
	}
}

func TestDeriveRebalancingStatus(t *testing.T) {
	policy := &mockPolicy{rebalancing: RebalancingStatus{Status: "AVAILABLE", Enabled: true}}

	set, err := NewEngine(mockFx{}, policy, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Rebalancing.Status != "AVAILABLE" || !set.Rebalancing.Enabled {
		t.Errorf("Rebalancing = %+v, want AVAILABLE/enabled", set.Rebalancing)
	}

	snap := baseSnapshot()
	snap.InProgressWithdrawals = []domain.Withdrawal{{ID: 1}}
	set, err = NewEngine(mockFx{}, policy, nil).
		Derive(context.Background(), baseMetricsContext(), snap, ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Rebalancing.Status != "LOCKED" || set.Rebalancing.Enabled {
		t.Errorf("Rebalancing = %+v, want LOCKED while a withdrawal is in flight", set.Rebalancing)
	}
}

func TestDeriveNoDormancyForActivePortfolio(t *testing.T) {
	led := ledger.Set{
		Presentation: []ledger.Entry{
			{Type: domain.TransferOut, Date: day(10), Amount: money("500.00")},
		},
	}

	set, err := NewEngine(mockFx{}, &mockPolicy{}, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), led)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Dormancy != nil {
		t.Error("active portfolio must not carry a dormancy overlay")
	}
}

func TestDeriveLifetimeValueWithDividends(t *testing.T) {
	led := ledger.Set{
		Flat: []ledger.Entry{
			{Type: domain.CashDividend, Bucket: ledger.BucketDividend, Status: ledger.StatusCompleted, Amount: money("25.00"), Date: day(5), SecurityName: "Global Equity ETF"},
			{Type: domain.CashDividend, Bucket: ledger.BucketDividend, Status: ledger.StatusProcessing, Amount: money("99.00"), Date: day(6)},
		},
	}

	set, err := NewEngine(mockFx{}, &mockPolicy{dividends: true}, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), led)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if set.DividendPayout == nil {
		t.Fatal("expected dividend payout block")
	}
	// Only the completed dividend counts.
	if domain.FormatMoney(set.DividendPayout.Total) != "25.00" {
		t.Errorf("dividend total = %s, want 25.00", domain.FormatMoney(set.DividendPayout.Total))
	}
	if domain.FormatMoney(set.LifetimeValue) != "1025.00" {
		t.Errorf("LifetimeValue = %s, want 1025.00", domain.FormatMoney(set.LifetimeValue))
	}
}

func TestDeriveWithdrawableOverlay(t *testing.T) {
	set, err := NewEngine(mockFx{}, &mockPolicy{}, nil).
		Derive(context.Background(), baseMetricsContext(), baseSnapshot(), ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Bonus 20.00 excluded: partial 880.00, quick 80.00 in SGD; halved in USD.
	if domain.FormatMoney(set.WithdrawableAmounts["SGD"]) != "880.00" {
		t.Errorf("partial SGD = %s, want 880.00", domain.FormatMoney(set.WithdrawableAmounts["SGD"]))
	}
	if domain.FormatMoney(set.WithdrawableAmounts["USD"]) != "440.00" {
		t.Errorf("partial USD = %s, want 440.00", domain.FormatMoney(set.WithdrawableAmounts["USD"]))
	}
	if domain.FormatMoney(set.QuickWithdrawableAmounts["SGD"]) != "80.00" {
		t.Errorf("quick SGD = %s, want 80.00", domain.FormatMoney(set.QuickWithdrawableAmounts["SGD"]))
	}
}

func TestDeriveCompositionOverride(t *testing.T) {
	snap := baseSnapshot()
	snap.Holdings = []domain.HoldingSnapshot{
		{SecurityID: 7, Units: money("100"), Price: money("7.00"), Currency: "SGD"},
	}

	set, err := NewEngine(mockFx{}, &mockPolicy{}, nil).
		Derive(context.Background(), baseMetricsContext(), snap, ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(set.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(set.Holdings))
	}
	// 700 of 1000 nav = 70%: the actual weight overrides the static 60.
	if got := set.Composition["Equities"]; !got.Equal(money("70")) {
		t.Errorf("Equities weight = %s, want 70", got)
	}
	// Unheld category keeps its base weight.
	if got := set.Composition["Bonds"]; !got.Equal(money("40")) {
		t.Errorf("Bonds weight = %s, want 40", got)
	}
	for _, entry := range set.CompositionOrdered {
		if entry.Category == "Equities" && !entry.Weight.Equal(money("70")) {
			t.Errorf("ordered Equities weight = %s, want 70", entry.Weight)
		}
	}
}

func TestDeriveIndicativeDefaults(t *testing.T) {
	snap := baseSnapshot()
	snap.IndicativeNav = domain.IndicativeNav{
		Nav:             money("1010.00"),
		TwrPercent:      money("3.2500"),
		TicksUpdateDate: "2024-01-19",
		UpdatedAt:       time.Date(2024, 1, 19, 22, 0, 0, 0, time.UTC),
	}

	// Indicative pricing hidden: zero/empty defaults, official NAV.
	hidden, err := NewEngine(mockFx{}, &mockPolicy{}, nil).
		Derive(context.Background(), baseMetricsContext(), snap, ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hidden.TwrPercent.IsZero() || hidden.LastUpdateTimestamp != "" || hidden.IndicativeTicksUpdateDate != "" {
		t.Error("hidden indicative pricing must leave zero/empty defaults")
	}
	if domain.FormatMoney(hidden.Nav) != "1000.00" {
		t.Errorf("nav = %s, want official 1000.00", domain.FormatMoney(hidden.Nav))
	}

	// Indicative pricing shown: indicative NAV and TWR taken from the record.
	pctx := baseMetricsContext()
	pctx.ShowIndicativeNav = true
	shown, err := NewEngine(mockFx{}, &mockPolicy{}, nil).
		Derive(context.Background(), pctx, snap, ledger.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain.FormatMoney(shown.Nav) != "1010.00" {
		t.Errorf("nav = %s, want indicative 1010.00", domain.FormatMoney(shown.Nav))
	}
	if domain.FormatPercent(shown.TwrPercent) != "3.2500" {
		t.Errorf("twr = %s, want 3.2500", domain.FormatPercent(shown.TwrPercent))
	}
	if shown.LastUpdateTimestamp == "" || shown.IndicativeTicksUpdateDate == "" {
		t.Error("shown indicative pricing must fill freshness fields")
	}
}

func TestHistoricalReturnsCumulativeInvestment(t *testing.T) {
	led := ledger.Set{
		Flat: []ledger.Entry{
			{Bucket: ledger.BucketDeposit, Status: ledger.StatusCompleted, Amount: money("1000.00"), Date: day(2)},
			{Bucket: ledger.BucketWithdrawal, Status: ledger.StatusCompleted, Amount: money("200.00"), Date: day(5)},
			{Bucket: ledger.BucketDeposit, Status: ledger.StatusProcessing, Amount: money("999.00"), Date: day(5)},
		},
	}
	navs := []domain.HistoricalNav{
		{Date: day(3), Nav: money("1010.00")},
		{Date: day(6), Nav: money("820.00")},
	}

	series := historicalReturns(navs, led, "growth", domain.GuardedPercent)
	if len(series) != 2 {
		t.Fatalf("series = %d points, want 2", len(series))
	}
	if domain.FormatMoney(series[0].InvestmentAmount) != "1000.00" {
		t.Errorf("invested@day3 = %s, want 1000.00", domain.FormatMoney(series[0].InvestmentAmount))
	}
	if domain.FormatMoney(series[1].InvestmentAmount) != "800.00" {
		t.Errorf("invested@day6 = %s, want 800.00", domain.FormatMoney(series[1].InvestmentAmount))
	}
	if series[0].Theme != "growth" {
		t.Errorf("theme = %s", series[0].Theme)
	}
}
