// Package presenter assembles the wire-level portfolio summary: one flat
// field->value map, fully keyed on every success, with monetary values as
// fixed-precision decimal strings.
package presenter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/metrics"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// Summary is the flat field->value portfolio summary returned to callers.
type Summary map[string]any

// SnapshotFetcher joins the upstream fan-out into one snapshot.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, pctx domain.PortfolioContext) (*snapshot.Snapshot, error)
}

// LedgerBuilder produces the merged transaction ledger.
type LedgerBuilder interface {
	Build(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) (ledger.Set, error)
}

// MetricDeriver derives the metric set from snapshot and ledger.
type MetricDeriver interface {
	Derive(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot, led ledger.Set) (metrics.Set, error)
}

// Service runs the summary pipeline and layers the version-specific fields.
type Service struct {
	fetcher     SnapshotFetcher
	transformer LedgerBuilder
	engine      MetricDeriver
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(fetcher SnapshotFetcher, transformer LedgerBuilder, engine MetricDeriver, logger *slog.Logger) *Service {
	if fetcher == nil {
		panic("presenter.NewService: fetcher is nil")
	}
	if transformer == nil {
		panic("presenter.NewService: transformer is nil")
	}
	if engine == nil {
		panic("presenter.NewService: engine is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, transformer: transformer, engine: engine, logger: logger}
}

// Summarize runs fetch -> transform -> derive once, then presents the result
// for the context's version. On any failure the caller gets the error and no
// summary; a returned summary is always fully keyed.
func (s *Service) Summarize(ctx context.Context, pctx domain.PortfolioContext) (Summary, error) {
	snap, err := s.fetcher.Fetch(ctx, pctx)
	if err != nil {
		return nil, err
	}

	led, err := s.transformer.Build(ctx, pctx, snap)
	if err != nil {
		return nil, err
	}

	set, err := s.engine.Derive(ctx, pctx, snap, led)
	if err != nil {
		return nil, err
	}

	summary := baseSummary(pctx)
	applyCommon(summary, pctx, snap, led, set)

	switch pctx.Version {
	case domain.V1:
		applyV1(summary, snap, led, set)
	case domain.V2:
		applyV2(summary, snap, led)
	case domain.V3:
		applyV3(summary, snap, led, set)
	default:
		return nil, fmt.Errorf("presenting summary for portfolio %d: %w: %q", pctx.Portfolio.ID, domain.ErrUnsupportedVersion, pctx.Version)
	}

	s.logger.Debug("portfolio summary assembled",
		"portfolio_id", pctx.Portfolio.ID,
		"version", string(pctx.Version),
		"fields", len(summary))

	return summary, nil
}

// baseSummary keys the map with identity fields and zero-valued defaults so a
// summary is always fully keyed before derivation overwrites the figures.
func baseSummary(pctx domain.PortfolioContext) Summary {
	p := pctx.Portfolio
	return Summary{
		"id":                       p.ID,
		"name":                     p.Name,
		"status":                   "",
		"type":                     p.Type,
		"theme":                    p.Theme,
		"currency":                 pctx.ReportingCurrency,
		"referenceCode":            p.ReferenceCode,
		"pricingPlan":              pctx.PricingPlan,
		"isWithdrawalBlocked":      p.WithdrawalBlocked,
		"createdOn":                domain.FormatDate(p.CreatedAt),
		"customRebalancing":        map[string]any{},
		"isPartOfTransferPlan":     pctx.PartOfTransferPlan,
		"depositConfirmed":         true,
		"nav":                      zeroMoney,
		"netInvestedAmount":        zeroMoney,
		"pnlInception":             zeroMoney,
		"pnlInceptionPercent":      zeroPercent,
		"twrPercent":               zeroPercent,
		"lifetimeValue":            zeroMoney,
		"totalDividend":            zeroMoney,
		"totalMgmtFee":             zeroMoney,
		"mgmtFees":                 []feeRow{},
		"holdings":                 []metrics.ValuedHolding{},
		"transactions":             []ledger.Entry{},
		"groupedTransactions":      []ledger.Group{},
		"historicalData":           []historicalRow{},
		"composition":              map[string]string{},
		"compositionOrdered":       []compositionRow{},
		"withdrawableAmounts":      map[string]string{},
		"quickWithdrawableAmounts": map[string]string{},
		"eligibilityForCashPayout": false,
	}
}

type feeRow struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type historicalRow struct {
	Date             string `json:"date"`
	Nav              string `json:"nav"`
	InvestmentAmount string `json:"investmentAmount"`
	ReturnPercent    string `json:"returnPercent"`
	Theme            string `json:"theme,omitempty"`
}

type compositionRow struct {
	Category string `json:"category"`
	Weight   string `json:"weightage"`
}

type dividendRow struct {
	SecurityName string `json:"securityName"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
}

type investedPoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type navRow struct {
	Date string `json:"date"`
	Nav  string `json:"nav"`
}

const (
	zeroMoney   = "0.00"
	zeroPercent = "0.0000"
)

// applyCommon overwrites the defaults with the derived figures shared by all
// versions.
func applyCommon(summary Summary, pctx domain.PortfolioContext, snap *snapshot.Snapshot, led ledger.Set, set metrics.Set) {
	summary["status"] = set.Status
	summary["nav"] = domain.FormatMoney(set.Nav)
	summary["netInvestedAmount"] = domain.FormatMoney(set.NetInvested)
	summary["pnlInception"] = domain.FormatMoney(set.PnlInception)
	summary["pnlInceptionPercent"] = formatGuarded(set.PnlInceptionPercent)
	summary["twrPercent"] = domain.FormatPercent(set.TwrPercent)
	summary["lifetimeValue"] = domain.FormatMoney(set.LifetimeValue)
	summary["totalDividend"] = domain.FormatMoney(set.TotalDividend)
	summary["eligibilityForCashPayout"] = set.PayoutEligible
	summary["customRebalancing"] = map[string]any{
		"status":  set.Rebalancing.Status,
		"enabled": set.Rebalancing.Enabled,
	}

	summary["holdings"] = set.Holdings
	summary["transactions"] = led.Presentation
	summary["groupedTransactions"] = led.Grouped

	summary["historicalData"] = lo.Map(set.HistoricalData, func(h metrics.HistoricalReturn, _ int) historicalRow {
		return historicalRow{
			Date:             domain.FormatDate(h.Date),
			Nav:              domain.FormatMoney(h.Nav),
			InvestmentAmount: domain.FormatMoney(h.InvestmentAmount),
			ReturnPercent:    formatGuarded(h.ReturnPercent),
			Theme:            h.Theme,
		}
	})

	composition := make(map[string]string, len(set.Composition))
	for category, weight := range set.Composition {
		composition[category] = domain.FormatPercent(weight)
	}
	summary["composition"] = composition
	summary["compositionOrdered"] = lo.Map(set.CompositionOrdered, func(e metrics.CompositionEntry, _ int) compositionRow {
		return compositionRow{Category: e.Category, Weight: domain.FormatPercent(e.Weight)}
	})

	summary["withdrawableAmounts"] = formatAmounts(set.WithdrawableAmounts)
	summary["quickWithdrawableAmounts"] = formatAmounts(set.QuickWithdrawableAmounts)

	if set.InceptionDate != nil {
		summary["inceptionDate"] = domain.FormatDate(*set.InceptionDate)
	}

	if set.Dormancy != nil {
		summary["dormantSince"] = domain.FormatDate(set.Dormancy.Since)
		summary["closingValue"] = domain.FormatMoney(set.Dormancy.ClosingValue)
		summary["historicalNavs"] = lo.Map(set.Dormancy.HistoricalNavs, func(n domain.HistoricalNav, _ int) navRow {
			return navRow{Date: domain.FormatDate(n.Date), Nav: domain.FormatMoney(n.Nav)}
		})
	}

	if set.TotalCashRebate != nil {
		summary["totalCashRebate"] = domain.FormatMoney(*set.TotalCashRebate)
		summary["cashRebates"] = set.CashRebates
	}

	if set.DividendPayout != nil {
		summary["dividendPayout"] = map[string]any{
			"total": domain.FormatMoney(set.DividendPayout.Total),
			"all": lo.Map(set.DividendPayout.All, func(d metrics.DividendEntry, _ int) dividendRow {
				return dividendRow{SecurityName: d.SecurityName, Amount: domain.FormatMoney(d.Amount), Date: domain.FormatDate(d.Date)}
			}),
		}
	}

	if pctx.ProjectedYield != nil {
		yield := domain.SafeParse(pctx.ProjectedYield.Yield)
		income := set.NetInvested.Mul(yield).Div(decimal.NewFromInt(100))
		summary["projectedAnnualIncome"] = domain.FormatMoney(income)
		summary["projectedYieldPercent"] = domain.FormatPercent(yield)
	}

	if set.Status == "inactive" {
		summary["depositConfirmed"] = pctx.DepositConfirmed
	}

	summary["lastUpdateTimestamp"] = set.LastUpdateTimestamp
	summary["lastUpdateMessage"] = set.LastUpdateMessage
	summary["indicativeTicksUpdateDate"] = set.IndicativeTicksUpdateDate
	summary["nextBusinessDate"] = domain.FormatDate(snap.NextBusinessDate)
	summary["nextBusinessDateIncludingToday"] = domain.FormatDate(snap.NextBusinessDateIncludingToday)
}

func formatGuarded(d *decimal.Decimal) string {
	if d == nil {
		return zeroPercent
	}
	return domain.FormatPercent(*d)
}

func formatAmounts(amounts map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(amounts))
	for currency, amount := range amounts {
		out[currency] = domain.FormatMoney(amount)
	}
	return out
}

func feeRows(fees []domain.ManagementFee) []feeRow {
	return lo.Map(fees, func(f domain.ManagementFee, _ int) feeRow {
		return feeRow{Date: domain.FormatDate(f.Date), Amount: domain.FormatMoney(f.Fee)}
	})
}
