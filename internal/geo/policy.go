// Package geo holds the portfolio-type policy tables: which types pay
// dividends or rebates, their model compositions, payout eligibility and the
// status classifier. The derivation engine consumes these through interfaces
// so the tables can change without touching the math.
package geo

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/metrics"
)

// Portfolio type identifiers as reported upstream.
const (
	TypeCoreGrowth     = "CORE_GROWTH"
	TypeCoreBalanced   = "CORE_BALANCED"
	TypeCoreDefensive  = "CORE_DEFENSIVE"
	TypeIncome         = "INCOME"
	TypeIncomePlus     = "INCOME_PLUS"
	TypeCashManagement = "CASH_MANAGEMENT"
	TypeThematic       = "THEMATIC"
)

// dividendPayingTypes pay cash dividends out instead of reinvesting.
var dividendPayingTypes = []string{TypeIncome, TypeIncomePlus}

// rebateEligibleTypes accrue cash rebates on their management fees.
var rebateEligibleTypes = []string{TypeCashManagement}

// payoutNavFloor is the minimum NAV below which dividend payout is suspended
// and dividends are reinvested instead.
var payoutNavFloor = decimal.NewFromInt(100)

// baseCompositions are the model allocations per portfolio type, in display
// order. Actual holding weights override these at derivation time.
var baseCompositions = map[string][]metrics.CompositionEntry{
	TypeCoreGrowth: {
		{Category: "Equities", Weight: decimal.NewFromInt(69)},
		{Category: "Bonds", Weight: decimal.NewFromInt(25)},
		{Category: "Commodities", Weight: decimal.NewFromInt(5)},
		{Category: "Cash", Weight: decimal.NewFromInt(1)},
	},
	TypeCoreBalanced: {
		{Category: "Equities", Weight: decimal.NewFromInt(40)},
		{Category: "Bonds", Weight: decimal.NewFromInt(50)},
		{Category: "Commodities", Weight: decimal.NewFromInt(9)},
		{Category: "Cash", Weight: decimal.NewFromInt(1)},
	},
	TypeCoreDefensive: {
		{Category: "Equities", Weight: decimal.NewFromInt(20)},
		{Category: "Bonds", Weight: decimal.NewFromInt(75)},
		{Category: "Cash", Weight: decimal.NewFromInt(5)},
	},
	TypeIncome: {
		{Category: "Bonds", Weight: decimal.NewFromInt(85)},
		{Category: "Equities", Weight: decimal.NewFromInt(10)},
		{Category: "Cash", Weight: decimal.NewFromInt(5)},
	},
	TypeIncomePlus: {
		{Category: "Bonds", Weight: decimal.NewFromInt(70)},
		{Category: "Equities", Weight: decimal.NewFromInt(25)},
		{Category: "Cash", Weight: decimal.NewFromInt(5)},
	},
	TypeCashManagement: {
		{Category: "Cash", Weight: decimal.NewFromInt(100)},
	},
}

// Policy implements the portfolio-type policy tables.
type Policy struct{}

// NewPolicy creates a Policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// PortfolioStatus maps the upstream status onto the summary status vocabulary.
func (*Policy) PortfolioStatus(p domain.Portfolio) string {
	switch strings.ToUpper(p.Status) {
	case "DORMANT", "CLOSED":
		return metrics.StatusDormant
	case "INACTIVE", "PENDING":
		return "inactive"
	default:
		return "active"
	}
}

func (*Policy) HasDividends(portfolioType string) bool {
	return lo.Contains(dividendPayingTypes, portfolioType)
}

func (*Policy) HasRebates(portfolioType string) bool {
	return lo.Contains(rebateEligibleTypes, portfolioType)
}

func (*Policy) BaseComposition(portfolioType string) map[string]decimal.Decimal {
	composition := make(map[string]decimal.Decimal)
	for _, entry := range baseCompositions[portfolioType] {
		composition[entry.Category] = entry.Weight
	}
	return composition
}

func (*Policy) BaseCompositionOrdered(portfolioType string) []metrics.CompositionEntry {
	return append([]metrics.CompositionEntry{}, baseCompositions[portfolioType]...)
}

// Custom-rebalancing statuses.
const (
	RebalancingAvailable   = "AVAILABLE"
	RebalancingLocked      = "LOCKED"
	RebalancingUnsupported = "UNSUPPORTED"
)

// rebalancingTypes support client-directed rebalancing.
var rebalancingTypes = []string{TypeCoreGrowth, TypeCoreBalanced, TypeCoreDefensive, TypeThematic}

// CustomRebalancing reports the custom-rebalancing state: unsupported types
// never enable it, and a withdrawal block or an in-progress withdrawal locks
// it until the cash leg settles.
func (*Policy) CustomRebalancing(p domain.Portfolio, inProgress []domain.Withdrawal) metrics.RebalancingStatus {
	if !lo.Contains(rebalancingTypes, p.Type) {
		return metrics.RebalancingStatus{Status: RebalancingUnsupported, Enabled: false}
	}
	if p.WithdrawalBlocked || len(inProgress) > 0 {
		return metrics.RebalancingStatus{Status: RebalancingLocked, Enabled: false}
	}
	return metrics.RebalancingStatus{Status: RebalancingAvailable, Enabled: true}
}

// PayoutEligible reports whether a dividend-paying portfolio currently pays
// out. Reinvest-plan holders and portfolios below the NAV floor accrue
// instead.
func (*Policy) PayoutEligible(portfolioType string, nav, netInvested decimal.Decimal, pricingPlan string) bool {
	if !lo.Contains(dividendPayingTypes, portfolioType) {
		return false
	}
	if strings.EqualFold(pricingPlan, "REINVEST") {
		return false
	}
	return nav.GreaterThanOrEqual(payoutNavFloor) && netInvested.IsPositive()
}
