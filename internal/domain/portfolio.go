package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the user's portfolio record as held by the injected data layer.
type Portfolio struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"userId"`
	InvestorID        int64      `json:"investorId"`
	Name              string     `json:"name"`
	Type              string     `json:"type"`
	Theme             string     `json:"theme"`
	Status            string     `json:"status"`
	Currency          string     `json:"currency"`
	ReferenceCode     string     `json:"referenceCode"`
	WithdrawalBlocked bool       `json:"isWithdrawalBlocked"`
	CreatedAt         time.Time  `json:"createdAt"`
	FirstFundedAt     *time.Time `json:"firstFundedAt,omitempty"`
}

// Security is upstream reference data for a held instrument.
type Security struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	AssetClass string `json:"assetClass"`
}

// HoldingSnapshot is one raw holding row as of the service date.
type HoldingSnapshot struct {
	SecurityID int             `json:"securityId"`
	Units      decimal.Decimal `json:"units"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
}

// PortfolioInfo is the detailed info record from the upstream portfolio service.
// Its absence after a successful snapshot is an invariant violation, not a
// recoverable condition.
type PortfolioInfo struct {
	PortfolioID int64           `json:"portfolioId"`
	Nav         decimal.Decimal `json:"nav"`
	Currency    string          `json:"currency"`
	AsOf        time.Time       `json:"asOf"`
}

// HistoricalNav is one point of the official end-of-day NAV series.
type HistoricalNav struct {
	Date time.Time       `json:"date"`
	Nav  decimal.Decimal `json:"nav"`
}

// IndicativeNav is the provisional intra-day valuation record. When indicative
// pricing is not shown for the geography/plan, its figures are replaced by
// documented zero/empty defaults rather than an error.
type IndicativeNav struct {
	Nav             decimal.Decimal `json:"indicativeNav"`
	TwrPercent      decimal.Decimal `json:"twrPercent"`
	TicksUpdateDate string          `json:"indicativeTicksUpdateDate"`
	UpdatedAt       time.Time       `json:"indicativeNavUpdateTime"`
}

// WithdrawableAmounts are the upstream withdrawal limits in one currency.
// Bonus is the promotional component excluded from what a user may take out.
type WithdrawableAmounts struct {
	Partial  decimal.Decimal `json:"allowedPartialWithdrawalAmount"`
	Quick    decimal.Decimal `json:"allowedQuickWithdrawalAmount"`
	Bonus    decimal.Decimal `json:"bonusAmount"`
	Currency string          `json:"currency"`
}

// CashRebate is one paid cash rebate row.
type CashRebate struct {
	Paid decimal.Decimal `json:"cashRebatePaid"`
	Date time.Time       `json:"date"`
}

// ManagementFee is one normalized fee line item.
type ManagementFee struct {
	Date     time.Time       `json:"date"`
	Fee      decimal.Decimal `json:"fee"`
	Currency string          `json:"currency"`
}

// FeePage is the paginated fee response carrying a server-computed grand total.
type FeePage struct {
	Fees  []ManagementFee `json:"transactions"`
	Total decimal.Decimal `json:"totalFee"`
}

// FeeResult is the normalized fee output, regardless of which of the three
// upstream shapes produced it.
type FeeResult struct {
	Fees  []ManagementFee
	Total decimal.Decimal
}
