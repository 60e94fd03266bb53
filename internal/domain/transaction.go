package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies a transaction or cash-flow kind on the upstream ledger.
type TransactionType string

const (
	TransferIn          TransactionType = "TRANSFER_IN"
	InternalTransferIn  TransactionType = "INTERNAL_TRANSFER_IN"
	TransferOut         TransactionType = "TRANSFER_OUT"
	InternalTransferOut TransactionType = "INTERNAL_TRANSFER_OUT"
	QuickWithdrawal     TransactionType = "QUICK_WITHDRAWAL"
	CashDividend        TransactionType = "CASH_DIVIDEND"
	DividendPayout      TransactionType = "DIVIDEND_PAYOUT"
	ManagementFeeCharge TransactionType = "MANAGEMENT_FEE"
)

// InflowTypes are the transfer kinds that fund a portfolio. The earliest of
// these marks the inception date.
func InflowTypes() []TransactionType {
	return []TransactionType{TransferIn, InternalTransferIn}
}

// WithdrawalTypes are the cash-flow kinds that reference an upstream withdrawal
// record; their withdrawal ids seed the dependent withdrawals-by-id fetch.
func WithdrawalTypes() []TransactionType {
	return []TransactionType{TransferOut, InternalTransferOut, QuickWithdrawal}
}

// WithdrawalOutTypes are the outbound kinds checked by the quick-withdrawal
// duplicate-removal predicate.
func WithdrawalOutTypes() []TransactionType {
	return []TransactionType{TransferOut, QuickWithdrawal}
}

// TransferOutTypes mark a full or internal transfer out of the portfolio;
// the most recent one dates a dormant portfolio.
func TransferOutTypes() []TransactionType {
	return []TransactionType{TransferOut, InternalTransferOut}
}

// CashFlowState is the upstream processing state of an in-flight cash flow.
type CashFlowState string

const (
	CashFlowPending       CashFlowState = "PENDING"
	CashFlowProcessing    CashFlowState = "PROCESSING"
	CashFlowCompleted     CashFlowState = "COMPLETED"
	CashFlowPaymentFailed CashFlowState = "PAYMENT_FAILED"
)

// AllCashFlowStates returns every state, for the unfiltered upstream query.
func AllCashFlowStates() []CashFlowState {
	return []CashFlowState{CashFlowPending, CashFlowProcessing, CashFlowCompleted, CashFlowPaymentFailed}
}

// ExcludedCashFlowStates are never merged into the ledger.
func ExcludedCashFlowStates() map[CashFlowState]bool {
	return map[CashFlowState]bool{CashFlowPaymentFailed: true}
}

// ProcessType tags the upstream caller channel.
type ProcessType string

const ProcessClientAPI ProcessType = "CLIENT_API"

// Transaction is a completed row from the upstream transaction service.
type Transaction struct {
	ID                      int64           `json:"id"`
	Type                    TransactionType `json:"type"`
	Status                  string          `json:"status"`
	Amount                  decimal.Decimal `json:"amount"`
	Currency                string          `json:"currency"`
	TradeDate               time.Time       `json:"tradeDate"`
	CreatedAt               time.Time       `json:"createdAt"`
	SecurityID              *int            `json:"securityId,omitempty"`
	CounterpartyPortfolioID *int64          `json:"counterpartyPortfolioId,omitempty"`
	WithdrawalID            *int64          `json:"withdrawalId,omitempty"`
}

// CashFlow is an in-flight money movement not yet reflected as a completed transaction.
type CashFlow struct {
	ID           int64           `json:"id"`
	Type         TransactionType `json:"type"`
	State        CashFlowState   `json:"state"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Date         time.Time       `json:"date"`
	CreatedAt    time.Time       `json:"createdAt"`
	SecurityID   *int            `json:"securityId,omitempty"`
	WithdrawalID *int64          `json:"withdrawalId,omitempty"`
}

// Withdrawal is an upstream withdrawal record, keyed by id.
type Withdrawal struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Quick           bool            `json:"quick"`
	PartOfTransfer  bool            `json:"partOfTransfer"`
	RequestedAt     time.Time       `json:"requestedAt"`
	TargetCurrency  string          `json:"targetCurrency,omitempty"`
	TargetPortfolio *int64          `json:"targetPortfolioId,omitempty"`
}

// PrecomputedCashFlows are lifetime totals computed upstream, never locally.
type PrecomputedCashFlows struct {
	CashFlowIn     decimal.Decimal `json:"cashflowIn"`
	CashFlowOut    decimal.Decimal `json:"cashflowOut"`
	DividendPayout decimal.Decimal `json:"cashflowDividendPayout"`
	TotalDividend  decimal.Decimal `json:"totalDividend"`
}
