package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
)

// Bucket is the presentation classification of a ledger entry.
type Bucket string

const (
	BucketDeposit    Bucket = "deposits"
	BucketWithdrawal Bucket = "withdrawals"
	BucketDividend   Bucket = "dividends"
	BucketFee        Bucket = "fees"
)

// Classify places a transaction type into exactly one bucket. An unknown type
// is an error; data is never silently dropped into a default bucket.
func Classify(t domain.TransactionType) (Bucket, error) {
	switch t {
	case domain.TransferIn, domain.InternalTransferIn:
		return BucketDeposit, nil
	case domain.TransferOut, domain.InternalTransferOut, domain.QuickWithdrawal:
		return BucketWithdrawal, nil
	case domain.CashDividend, domain.DividendPayout:
		return BucketDividend, nil
	case domain.ManagementFeeCharge:
		return BucketFee, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrAmbiguousClassification, t)
	}
}

// Entry is one ledger row: a completed transaction or an in-flight cash flow,
// currency-converted and enriched for presentation.
type Entry struct {
	Date                    time.Time              `json:"date"`
	CreatedAt               time.Time              `json:"createdAt"`
	Type                    domain.TransactionType `json:"type"`
	Bucket                  Bucket                 `json:"bucket"`
	Status                  string                 `json:"status"`
	Amount                  decimal.Decimal        `json:"amount"`
	Currency                string                 `json:"currency"`
	SecurityID              *int                   `json:"securityId,omitempty"`
	SecurityName            string                 `json:"securityName,omitempty"`
	CounterpartyPortfolio   string                 `json:"counterpartyPortfolio,omitempty"`
	InProgress              bool                   `json:"inProgress"`
	QuickWithdrawalTransfer bool                   `json:"isQuickWithdrawalWithStatusProcessingTransfer"`
}

// Group is one presentation group of entries.
type Group struct {
	Label   string  `json:"label"`
	Entries []Entry `json:"entries"`
}

// Set is the transformer output. All views are derived from the exact same
// merge pass: an entry present in Flat but absent from WithInCompleted can
// only be a removed quick-withdrawal duplicate (and there are none, since
// removal happens after the merge).
type Set struct {
	// Flat holds the currency-converted completed transactions.
	Flat []Entry
	// WithInCompleted is Flat plus merged in-flight cash flows.
	WithInCompleted []Entry
	// Presentation is the deduplicated merge, most recent first.
	Presentation []Entry
	// Grouped is Presentation grouped by the portfolio-type rule.
	Grouped []Group
}
