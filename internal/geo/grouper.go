package geo

import (
	"github.com/samber/lo"

	"github.com/vantagewealth/summary/internal/ledger"
)

// groupLabels are the display labels per ledger bucket, in presentation order.
var groupLabels = []struct {
	bucket ledger.Bucket
	label  string
}{
	{ledger.BucketDeposit, "Deposits"},
	{ledger.BucketWithdrawal, "Withdrawals"},
	{ledger.BucketDividend, "Dividends"},
	{ledger.BucketFee, "Fees"},
}

// Grouper groups ledger entries for display. Cash-management portfolios show
// a single flat activity list; every other type groups by bucket.
type Grouper struct{}

// NewGrouper creates a Grouper.
func NewGrouper() *Grouper {
	return &Grouper{}
}

func (*Grouper) Group(entries []ledger.Entry, portfolioType string) []ledger.Group {
	if portfolioType == TypeCashManagement {
		if len(entries) == 0 {
			return nil
		}
		return []ledger.Group{{Label: "Activity", Entries: entries}}
	}

	byBucket := lo.GroupBy(entries, func(e ledger.Entry) ledger.Bucket {
		return e.Bucket
	})

	var groups []ledger.Group
	for _, g := range groupLabels {
		bucketed, ok := byBucket[g.bucket]
		if !ok {
			continue
		}
		groups = append(groups, ledger.Group{Label: g.label, Entries: bucketed})
	}
	return groups
}
