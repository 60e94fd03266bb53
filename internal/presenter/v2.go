package presenter

import (
	"github.com/samber/lo"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// applyV2 layers the second-generation fields: the paginated fee page with
// the server-computed total taken verbatim, and a dividend listing built by
// filtering the completed transactions for cash dividends.
func applyV2(summary Summary, snap *snapshot.Snapshot, led ledger.Set) {
	summary["mgmtFees"] = feeRows(snap.Fees.Fees)
	summary["totalMgmtFee"] = domain.FormatMoney(snap.Fees.Total)
	summary["dividends"] = lo.FilterMap(led.Flat, func(e ledger.Entry, _ int) (dividendRow, bool) {
		if e.Type != domain.CashDividend {
			return dividendRow{}, false
		}
		return dividendRow{SecurityName: e.SecurityName, Amount: domain.FormatMoney(e.Amount), Date: domain.FormatDate(e.Date)}, true
	})
}
