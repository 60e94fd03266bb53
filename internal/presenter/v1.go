package presenter

import (
	"github.com/samber/lo"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/metrics"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// applyV1 layers the first-generation fields: the lifetime fee list with its
// summed total, the full merged transaction view, the net-invested history
// series, and the dividend listing taken from the completed entries' dividend
// bucket.
func applyV1(summary Summary, snap *snapshot.Snapshot, led ledger.Set, set metrics.Set) {
	summary["mgmtFees"] = feeRows(snap.Fees.Fees)
	summary["totalMgmtFee"] = domain.FormatMoney(snap.Fees.Total)
	summary["allTransactions"] = led.WithInCompleted
	summary["historicalNetInvestedAmounts"] = netInvestedSeries(set)
	summary["dividends"] = dividendRows(led.Flat)
}

// netInvestedSeries projects the historical return series into {date, value}
// points. A dormant portfolio's series stops strictly before the dormancy
// date; later points describe a portfolio that no longer holds anything.
func netInvestedSeries(set metrics.Set) []investedPoint {
	history := set.HistoricalData
	if set.Dormancy != nil {
		since := set.Dormancy.Since
		history = lo.Filter(history, func(h metrics.HistoricalReturn, _ int) bool {
			return h.Date.Before(since)
		})
	}

	return lo.Map(history, func(h metrics.HistoricalReturn, _ int) investedPoint {
		return investedPoint{Date: domain.FormatDate(h.Date), Value: domain.FormatMoney(h.InvestmentAmount)}
	})
}

// dividendRows projects the dividend-bucket entries of the completed view;
// in-flight dividends are not yet paid and never appear here.
func dividendRows(entries []ledger.Entry) []dividendRow {
	return lo.FilterMap(entries, func(e ledger.Entry, _ int) (dividendRow, bool) {
		if e.Bucket != ledger.BucketDividend {
			return dividendRow{}, false
		}
		return dividendRow{SecurityName: e.SecurityName, Amount: domain.FormatMoney(e.Amount), Date: domain.FormatDate(e.Date)}, true
	})
}
