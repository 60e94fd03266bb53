package metrics

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
)

// historicalReturns builds the return series from the sorted NAV records
// combined with the completed ledger: for each NAV point, the invested amount
// is the cumulative net of completed deposits and withdrawals up to that day.
func historicalReturns(navs []domain.HistoricalNav, led ledger.Set, theme string, guard domain.RatioGuard) []HistoricalReturn {
	completed := lo.Filter(led.Flat, func(e ledger.Entry, _ int) bool {
		return e.Status == ledger.StatusCompleted
	})

	series := make([]HistoricalReturn, 0, len(navs))
	for _, nav := range navs {
		invested := decimal.Zero
		for _, e := range completed {
			if e.Date.After(nav.Date) {
				continue
			}
			switch e.Bucket {
			case ledger.BucketDeposit:
				invested = invested.Add(e.Amount)
			case ledger.BucketWithdrawal:
				invested = invested.Sub(e.Amount)
			}
		}

		series = append(series, HistoricalReturn{
			Date:             nav.Date,
			Nav:              nav.Nav,
			InvestmentAmount: invested,
			ReturnPercent:    guard(nav.Nav.Sub(invested), invested),
			Theme:            theme,
		})
	}
	return series
}

// dormancyOverlay locates the most recent completed full-or-internal transfer
// out and freezes the portfolio at it. Presentation order is most recent
// first, so the first match wins; in-flight entries never close a portfolio.
// A dormant portfolio without such a transaction gets no overlay.
func dormancyOverlay(led ledger.Set, navs []domain.HistoricalNav) *Dormancy {
	closing, found := lo.Find(led.Presentation, func(e ledger.Entry) bool {
		return !e.InProgress && lo.Contains(domain.TransferOutTypes(), e.Type)
	})
	if !found {
		return nil
	}

	return &Dormancy{
		Since:          closing.Date,
		ClosingValue:   closing.Amount,
		HistoricalNavs: navs,
	}
}
