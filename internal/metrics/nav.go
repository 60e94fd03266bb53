package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/snapshot"

	"github.com/shopspring/decimal"
)

// StatusDormant marks a portfolio whose funds have been fully withdrawn; it
// is displayed with its last known value instead of a live NAV.
const StatusDormant = "dormant"

// portfolioNav computes the official NAV in the reporting currency, preferring
// the indicative valuation when indicative pricing is shown and present.
func (e *Engine) portfolioNav(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) (decimal.Decimal, error) {
	if pctx.ShowIndicativeNav && snap.IndicativeNav.Nav.IsPositive() {
		return snap.IndicativeNav.Nav, nil
	}

	nav, err := e.fx.Convert(ctx, snap.Info.Currency, pctx.ReportingCurrency, snap.Info.Nav, pctx.ServiceDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("converting portfolio nav: %w", err)
	}
	return nav, nil
}

// applyIndicative fills the TWR and freshness fields from the indicative-NAV
// record. When indicative pricing is not shown these stay at their documented
// zero/empty defaults; that is not a failure.
func (e *Engine) applyIndicative(set *Set, pctx domain.PortfolioContext, snap *snapshot.Snapshot) {
	if !pctx.ShowIndicativeNav {
		return
	}

	ind := snap.IndicativeNav
	set.TwrPercent = ind.TwrPercent
	set.IndicativeTicksUpdateDate = ind.TicksUpdateDate
	if !ind.UpdatedAt.IsZero() {
		set.LastUpdateTimestamp = ind.UpdatedAt.UTC().Format(time.RFC3339)
		set.LastUpdateMessage = "Indicative values as of " + ind.UpdatedAt.UTC().Format("02 Jan 2006 15:04 MST")
	}
}
