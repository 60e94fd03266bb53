package metrics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// withdrawableOverlay strips the bonus component from the upstream limits and
// converts the partial and quick amounts into every active currency.
func (e *Engine) withdrawableOverlay(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot) (partial, quick map[string]decimal.Decimal, err error) {
	limits := snap.WithdrawableAmounts

	partialBase := clampZero(limits.Partial.Sub(limits.Bonus))
	quickBase := clampZero(limits.Quick.Sub(limits.Bonus))

	partial = make(map[string]decimal.Decimal)
	quick = make(map[string]decimal.Decimal)

	for _, currency := range e.fx.ActiveCurrencies() {
		p, err := e.fx.Convert(ctx, pctx.ReportingCurrency, currency, partialBase, pctx.ServiceDate)
		if err != nil {
			return nil, nil, fmt.Errorf("converting partial withdrawable to %s: %w", currency, err)
		}
		q, err := e.fx.Convert(ctx, pctx.ReportingCurrency, currency, quickBase, pctx.ServiceDate)
		if err != nil {
			return nil, nil, fmt.Errorf("converting quick withdrawable to %s: %w", currency, err)
		}
		partial[currency] = p
		quick[currency] = q
	}

	return partial, quick, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
