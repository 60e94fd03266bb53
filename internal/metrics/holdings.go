package metrics

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/snapshot"
)

// valueHoldings combines raw holding rows with security reference data into
// valued rows in the reporting currency, each weighted against the NAV.
func (e *Engine) valueHoldings(ctx context.Context, pctx domain.PortfolioContext, snap *snapshot.Snapshot, nav decimal.Decimal) ([]ValuedHolding, error) {
	holdings := make([]ValuedHolding, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		security, ok := snap.Securities[h.SecurityID]
		if !ok {
			return nil, fmt.Errorf("%w: security %d referenced by holding", domain.ErrMissingPrecondition, h.SecurityID)
		}

		value, err := e.fx.Convert(ctx, h.Currency, pctx.ReportingCurrency, h.Units.Mul(h.Price), pctx.ServiceDate)
		if err != nil {
			return nil, fmt.Errorf("converting holding %d: %w", h.SecurityID, err)
		}

		holdings = append(holdings, ValuedHolding{
			SecurityID: h.SecurityID,
			Name:       security.Name,
			Symbol:     security.Symbol,
			AssetClass: security.AssetClass,
			Units:      h.Units,
			Price:      h.Price,
			Value:      value,
			Weight:     e.guard(value, nav),
		})
	}
	return holdings, nil
}

// composition overrides the static base composition percentages with the
// actually-held weights aggregated by asset-class category.
func (e *Engine) composition(portfolioType string, holdings []ValuedHolding) (map[string]decimal.Decimal, []CompositionEntry) {
	actual := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		if h.Weight == nil {
			continue
		}
		actual[h.AssetClass] = actual[h.AssetClass].Add(*h.Weight)
	}

	composition := map[string]decimal.Decimal{}
	for category, weight := range e.policy.BaseComposition(portfolioType) {
		composition[category] = weight
	}
	for category, weight := range actual {
		composition[category] = weight
	}

	ordered := lo.Map(e.policy.BaseCompositionOrdered(portfolioType), func(entry CompositionEntry, _ int) CompositionEntry {
		if weight, ok := actual[entry.Category]; ok {
			entry.Weight = weight
		}
		return entry
	})

	return composition, ordered
}
