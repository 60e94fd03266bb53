// Package fees resolves the version-specific management-fee fetch into one
// normalized result.
package fees

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vantagewealth/summary/internal/domain"
)

// Initial page constants for the paged fee fetches.
const (
	initialFeePageSize = 2
	initialFeePage     = 0
)

// Source is the subset of the FMS API used by the Selector.
type Source interface {
	ManagementFees(ctx context.Context, portfolioID int64, currency string) ([]domain.ManagementFee, error)
	PagedManagementFees(ctx context.Context, portfolioID int64, currency string, size, page int) ([]domain.ManagementFee, error)
	PaginatedManagementFees(ctx context.Context, portfolioID int64, currency string, size, page int, includeTotal bool) (domain.FeePage, error)
}

// Selector is a state machine over the version tag, terminal in one call.
type Selector struct {
	src Source
}

// NewSelector creates a Selector.
func NewSelector(src Source) *Selector {
	return &Selector{src: src}
}

// Fees fetches exactly one fee variant for the context's version:
//
//	V1: all lifetime records; total is the local sum.
//	V2: one page with a server-computed grand total; the total is never recomputed.
//	V3: the fixed initial page (size 2, page 0); total is the sum of that page,
//	    which is not a lifetime figure.
//
// An unrecognized version is a configuration error, not an upstream failure.
func (s *Selector) Fees(ctx context.Context, pctx domain.PortfolioContext) (domain.FeeResult, error) {
	portfolioID := pctx.Portfolio.ID
	currency := pctx.ReportingCurrency

	switch pctx.Version {
	case domain.V1:
		records, err := s.src.ManagementFees(ctx, portfolioID, currency)
		if err != nil {
			return domain.FeeResult{}, fmt.Errorf("fetching lifetime management fees: %w", err)
		}
		return domain.FeeResult{Fees: records, Total: sumFees(records)}, nil

	case domain.V2:
		page, err := s.src.PaginatedManagementFees(ctx, portfolioID, currency, initialFeePageSize, initialFeePage, true)
		if err != nil {
			return domain.FeeResult{}, fmt.Errorf("fetching paginated management fees: %w", err)
		}
		return domain.FeeResult{Fees: page.Fees, Total: page.Total}, nil

	case domain.V3:
		records, err := s.src.PagedManagementFees(ctx, portfolioID, currency, initialFeePageSize, initialFeePage)
		if err != nil {
			return domain.FeeResult{}, fmt.Errorf("fetching paged management fees: %w", err)
		}
		return domain.FeeResult{Fees: records, Total: sumFees(records)}, nil

	default:
		return domain.FeeResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedVersion, pctx.Version)
	}
}

func sumFees(records []domain.ManagementFee) decimal.Decimal {
	return lo.Reduce(records, func(acc decimal.Decimal, fee domain.ManagementFee, _ int) decimal.Decimal {
		return acc.Add(fee.Fee)
	}, decimal.Zero)
}
