// Package export renders a portfolio summary into external artifacts: an xlsx
// workbook for download and a Google Sheets monitoring row.
package export

import (
	"context"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/presenter"
)

// SummaryWriter writes one assembled summary to a destination.
type SummaryWriter interface {
	Write(ctx context.Context, pctx domain.PortfolioContext, summary presenter.Summary) error
}

// summaryFields are the scalar fields exported in order; slices and maps get
// their own sheets or are skipped.
var summaryFields = []string{
	"id", "name", "status", "type", "currency", "createdOn", "inceptionDate",
	"nav", "netInvestedAmount", "pnlInception", "pnlInceptionPercent",
	"twrPercent", "lifetimeValue", "totalDividend", "totalMgmtFee",
	"dormantSince", "closingValue", "eligibilityForCashPayout",
}

// scalar pulls a field from the summary; absent fields export as empty.
func scalar(summary presenter.Summary, field string) any {
	v, ok := summary[field]
	if !ok {
		return ""
	}
	return v
}
