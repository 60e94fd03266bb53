package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/ledger"
	"github.com/vantagewealth/summary/internal/metrics"
	"github.com/vantagewealth/summary/internal/presenter"
)

// ExcelWriter writes summaries as xlsx workbooks into a directory, one file
// per portfolio.
type ExcelWriter struct {
	dir string
}

// NewExcelWriter creates an ExcelWriter targeting the given directory.
func NewExcelWriter(dir string) *ExcelWriter {
	return &ExcelWriter{dir: dir}
}

// Write renders the workbook and writes it to <dir>/portfolio-<id>.xlsx.
func (w *ExcelWriter) Write(_ context.Context, pctx domain.PortfolioContext, summary presenter.Summary) error {
	buf, err := BuildWorkbook(summary)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("portfolio-%d.xlsx", pctx.Portfolio.ID))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// BuildWorkbook renders a summary into xlsx bytes with Summary, Holdings and
// Transactions sheets.
func BuildWorkbook(summary presenter.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Summary")
	if err := writeSummarySheet(f, summary); err != nil {
		return nil, err
	}
	if err := writeHoldingsSheet(f, summary); err != nil {
		return nil, err
	}
	if err := writeTransactionsSheet(f, summary); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, summary presenter.Summary) error {
	row := 1
	for _, field := range summaryFields {
		value := scalar(summary, field)
		if value == "" {
			continue
		}
		if err := f.SetCellValue("Summary", fmt.Sprintf("A%d", row), field); err != nil {
			return fmt.Errorf("writing summary sheet: %w", err)
		}
		if err := f.SetCellValue("Summary", fmt.Sprintf("B%d", row), value); err != nil {
			return fmt.Errorf("writing summary sheet: %w", err)
		}
		row++
	}
	return nil
}

func writeHoldingsSheet(f *excelize.File, summary presenter.Summary) error {
	if _, err := f.NewSheet("Holdings"); err != nil {
		return fmt.Errorf("creating holdings sheet: %w", err)
	}

	header := []any{"Security", "Symbol", "Asset Class", "Units", "Price", "Value", "Weight %"}
	if err := f.SetSheetRow("Holdings", "A1", &header); err != nil {
		return fmt.Errorf("writing holdings header: %w", err)
	}

	holdings, _ := summary["holdings"].([]metrics.ValuedHolding)
	for i, h := range holdings {
		weight := ""
		if h.Weight != nil {
			weight = domain.FormatPercent(*h.Weight)
		}
		row := []any{
			h.Name, h.Symbol, h.AssetClass,
			h.Units.String(), domain.FormatMoney(h.Price),
			domain.FormatMoney(h.Value), weight,
		}
		if err := f.SetSheetRow("Holdings", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("writing holding row: %w", err)
		}
	}
	return nil
}

func writeTransactionsSheet(f *excelize.File, summary presenter.Summary) error {
	if _, err := f.NewSheet("Transactions"); err != nil {
		return fmt.Errorf("creating transactions sheet: %w", err)
	}

	header := []any{"Date", "Type", "Status", "Amount", "Currency", "Security"}
	if err := f.SetSheetRow("Transactions", "A1", &header); err != nil {
		return fmt.Errorf("writing transactions header: %w", err)
	}

	entries, _ := summary["transactions"].([]ledger.Entry)
	for i, e := range entries {
		row := []any{
			domain.FormatDate(e.Date), string(e.Type), e.Status,
			domain.FormatMoney(e.Amount), e.Currency, e.SecurityName,
		}
		if err := f.SetSheetRow("Transactions", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("writing transaction row: %w", err)
		}
	}
	return nil
}
