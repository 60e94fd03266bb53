package export

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/vantagewealth/summary/internal/domain"
	"github.com/vantagewealth/summary/internal/presenter"
)

const monitoringSheet = "MONITORING"

// monitoringFields are the summary fields appended per row, after the date
// column.
var monitoringFields = []string{
	"id", "name", "status", "nav", "netInvestedAmount",
	"pnlInception", "pnlInceptionPercent", "twrPercent",
	"lifetimeValue", "totalMgmtFee",
}

// SheetsWriter appends one monitoring row per summary to a Google Sheet.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account
// JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures the monitoring sheet exists with its header, then appends one
// data row for this summary.
func (w *SheetsWriter) Write(ctx context.Context, pctx domain.PortfolioContext, summary presenter.Summary) error {
	if err := w.ensureSheet(ctx); err != nil {
		return err
	}

	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, monitoringSheet+"!A1:A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading monitoring header: %w", err)
	}
	if len(existing.Values) == 0 {
		header := buildMonitoringHeader()
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID, monitoringSheet+"!A1",
			&sheets.ValueRange{Values: [][]any{header}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing monitoring header: %w", err)
		}
	}

	row := buildMonitoringRow(pctx, summary, time.Now().UTC())
	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID, monitoringSheet+"!A:Z",
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending monitoring row: %w", err)
	}
	return nil
}

func buildMonitoringHeader() []any {
	header := make([]any, 0, len(monitoringFields)+2)
	header = append(header, "Date")
	for _, field := range monitoringFields {
		header = append(header, field)
	}
	header = append(header, "version")
	return header
}

func buildMonitoringRow(pctx domain.PortfolioContext, summary presenter.Summary, at time.Time) []any {
	row := make([]any, 0, len(monitoringFields)+2)
	row = append(row, at.Format("02.01.2006"))
	for _, field := range monitoringFields {
		row = append(row, scalar(summary, field))
	}
	row = append(row, string(pctx.Version))
	return row
}

// ensureSheet creates the monitoring sheet when the spreadsheet lacks it.
func (w *SheetsWriter) ensureSheet(ctx context.Context) error {
	meta, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading spreadsheet metadata: %w", err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties.Title == monitoringSheet {
			return nil
		}
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: monitoringSheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating monitoring sheet: %w", err)
	}
	return nil
}
