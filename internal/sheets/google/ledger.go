package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"orgfees/internal/log"
	"orgfees/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const sheetTimestampLayout = "2006-01-02 15:04:05"

// Config locates the ledger sheet and its service account.
type Config struct {
	SpreadsheetID   string
	Sheet           string
	CredentialsJSON string
	CredentialsFile string
	Location        *time.Location
}

type Ledger struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	loc           *time.Location
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

// New creates a ledger writer authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Ledger, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentSheets).InfoContext(ctx, "Creating Google Sheets service",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.Sheet,
		"credentials_size", len(creds))

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Ledger {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	sheet := strings.TrimSpace(cfg.Sheet)
	if sheet == "" {
		sheet = "Ledger"
	}
	return &Ledger{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet, loc: loc}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// AppendLedgerRow appends one row after the last non-empty row of the sheet.
func (l *Ledger) AppendLedgerRow(ctx context.Context, row sheets.LedgerRow) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{l.values(row)}}
	_, err := l.svc.Spreadsheets.Values.Append(l.spreadsheetID, l.sheet+"!A:I", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	return nil
}

// values renders a row in column order A..I. Times use the configured zone so
// the sheet reads like the office calendar.
func (l *Ledger) values(row sheets.LedgerRow) []interface{} {
	return []interface{}{
		formatTime(row.RecordedAt, l.loc),
		row.Event,
		row.TransactionID,
		row.StudentID,
		row.CategoryID,
		row.Amount,
		row.Status,
		formatTime(row.CreatedAt, l.loc),
		row.Actor,
	}
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(sheetTimestampLayout)
}
