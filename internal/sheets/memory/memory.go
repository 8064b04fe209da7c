package memory

import (
	"context"
	"sync"

	"orgfees/internal/sheets"
)

// Ledger keeps appended rows in memory so callers can inspect what was written.
type Ledger struct {
	mu   sync.Mutex
	rows []sheets.LedgerRow
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger { return &Ledger{} }

func (l *Ledger) AppendLedgerRow(ctx context.Context, row sheets.LedgerRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (l *Ledger) Rows() []sheets.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sheets.LedgerRow, len(l.rows))
	copy(out, l.rows)
	return out
}
