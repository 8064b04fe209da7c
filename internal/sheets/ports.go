package sheets

import (
	"context"
	"time"

	"orgfees/internal/amqp"
)

// LedgerRow is one line of the spreadsheet mirror. Every event appends a
// row; the sheet is an audit trail, not a copy of the current state.
type LedgerRow struct {
	RecordedAt    time.Time
	Event         string
	TransactionID string
	StudentID     string
	CategoryID    string
	Amount        string
	Status        string
	CreatedAt     time.Time
	Actor         string
}

// NewLedgerRow maps a transaction event onto a ledger line.
func NewLedgerRow(msg *amqp.TransactionEventMessage) LedgerRow {
	return LedgerRow{
		RecordedAt:    msg.Timestamp,
		Event:         msg.Type,
		TransactionID: msg.TransactionID,
		StudentID:     msg.StudentID,
		CategoryID:    msg.CategoryID,
		Amount:        msg.Amount,
		Status:        msg.Status,
		CreatedAt:     msg.CreatedAt,
		Actor:         msg.ActorEmail,
	}
}

// LedgerWriter appends rows to an external ledger.
type LedgerWriter interface {
	AppendLedgerRow(ctx context.Context, row LedgerRow) error
}
