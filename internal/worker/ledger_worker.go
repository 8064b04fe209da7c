package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"orgfees/internal/amqp"
	"orgfees/internal/log"
	"orgfees/internal/sheets"
)

// EventSource delivers transaction events until ctx is done.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEventMessage) error) error
}

// LedgerWorker mirrors transaction events into an append-only ledger.
type LedgerWorker struct {
	writer sheets.LedgerWriter
	logger *log.Logger

	appended atomic.Int64
	failed   atomic.Int64
}

func NewLedgerWorker(writer sheets.LedgerWriter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{writer: writer, logger: logger.WithComponent("ledger-worker")}
}

// HandleTransactionEvent appends one ledger row for msg. A returned error
// makes the consumer requeue the delivery.
func (w *LedgerWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		"type", msg.Type,
		"transaction_id", msg.TransactionID)

	if err := w.writer.AppendLedgerRow(ctx, sheets.NewLedgerRow(msg)); err != nil {
		w.failed.Add(1)
		fields := log.NewFields().
			WithTransaction(msg.TransactionID, msg.Amount, msg.CategoryID, msg.StudentID, msg.Status).
			WithErrorType(log.ErrorTypeInternal)
		log.NewStructuredLogger(w.logger).LogError(ctx, "Failed to append ledger row", err, log.OpAppend, fields)
		return fmt.Errorf("append ledger row for %s: %w", msg.TransactionID, err)
	}

	w.appended.Add(1)
	w.logger.DebugContext(ctx, "Ledger row appended", "transaction_id", msg.TransactionID)
	return nil
}

// Run consumes events from src until ctx is cancelled.
func (w *LedgerWorker) Run(ctx context.Context, src EventSource) error {
	w.logger.InfoContext(ctx, "Ledger worker started")
	err := src.ConsumeTransactionEvents(ctx, w.HandleTransactionEvent)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		w.logger.InfoContext(ctx, "Ledger worker stopped",
			"appended", w.appended.Load(),
			"failed", w.failed.Load())
		return nil
	}
	return err
}

// Stats reports how many rows were appended and how many appends failed.
func (w *LedgerWorker) Stats() (appended, failed int64) {
	return w.appended.Load(), w.failed.Load()
}
