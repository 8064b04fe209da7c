package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orgfees/internal/amqp"
	"orgfees/internal/core"
	"orgfees/internal/log"
	"orgfees/internal/store"
)

// EventPublisher receives a snapshot after every persisted mutation.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

// TransactionService owns the fee payment workflow: validate, persist, then
// announce. Expected refusals come back as *core.Rejection; any other error
// is an infrastructure fault.
type TransactionService struct {
	transactions store.TransactionStore
	students     store.StudentStore
	validator    *TransactionValidator
	publisher    EventPublisher
	location     *time.Location
	now          func() time.Time
}

// NewTransactionService wires the service. publisher may be nil when no
// broker is configured; location anchors the date and period filters.
func NewTransactionService(st store.EntityStore, publisher EventPublisher, location *time.Location) *TransactionService {
	if location == nil {
		location = time.UTC
	}
	return &TransactionService{
		transactions: st,
		students:     st,
		validator:    NewTransactionValidator(st, st),
		publisher:    publisher,
		location:     location,
		now:          time.Now,
	}
}

// CreateTransaction validates in and persists a new transaction. Nothing is
// written unless every rule passes.
//
// A category or student deleted between validation and insert still yields a
// stored transaction; deletions are restricted while references exist, which
// narrows that window but does not close it.
func (s *TransactionService) CreateTransaction(ctx context.Context, in core.TransactionInput, actor core.Actor) (core.Transaction, error) {
	tx, _, err := s.validator.ValidateCreate(ctx, in)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.ID = core.NewID()
	tx.CreatedAt = s.timestamp()

	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logMutation(ctx, log.OpCreate, tx)
	s.publish(ctx, amqp.EventTransactionCreated, tx, actor)
	return tx, nil
}

// GetTransaction returns the transaction with the given id.
func (s *TransactionService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return core.Transaction{}, core.NotFound(core.ReasonTransactionNotFound)
	}
	tx, err := s.transactions.GetTransaction(ctx, oid)
	if err != nil {
		return core.Transaction{}, notFoundAs(err, core.ReasonTransactionNotFound, "get transaction")
	}
	return tx, nil
}

// UpdateTransaction overwrites the provided fields of an existing transaction.
// Provided references are re-validated exactly as on creation.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput, actor core.Actor) (core.Transaction, error) {
	existing, err := s.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	patch, err := in.Parse()
	if err != nil {
		return core.Transaction{}, err
	}
	if patch.CategoryID != nil || patch.StudentID != nil {
		if _, err := s.validator.Resolve(ctx, patch.CategoryID, patch.StudentID); err != nil {
			return core.Transaction{}, err
		}
	}

	updated := existing
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		updated.CategoryID = *patch.CategoryID
	}
	if patch.StudentID != nil {
		updated.StudentID = *patch.StudentID
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}

	if err := s.transactions.UpdateTransaction(ctx, updated); err != nil {
		return core.Transaction{}, notFoundAs(err, core.ReasonTransactionNotFound, "update transaction")
	}

	s.logMutation(ctx, log.OpUpdate, updated)
	s.publish(ctx, amqp.EventTransactionUpdated, updated, actor)
	return updated, nil
}

// UpdateTransactionAmount changes only the amount. References and status are
// never touched.
func (s *TransactionService) UpdateTransactionAmount(ctx context.Context, id, amount string, actor core.Actor) (core.Transaction, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return core.Transaction{}, core.NotFound(core.ReasonTransactionNotFound)
	}
	value, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, core.Invalid(core.ReasonInvalidAmount)
	}

	tx, err := s.transactions.UpdateTransactionAmount(ctx, oid, value)
	if err != nil {
		return core.Transaction{}, notFoundAs(err, core.ReasonTransactionNotFound, "update transaction amount")
	}

	s.logMutation(ctx, log.OpUpdate, tx)
	s.publish(ctx, amqp.EventTransactionUpdated, tx, actor)
	return tx, nil
}

// DeleteTransaction removes a transaction and returns its last state.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string, actor core.Actor) (core.Transaction, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return core.Transaction{}, core.NotFound(core.ReasonTransactionNotFound)
	}

	tx, err := s.transactions.DeleteTransaction(ctx, oid)
	if err != nil {
		return core.Transaction{}, notFoundAs(err, core.ReasonTransactionNotFound, "delete transaction")
	}

	s.logMutation(ctx, log.OpDelete, tx)
	s.publish(ctx, amqp.EventTransactionDeleted, tx, actor)
	return tx, nil
}

// ListTransactions returns one page of transactions matching every filter,
// newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, filter core.TransactionFilter, page core.PageRequest) (core.Page[core.Transaction], error) {
	result := core.Page[core.Transaction]{Items: []core.Transaction{}, Page: page.Page, PageSize: page.PageSize}

	q, err := filter.Resolve(s.now().In(s.location))
	if err != nil {
		return result, err
	}

	if filter.Course != "" {
		students, err := s.students.ListStudents(ctx, filter.Course)
		if err != nil {
			return result, fmt.Errorf("list students of course: %w", err)
		}
		q.ByStudents = true
		q.StudentIDs = make([]string, 0, len(students))
		for _, st := range students {
			q.StudentIDs = append(q.StudentIDs, st.StudentID)
		}
	}

	q.Offset = page.Offset()
	q.Limit = page.PageSize

	items, total, err := s.transactions.ListTransactions(ctx, q)
	if err != nil {
		return result, fmt.Errorf("list transactions: %w", err)
	}
	result.Items = items
	result.TotalCount = total
	return result, nil
}

// timestamp is millisecond precise so every backend stores it losslessly.
func (s *TransactionService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *TransactionService) publish(ctx context.Context, eventType string, tx core.Transaction, actor core.Actor) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAMQP)
	if s.publisher == nil {
		logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", log.FieldEventType, eventType)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEventMessage(eventType, tx, actor)); err != nil {
		logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, eventType,
			log.FieldTransactionID, tx.ID.Hex(),
			log.FieldError, err)
	}
}

func (s *TransactionService) logMutation(ctx context.Context, op string, tx core.Transaction) {
	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentTransaction)).
		LogTransactionMutation(ctx, op, tx.ID.Hex(), core.FormatAmount(tx.Amount), tx.CategoryID.Hex(), tx.StudentID, string(tx.Status))
}

// notFoundAs converts a store ErrNotFound into a client-facing rejection and
// wraps everything else as a fault.
func notFoundAs(err error, reason, op string) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFound(reason)
	}
	return fmt.Errorf("%s: %w", op, err)
}
