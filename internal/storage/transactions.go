package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

const transactionColumns = `id, amount, category_id, student_id, status, created_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID.Hex(), t.Amount.String(), t.CategoryID.Hex(), t.StudentID, string(t.Status), toUnixMicro(t.CreatedAt))
	return translate(err, "insert transaction "+t.ID.Hex())
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id.Hex())
	t, err := scanTransaction(row)
	return t, translate(err, "get transaction "+id.Hex())
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, category_id = ?, student_id = ?, status = ? WHERE id = ?`,
		t.Amount.String(), t.CategoryID.Hex(), t.StudentID, string(t.Status), t.ID.Hex())
	if err != nil {
		return translate(err, "update transaction "+t.ID.Hex())
	}
	return requireAffected(res, "update transaction "+t.ID.Hex())
}

func (r *SQLiteRepository) UpdateTransactionAmount(ctx context.Context, id primitive.ObjectID, amount decimal.Decimal) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount = ? WHERE id = ?`, amount.String(), id.Hex())
	if err != nil {
		return core.Transaction{}, translate(err, "update transaction amount "+id.Hex())
	}
	if err := requireAffected(res, "update transaction amount "+id.Hex()); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error) {
	t, err := r.GetTransaction(ctx, id)
	if err != nil {
		return t, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.Hex())
	if err != nil {
		return t, translate(err, "delete transaction "+id.Hex())
	}
	return t, requireAffected(res, "delete transaction "+id.Hex())
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, int, error) {
	where, args := transactionWhere(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count transactions")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions` + where + ` ORDER BY created_at DESC, id DESC`
	pageArgs := append([]any(nil), args...)
	q.Offset = max(q.Offset, 0)
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		pageArgs = append(pageArgs, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		pageArgs = append(pageArgs, q.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, translate(err, "list transactions")
	}
	defer rows.Close()

	items := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, translate(err, "scan transaction")
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err, "list transactions")
	}
	return items, total, nil
}

func transactionWhere(q core.TransactionQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q.ByStudents {
		if len(q.StudentIDs) == 0 {
			clauses = append(clauses, `0`)
		} else {
			clauses = append(clauses, `student_id IN (`+strings.TrimSuffix(strings.Repeat("?,", len(q.StudentIDs)), ",")+`)`)
			for _, id := range q.StudentIDs {
				args = append(args, id)
			}
		}
	}
	if q.CategoryID != nil {
		clauses = append(clauses, `category_id = ?`)
		args = append(args, q.CategoryID.Hex())
	}
	if q.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, string(q.Status))
	}
	if !q.From.IsZero() {
		clauses = append(clauses, `created_at >= ?`)
		args = append(args, toUnixMicro(q.From))
	}
	if !q.To.IsZero() {
		clauses = append(clauses, `created_at < ?`)
		args = append(args, toUnixMicro(q.To))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                 core.Transaction
		id, catID, amount string
		status            string
		createdAt         int64
	)
	if err := row.Scan(&id, &amount, &catID, &t.StudentID, &status, &createdAt); err != nil {
		return t, err
	}
	if err := parseHex(id, &t.ID); err != nil {
		return t, err
	}
	if err := parseHex(catID, &t.CategoryID); err != nil {
		return t, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("transaction %s amount %q: %w", id, amount, err)
	}
	t.Status = core.Status(status)
	t.CreatedAt = fromUnixMicro(createdAt)
	return t, nil
}
