package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"orgfees/internal/core"
	"orgfees/internal/store"
)

// TransactionValidator enforces the referential rules of a transaction
// payload. It only reads from the store.
type TransactionValidator struct {
	categories store.CategoryStore
	students   store.StudentStore
}

func NewTransactionValidator(categories store.CategoryStore, students store.StudentStore) *TransactionValidator {
	return &TransactionValidator{categories: categories, students: students}
}

// References are the records a transaction points at. Zero values mean the
// reference was not looked up.
type References struct {
	Category core.Category
	Student  core.Student
}

// ValidateCreate checks a creation payload. Rules run in a fixed order and
// the first failure wins: amount, then category, then student, then status.
// The result carries the values to persist.
func (v *TransactionValidator) ValidateCreate(ctx context.Context, in core.TransactionInput) (core.Transaction, References, error) {
	var tx core.Transaction

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return tx, References{}, core.Invalid(core.ReasonInvalidAmount)
	}

	categoryID, err := core.ParseID(in.CategoryID)
	if err != nil {
		return tx, References{}, core.Invalid(core.ReasonInvalidCategory)
	}

	var studentID *string
	if id := strings.TrimSpace(in.StudentID); id != "" {
		studentID = &id
	}

	refs, err := v.Resolve(ctx, &categoryID, studentID)
	if err != nil {
		return tx, refs, err
	}
	if studentID == nil {
		return tx, refs, core.Invalid(core.ReasonInvalidStudent)
	}

	status := core.DefaultStatus
	if in.Status != "" {
		if status, err = core.ParseStatus(in.Status); err != nil {
			return tx, refs, core.Invalid(core.ReasonInvalidStatus)
		}
	}

	tx = core.Transaction{
		Amount:     amount,
		CategoryID: categoryID,
		StudentID:  *studentID,
		Status:     status,
	}
	return tx, refs, nil
}

// Resolve looks up the given category and student concurrently. A missing
// category is reported before a missing student. Store failures other than
// not-found are returned as faults.
func (v *TransactionValidator) Resolve(ctx context.Context, categoryID *primitive.ObjectID, studentID *string) (References, error) {
	var (
		refs            References
		categoryMissing bool
		studentMissing  bool
	)

	g, gctx := errgroup.WithContext(ctx)

	if categoryID != nil {
		g.Go(func() error {
			c, err := v.categories.GetCategory(gctx, *categoryID)
			switch {
			case errors.Is(err, core.ErrNotFound):
				categoryMissing = true
				return nil
			case err != nil:
				return fmt.Errorf("lookup category: %w", err)
			}
			refs.Category = c
			return nil
		})
	}

	if studentID != nil {
		g.Go(func() error {
			s, err := v.students.GetStudent(gctx, *studentID)
			switch {
			case errors.Is(err, core.ErrNotFound):
				studentMissing = true
				return nil
			case err != nil:
				return fmt.Errorf("lookup student: %w", err)
			}
			refs.Student = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return References{}, err
	}
	if categoryMissing {
		return References{}, core.Invalid(core.ReasonInvalidCategory)
	}
	if studentMissing {
		return References{}, core.Invalid(core.ReasonInvalidStudent)
	}
	return refs, nil
}
