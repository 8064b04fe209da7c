package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/core"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := NewTransactionValidator(f.store, f.store)

	unknown, err := core.ParseID(unknownCategoryID)
	require.NoError(t, err)
	nobody := "nobody"

	t.Run("both present", func(t *testing.T) {
		refs, err := v.Resolve(ctx, &f.category.ID, &f.student.StudentID)
		require.NoError(t, err)
		assert.Equal(t, f.category, refs.Category)
		assert.Equal(t, f.student, refs.Student)
	})

	t.Run("category missing wins over student missing", func(t *testing.T) {
		_, err := v.Resolve(ctx, &unknown, &nobody)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidCategory)
	})

	t.Run("student missing", func(t *testing.T) {
		_, err := v.Resolve(ctx, &f.category.ID, &nobody)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidStudent)
	})

	t.Run("nothing to resolve", func(t *testing.T) {
		refs, err := v.Resolve(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, References{}, refs)
	})

	t.Run("fault is not a rejection", func(t *testing.T) {
		f.store.categoryErr = errors.New("timeout")
		defer func() { f.store.categoryErr = nil }()

		_, err := v.Resolve(ctx, &f.category.ID, &f.student.StudentID)
		require.Error(t, err)
		_, ok := core.AsRejection(err)
		assert.False(t, ok)
	})
}

func TestValidateCreate_ReturnsReferences(t *testing.T) {
	f := newFixture(t)
	v := NewTransactionValidator(f.store, f.store)

	tx, refs, err := v.ValidateCreate(context.Background(), core.TransactionInput{
		Amount:     "1250,5",
		CategoryID: f.category.ID.Hex(),
		StudentID:  " " + f.student.StudentID + " ",
		Status:     "false",
	})
	require.NoError(t, err)
	assert.Equal(t, "1250.50", core.FormatAmount(tx.Amount))
	assert.Equal(t, f.student.StudentID, tx.StudentID)
	assert.Equal(t, core.StatusPending, tx.Status)
	assert.Equal(t, f.category.Name, refs.Category.Name)
	assert.True(t, tx.ID.IsZero(), "ids are assigned when persisting")
}
