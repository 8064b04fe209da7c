package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/amqp"
	"orgfees/internal/core"
)

const unknownCategoryID = "60f1d1f6c9d9b6a5c8b5e7d9"

var staff = core.Actor{UserID: "u1", Email: "staff@example.com", Role: core.RoleStaff}

type fixture struct {
	store     *faultyStore
	publisher *recordingPublisher
	service   *TransactionService
	category  core.Category
	student   core.Student
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := newFaultyStore()

	org := core.Organization{ID: core.NewID(), Name: "Computer Society"}
	require.NoError(t, st.CreateOrganization(ctx, org))
	category := core.Category{ID: core.NewID(), Name: "Membership", Fee: decimal.NewFromInt(100), OrganizationID: org.ID}
	require.NoError(t, st.CreateCategory(ctx, category))
	student := core.Student{StudentID: "2301106590", Firstname: "Ana", Lastname: "Reyes", Course: "BSCS", Gender: "female"}
	require.NoError(t, st.CreateStudent(ctx, student))

	pub := &recordingPublisher{}
	svc := NewTransactionService(st, pub, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 3, 14, 9, 30, 0, 123456789, time.UTC) }

	return &fixture{store: st, publisher: pub, service: svc, category: category, student: student}
}

func (f *fixture) input(amount string) core.TransactionInput {
	return core.TransactionInput{Amount: amount, CategoryID: f.category.ID.Hex(), StudentID: f.student.StudentID}
}

func (f *fixture) stored(t *testing.T) int {
	t.Helper()
	_, total, err := f.store.ListTransactions(context.Background(), core.TransactionQuery{})
	require.NoError(t, err)
	return total
}

func requireReason(t *testing.T, err error, kind core.RejectionKind, reason string) {
	t.Helper()
	rej, ok := core.AsRejection(err)
	require.True(t, ok, "expected rejection %q, got %v", reason, err)
	assert.Equal(t, kind, rej.Kind)
	assert.Equal(t, reason, rej.Reason)
}

func TestCreateTransaction_Success(t *testing.T) {
	f := newFixture(t)

	tx, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.NoError(t, err)

	assert.False(t, tx.ID.IsZero())
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, f.category.ID, tx.CategoryID)
	assert.Equal(t, f.student.StudentID, tx.StudentID)
	assert.Equal(t, core.StatusCompleted, tx.Status)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 30, 0, 123000000, time.UTC), tx.CreatedAt)

	stored, err := f.store.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx, stored)

	assert.Equal(t, []string{amqp.EventTransactionCreated}, f.publisher.types())
	assert.Equal(t, "staff@example.com", f.publisher.events[0].ActorEmail)
}

func TestCreateTransaction_ExplicitStatus(t *testing.T) {
	f := newFixture(t)
	in := f.input("50")
	in.Status = "pending"

	tx, err := f.service.CreateTransaction(context.Background(), in, staff)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, tx.Status)
}

func TestCreateTransaction_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, in *core.TransactionInput)
		reason string
	}{
		{"negative amount", func(_ *fixture, in *core.TransactionInput) { in.Amount = "-1" }, core.ReasonInvalidAmount},
		{"zero amount", func(_ *fixture, in *core.TransactionInput) { in.Amount = "0" }, core.ReasonInvalidAmount},
		{"non-numeric amount", func(_ *fixture, in *core.TransactionInput) { in.Amount = "abc" }, core.ReasonInvalidAmount},
		{"missing amount", func(_ *fixture, in *core.TransactionInput) { in.Amount = "" }, core.ReasonInvalidAmount},
		{"unknown category", func(_ *fixture, in *core.TransactionInput) { in.CategoryID = unknownCategoryID }, core.ReasonInvalidCategory},
		{"malformed category", func(_ *fixture, in *core.TransactionInput) { in.CategoryID = "not-an-id" }, core.ReasonInvalidCategory},
		{"unknown student", func(_ *fixture, in *core.TransactionInput) { in.StudentID = "0000000000" }, core.ReasonInvalidStudent},
		{"missing student", func(_ *fixture, in *core.TransactionInput) { in.StudentID = "" }, core.ReasonInvalidStudent},
		{"unknown status", func(_ *fixture, in *core.TransactionInput) { in.Status = "refunded" }, core.ReasonInvalidStatus},
		{
			"amount reported before category",
			func(_ *fixture, in *core.TransactionInput) { in.Amount = "-1"; in.CategoryID = unknownCategoryID },
			core.ReasonInvalidAmount,
		},
		{
			"category reported before student",
			func(_ *fixture, in *core.TransactionInput) { in.CategoryID = unknownCategoryID; in.StudentID = "0000000000" },
			core.ReasonInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input("100")
			tt.mutate(f, &in)

			_, err := f.service.CreateTransaction(context.Background(), in, staff)
			requireReason(t, err, core.KindValidation, tt.reason)

			assert.Zero(t, f.store.creates.Load(), "nothing may be persisted")
			assert.Zero(t, f.stored(t))
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestCreateTransaction_LookupFault(t *testing.T) {
	f := newFixture(t)
	f.store.studentErr = errors.New("connection reset")

	_, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.Error(t, err)
	_, isRejection := core.AsRejection(err)
	assert.False(t, isRejection, "store faults must not look like validation failures")
	assert.Zero(t, f.store.creates.Load())
}

func TestCreateTransaction_LookupsRunConcurrently(t *testing.T) {
	f := newFixture(t)

	entered := make(chan struct{}, 2)
	both := make(chan struct{})
	f.store.onLookup = func() {
		entered <- struct{}{}
		select {
		case <-both:
		case <-time.After(2 * time.Second):
		}
	}
	go func() {
		<-entered
		<-entered
		close(both)
	}()

	start := time.Now()
	_, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "category and student lookups should overlap")
}

func TestCreateTransaction_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	tx, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.NoError(t, err)
	assert.Equal(t, 1, f.stored(t))
	assert.False(t, tx.ID.IsZero())
}

func TestCreateTransaction_NilPublisher(t *testing.T) {
	f := newFixture(t)
	f.service.publisher = nil

	_, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.NoError(t, err)
}

func TestGetTransaction(t *testing.T) {
	f := newFixture(t)
	created, err := f.service.CreateTransaction(context.Background(), f.input("100"), staff)
	require.NoError(t, err)

	got, err := f.service.GetTransaction(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created, got)

	for _, id := range []string{unknownCategoryID, "garbage", ""} {
		_, err := f.service.GetTransaction(context.Background(), id)
		requireReason(t, err, core.KindNotFound, core.ReasonTransactionNotFound)
	}
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites provided fields", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
		require.NoError(t, err)

		other := core.Category{ID: core.NewID(), Name: "Shirt", Fee: decimal.NewFromInt(300), OrganizationID: f.category.OrganizationID}
		require.NoError(t, f.store.CreateCategory(ctx, other))

		updated, err := f.service.UpdateTransaction(ctx, created.ID.Hex(), core.TransactionInput{
			Amount:     "300",
			CategoryID: other.ID.Hex(),
			Status:     "voided",
		}, staff)
		require.NoError(t, err)

		assert.True(t, updated.Amount.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, other.ID, updated.CategoryID)
		assert.Equal(t, core.StatusVoided, updated.Status)
		assert.Equal(t, created.StudentID, updated.StudentID)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.Equal(t, []string{amqp.EventTransactionCreated, amqp.EventTransactionUpdated}, f.publisher.types())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.UpdateTransaction(ctx, unknownCategoryID, f.input("100"), staff)
		requireReason(t, err, core.KindNotFound, core.ReasonTransactionNotFound)
	})

	t.Run("revalidates references", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
		require.NoError(t, err)

		_, err = f.service.UpdateTransaction(ctx, created.ID.Hex(), core.TransactionInput{CategoryID: unknownCategoryID}, staff)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidCategory)

		_, err = f.service.UpdateTransaction(ctx, created.ID.Hex(), core.TransactionInput{StudentID: "nobody"}, staff)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidStudent)

		_, err = f.service.UpdateTransaction(ctx, created.ID.Hex(), core.TransactionInput{Amount: "-10"}, staff)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidAmount)

		stored, err := f.store.GetTransaction(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, stored, "rejected updates leave the record unchanged")
	})
}

func TestUpdateTransactionAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
	require.NoError(t, err)

	_, err = f.service.UpdateTransactionAmount(ctx, created.ID.Hex(), "-5", staff)
	requireReason(t, err, core.KindValidation, core.ReasonInvalidAmount)

	stored, err := f.store.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(100)), "amount unchanged after rejection")

	updated, err := f.service.UpdateTransactionAmount(ctx, created.ID.Hex(), "250.75", staff)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("250.75")))
	assert.Equal(t, created.CategoryID, updated.CategoryID)
	assert.Equal(t, created.StudentID, updated.StudentID)
	assert.Equal(t, created.Status, updated.Status)

	_, err = f.service.UpdateTransactionAmount(ctx, unknownCategoryID, "10", staff)
	requireReason(t, err, core.KindNotFound, core.ReasonTransactionNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
	require.NoError(t, err)

	deleted, err := f.service.DeleteTransaction(ctx, created.ID.Hex(), staff)
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = f.service.DeleteTransaction(ctx, created.ID.Hex(), staff)
	requireReason(t, err, core.KindNotFound, core.ReasonTransactionNotFound)

	_, err = f.service.GetTransaction(ctx, created.ID.Hex())
	requireReason(t, err, core.KindNotFound, core.ReasonTransactionNotFound)

	assert.Equal(t, []string{amqp.EventTransactionCreated, amqp.EventTransactionDeleted}, f.publisher.types())
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	it := core.Student{StudentID: "2301106591", Firstname: "Ben", Lastname: "Cruz", Course: "BSIT", Gender: "male"}
	require.NoError(t, f.store.CreateStudent(ctx, it))

	days := []time.Time{
		time.Date(2024, 2, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		f.service.now = func() time.Time { return day }
		in := f.input("100")
		if i == 1 {
			in.StudentID = it.StudentID
			in.Status = "pending"
		}
		_, err := f.service.CreateTransaction(ctx, in, staff)
		require.NoError(t, err)
	}
	f.service.now = func() time.Time { return time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC) }

	page := core.NewPageRequest(1, 10, 50, 200)

	tests := []struct {
		name   string
		filter core.TransactionFilter
		want   int
	}{
		{"no filter", core.TransactionFilter{}, 3},
		{"course", core.TransactionFilter{Course: "BSIT"}, 1},
		{"course without students", core.TransactionFilter{Course: "BSN"}, 0},
		{"category", core.TransactionFilter{Category: f.category.ID.Hex()}, 3},
		{"status", core.TransactionFilter{Status: "completed"}, 2},
		{"date", core.TransactionFilter{Date: "2024-03-05"}, 1},
		{"period month", core.TransactionFilter{Period: "month"}, 2},
		{"period last-month", core.TransactionFilter{Period: "last-month"}, 1},
		{"period today", core.TransactionFilter{Period: "today"}, 1},
		{"conjunction", core.TransactionFilter{Course: "BSCS", Period: "month"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.service.ListTransactions(ctx, tt.filter, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.TotalCount)
			assert.Len(t, result.Items, tt.want)
		})
	}

	t.Run("newest first with paging", func(t *testing.T) {
		result, err := f.service.ListTransactions(ctx, core.TransactionFilter{}, core.NewPageRequest(2, 2, 50, 200))
		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalCount)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 2, result.PageSize)
		require.Len(t, result.Items, 1)
		assert.True(t, result.Items[0].CreatedAt.Equal(days[0]))
	})

	t.Run("invalid filter", func(t *testing.T) {
		_, err := f.service.ListTransactions(ctx, core.TransactionFilter{Period: "fortnight"}, page)
		requireReason(t, err, core.KindValidation, core.ReasonInvalidFilter)
	})
}

func TestListTransactions_UsesConfiguredZone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	manila := time.FixedZone("PHT", 8*3600)
	f.service.location = manila

	// 23:30 UTC on the 4th is the 5th in Manila.
	f.service.now = func() time.Time { return time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC) }
	_, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
	require.NoError(t, err)

	result, err := f.service.ListTransactions(ctx, core.TransactionFilter{Date: "2024-03-05"}, core.NewPageRequest(1, 10, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)

	result, err = f.service.ListTransactions(ctx, core.TransactionFilter{Date: "2024-03-04"}, core.NewPageRequest(1, 10, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCount)
}
