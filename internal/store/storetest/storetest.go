// Package storetest holds the behavioural suite every store.EntityStore
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/core"
	"orgfees/internal/store"
)

// Run exercises newStore against the store contract. newStore must return an
// empty store; cleanup is the caller's responsibility.
func Run(t *testing.T, newStore func(t *testing.T) store.EntityStore) {
	t.Run("organizations", func(t *testing.T) { testOrganizations(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("students", func(t *testing.T) { testStudents(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("transaction listing", func(t *testing.T) { testListTransactions(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
}

func testOrganizations(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	org := core.Organization{ID: core.NewID(), Name: "Computer Society"}

	require.NoError(t, s.CreateOrganization(ctx, org))

	got, err := s.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org, got)

	list, err := s.ListOrganizations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := s.DeleteOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, deleted.ID)

	_, err = s.GetOrganization(ctx, org.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	_, err = s.DeleteOrganization(ctx, org.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}

func testCategories(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	orgA, orgB := core.NewID(), core.NewID()
	membership := core.Category{ID: core.NewID(), Name: "Membership", Fee: decimal.RequireFromString("150.50"), OrganizationID: orgA}
	shirt := core.Category{ID: core.NewID(), Name: "Shirt", Fee: decimal.NewFromInt(300), OrganizationID: orgB}

	require.NoError(t, s.CreateCategory(ctx, membership))
	require.NoError(t, s.CreateCategory(ctx, shirt))

	got, err := s.GetCategory(ctx, membership.ID)
	require.NoError(t, err)
	assert.Equal(t, membership.Name, got.Name)
	assert.True(t, membership.Fee.Equal(got.Fee), "fee %s", got.Fee)
	assert.Equal(t, orgA, got.OrganizationID)

	all, err := s.ListCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ofA, err := s.ListCategories(ctx, &orgA)
	require.NoError(t, err)
	require.Len(t, ofA, 1)
	assert.Equal(t, membership.ID, ofA[0].ID)

	membership.Fee = decimal.NewFromInt(200)
	require.NoError(t, s.UpdateCategory(ctx, membership))
	got, err = s.GetCategory(ctx, membership.ID)
	require.NoError(t, err)
	assert.True(t, got.Fee.Equal(decimal.NewFromInt(200)))

	missing := core.Category{ID: core.NewID(), Name: "x"}
	assert.True(t, errors.Is(s.UpdateCategory(ctx, missing), core.ErrNotFound))

	_, err = s.DeleteCategory(ctx, shirt.ID)
	require.NoError(t, err)
	_, err = s.GetCategory(ctx, shirt.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func testStudents(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	ana := core.Student{StudentID: "2301106590", Firstname: "Ana", Lastname: "Reyes", Course: "BSCS", Gender: "female", Year: 2}
	ben := core.Student{StudentID: "2301106591", Firstname: "Ben", Lastname: "Cruz", Email: "ben@example.edu", Course: "BSIT", Gender: "male"}

	require.NoError(t, s.CreateStudent(ctx, ana))
	require.NoError(t, s.CreateStudent(ctx, ben))

	err := s.CreateStudent(ctx, ana)
	assert.True(t, errors.Is(err, core.ErrDuplicate), "got %v", err)

	got, err := s.GetStudent(ctx, ana.StudentID)
	require.NoError(t, err)
	assert.Equal(t, ana, got)

	bscs, err := s.ListStudents(ctx, "BSCS")
	require.NoError(t, err)
	require.Len(t, bscs, 1)
	assert.Equal(t, ana.StudentID, bscs[0].StudentID)

	all, err := s.ListStudents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ana.Year = 3
	require.NoError(t, s.UpdateStudent(ctx, ana))
	got, err = s.GetStudent(ctx, ana.StudentID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Year)

	_, err = s.DeleteStudent(ctx, ben.StudentID)
	require.NoError(t, err)
	_, err = s.GetStudent(ctx, ben.StudentID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func testTransactions(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	tx := core.Transaction{
		ID:         core.NewID(),
		Amount:     decimal.NewFromInt(100),
		CategoryID: core.NewID(),
		StudentID:  "2301106590",
		Status:     core.StatusCompleted,
		CreatedAt:  time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, tx.Amount.Equal(got.Amount))
	assert.Equal(t, tx.CategoryID, got.CategoryID)
	assert.Equal(t, tx.StudentID, got.StudentID)
	assert.Equal(t, tx.Status, got.Status)
	assert.True(t, tx.CreatedAt.Equal(got.CreatedAt), "createdAt %v", got.CreatedAt)

	updated, err := s.UpdateTransactionAmount(ctx, tx.ID, decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, tx.CategoryID, updated.CategoryID)

	got.Status = core.StatusVoided
	got.Amount = decimal.NewFromInt(150)
	require.NoError(t, s.UpdateTransaction(ctx, got))
	got, err = s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusVoided, got.Status)

	deleted, err := s.DeleteTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, deleted.ID)

	_, err = s.DeleteTransaction(ctx, tx.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = s.UpdateTransactionAmount(ctx, tx.ID, decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func testListTransactions(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	catA, catB := core.NewID(), core.NewID()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		tx := core.Transaction{
			ID:         core.NewID(),
			Amount:     decimal.NewFromInt(int64(10 * (i + 1))),
			CategoryID: catA,
			StudentID:  "s1",
			Status:     core.StatusCompleted,
			CreatedAt:  base.AddDate(0, 0, i),
		}
		if i%2 == 1 {
			tx.CategoryID = catB
			tx.StudentID = "s2"
			tx.Status = core.StatusPending
		}
		require.NoError(t, s.CreateTransaction(ctx, tx))
		ids = append(ids, tx.ID.Hex())
	}

	items, total, err := s.ListTransactions(ctx, core.TransactionQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, ids[4], items[0].ID.Hex(), "newest first")
	assert.Equal(t, ids[3], items[1].ID.Hex())

	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{Offset: 4, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 1)
	assert.Equal(t, ids[0], items[0].ID.Hex())

	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{CategoryID: &catB})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	_, total, err = s.ListTransactions(ctx, core.TransactionQuery{Status: core.StatusCompleted, ByStudents: true, StudentIDs: []string{"s1", "s9"}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = s.ListTransactions(ctx, core.TransactionQuery{ByStudents: true})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	day := base.AddDate(0, 0, 2)
	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{From: day.Truncate(24 * time.Hour), To: day.Truncate(24 * time.Hour).AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, ids[2], items[0].ID.Hex())

	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, items)

	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{Offset: math.MaxInt - 50, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, items)

	items, total, err = s.ListTransactions(ctx, core.TransactionQuery{Offset: -100, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, ids[4], items[0].ID.Hex())
}

func testUsers(t *testing.T, s store.EntityStore) {
	ctx := context.Background()
	u := core.User{
		ID:           core.NewID(),
		Email:        "admin@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         core.RoleAdmin,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := u
	dup.ID = core.NewID()
	err := s.CreateUser(ctx, dup)
	assert.True(t, errors.Is(err, core.ErrDuplicate), "got %v", err)

	byEmail, err := s.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)

	byID, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, byID.Role)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	other := core.User{
		ID:           core.NewID(),
		Email:        "staff@example.com",
		PasswordHash: "$2a$10$other",
		Role:         core.RoleStaff,
		CreatedAt:    u.CreatedAt,
	}
	require.NoError(t, s.CreateUser(ctx, other))

	changed := u
	changed.Email = "head@example.com"
	changed.PasswordHash = "$2a$10$rehashed"
	changed.Role = core.RoleStaff
	require.NoError(t, s.UpdateUser(ctx, changed))

	byID, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "head@example.com", byID.Email)
	assert.Equal(t, "$2a$10$rehashed", byID.PasswordHash)
	assert.Equal(t, core.RoleAdmin, byID.Role, "role is not changed by UpdateUser")
	_, err = s.GetUserByEmail(ctx, "admin@example.com")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	clash := changed
	clash.Email = other.Email
	err = s.UpdateUser(ctx, clash)
	assert.True(t, errors.Is(err, core.ErrDuplicate), "got %v", err)

	ghost := changed
	ghost.ID = core.NewID()
	ghost.Email = "ghost@example.com"
	err = s.UpdateUser(ctx, ghost)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}
