// Package store declares the persistence ports of the fee tracker. Every
// backend (memory, SQLite, MongoDB) implements EntityStore.
//
// Implementations return core.ErrNotFound for missing records and
// core.ErrDuplicate for unique key violations, wrapped with context.
package store

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

type (
	OrganizationStore interface {
		CreateOrganization(ctx context.Context, o core.Organization) error
		GetOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error)
		ListOrganizations(ctx context.Context) ([]core.Organization, error)
		DeleteOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		GetCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error)
		// ListCategories returns all categories, or those of one organization when organizationID is set.
		ListCategories(ctx context.Context, organizationID *primitive.ObjectID) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error)
	}

	StudentStore interface {
		CreateStudent(ctx context.Context, s core.Student) error
		GetStudent(ctx context.Context, studentID string) (core.Student, error)
		// ListStudents returns all students, or those of one course when course is not empty.
		ListStudents(ctx context.Context, course string) ([]core.Student, error)
		UpdateStudent(ctx context.Context, s core.Student) error
		DeleteStudent(ctx context.Context, studentID string) (core.Student, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransactionAmount(ctx context.Context, id primitive.ObjectID, amount decimal.Decimal) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error)
		// ListTransactions returns one window of matches, newest first, and the total match count.
		ListTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, int, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id primitive.ObjectID) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		// UpdateUser replaces the email and password hash of an existing account.
		UpdateUser(ctx context.Context, u core.User) error
	}

	// EntityStore is a complete backend.
	EntityStore interface {
		OrganizationStore
		CategoryStore
		StudentStore
		TransactionStore
		UserStore

		Ping(ctx context.Context) error
		Close() error
	}
)
