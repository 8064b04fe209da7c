package docstore

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

// Amounts are stored as Decimal128 so they stay exact and sortable in Mongo.

type organizationDoc struct {
	ID   primitive.ObjectID `bson:"_id"`
	Name string             `bson:"name"`
}

type categoryDoc struct {
	ID             primitive.ObjectID   `bson:"_id"`
	Name           string               `bson:"name"`
	Fee            primitive.Decimal128 `bson:"fee"`
	OrganizationID primitive.ObjectID   `bson:"organizationID"`
}

type studentDoc struct {
	StudentID  string `bson:"studentID"`
	Firstname  string `bson:"firstname"`
	Lastname   string `bson:"lastname"`
	Middlename string `bson:"middlename,omitempty"`
	Email      string `bson:"email,omitempty"`
	Course     string `bson:"course"`
	Gender     string `bson:"gender"`
	Year       int    `bson:"year,omitempty"`
}

type transactionDoc struct {
	ID         primitive.ObjectID   `bson:"_id"`
	Amount     primitive.Decimal128 `bson:"amount"`
	CategoryID primitive.ObjectID   `bson:"categoryID"`
	StudentID  string               `bson:"studentID"`
	Status     string               `bson:"status"`
	CreatedAt  time.Time            `bson:"createdAt"`
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func fromOrganization(o core.Organization) organizationDoc {
	return organizationDoc{ID: o.ID, Name: o.Name}
}

func (d organizationDoc) core() core.Organization {
	return core.Organization{ID: d.ID, Name: d.Name}
}

func fromCategory(c core.Category) (categoryDoc, error) {
	fee, err := toDecimal128(c.Fee)
	if err != nil {
		return categoryDoc{}, err
	}
	return categoryDoc{ID: c.ID, Name: c.Name, Fee: fee, OrganizationID: c.OrganizationID}, nil
}

func (d categoryDoc) core() (core.Category, error) {
	fee, err := fromDecimal128(d.Fee)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: d.ID, Name: d.Name, Fee: fee, OrganizationID: d.OrganizationID}, nil
}

func fromStudent(s core.Student) studentDoc {
	return studentDoc(s)
}

func (d studentDoc) core() core.Student {
	return core.Student(d)
}

func fromTransaction(t core.Transaction) (transactionDoc, error) {
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return transactionDoc{}, err
	}
	return transactionDoc{
		ID:         t.ID,
		Amount:     amount,
		CategoryID: t.CategoryID,
		StudentID:  t.StudentID,
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt.UTC(),
	}, nil
}

func (d transactionDoc) core() (core.Transaction, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:         d.ID,
		Amount:     amount,
		CategoryID: d.CategoryID,
		StudentID:  d.StudentID,
		Status:     core.Status(d.Status),
		CreatedAt:  d.CreatedAt.UTC(),
	}, nil
}

func fromUser(u core.User) userDoc {
	return userDoc{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, Role: string(u.Role), CreatedAt: u.CreatedAt.UTC()}
}

func (d userDoc) core() core.User {
	return core.User{ID: d.ID, Email: d.Email, PasswordHash: d.PasswordHash, Role: core.Role(d.Role), CreatedAt: d.CreatedAt.UTC()}
}
