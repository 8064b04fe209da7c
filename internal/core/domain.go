package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusVoided    Status = "voided"

	// DefaultStatus is assigned to transactions created without an explicit status.
	DefaultStatus = StatusCompleted
)

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type (
	Status string
	Role   string

	Organization struct {
		ID   primitive.ObjectID `json:"_id"`
		Name string             `json:"name"`
	}

	Category struct {
		ID             primitive.ObjectID `json:"_id"`
		Name           string             `json:"name"`
		Fee            decimal.Decimal    `json:"fee"`
		OrganizationID primitive.ObjectID `json:"organizationID"`
	}

	// Student is keyed by its institutional StudentID rather than a generated id.
	Student struct {
		StudentID  string `json:"studentID"`
		Firstname  string `json:"firstname"`
		Lastname   string `json:"lastname"`
		Middlename string `json:"middlename,omitempty"`
		Email      string `json:"email,omitempty"`
		Course     string `json:"course"`
		Gender     string `json:"gender"`
		Year       int    `json:"year,omitempty"`
	}

	// Transaction is a fee payment made by a student against a category.
	Transaction struct {
		ID         primitive.ObjectID `json:"_id"`
		Amount     decimal.Decimal    `json:"amount"`
		CategoryID primitive.ObjectID `json:"categoryID"`
		StudentID  string             `json:"studentID"`
		Status     Status             `json:"status"`
		CreatedAt  time.Time          `json:"createdAt"`
	}

	User struct {
		ID           primitive.ObjectID `json:"_id"`
		Email        string             `json:"email"`
		PasswordHash string             `json:"-"`
		Role         Role               `json:"role"`
		CreatedAt    time.Time          `json:"createdAt"`
	}

	// Actor identifies the authenticated caller of a service operation.
	Actor struct {
		UserID string
		Email  string
		Role   Role
	}
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidFee    = errors.New("invalid fee")
	ErrInvalidStatus = errors.New("invalid status")
)

// NewID returns a fresh object id.
func NewID() primitive.ObjectID {
	return primitive.NewObjectID()
}

// ParseID parses a 24 character hex object id.
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// ParseStatus accepts the named statuses plus the boolean form older clients send.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusPending), "false":
		return StatusPending, nil
	case string(StatusCompleted), "true":
		return StatusCompleted, nil
	case string(StatusVoided):
		return StatusVoided, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusVoided:
		return true
	}
	return false
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// FullName renders "Lastname, Firstname Middlename".
func (s Student) FullName() string {
	name := s.Lastname + ", " + s.Firstname
	if s.Middlename != "" {
		name += " " + s.Middlename
	}
	return name
}
