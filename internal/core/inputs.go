package core

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxNameLength      = 100
	maxStudentIDLength = 32
	maxYear            = 10
)

// TransactionInput is the raw payload for creating or updating a transaction.
// Empty fields mean "not provided".
type TransactionInput struct {
	Amount     string
	CategoryID string
	StudentID  string
	Status     string
}

// ParsedTransaction holds the well-formed values of a TransactionInput.
// Pointer fields are nil when the input left them out.
type ParsedTransaction struct {
	Amount     *decimal.Decimal
	CategoryID *primitive.ObjectID
	StudentID  *string
	Status     *Status
}

// Validate applies the shape rules for creation: amount, then category, then
// student, stopping at the first failure. Existence checks happen in the service.
func (in TransactionInput) Validate() error {
	if _, err := ParseAmount(in.Amount); err != nil {
		return Invalid(ReasonInvalidAmount)
	}
	if _, err := ParseID(in.CategoryID); err != nil {
		return Invalid(ReasonInvalidCategory)
	}
	if strings.TrimSpace(in.StudentID) == "" {
		return Invalid(ReasonInvalidStudent)
	}
	if in.Status != "" {
		if _, err := ParseStatus(in.Status); err != nil {
			return Invalid(ReasonInvalidStatus)
		}
	}
	return nil
}

// Parse validates only the provided fields, in the same order as Validate.
func (in TransactionInput) Parse() (ParsedTransaction, error) {
	var p ParsedTransaction
	if in.Amount != "" {
		amount, err := ParseAmount(in.Amount)
		if err != nil {
			return p, Invalid(ReasonInvalidAmount)
		}
		p.Amount = &amount
	}
	if in.CategoryID != "" {
		id, err := ParseID(in.CategoryID)
		if err != nil {
			return p, Invalid(ReasonInvalidCategory)
		}
		p.CategoryID = &id
	}
	if in.StudentID != "" {
		studentID := strings.TrimSpace(in.StudentID)
		if studentID == "" {
			return p, Invalid(ReasonInvalidStudent)
		}
		p.StudentID = &studentID
	}
	if in.Status != "" {
		status, err := ParseStatus(in.Status)
		if err != nil {
			return p, Invalid(ReasonInvalidStatus)
		}
		p.Status = &status
	}
	return p, nil
}

type OrganizationInput struct {
	Name string
}

func (in OrganizationInput) Validate() error {
	if !validName(in.Name) {
		return Invalid(ReasonInvalidName)
	}
	return nil
}

// CategoryInput creates a category. OrganizationID is ignored on update.
type CategoryInput struct {
	Name           string
	Fee            string
	OrganizationID string
}

func (in CategoryInput) Validate() error {
	if err := in.ValidateUpdate(); err != nil {
		return err
	}
	if _, err := ParseID(in.OrganizationID); err != nil {
		return Invalid(ReasonInvalidOrganization)
	}
	return nil
}

// ValidateUpdate checks the fields a category update may change.
func (in CategoryInput) ValidateUpdate() error {
	if !validName(in.Name) {
		return Invalid(ReasonInvalidName)
	}
	if _, err := ParseFee(in.Fee); err != nil {
		return Invalid(ReasonInvalidFee)
	}
	return nil
}

type StudentInput struct {
	StudentID  string
	Firstname  string
	Lastname   string
	Middlename string
	Email      string
	Course     string
	Gender     string
	Year       int
}

func (in StudentInput) Validate() error {
	id := strings.TrimSpace(in.StudentID)
	if id == "" || len(id) > maxStudentIDLength || strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return Invalid(ReasonInvalidStudentID)
	}
	if !validName(in.Firstname) || !validName(in.Lastname) {
		return Invalid(ReasonInvalidName)
	}
	if len(strings.TrimSpace(in.Middlename)) > maxNameLength {
		return Invalid(ReasonInvalidName)
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return Invalid(ReasonInvalidEmail)
		}
	}
	if !validName(in.Course) {
		return Invalid(ReasonInvalidCourse)
	}
	if !validName(in.Gender) {
		return Invalid(ReasonInvalidGender)
	}
	if in.Year < 0 || in.Year > maxYear {
		return Invalid(ReasonInvalidYear)
	}
	return nil
}

// Student returns the trimmed record described by the input.
func (in StudentInput) Student() Student {
	return Student{
		StudentID:  strings.TrimSpace(in.StudentID),
		Firstname:  strings.TrimSpace(in.Firstname),
		Lastname:   strings.TrimSpace(in.Lastname),
		Middlename: strings.TrimSpace(in.Middlename),
		Email:      strings.TrimSpace(in.Email),
		Course:     strings.TrimSpace(in.Course),
		Gender:     strings.TrimSpace(in.Gender),
		Year:       in.Year,
	}
}

func validName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && len(s) <= maxNameLength
}
