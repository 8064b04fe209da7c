package core

import "errors"

// RejectionKind classifies an expected refusal of a request.
type RejectionKind string

const (
	KindValidation RejectionKind = "validation_error"
	KindNotFound   RejectionKind = "not_found_error"
	KindConflict   RejectionKind = "conflict_error"
)

// Reasons reported to clients. Their wording is part of the API.
const (
	ReasonInvalidAmount       = "invalid amount"
	ReasonInvalidCategory     = "invalid category"
	ReasonInvalidStudent      = "invalid student"
	ReasonInvalidStatus       = "invalid status"
	ReasonInvalidFilter       = "invalid filter"
	ReasonTransactionNotFound = "transaction not found"

	ReasonInvalidOrganization  = "invalid organization"
	ReasonInvalidName          = "invalid name"
	ReasonInvalidFee           = "invalid fee"
	ReasonInvalidStudentID     = "invalid student id"
	ReasonInvalidEmail         = "invalid email"
	ReasonInvalidCourse        = "invalid course"
	ReasonInvalidGender        = "invalid gender"
	ReasonInvalidYear          = "invalid year"
	ReasonOrganizationNotFound = "organization not found"
	ReasonCategoryNotFound     = "category not found"
	ReasonStudentNotFound      = "student not found"
	ReasonStudentExists        = "student already exists"
	ReasonOrganizationInUse    = "organization has categories"
	ReasonCategoryInUse        = "category has transactions"
	ReasonStudentInUse         = "student has transactions"

	ReasonInvalidCredentials = "invalid credentials"
	ReasonUserExists         = "user already exists"
	ReasonInvalidPassword    = "invalid password"
	ReasonInvalidRole        = "invalid role"
)

// Rejection is an expected, client-facing refusal. Anything that is not a
// Rejection is an infrastructure fault.
type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func Invalid(reason string) *Rejection {
	return &Rejection{Kind: KindValidation, Reason: reason}
}

func NotFound(reason string) *Rejection {
	return &Rejection{Kind: KindNotFound, Reason: reason}
}

func Conflict(reason string) *Rejection {
	return &Rejection{Kind: KindConflict, Reason: reason}
}

// AsRejection unwraps err into a Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsReason reports whether err is a Rejection carrying reason.
func IsReason(err error, reason string) bool {
	rej, ok := AsRejection(err)
	return ok && rej.Reason == reason
}
