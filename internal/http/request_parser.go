package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"orgfees/internal/core"
)

const maxBodyBytes = 1 << 20

var errBody = errors.New("invalid request body")

// flexString accepts a JSON string, number or boolean and keeps its text.
// Forms send amounts as numbers and older clients send status as a boolean.
// Objects and arrays are kept verbatim so that field validation rejects them.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

func (f flexString) String() string {
	return sanitizeInput(string(f))
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBody)
	}
	return nil
}

type transactionRequest struct {
	Amount     flexString `json:"amount"`
	CategoryID flexString `json:"categoryID"`
	StudentID  flexString `json:"studentID"`
	Status     flexString `json:"status"`
}

func (req transactionRequest) input() core.TransactionInput {
	return core.TransactionInput{
		Amount:     req.Amount.String(),
		CategoryID: req.CategoryID.String(),
		StudentID:  req.StudentID.String(),
		Status:     req.Status.String(),
	}
}

type amountRequest struct {
	Amount flexString `json:"amount"`
}

type organizationRequest struct {
	Name string `json:"name"`
}

func (req organizationRequest) input() core.OrganizationInput {
	return core.OrganizationInput{Name: sanitizeInput(req.Name)}
}

type categoryRequest struct {
	Name           string     `json:"name"`
	Fee            flexString `json:"fee"`
	OrganizationID flexString `json:"organizationID"`
}

func (req categoryRequest) input() core.CategoryInput {
	return core.CategoryInput{
		Name:           sanitizeInput(req.Name),
		Fee:            req.Fee.String(),
		OrganizationID: req.OrganizationID.String(),
	}
}

type studentRequest struct {
	StudentID  flexString `json:"studentID"`
	Firstname  string     `json:"firstname"`
	Lastname   string     `json:"lastname"`
	Middlename string     `json:"middlename"`
	Email      string     `json:"email"`
	Course     string     `json:"course"`
	Gender     string     `json:"gender"`
	Year       flexString `json:"year"`
}

// input converts the request. A year that is not an integer maps to -1 so
// that validation rejects it.
func (req studentRequest) input() core.StudentInput {
	year := 0
	if raw := req.Year.String(); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = -1
		}
		year = n
	}
	return core.StudentInput{
		StudentID:  req.StudentID.String(),
		Firstname:  sanitizeInput(req.Firstname),
		Lastname:   sanitizeInput(req.Lastname),
		Middlename: sanitizeInput(req.Middlename),
		Email:      sanitizeInput(req.Email),
		Course:     sanitizeInput(req.Course),
		Gender:     sanitizeInput(req.Gender),
		Year:       year,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountUpdateRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// parsePage reads page and pageSize, falling back to defaults on bad input.
func parsePage(r *http.Request, defaultSize, maxSize int) core.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	size, _ := strconv.Atoi(strings.TrimSpace(q.Get("pageSize")))
	return core.NewPageRequest(page, size, defaultSize, maxSize)
}

func parseTransactionFilter(r *http.Request) core.TransactionFilter {
	q := r.URL.Query()
	return core.TransactionFilter{
		Course:   sanitizeInput(q.Get("course")),
		Date:     sanitizeInput(q.Get("date")),
		Category: sanitizeInput(q.Get("category")),
		Status:   sanitizeInput(q.Get("status")),
		Period:   sanitizeInput(q.Get("period")),
	}
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
