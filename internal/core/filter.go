package core

import (
	"math"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar day format accepted by the date filter.
const DateLayout = "2006-01-02"

const (
	PeriodToday     Period = "today"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodYear      Period = "year"
	PeriodLastMonth Period = "last-month"
)

// Period is a named time range relative to the current moment.
type Period string

func ParsePeriod(s string) (Period, bool) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodLastMonth:
		return p, true
	}
	return "", false
}

// Range returns the half-open interval [from, to) of p around now, computed
// in now's location. Weeks start on Monday.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		return today, today.AddDate(0, 0, 1)
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	case PeriodYear:
		start := time.Date(y, 1, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	case PeriodLastMonth:
		end := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return end.AddDate(0, -1, 0), end
	}
	return time.Time{}, time.Time{}
}

// TransactionFilter carries the raw listing filters as received from clients.
// All present filters must match.
type TransactionFilter struct {
	Course   string
	Date     string
	Category string
	Status   string
	Period   string
}

// TransactionQuery is a resolved filter that stores can execute directly.
// Zero From/To mean unbounded; StudentIDs applies only when ByStudents is set.
type TransactionQuery struct {
	ByStudents bool
	StudentIDs []string
	CategoryID *primitive.ObjectID
	Status     Status
	From       time.Time
	To         time.Time
	Offset     int
	Limit      int
}

// Resolve parses the filter relative to now. Date and Period intersect when
// both are present. Course is left for the caller to resolve into student ids.
func (f TransactionFilter) Resolve(now time.Time) (TransactionQuery, error) {
	var q TransactionQuery

	if f.Category != "" {
		id, err := ParseID(f.Category)
		if err != nil {
			return q, Invalid(ReasonInvalidCategory)
		}
		q.CategoryID = &id
	}

	if f.Status != "" {
		status, err := ParseStatus(f.Status)
		if err != nil {
			return q, Invalid(ReasonInvalidStatus)
		}
		q.Status = status
	}

	if f.Date != "" {
		day, err := parseDay(f.Date, now.Location())
		if err != nil {
			return q, Invalid(ReasonInvalidFilter)
		}
		q.From, q.To = day, day.AddDate(0, 0, 1)
	}

	if f.Period != "" {
		period, ok := ParsePeriod(f.Period)
		if !ok {
			return q, Invalid(ReasonInvalidFilter)
		}
		from, to := period.Range(now)
		if q.From.IsZero() || from.After(q.From) {
			q.From = from
		}
		if q.To.IsZero() || to.Before(q.To) {
			q.To = to
		}
	}

	return q, nil
}

// Matches reports whether t satisfies every constraint of q. In-memory
// stores use it; database stores translate q into their own query language.
func (q TransactionQuery) Matches(t Transaction) bool {
	if q.ByStudents && !slices.Contains(q.StudentIDs, t.StudentID) {
		return false
	}
	if q.CategoryID != nil && t.CategoryID != *q.CategoryID {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if !q.From.IsZero() && t.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !t.CreatedAt.Before(q.To) {
		return false
	}
	return true
}

// PageRequest is a 1-based page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest clamps page to >= 1 and size to [1, maxSize], using
// defaultSize when size is not positive. Page is also capped so that
// Offset()+PageSize never overflows an int.
func NewPageRequest(page, size, defaultSize, maxSize int) PageRequest {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	if size < 1 {
		size = 1
	}
	if last := (math.MaxInt-size)/size + 1; page > last {
		page = last
	}
	return PageRequest{Page: page, PageSize: size}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results plus the total number of matches.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
}

// parseDay accepts a bare calendar date or a full timestamp, which is mapped
// to its calendar day in loc.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if day, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return day, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}
