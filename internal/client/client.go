package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orgfees/internal/core"
	"orgfees/internal/services"
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	CacheSize  int
	CacheTTL   time.Duration
}

// Client talks to the orgfees REST API. It keeps the session cookie in a jar
// and caches read queries until a related mutation succeeds.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   *QueryCache
}

// APIError is a failed call that is not a business rejection: transport
// problems, 401, 429 and internal errors.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("orgfees api: status %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("orgfees api: status %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		clone := *hc
		clone.Jar = jar
		hc = &clone
	}

	size := opts.CacheSize
	if size <= 0 {
		size = 256
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &Client{baseURL: base, http: hc, cache: NewQueryCache(size, ttl)}, nil
}

// Cache exposes the query cache, mainly for inspection.
func (c *Client) Cache() *QueryCache { return c.cache }

// query performs a cached GET and decodes the data into out.
func (c *Client) query(ctx context.Context, entity, path string, params url.Values, out any) error {
	key := cloneValues(params)
	key.Set("@path", path)
	if raw, ok := c.cache.Get(entity, key); ok {
		return json.Unmarshal(raw, out)
	}

	raw, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	c.cache.Set(entity, key, raw)
	return json.Unmarshal(raw, out)
}

// mutate performs a write and invalidates the queries it makes stale.
func (c *Client) mutate(ctx context.Context, entity, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	c.cache.Invalidate(dependents(entity)...)
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	u := c.baseURL.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "invalid_response", Message: err.Error()}
	}
	if env.Success {
		return env.Data, nil
	}
	if rej := rejection(resp.StatusCode, env); rej != nil {
		return nil, rej
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Code: env.Error, Message: env.Message}
}

// rejection turns a business refusal envelope back into a *core.Rejection so
// callers can use core.IsReason on client errors.
func rejection(status int, env envelope) *core.Rejection {
	if status != http.StatusOK {
		return nil
	}
	switch kind := core.RejectionKind(env.Error); kind {
	case core.KindValidation, core.KindNotFound, core.KindConflict:
		return &core.Rejection{Kind: kind, Reason: env.Message}
	}
	return nil
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Auth

type session struct {
	User      core.User `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login stores the session cookie and returns the signed-in user.
func (c *Client) Login(ctx context.Context, email, password string) (core.User, error) {
	var s session
	body := map[string]string{"email": email, "password": password}
	if err := c.mutate(ctx, entityUser, http.MethodPost, "/auth/login", body, &s); err != nil {
		return core.User{}, err
	}
	c.cache.Clear()
	return s.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.cache.Clear()
	return err
}

func (c *Client) Me(ctx context.Context) (core.User, error) {
	var u core.User
	err := c.query(ctx, entityUser, "/auth/me", nil, &u)
	return u, err
}

// UpdateMe changes the signed-in account's email or password. The server
// replaces the session cookie in the jar.
func (c *Client) UpdateMe(ctx context.Context, email, currentPassword, newPassword string) (core.User, error) {
	var s session
	body := map[string]string{"email": email, "currentPassword": currentPassword, "newPassword": newPassword}
	if err := c.mutate(ctx, entityUser, http.MethodPut, "/auth/me", body, &s); err != nil {
		return core.User{}, err
	}
	return s.User, nil
}

// Transactions

type transactionBody struct {
	Amount     string `json:"amount,omitempty"`
	CategoryID string `json:"categoryID,omitempty"`
	StudentID  string `json:"studentID,omitempty"`
	Status     string `json:"status,omitempty"`
}

func newTransactionBody(in core.TransactionInput) transactionBody {
	return transactionBody{Amount: in.Amount, CategoryID: in.CategoryID, StudentID: in.StudentID, Status: in.Status}
}

func (c *Client) ListTransactions(ctx context.Context, filter core.TransactionFilter, page, pageSize int) (core.Page[core.Transaction], error) {
	params := url.Values{}
	setIf(params, "course", filter.Course)
	setIf(params, "date", filter.Date)
	setIf(params, "category", filter.Category)
	setIf(params, "status", filter.Status)
	setIf(params, "period", filter.Period)
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(pageSize))
	}

	var out core.Page[core.Transaction]
	err := c.query(ctx, entityTransaction, "/transaction", params, &out)
	return out, err
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var tx core.Transaction
	err := c.query(ctx, entityTransaction, "/transaction/"+url.PathEscape(id), nil, &tx)
	return tx, err
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	err := c.mutate(ctx, entityTransaction, http.MethodPost, "/transaction", newTransactionBody(in), &tx)
	return tx, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in core.TransactionInput) (core.Transaction, error) {
	var tx core.Transaction
	err := c.mutate(ctx, entityTransaction, http.MethodPut, "/transaction/"+url.PathEscape(id), newTransactionBody(in), &tx)
	return tx, err
}

func (c *Client) UpdateTransactionAmount(ctx context.Context, id, amount string) (core.Transaction, error) {
	var tx core.Transaction
	body := map[string]string{"amount": amount}
	err := c.mutate(ctx, entityTransaction, http.MethodPut, "/transaction/"+url.PathEscape(id)+"/amount", body, &tx)
	return tx, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var tx core.Transaction
	err := c.mutate(ctx, entityTransaction, http.MethodDelete, "/transaction/"+url.PathEscape(id), nil, &tx)
	return tx, err
}

// Directory

func (c *Client) ListOrganizations(ctx context.Context) ([]core.Organization, error) {
	var out []core.Organization
	err := c.query(ctx, entityOrganization, "/organization", nil, &out)
	return out, err
}

func (c *Client) CreateOrganization(ctx context.Context, name string) (core.Organization, error) {
	var org core.Organization
	err := c.mutate(ctx, entityOrganization, http.MethodPost, "/organization", map[string]string{"name": name}, &org)
	return org, err
}

func (c *Client) DeleteOrganization(ctx context.Context, id string) (core.Organization, error) {
	var org core.Organization
	err := c.mutate(ctx, entityOrganization, http.MethodDelete, "/organization/"+url.PathEscape(id), nil, &org)
	return org, err
}

type categoryBody struct {
	Name           string `json:"name"`
	Fee            string `json:"fee"`
	OrganizationID string `json:"organizationID,omitempty"`
}

func (c *Client) ListCategories(ctx context.Context, organizationID string) ([]core.Category, error) {
	params := url.Values{}
	setIf(params, "organization", organizationID)
	var out []core.Category
	err := c.query(ctx, entityCategory, "/category", params, &out)
	return out, err
}

func (c *Client) GetCategory(ctx context.Context, id string) (services.CategoryDetail, error) {
	var out services.CategoryDetail
	err := c.query(ctx, entityCategory, "/category/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	body := categoryBody{Name: in.Name, Fee: in.Fee, OrganizationID: in.OrganizationID}
	err := c.mutate(ctx, entityCategory, http.MethodPost, "/category", body, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	body := categoryBody{Name: in.Name, Fee: in.Fee}
	err := c.mutate(ctx, entityCategory, http.MethodPut, "/category/"+url.PathEscape(id), body, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) (core.Category, error) {
	var out core.Category
	err := c.mutate(ctx, entityCategory, http.MethodDelete, "/category/"+url.PathEscape(id), nil, &out)
	return out, err
}

type studentBody struct {
	StudentID  string `json:"studentID"`
	Firstname  string `json:"firstname"`
	Lastname   string `json:"lastname"`
	Middlename string `json:"middlename,omitempty"`
	Email      string `json:"email,omitempty"`
	Course     string `json:"course"`
	Gender     string `json:"gender"`
	Year       int    `json:"year,omitempty"`
}

func newStudentBody(in core.StudentInput) studentBody {
	return studentBody{
		StudentID:  in.StudentID,
		Firstname:  in.Firstname,
		Lastname:   in.Lastname,
		Middlename: in.Middlename,
		Email:      in.Email,
		Course:     in.Course,
		Gender:     in.Gender,
		Year:       in.Year,
	}
}

func (c *Client) ListStudents(ctx context.Context, course string) ([]core.Student, error) {
	params := url.Values{}
	setIf(params, "course", course)
	var out []core.Student
	err := c.query(ctx, entityStudent, "/student", params, &out)
	return out, err
}

func (c *Client) GetStudent(ctx context.Context, studentID string) (services.StudentDetail, error) {
	var out services.StudentDetail
	err := c.query(ctx, entityStudent, "/student/"+url.PathEscape(studentID), nil, &out)
	return out, err
}

func (c *Client) CreateStudent(ctx context.Context, in core.StudentInput) (core.Student, error) {
	var out core.Student
	err := c.mutate(ctx, entityStudent, http.MethodPost, "/student", newStudentBody(in), &out)
	return out, err
}

func (c *Client) UpdateStudent(ctx context.Context, studentID string, in core.StudentInput) (core.Student, error) {
	var out core.Student
	err := c.mutate(ctx, entityStudent, http.MethodPut, "/student/"+url.PathEscape(studentID), newStudentBody(in), &out)
	return out, err
}

func (c *Client) DeleteStudent(ctx context.Context, studentID string) (core.Student, error) {
	var out core.Student
	err := c.mutate(ctx, entityStudent, http.MethodDelete, "/student/"+url.PathEscape(studentID), nil, &out)
	return out, err
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
