// Package memory is an in-process EntityStore used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

type Store struct {
	mu            sync.RWMutex
	organizations map[primitive.ObjectID]core.Organization
	categories    map[primitive.ObjectID]core.Category
	students      map[string]core.Student
	transactions  map[primitive.ObjectID]core.Transaction
	users         map[primitive.ObjectID]core.User
}

func New() *Store {
	return &Store{
		organizations: make(map[primitive.ObjectID]core.Organization),
		categories:    make(map[primitive.ObjectID]core.Category),
		students:      make(map[string]core.Student),
		transactions:  make(map[primitive.ObjectID]core.Transaction),
		users:         make(map[primitive.ObjectID]core.User),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateOrganization(_ context.Context, o core.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.organizations[o.ID]; ok {
		return fmt.Errorf("organization %s: %w", o.ID.Hex(), core.ErrDuplicate)
	}
	s.organizations[o.ID] = o
	return nil
}

func (s *Store) GetOrganization(_ context.Context, id primitive.ObjectID) (core.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[id]
	if !ok {
		return core.Organization{}, fmt.Errorf("organization %s: %w", id.Hex(), core.ErrNotFound)
	}
	return o, nil
}

func (s *Store) ListOrganizations(context.Context) ([]core.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Organization, 0, len(s.organizations))
	for _, o := range s.organizations {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteOrganization(_ context.Context, id primitive.ObjectID) (core.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.organizations[id]
	if !ok {
		return core.Organization{}, fmt.Errorf("organization %s: %w", id.Hex(), core.ErrNotFound)
	}
	delete(s.organizations, id)
	return o, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("category %s: %w", c.ID.Hex(), core.ErrDuplicate)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) GetCategory(_ context.Context, id primitive.ObjectID) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id.Hex(), core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, organizationID *primitive.ObjectID) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if organizationID != nil && c.OrganizationID != *organizationID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("category %s: %w", c.ID.Hex(), core.ErrNotFound)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id primitive.ObjectID) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id.Hex(), core.ErrNotFound)
	}
	delete(s.categories, id)
	return c, nil
}

func (s *Store) CreateStudent(_ context.Context, st core.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.StudentID]; ok {
		return fmt.Errorf("student %s: %w", st.StudentID, core.ErrDuplicate)
	}
	s.students[st.StudentID] = st
	return nil
}

func (s *Store) GetStudent(_ context.Context, studentID string) (core.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentID]
	if !ok {
		return core.Student{}, fmt.Errorf("student %s: %w", studentID, core.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListStudents(_ context.Context, course string) ([]core.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Student, 0, len(s.students))
	for _, st := range s.students {
		if course != "" && st.Course != course {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lastname != out[j].Lastname {
			return out[i].Lastname < out[j].Lastname
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (s *Store) UpdateStudent(_ context.Context, st core.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.StudentID]; !ok {
		return fmt.Errorf("student %s: %w", st.StudentID, core.ErrNotFound)
	}
	s.students[st.StudentID] = st
	return nil
}

func (s *Store) DeleteStudent(_ context.Context, studentID string) (core.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[studentID]
	if !ok {
		return core.Student{}, fmt.Errorf("student %s: %w", studentID, core.ErrNotFound)
	}
	delete(s.students, studentID)
	return st, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; ok {
		return fmt.Errorf("transaction %s: %w", t.ID.Hex(), core.ErrDuplicate)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id primitive.ObjectID) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id.Hex(), core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", t.ID.Hex(), core.ErrNotFound)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) UpdateTransactionAmount(_ context.Context, id primitive.ObjectID, amount decimal.Decimal) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id.Hex(), core.ErrNotFound)
	}
	t.Amount = amount
	s.transactions[id] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id primitive.ObjectID) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id.Hex(), core.ErrNotFound)
	}
	delete(s.transactions, id)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, q core.TransactionQuery) ([]core.Transaction, int, error) {
	s.mu.RLock()
	matches := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if q.Matches(t) {
			matches = append(matches, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID.Hex() > matches[j].ID.Hex()
	})

	total := len(matches)
	offset := max(q.Offset, 0)
	if offset >= total {
		return []core.Transaction{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Limit < total-offset {
		end = offset + q.Limit
	}
	return matches[offset:end], total, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("user %s: %w", u.Email, core.ErrDuplicate)
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id primitive.ObjectID) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id.Hex(), core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID.Hex(), core.ErrNotFound)
	}
	for id, existing := range s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("user %s: %w", u.Email, core.ErrDuplicate)
		}
	}
	current.Email = u.Email
	current.PasswordHash = u.PasswordHash
	s.users[u.ID] = current
	return nil
}
