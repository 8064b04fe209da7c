package services

import (
	"context"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/amqp"
	"orgfees/internal/core"
	"orgfees/internal/store/memory"
)

// faultyStore wraps the memory store so tests can inject lookup failures and
// observe writes.
type faultyStore struct {
	*memory.Store
	categoryErr error
	studentErr  error
	onLookup    func()
	creates     atomic.Int32
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New()}
}

func (f *faultyStore) GetCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error) {
	if f.onLookup != nil {
		f.onLookup()
	}
	if f.categoryErr != nil {
		return core.Category{}, f.categoryErr
	}
	return f.Store.GetCategory(ctx, id)
}

func (f *faultyStore) GetStudent(ctx context.Context, studentID string) (core.Student, error) {
	if f.onLookup != nil {
		f.onLookup()
	}
	if f.studentErr != nil {
		return core.Student{}, f.studentErr
	}
	return f.Store.GetStudent(ctx, studentID)
}

func (f *faultyStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	f.creates.Add(1)
	return f.Store.CreateTransaction(ctx, t)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEventMessage
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, msg *amqp.TransactionEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
