// Package docstore implements store.EntityStore on MongoDB.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"orgfees/internal/core"
)

const (
	organizationsCollection = "organizations"
	categoriesCollection    = "categories"
	studentsCollection      = "students"
	transactionsCollection  = "transactions"
	usersCollection         = "users"
)

type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	organizations *mongo.Collection
	categories    *mongo.Collection
	students      *mongo.Collection
	transactions  *mongo.Collection
	users         *mongo.Collection
}

// Connect dials uri, verifies the connection and ensures indexes on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := newStore(client, database)
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func newStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		db:            db,
		organizations: db.Collection(organizationsCollection),
		categories:    db.Collection(categoriesCollection),
		students:      db.Collection(studentsCollection),
		transactions:  db.Collection(transactionsCollection),
		users:         db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.students: {
			{Keys: bson.D{{Key: "studentID", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "course", Value: 1}}},
		},
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.categories: {
			{Keys: bson.D{{Key: "organizationID", Value: 1}}},
		},
		s.transactions: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "categoryID", Value: 1}}},
			{Keys: bson.D{{Key: "studentID", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests and the admin CLI reset.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// translate maps driver errors onto the core sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", what, core.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func requireMatched(res *mongo.UpdateResult, what string) error {
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}
