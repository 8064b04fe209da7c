package docstore

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"orgfees/internal/core"
)

func (s *Store) CreateOrganization(ctx context.Context, o core.Organization) error {
	_, err := s.organizations.InsertOne(ctx, fromOrganization(o))
	return translate(err, "insert organization "+o.ID.Hex())
}

func (s *Store) GetOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error) {
	var doc organizationDoc
	err := s.organizations.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	return doc.core(), translate(err, "get organization "+id.Hex())
}

func (s *Store) ListOrganizations(ctx context.Context) ([]core.Organization, error) {
	cur, err := s.organizations.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translate(err, "list organizations")
	}
	var docs []organizationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode organizations")
	}
	out := make([]core.Organization, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.core())
	}
	return out, nil
}

func (s *Store) DeleteOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error) {
	var doc organizationDoc
	err := s.organizations.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	return doc.core(), translate(err, "delete organization "+id.Hex())
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	doc, err := fromCategory(c)
	if err != nil {
		return err
	}
	_, err = s.categories.InsertOne(ctx, doc)
	return translate(err, "insert category "+c.ID.Hex())
}

func (s *Store) GetCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error) {
	var doc categoryDoc
	if err := s.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return core.Category{}, translate(err, "get category "+id.Hex())
	}
	return doc.core()
}

func (s *Store) ListCategories(ctx context.Context, organizationID *primitive.ObjectID) ([]core.Category, error) {
	filter := bson.M{}
	if organizationID != nil {
		filter["organizationID"] = *organizationID
	}
	cur, err := s.categories.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translate(err, "list categories")
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode categories")
	}
	out := make([]core.Category, 0, len(docs))
	for _, d := range docs {
		c, err := d.core()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	doc, err := fromCategory(c)
	if err != nil {
		return err
	}
	res, err := s.categories.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc)
	if err != nil {
		return translate(err, "update category "+c.ID.Hex())
	}
	return requireMatched(res, "update category "+c.ID.Hex())
}

func (s *Store) DeleteCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error) {
	var doc categoryDoc
	if err := s.categories.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return core.Category{}, translate(err, "delete category "+id.Hex())
	}
	return doc.core()
}

func (s *Store) CreateStudent(ctx context.Context, st core.Student) error {
	_, err := s.students.InsertOne(ctx, fromStudent(st))
	return translate(err, "insert student "+st.StudentID)
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (core.Student, error) {
	var doc studentDoc
	err := s.students.FindOne(ctx, bson.M{"studentID": studentID}).Decode(&doc)
	return doc.core(), translate(err, "get student "+studentID)
}

func (s *Store) ListStudents(ctx context.Context, course string) ([]core.Student, error) {
	filter := bson.M{}
	if course != "" {
		filter["course"] = course
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastname", Value: 1}, {Key: "studentID", Value: 1}})
	cur, err := s.students.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err, "list students")
	}
	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode students")
	}
	out := make([]core.Student, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.core())
	}
	return out, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st core.Student) error {
	res, err := s.students.ReplaceOne(ctx, bson.M{"studentID": st.StudentID}, fromStudent(st))
	if err != nil {
		return translate(err, "update student "+st.StudentID)
	}
	return requireMatched(res, "update student "+st.StudentID)
}

func (s *Store) DeleteStudent(ctx context.Context, studentID string) (core.Student, error) {
	var doc studentDoc
	err := s.students.FindOneAndDelete(ctx, bson.M{"studentID": studentID}).Decode(&doc)
	return doc.core(), translate(err, "delete student "+studentID)
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) error {
	doc, err := fromTransaction(t)
	if err != nil {
		return err
	}
	_, err = s.transactions.InsertOne(ctx, doc)
	return translate(err, "insert transaction "+t.ID.Hex())
}

func (s *Store) GetTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error) {
	var doc transactionDoc
	if err := s.transactions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return core.Transaction{}, translate(err, "get transaction "+id.Hex())
	}
	return doc.core()
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	doc, err := fromTransaction(t)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"amount":     doc.Amount,
		"categoryID": doc.CategoryID,
		"studentID":  doc.StudentID,
		"status":     doc.Status,
	}}
	res, err := s.transactions.UpdateOne(ctx, bson.M{"_id": t.ID}, update)
	if err != nil {
		return translate(err, "update transaction "+t.ID.Hex())
	}
	return requireMatched(res, "update transaction "+t.ID.Hex())
}

func (s *Store) UpdateTransactionAmount(ctx context.Context, id primitive.ObjectID, amount decimal.Decimal) (core.Transaction, error) {
	value, err := toDecimal128(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	var doc transactionDoc
	err = s.transactions.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"amount": value}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return core.Transaction{}, translate(err, "update transaction amount "+id.Hex())
	}
	return doc.core()
}

func (s *Store) DeleteTransaction(ctx context.Context, id primitive.ObjectID) (core.Transaction, error) {
	var doc transactionDoc
	if err := s.transactions.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return core.Transaction{}, translate(err, "delete transaction "+id.Hex())
	}
	return doc.core()
}

func (s *Store) ListTransactions(ctx context.Context, q core.TransactionQuery) ([]core.Transaction, int, error) {
	filter := transactionFilter(q)

	total, err := s.transactions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err, "count transactions")
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(max(q.Offset, 0)))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := s.transactions.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err, "list transactions")
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, translate(err, "decode transactions")
	}

	items := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		t, err := d.core()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, int(total), nil
}

func transactionFilter(q core.TransactionQuery) bson.M {
	filter := bson.M{}
	if q.ByStudents {
		ids := q.StudentIDs
		if ids == nil {
			ids = []string{}
		}
		filter["studentID"] = bson.M{"$in": ids}
	}
	if q.CategoryID != nil {
		filter["categoryID"] = *q.CategoryID
	}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}
	created := bson.M{}
	if !q.From.IsZero() {
		created["$gte"] = q.From.UTC()
	}
	if !q.To.IsZero() {
		created["$lt"] = q.To.UTC()
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	return filter
}

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.users.InsertOne(ctx, fromUser(u))
	return translate(err, "insert user "+u.Email)
}

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	return doc.core(), translate(err, "get user "+id.Hex())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	return doc.core(), translate(err, "get user "+email)
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) error {
	res, err := s.users.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"email": u.Email, "passwordHash": u.PasswordHash}})
	if err != nil {
		return translate(err, "update user "+u.ID.Hex())
	}
	return requireMatched(res, "update user "+u.ID.Hex())
}
