// Package mongo persists expenses as documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"expensetracker/internal/core"
)

// DefaultCollection is the collection holding expense documents.
const DefaultCollection = "expenses"

// documentValidationFailure is the server code for a rejected $jsonSchema.
const documentValidationFailure = 121

// document is the stored shape. Amount is a double so that documents written
// by other clients of the collection stay readable.
type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Amount      float64            `bson:"amount"`
	Category    string             `bson:"category"`
	Description string             `bson:"description"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt   time.Time          `bson:"updatedAt,omitempty"`
}

func toDocument(e core.Expense) document {
	return document{
		Amount:      e.Amount.Float64(),
		Category:    string(e.Category),
		Description: e.Description,
		Date:        e.Date.Time,
	}
}

func (d document) expense() core.Expense {
	return core.Expense{
		ID:          d.ID.Hex(),
		Amount:      core.NewMoney(d.Amount),
		Category:    core.Category(d.Category),
		Description: d.Description,
		Date:        core.DateOf(d.Date.UTC()),
	}
}

type Options struct {
	URI        string
	Database   string
	Collection string
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, verifies the primary is reachable and ensures the list index.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, ErrNoConnection
	}
	collection := opts.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := DatabaseName(opts.URI, opts.Database)
	s := &Store{client: client, coll: client.Database(db).Collection(collection)}

	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("date_desc"),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", db, "collection", collection)
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}
	return nil
}

// List returns every document sorted by date, then by _id, both descending.
// ObjectIDs grow with insertion time, so ties come back newest first.
func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find expenses: %w", core.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode expenses: %w", core.ErrStoreUnavailable, err)
	}

	expenses := make([]core.Expense, len(docs))
	for i, d := range docs {
		expenses[i] = d.expense()
	}
	return expenses, nil
}

func (s *Store) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	doc := toDocument(e)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return core.Expense{}, classify("insert expense", err)
	}
	return doc.expense(), nil
}

// Update replaces the mutable fields of the document with the given id.
// Ids that are not valid ObjectIDs cannot exist and report core.ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, core.ErrNotFound)
	}

	doc := toDocument(e)
	update := bson.M{"$set": bson.M{
		"amount":      doc.Amount,
		"category":    doc.Category,
		"description": doc.Description,
		"date":        doc.Date,
		"updatedAt":   time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated document
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, classify("update expense "+id, err)
	}
	return updated.expense(), nil
}

// Delete removes the document with the given id. Malformed ids match nothing.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("%w: delete expense %s: %w", core.ErrStoreUnavailable, id, err)
	}
	return nil
}

// classify maps server-side document validation failures to a validation
// error and everything else to core.ErrStoreUnavailable.
func classify(op string, err error) error {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == documentValidationFailure {
				return core.NewValidationError(fmt.Errorf("%s: %s", op, e.Message))
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == documentValidationFailure {
		return core.NewValidationError(fmt.Errorf("%s: %s", op, ce.Message))
	}
	return fmt.Errorf("%w: %s: %w", core.ErrStoreUnavailable, op, err)
}
