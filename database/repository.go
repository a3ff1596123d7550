package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// ListOptions narrows a List call. Filter holds equality matches only;
// a filter on an array field matches when the array contains the value.
type ListOptions struct {
	Filter map[string]any
	Oldest bool // sort by createdAt ascending instead of newest first
	Limit  int64
	Skip   int64
}

// Repository is the document-store surface the handlers depend on.
type Repository[T any] interface {
	List(ctx context.Context, opts ListOptions) ([]T, error)
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error)
	FindOne(ctx context.Context, field string, value any) (*T, error)
	Count(ctx context.Context, field string, value any) (int64, error)
	Create(ctx context.Context, doc *T) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*T, error)
	DeleteMany(ctx context.Context, field string, value any) (int64, error)
	AddToSet(ctx context.Context, id primitive.ObjectID, field string, value any) error
	Pull(ctx context.Context, id primitive.ObjectID, field string, value any) error
	Increment(ctx context.Context, id primitive.ObjectID, field string, n int64) (*T, error)
}

type stamper interface {
	Stamp(now time.Time)
}

// Collection is the MongoDB Repository implementation.
type Collection[T any] struct {
	col *mongo.Collection
}

func NewCollection[T any](col *mongo.Collection) *Collection[T] {
	return &Collection[T]{col: col}
}

// wrapError maps driver errors onto the package sentinels.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func toFilter(m map[string]any) bson.D {
	filter := bson.D{}
	for k, v := range m {
		filter = append(filter, bson.E{Key: k, Value: v})
	}
	return filter
}

func (c *Collection[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	order := -1
	if opts.Oldest {
		order = 1
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}, {Key: "_id", Value: order}})
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	cursor, err := c.col.Find(ctx, toFilter(opts.Filter), findOpts)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collection[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, "_id", id)
}

func (c *Collection[T]) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	results := []T{}
	if len(ids) == 0 {
		return results, nil
	}
	cursor, err := c.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, field string, value any) (*T, error) {
	var doc T
	if err := c.col.FindOne(ctx, bson.D{{Key: field, Value: value}}).Decode(&doc); err != nil {
		return nil, wrapError(err)
	}
	return &doc, nil
}

func (c *Collection[T]) Count(ctx context.Context, field string, value any) (int64, error) {
	n, err := c.col.CountDocuments(ctx, bson.D{{Key: field, Value: value}})
	return n, wrapError(err)
}

func (c *Collection[T]) Create(ctx context.Context, doc *T) error {
	if s, ok := any(doc).(stamper); ok {
		s.Stamp(time.Now().UTC())
	}
	_, err := c.col.InsertOne(ctx, doc)
	return wrapError(err)
}

// Update merges set into the document and returns the result.
func (c *Collection[T]) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error) {
	fields := bson.M{}
	for k, v := range set {
		fields[k] = v
	}
	fields["updatedAt"] = time.Now().UTC()

	return c.findOneAndUpdate(ctx, id, bson.M{"$set": fields})
}

func (c *Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	if err := c.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, wrapError(err)
	}
	return &doc, nil
}

func (c *Collection[T]) DeleteMany(ctx context.Context, field string, value any) (int64, error) {
	res, err := c.col.DeleteMany(ctx, bson.D{{Key: field, Value: value}})
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

func (c *Collection[T]) AddToSet(ctx context.Context, id primitive.ObjectID, field string, value any) error {
	return c.updateOne(ctx, id, bson.M{"$addToSet": bson.M{field: value}})
}

func (c *Collection[T]) Pull(ctx context.Context, id primitive.ObjectID, field string, value any) error {
	return c.updateOne(ctx, id, bson.M{"$pull": bson.M{field: value}})
}

func (c *Collection[T]) Increment(ctx context.Context, id primitive.ObjectID, field string, n int64) (*T, error) {
	return c.findOneAndUpdate(ctx, id, bson.M{"$inc": bson.M{field: n}})
}

func (c *Collection[T]) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := c.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection[T]) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	if err := c.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return nil, wrapError(err)
	}
	return &doc, nil
}

var _ Repository[struct{}] = (*Collection[struct{}])(nil)
