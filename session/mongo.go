package session

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps sessions in a collection with a TTL index on expiresAt.
type MongoStore struct {
	col *mongo.Collection
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Save(ctx context.Context, id, userID string, ttl time.Duration) error {
	doc := sessionDoc{ID: id, UserID: userID, ExpiresAt: time.Now().UTC().Add(ttl)}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Load(ctx context.Context, id string) (string, error) {
	// The TTL monitor runs about once a minute, so expiry is checked here too.
	filter := bson.M{"_id": id, "expiresAt": bson.M{"$gt": time.Now().UTC()}}

	var doc sessionDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrNotFound
		}
		return "", err
	}
	return doc.UserID, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
