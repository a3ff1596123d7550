package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	ColUsers             = "users"
	ColCategories        = "categories"
	ColSubcategories     = "subcategories"
	ColArticles          = "articles"
	ColReviews           = "reviews"
	ColComparisons       = "comparisons"
	ColComments          = "comments"
	ColContacts          = "contacts"
	ColSubscribers       = "subscribers"
	ColPushSubscriptions = "push_subscriptions"
	ColSessions          = "sessions"
)

type DB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect dials MongoDB, retrying a few times before giving up.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		client, err := dial(ctx, uri)
		if err == nil {
			log.Printf("✅ MongoDB connected (db=%s)", dbName)
			return &DB{Client: client, DB: client.Database(dbName)}, nil
		}
		lastErr = err
		log.Printf("❌ MongoDB connection attempt %d failed: %v", attempt, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect mongo: %w", lastErr)
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (d *DB) Disconnect() error {
	if d == nil || d.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}

func (d *DB) Collection(name string) *mongo.Collection {
	return d.DB.Collection(name)
}

// EnsureIndexes creates the unique and lookup indexes the handlers rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	type idx struct {
		col  string
		keys bson.D
		opts *options.IndexOptions
	}

	unique := func() *options.IndexOptions { return options.Index().SetUnique(true) }
	sparseUnique := func() *options.IndexOptions { return options.Index().SetUnique(true).SetSparse(true) }

	indexes := []idx{
		{ColUsers, bson.D{{Key: "email", Value: 1}}, sparseUnique()},
		{ColUsers, bson.D{{Key: "googleId", Value: 1}}, sparseUnique()},
		{ColUsers, bson.D{{Key: "facebookId", Value: 1}}, sparseUnique()},
		{ColUsers, bson.D{{Key: "createdAt", Value: -1}}, nil},

		{ColCategories, bson.D{{Key: "slug", Value: 1}}, unique()},
		{ColSubcategories, bson.D{{Key: "slug", Value: 1}}, unique()},
		{ColSubcategories, bson.D{{Key: "parentcategory", Value: 1}}, nil},

		{ColArticles, bson.D{{Key: "slug", Value: 1}}, unique()},
		{ColArticles, bson.D{{Key: "createdAt", Value: -1}}, nil},
		{ColArticles, bson.D{{Key: "category", Value: 1}}, nil},
		{ColReviews, bson.D{{Key: "slug", Value: 1}}, unique()},
		{ColReviews, bson.D{{Key: "createdAt", Value: -1}}, nil},
		{ColReviews, bson.D{{Key: "category", Value: 1}}, nil},
		{ColComparisons, bson.D{{Key: "slug", Value: 1}}, unique()},
		{ColComparisons, bson.D{{Key: "createdAt", Value: -1}}, nil},
		{ColComparisons, bson.D{{Key: "product1", Value: 1}}, nil},
		{ColComparisons, bson.D{{Key: "product2", Value: 1}}, nil},

		{ColComments, bson.D{{Key: "postId", Value: 1}}, nil},
		{ColComments, bson.D{{Key: "userId", Value: 1}}, nil},

		{ColContacts, bson.D{{Key: "createdAt", Value: -1}}, nil},
		{ColSubscribers, bson.D{{Key: "email", Value: 1}}, unique()},
		{ColPushSubscriptions, bson.D{{Key: "endpoint", Value: 1}}, unique()},

		{ColSessions, bson.D{{Key: "expiresAt", Value: 1}}, options.Index().SetExpireAfterSeconds(0)},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys, Options: i.opts}
		if _, err := d.Collection(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}
	log.Printf("✅ MongoDB indexes ensured (%d)", len(indexes))
	return nil
}
