package scraper

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/newsgrid/article-analyzer/internal/config"
	"github.com/newsgrid/article-analyzer/internal/log"
)

// Repository fetches raw scraped documents from the scraper's MongoDB.
type Repository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *log.Logger
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, cfg *config.MongoConfig, logger *log.Logger) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	return &Repository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		log:        logger,
	}, nil
}

// ArticleBatch fetches the documents matching the given ids and renders each
// as JSON in the same shape the article stream carries, so both consumer
// modes share one parser. Ids without a stored document are skipped; the
// scraper may have pruned them already.
func (r *Repository) ArticleBatch(ctx context.Context, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	payloads := make([][]byte, 0, len(ids))
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode article document: %w", err)
		}

		// The stream payload carries the id in an "id" field, the store
		// keys it as _id.
		if _, ok := doc["id"]; !ok {
			if id, ok := doc["_id"]; ok {
				doc["id"] = id
			}
		}
		delete(doc, "_id")

		raw, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return nil, fmt.Errorf("failed to render article document: %w", err)
		}
		payloads = append(payloads, raw)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("article fetch interrupted: %w", err)
	}

	if len(payloads) < len(ids) {
		r.log.Warn("Fetched %d of %d notified articles", len(payloads), len(ids))
	}
	return payloads, nil
}

// Close disconnects from MongoDB.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
