package source

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"wazecli/internal/config"
	apperrors "wazecli/internal/errors"
	"wazecli/internal/incident"
)

// MongoSource reads a single MongoDB collection
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
	cfg        config.MongoConfig
	logger     *slog.Logger
}

// OpenMongo creates a client for cfg. The driver connects lazily, so connectivity
// problems surface on Ping. The caller must Close the returned source.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	logger.InfoContext(ctx, "Connecting to MongoDB",
		slog.String("database", cfg.Database),
		slog.String("collection", cfg.Collection))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to create MongoDB client", err).
			WithContext("database", cfg.Database)
	}

	return &MongoSource{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Ping verifies the primary is reachable
func (s *MongoSource) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.NewNetworkError("failed to ping MongoDB", err)
	}
	s.logger.InfoContext(ctx, "MongoDB connection established")
	return nil
}

// Count returns the number of documents in the collection
func (s *MongoSource) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, apperrors.NewNetworkError("failed to count documents", err).
			WithContext("collection", s.cfg.Collection)
	}
	return n, nil
}

// Each streams every document of the collection through fn
func (s *MongoSource) Each(ctx context.Context, fn func(incident.Document) error) error {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return apperrors.NewNetworkError("failed to query collection", err).
			WithContext("collection", s.cfg.Collection)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return apperrors.NewParsingError("failed to decode document", err)
		}
		if err := fn(ConvertDocument(raw)); err != nil {
			return err
		}
	}

	if err := cursor.Err(); err != nil {
		return apperrors.NewNetworkError("cursor iteration failed", err)
	}
	return nil
}

// Close disconnects the client
func (s *MongoSource) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return apperrors.NewNetworkError("failed to disconnect from MongoDB", err)
	}
	s.logger.DebugContext(ctx, "MongoDB connection closed")
	return nil
}

// ConvertDocument turns a decoded BSON document into a driver-independent Document
func ConvertDocument(raw bson.M) incident.Document {
	doc := make(incident.Document, len(raw))
	for k, v := range raw {
		doc[k] = convertValue(v)
	}
	return doc
}

func convertValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case primitive.Decimal128:
		return val.String()
	case primitive.M:
		return ConvertDocument(bson.M(val))
	case map[string]any:
		return ConvertDocument(bson.M(val))
	case primitive.D:
		doc := make(incident.Document, len(val))
		for _, e := range val {
			doc[e.Key] = convertValue(e.Value)
		}
		return doc
	case primitive.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = convertValue(item)
		}
		return out
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}
