package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/clients"
	"github.com/spacesedan/wctweets/internal/models"
)

type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoSink(ctx context.Context, cfg config.SinkConfig) (*MongoSink, error) {
	client, err := clients.NewMongoClient(ctx, cfg.URI)
	if err != nil {
		return nil, err
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoSink) Clear(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("[MongoDB] failed to clear %s: %w", s.coll.Name(), err)
	}
	slog.Info("[MongoDB] Cleared collection",
		slog.String("collection", s.coll.Name()),
		slog.Int64("deleted", res.DeletedCount))
	return res.DeletedCount, nil
}

// InsertMany writes unordered, so one bad document does not stop the rest.
func (s *MongoSink) InsertMany(ctx context.Context, posts []models.CleanedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(posts))
	for i := range posts {
		docs[i] = posts[i]
	}

	res, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return len(docs) - len(bwe.WriteErrors), fmt.Errorf("[MongoDB] %d of %d documents failed: %w",
				len(bwe.WriteErrors), len(docs), err)
		}
		return 0, fmt.Errorf("[MongoDB] failed to insert documents: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (s *MongoSink) Find(ctx context.Context, fields []string) ([]models.CleanedPost, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	projection := bson.D{{Key: "_id", Value: 0}}
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("[MongoDB] find failed: %w", err)
	}
	defer cur.Close(ctx)

	posts := []models.CleanedPost{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("[MongoDB] failed to decode documents: %w", err)
	}
	for i := range posts {
		if posts[i].Hashtags == nil {
			posts[i].Hashtags = []string{}
		}
	}
	return posts, nil
}

func (s *MongoSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
