package repository

import (
	"context"
	"fmt"
	"time"

	"marketboard-updater/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBMarketRepository implements MarketRepository for MongoDB.
type MongoDBMarketRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBMarketRepository creates a new MongoDB market repository.
func NewMongoDBMarketRepository(uri, dbName, collectionName string) (*MongoDBMarketRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	collection := client.Database(dbName).Collection(collectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "server", Value: 1}, {Key: "item", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoDBMarketRepository{
		client:     client,
		collection: collection,
	}, nil
}

// Get returns the stored record, or nil when none exists yet.
func (r *MongoDBMarketRepository) Get(ctx context.Context, serverID, itemID int) (*model.MarketRecord, error) {
	filter := bson.M{"server": serverID, "item": itemID}

	var rec model.MarketRecord
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market record: %w", err)
	}
	return &rec, nil
}

// Set persists a record, replacing any previous document.
func (r *MongoDBMarketRepository) Set(ctx context.Context, rec *model.MarketRecord) error {
	filter := bson.M{"server": rec.ServerID, "item": rec.ItemID}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, rec, opts); err != nil {
		return fmt.Errorf("failed to set market record: %w", err)
	}
	return nil
}

// Summary returns an aggregate operational view of the store.
func (r *MongoDBMarketRepository) Summary(ctx context.Context) (map[string]interface{}, error) {
	summary := make(map[string]interface{})

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	summary["total_records"] = count

	findOptions := options.FindOne().SetSort(bson.D{{Key: "updated", Value: -1}})
	var latest model.MarketRecord
	if err := r.collection.FindOne(ctx, bson.M{}, findOptions).Decode(&latest); err == nil {
		summary["last_updated"] = latest.Updated
	}

	return summary, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBMarketRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ensure MongoDBMarketRepository implements MarketRepository
var _ MarketRepository = (*MongoDBMarketRepository)(nil)
