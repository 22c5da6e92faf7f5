package providerRepo

import (
	"context"
	"fmt"
	"time"

	"fixserv/database"
	"fixserv/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const providersCollection = "providers"

// MongoProviderRepo implements ProviderRepository.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo() *MongoProviderRepo {
	return &MongoProviderRepo{coll: database.Collection(providersCollection)}
}

func newContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var p models.Provider
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider %s: %w", id, err)
	}
	return &p, nil
}

// SearchNearby finds providers serving the category within the radius,
// nearest first ($near sorts by distance).
func (r *MongoProviderRepo) SearchNearby(ctx context.Context, criteria SearchCriteria) ([]models.Provider, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"serviceCategories": criteria.ServiceCategory,
		"locationGeo": bson.M{
			"$near": bson.M{
				"$geometry":    criteria.Location,
				"$maxDistance": criteria.MaxDistanceKm * 1000,
			},
		},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Provider
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return out, nil
}

// EnsureIndexes creates the geo and id indexes used by dispatch.
func (r *MongoProviderRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "locationGeo", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "serviceCategories", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}
	return nil
}
