package walletRepo

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

const (
	settlementsCollection = "settlement_requests"
	withdrawalsCollection = "withdrawal_requests"
)

// MongoRequestRepo implements RequestRepository.
type MongoRequestRepo struct {
	settlements *mongo.Collection
	withdrawals *mongo.Collection
}

func NewMongoRequestRepo() *MongoRequestRepo {
	return &MongoRequestRepo{
		settlements: database.Collection(settlementsCollection),
		withdrawals: database.Collection(withdrawalsCollection),
	}
}

func (r *MongoRequestRepo) CreateSettlement(ctx context.Context, req *models.SettlementRequest) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.settlements.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create settlement request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetSettlement(ctx context.Context, id string) (*models.SettlementRequest, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var req models.SettlementRequest
	err := r.settlements.FindOne(ctx, bson.M{"id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settlement request %s: %w", id, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) HasPendingSettlement(ctx context.Context, providerID string) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "status": models.RequestPending}
	n, err := r.settlements.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to count pending settlements for provider %s: %w", providerID, err)
	}
	return n > 0, nil
}

// FinalizeSettlement writes the processed request back, guarded on the stored
// copy still being pending.
func (r *MongoRequestRepo) FinalizeSettlement(ctx context.Context, req *models.SettlementRequest) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": req.ID, "status": models.RequestPending}
	res, err := r.settlements.ReplaceOne(ctx, filter, req)
	if err != nil {
		return fmt.Errorf("failed to finalize settlement request %s: %w", req.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (r *MongoRequestRepo) ListSettlements(ctx context.Context, status models.RequestStatus) ([]models.SettlementRequest, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cur, err := r.settlements.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement requests: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.SettlementRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode settlement requests: %w", err)
	}
	return out, nil
}

func (r *MongoRequestRepo) CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.withdrawals.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var req models.WithdrawalRequest
	err := r.withdrawals.FindOne(ctx, bson.M{"id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch withdrawal request %s: %w", id, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) SumPendingWithdrawals(ctx context.Context, providerID string) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"providerId": providerID, "status": models.RequestPending}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cur, err := r.withdrawals.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pending withdrawals for provider %s: %w", providerID, err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode pending withdrawal sum: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (r *MongoRequestRepo) FinalizeWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": req.ID, "status": models.RequestPending}
	res, err := r.withdrawals.ReplaceOne(ctx, filter, req)
	if err != nil {
		return fmt.Errorf("failed to finalize withdrawal request %s: %w", req.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoMatch
	}
	return nil
}

func (r *MongoRequestRepo) ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]models.WithdrawalRequest, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cur, err := r.withdrawals.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.WithdrawalRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawal requests: %w", err)
	}
	return out, nil
}
