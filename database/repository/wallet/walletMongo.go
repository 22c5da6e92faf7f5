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
	walletsCollection      = "wallets"
	transactionsCollection = "transactions"
)

// MongoWalletRepo implements WalletRepository.
type MongoWalletRepo struct {
	coll *mongo.Collection
}

func NewMongoWalletRepo() *MongoWalletRepo {
	return &MongoWalletRepo{coll: database.Collection(walletsCollection)}
}

func newContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

func (r *MongoWalletRepo) GetOrCreate(ctx context.Context, providerID string, defaultCashLimit int64) (*models.ProviderWallet, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{"providerId": providerID}
	update := bson.M{"$setOnInsert": models.ProviderWallet{
		ProviderID: providerID,
		CashLimit:  defaultCashLimit,
		CreatedAt:  now,
		UpdatedAt:  now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var w models.ProviderWallet
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&w); err != nil {
		return nil, fmt.Errorf("failed to get or create wallet for provider %s: %w", providerID, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) Get(ctx context.Context, providerID string) (*models.ProviderWallet, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var w models.ProviderWallet
	err := r.coll.FindOne(ctx, bson.M{"providerId": providerID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet for provider %s: %w", providerID, err)
	}
	return &w, nil
}

func (r *MongoWalletRepo) Save(ctx context.Context, w *models.ProviderWallet) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	w.UpdatedAt = time.Now()
	filter := bson.M{"providerId": w.ProviderID}
	res, err := r.coll.ReplaceOne(ctx, filter, w)
	if err != nil {
		return fmt.Errorf("failed to save wallet for provider %s: %w", w.ProviderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoTransactionRepo implements TransactionRepository.
type MongoTransactionRepo struct {
	coll *mongo.Collection
}

func NewMongoTransactionRepo() *MongoTransactionRepo {
	return &MongoTransactionRepo{coll: database.Collection(transactionsCollection)}
}

func (r *MongoTransactionRepo) Append(ctx context.Context, t *models.Transaction) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

func (r *MongoTransactionRepo) ListByProvider(ctx context.Context, providerID string, limit int64) ([]models.Transaction, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{"providerId": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for provider %s: %w", providerID, err)
	}
	defer cur.Close(ctx)

	var out []models.Transaction
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return out, nil
}
