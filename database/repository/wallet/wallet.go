package walletRepo

import (
	"context"
	"errors"

	"fixserv/models"
)

// ErrNotFound is returned when a wallet, request or transaction is absent.
var ErrNotFound = errors.New("record not found")

// ErrNoMatch is returned by conditional updates whose precondition failed,
// e.g. approving a request that is no longer pending.
var ErrNoMatch = errors.New("no record matched the update precondition")

// WalletRepository is the persistence boundary of the ledger store. Callers
// (the wallet adjuster) serialize access per provider; the repository itself
// only guarantees that each write is atomic.
type WalletRepository interface {
	GetOrCreate(ctx context.Context, providerID string, defaultCashLimit int64) (*models.ProviderWallet, error)
	Get(ctx context.Context, providerID string) (*models.ProviderWallet, error)
	Save(ctx context.Context, w *models.ProviderWallet) error
}

// TransactionRepository is the append-only ledger log. There is deliberately
// no update or delete.
type TransactionRepository interface {
	Append(ctx context.Context, t *models.Transaction) error
	ListByProvider(ctx context.Context, providerID string, limit int64) ([]models.Transaction, error)
}

// RequestRepository stores settlement and withdrawal requests. Finalize
// methods are compare-and-set on status "pending".
type RequestRepository interface {
	CreateSettlement(ctx context.Context, r *models.SettlementRequest) error
	GetSettlement(ctx context.Context, id string) (*models.SettlementRequest, error)
	HasPendingSettlement(ctx context.Context, providerID string) (bool, error)
	FinalizeSettlement(ctx context.Context, r *models.SettlementRequest) error
	ListSettlements(ctx context.Context, status models.RequestStatus) ([]models.SettlementRequest, error)

	CreateWithdrawal(ctx context.Context, r *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	SumPendingWithdrawals(ctx context.Context, providerID string) (int64, error)
	FinalizeWithdrawal(ctx context.Context, r *models.WithdrawalRequest) error
	ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]models.WithdrawalRequest, error)
}
