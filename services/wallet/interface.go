package wallet

import (
	"context"

	bookingRepo "fixserv/database/repository/booking"
	walletRepo "fixserv/database/repository/wallet"
	"fixserv/models"

	"go.uber.org/zap"
)

// WalletService is the single entry point for every ledger mutation. All
// balance changes run under a per-provider critical section that includes the
// auto-block evaluation.
type WalletService interface {
	GetWallet(ctx context.Context, providerID string) (*models.ProviderWallet, error)
	ListTransactions(ctx context.Context, providerID string, limit int64) ([]models.Transaction, error)

	// Cash collection and job-earnings credit, invoked by the booking flow.
	RecordCashCollection(ctx context.Context, providerID, bookingID string, amount int64) error
	CreditJobEarnings(ctx context.Context, providerID, bookingID string) error

	// IsProviderBlocked reports the suspension state so the booking flow can
	// keep blocked providers off new cash jobs.
	IsProviderBlocked(ctx context.Context, providerID string) (bool, error)

	// Provider-initiated reconciliation requests.
	CreateSettlementRequest(ctx context.Context, providerID string, amount int64) (*models.SettlementRequest, error)
	CreateWithdrawalRequest(ctx context.Context, providerID string, amount int64) (*models.WithdrawalRequest, error)

	// Operator surface. Every decision records the operator identity.
	ApproveSettlement(ctx context.Context, requestID, operatorID string) (*models.SettlementRequest, error)
	RejectSettlement(ctx context.Context, requestID, operatorID, reason string) (*models.SettlementRequest, error)
	ApproveWithdrawal(ctx context.Context, requestID, operatorID string, tdsRate float64) (*models.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, requestID, operatorID, reason string) (*models.WithdrawalRequest, error)
	ListSettlements(ctx context.Context, status models.RequestStatus) ([]models.SettlementRequest, error)
	ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]models.WithdrawalRequest, error)

	// Manual suspension; never touches balances.
	BlockProvider(ctx context.Context, providerID, operatorID, reason string) (*models.ProviderWallet, error)
	UnblockProvider(ctx context.Context, providerID, operatorID string) (*models.ProviderWallet, error)
	SetCashLimit(ctx context.Context, providerID, operatorID string, limit int64) (*models.ProviderWallet, error)
}

// OpsAlerter signals operators about automatic suspensions; delivery is
// best-effort and never blocks the ledger write.
type OpsAlerter interface {
	Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage)
}

// DefaultWalletService implements WalletService.
type DefaultWalletService struct {
	Wallets          walletRepo.WalletRepository
	Transactions     walletRepo.TransactionRepository
	Requests         walletRepo.RequestRepository
	Bookings         bookingRepo.BookingRepository
	Alerter          OpsAlerter
	Logger           *zap.Logger
	DefaultCashLimit int64

	locks *providerLocks
}

func NewDefaultWalletService(
	wallets walletRepo.WalletRepository,
	transactions walletRepo.TransactionRepository,
	requests walletRepo.RequestRepository,
	bookings bookingRepo.BookingRepository,
	alerter OpsAlerter,
	logger *zap.Logger,
	defaultCashLimit int64,
) *DefaultWalletService {
	return &DefaultWalletService{
		Wallets:          wallets,
		Transactions:     transactions,
		Requests:         requests,
		Bookings:         bookings,
		Alerter:          alerter,
		Logger:           logger,
		DefaultCashLimit: defaultCashLimit,
		locks:            newProviderLocks(),
	}
}
