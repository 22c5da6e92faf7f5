package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	walletRepo "fixserv/database/repository/wallet"
	"fixserv/models"
	"fixserv/services/booking"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSettlementRequest opens a provider-initiated payment of dues back to
// the platform. Only one request may be pending per provider.
func (s *DefaultWalletService) CreateSettlementRequest(ctx context.Context, providerID string, amount int64) (*models.SettlementRequest, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	if amount > w.Dues {
		return nil, &InsufficientBalanceError{ProviderID: providerID, Requested: amount, Available: w.Dues}
	}

	pending, err := s.Requests.HasPendingSettlement(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, &DuplicatePendingRequestError{ProviderID: providerID}
	}

	req := &models.SettlementRequest{
		ID:            uuid.New().String(),
		ProviderID:    providerID,
		Amount:        amount,
		BalanceBefore: w.Dues,
		Status:        models.RequestPending,
		CreatedAt:     time.Now(),
	}
	if err := s.Requests.CreateSettlement(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveSettlement applies the dues decrease and evaluates the auto-unblock
// rule in the same critical section. The clamp to zero is defense in depth;
// request creation already rejected over-dues amounts.
func (s *DefaultWalletService) ApproveSettlement(ctx context.Context, requestID, operatorID string) (*models.SettlementRequest, error) {
	req, err := s.getSettlement(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &RequestNotPendingError{RequestID: requestID, Status: string(req.Status)}
	}

	unlock := s.locks.Lock(req.ProviderID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, req.ProviderID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}

	prior := *w
	w.Dues -= req.Amount
	if w.Dues < 0 {
		w.Dues = 0
	}

	unblocked := false
	if w.IsBlocked && w.Dues <= w.CashLimit {
		w.IsBlocked = false
		w.BlockedAt = nil
		w.BlockReason = ""
		unblocked = true
	}

	// The wallet is written first, and finalizing the request commits the
	// approval. A finalize that misses its pending precondition means another
	// operator won the race, so the balance write is reverted.
	if err := s.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}

	now := time.Now()
	req.Status = models.RequestApproved
	req.ProcessedBy = operatorID
	req.ProcessedAt = &now
	req.BalanceBefore = prior.Dues
	req.BalanceAfter = w.Dues
	if err := s.Requests.FinalizeSettlement(ctx, req); err != nil {
		s.revertWallet(ctx, &prior)
		if errors.Is(err, walletRepo.ErrNoMatch) {
			return nil, &RequestNotPendingError{RequestID: requestID, Status: "processed"}
		}
		return nil, err
	}

	s.appendTransaction(ctx, &models.Transaction{
		ProviderID:  req.ProviderID,
		Type:        models.TxnSettlement,
		Amount:      -req.Amount,
		Status:      models.TxnStatusCompleted,
		Description: fmt.Sprintf("Settlement %s approved by %s", req.ID, operatorID),
		Metadata:    map[string]string{"requestId": req.ID, "processedBy": operatorID},
	})

	if unblocked {
		s.Logger.Info("provider auto-unblocked after settlement",
			zap.String("providerId", req.ProviderID),
			zap.Int64("dues", w.Dues))
	}
	return req, nil
}

func (s *DefaultWalletService) RejectSettlement(ctx context.Context, requestID, operatorID, reason string) (*models.SettlementRequest, error) {
	req, err := s.getSettlement(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &RequestNotPendingError{RequestID: requestID, Status: string(req.Status)}
	}

	now := time.Now()
	req.Status = models.RequestRejected
	req.ProcessedBy = operatorID
	req.ProcessedAt = &now
	req.RejectReason = reason
	if err := s.Requests.FinalizeSettlement(ctx, req); err != nil {
		if errors.Is(err, walletRepo.ErrNoMatch) {
			return nil, &RequestNotPendingError{RequestID: requestID, Status: "processed"}
		}
		return nil, err
	}
	return req, nil
}

// CreateWithdrawalRequest opens a payout of earnings. The amount must fit
// within earnings minus what other pending withdrawals already reserve.
func (s *DefaultWalletService) CreateWithdrawalRequest(ctx context.Context, providerID string, amount int64) (*models.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	reserved, err := s.Requests.SumPendingWithdrawals(ctx, providerID)
	if err != nil {
		return nil, err
	}
	available := w.Earnings - reserved
	if amount > available {
		return nil, &InsufficientBalanceError{ProviderID: providerID, Requested: amount, Available: available}
	}

	req := &models.WithdrawalRequest{
		ID:            uuid.New().String(),
		ProviderID:    providerID,
		Amount:        amount,
		BalanceBefore: w.Earnings,
		Status:        models.RequestPending,
		CreatedAt:     time.Now(),
	}
	if err := s.Requests.CreateWithdrawal(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveWithdrawal deducts the gross amount from earnings and records the
// payout as its accounting split: net paid out plus tax deducted at source,
// the two entries summing to the gross deduction.
func (s *DefaultWalletService) ApproveWithdrawal(ctx context.Context, requestID, operatorID string, tdsRate float64) (*models.WithdrawalRequest, error) {
	if tdsRate < 0 || tdsRate >= 100 {
		return nil, &ValidationError{Field: "tdsRate", Reason: "must be in [0, 100)"}
	}

	req, err := s.getWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &RequestNotPendingError{RequestID: requestID, Status: string(req.Status)}
	}

	unlock := s.locks.Lock(req.ProviderID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, req.ProviderID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	if w.Earnings < req.Amount {
		return nil, &InsufficientBalanceError{ProviderID: req.ProviderID, Requested: req.Amount, Available: w.Earnings}
	}

	tdsAmount := booking.RoundPercent(req.Amount, tdsRate)
	netAmount := req.Amount - tdsAmount

	prior := *w
	w.Earnings -= req.Amount

	if err := s.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}

	now := time.Now()
	req.Status = models.RequestApproved
	req.ProcessedBy = operatorID
	req.ProcessedAt = &now
	req.TDSRate = tdsRate
	req.TDSAmount = tdsAmount
	req.NetAmount = netAmount
	req.BalanceBefore = prior.Earnings
	req.BalanceAfter = w.Earnings
	if err := s.Requests.FinalizeWithdrawal(ctx, req); err != nil {
		s.revertWallet(ctx, &prior)
		if errors.Is(err, walletRepo.ErrNoMatch) {
			return nil, &RequestNotPendingError{RequestID: requestID, Status: "processed"}
		}
		return nil, err
	}

	s.appendTransaction(ctx, &models.Transaction{
		ProviderID:  req.ProviderID,
		Type:        models.TxnWithdrawal,
		Amount:      -netAmount,
		Status:      models.TxnStatusCompleted,
		Description: fmt.Sprintf("Withdrawal %s paid out by %s", req.ID, operatorID),
		Metadata:    map[string]string{"requestId": req.ID, "gross": fmt.Sprint(req.Amount), "processedBy": operatorID},
	})
	s.appendTransaction(ctx, &models.Transaction{
		ProviderID:  req.ProviderID,
		Type:        models.TxnTaxDeduction,
		Amount:      -tdsAmount,
		Status:      models.TxnStatusCompleted,
		Description: fmt.Sprintf("TDS at %.2f%% on withdrawal %s", tdsRate, req.ID),
		Metadata:    map[string]string{"requestId": req.ID},
	})
	return req, nil
}

func (s *DefaultWalletService) RejectWithdrawal(ctx context.Context, requestID, operatorID, reason string) (*models.WithdrawalRequest, error) {
	req, err := s.getWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &RequestNotPendingError{RequestID: requestID, Status: string(req.Status)}
	}

	now := time.Now()
	req.Status = models.RequestRejected
	req.ProcessedBy = operatorID
	req.ProcessedAt = &now
	req.RejectReason = reason
	if err := s.Requests.FinalizeWithdrawal(ctx, req); err != nil {
		if errors.Is(err, walletRepo.ErrNoMatch) {
			return nil, &RequestNotPendingError{RequestID: requestID, Status: "processed"}
		}
		return nil, err
	}
	return req, nil
}

func (s *DefaultWalletService) ListSettlements(ctx context.Context, status models.RequestStatus) ([]models.SettlementRequest, error) {
	return s.Requests.ListSettlements(ctx, status)
}

func (s *DefaultWalletService) ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]models.WithdrawalRequest, error) {
	return s.Requests.ListWithdrawals(ctx, status)
}

// revertWallet restores the pre-approval snapshot after a lost finalize
// race. A failed revert is logged loudly; the finalize winner's state stands
// and needs operator correction.
func (s *DefaultWalletService) revertWallet(ctx context.Context, prior *models.ProviderWallet) {
	if err := s.Wallets.Save(ctx, prior); err != nil {
		s.Logger.Error("failed to revert wallet after lost approval race",
			zap.String("providerId", prior.ProviderID),
			zap.Error(err))
	}
}

func (s *DefaultWalletService) getSettlement(ctx context.Context, id string) (*models.SettlementRequest, error) {
	req, err := s.Requests.GetSettlement(ctx, id)
	if errors.Is(err, walletRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "settlement request", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *DefaultWalletService) getWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	req, err := s.Requests.GetWithdrawal(ctx, id)
	if errors.Is(err, walletRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "withdrawal request", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}
