package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultWalletService) GetWallet(ctx context.Context, providerID string) (*models.ProviderWallet, error) {
	return s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
}

func (s *DefaultWalletService) ListTransactions(ctx context.Context, providerID string, limit int64) ([]models.Transaction, error) {
	return s.Transactions.ListByProvider(ctx, providerID, limit)
}

func (s *DefaultWalletService) IsProviderBlocked(ctx context.Context, providerID string) (bool, error) {
	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return false, err
	}
	return w.IsBlocked, nil
}

// RecordCashCollection applies the cash handover for a booking as one unit:
// dues go up by the collected amount, the provider is credited the job
// earnings, one transaction is appended per effect, and the auto-block rule
// is evaluated before the lock is released. Both balance effects are keyed by
// booking id, so a retried call is a no-op.
func (s *DefaultWalletService) RecordCashCollection(ctx context.Context, providerID, bookingID string, amount int64) error {
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	b, err := s.eligibleBooking(ctx, providerID, bookingID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return err
	}

	cashWon, err := s.Bookings.MarkCashRecorded(ctx, bookingID)
	if err != nil {
		return err
	}
	earningsWon, err := s.Bookings.MarkEarningsCredited(ctx, bookingID)
	if err != nil {
		if cashWon {
			s.rollbackFlag(ctx, bookingID, s.Bookings.ClearCashRecorded)
		}
		return err
	}
	if !cashWon && !earningsWon {
		return nil // fully recorded by an earlier call
	}

	if cashWon {
		w.Dues += amount
	}
	if earningsWon {
		w.Earnings += b.Pricing.ProviderEarnings
	}

	blocked := false
	if w.OverLimit() && !w.IsBlocked {
		now := time.Now()
		w.IsBlocked = true
		w.BlockedAt = &now
		w.BlockReason = fmt.Sprintf("dues %d exceeded cash limit %d", w.Dues, w.CashLimit)
		blocked = true
	}

	// The wallet save is the commit point. A failed save rolls the claimed
	// flags back so a retry can reapply the whole unit.
	if err := s.Wallets.Save(ctx, w); err != nil {
		if cashWon {
			s.rollbackFlag(ctx, bookingID, s.Bookings.ClearCashRecorded)
		}
		if earningsWon {
			s.rollbackFlag(ctx, bookingID, s.Bookings.ClearEarningsCredited)
		}
		return err
	}

	if cashWon {
		s.appendTransaction(ctx, &models.Transaction{
			ProviderID:  providerID,
			CustomerID:  b.CustomerID,
			BookingID:   bookingID,
			Type:        models.TxnCashCollected,
			Amount:      amount,
			Status:      models.TxnStatusCompleted,
			Description: fmt.Sprintf("Cash collected for booking %s", b.BookingNo),
		})
	}
	if earningsWon {
		s.appendTransaction(ctx, &models.Transaction{
			ProviderID:  providerID,
			BookingID:   bookingID,
			Type:        models.TxnEarningsCredit,
			Amount:      b.Pricing.ProviderEarnings,
			Status:      models.TxnStatusCompleted,
			Description: fmt.Sprintf("Earnings for booking %s", b.BookingNo),
			Metadata:    map[string]string{"commission": fmt.Sprint(b.Pricing.PlatformCommission)},
		})
	}

	if blocked {
		s.Logger.Warn("provider auto-blocked over cash limit",
			zap.String("providerId", providerID),
			zap.Int64("dues", w.Dues),
			zap.Int64("cashLimit", w.CashLimit))
		s.alertOps("provider_auto_blocked", providerID, map[string]string{
			"dues":      fmt.Sprint(w.Dues),
			"cashLimit": fmt.Sprint(w.CashLimit),
		})
	}
	return nil
}

// CreditJobEarnings credits the stored earnings snapshot for an online-paid
// booking. No cash was collected, so dues are untouched.
func (s *DefaultWalletService) CreditJobEarnings(ctx context.Context, providerID, bookingID string) error {
	b, err := s.eligibleBooking(ctx, providerID, bookingID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return err
	}

	won, err := s.Bookings.MarkEarningsCredited(ctx, bookingID)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	w.Earnings += b.Pricing.ProviderEarnings
	if err := s.Wallets.Save(ctx, w); err != nil {
		s.rollbackFlag(ctx, bookingID, s.Bookings.ClearEarningsCredited)
		return err
	}

	s.appendTransaction(ctx, &models.Transaction{
		ProviderID:  providerID,
		BookingID:   bookingID,
		Type:        models.TxnEarningsCredit,
		Amount:      b.Pricing.ProviderEarnings,
		Status:      models.TxnStatusCompleted,
		Description: fmt.Sprintf("Earnings for booking %s", b.BookingNo),
		Metadata:    map[string]string{"commission": fmt.Sprint(b.Pricing.PlatformCommission)},
	})
	return nil
}

// rollbackFlag undoes a claimed ledger flag after a failed wallet save. A
// failed rollback leaves the booking marked without a balance movement and
// needs operator attention, so it is logged at error level.
func (s *DefaultWalletService) rollbackFlag(ctx context.Context, bookingID string, clear func(context.Context, string) error) {
	if err := clear(ctx, bookingID); err != nil {
		s.Logger.Error("failed to roll back ledger flag after save failure",
			zap.String("bookingId", bookingID),
			zap.Error(err))
	}
}

// eligibleBooking checks the booking belongs to the provider and has reached
// the payment boundary.
func (s *DefaultWalletService) eligibleBooking(ctx context.Context, providerID, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &NotEligibleError{BookingID: bookingID, Reason: "booking does not belong to this provider"}
	}
	if b.Status != models.StatusWorkDone && b.Status != models.StatusCompleted {
		return nil, &NotEligibleError{BookingID: bookingID, Reason: "work is not done yet"}
	}
	return b, nil
}

// appendTransaction writes an audit entry. Ledger entries are best-effort
// relative to the balance write: a failed append is logged loudly but does
// not roll back the money movement, matching the append-only contract.
func (s *DefaultWalletService) appendTransaction(ctx context.Context, t *models.Transaction) {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now()
	if err := s.Transactions.Append(ctx, t); err != nil {
		s.Logger.Error("failed to append ledger transaction",
			zap.String("providerId", t.ProviderID),
			zap.String("bookingId", t.BookingID),
			zap.String("type", string(t.Type)),
			zap.Error(err))
	}
}

func (s *DefaultWalletService) alertOps(msgType, providerID string, data map[string]string) {
	if s.Alerter == nil {
		return
	}
	payload := map[string]string{"providerId": providerID}
	for k, v := range data {
		payload[k] = v
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Alerter.Notify(ctx, models.NotifyTarget{Role: models.RoleAdmin, ID: "ops"}, models.NotifyMessage{
			Type:  msgType,
			Title: "Provider ledger alert",
			Body:  fmt.Sprintf("%s for provider %s", msgType, providerID),
			Data:  payload,
		})
	}()
}

// BlockProvider is the operator-initiated manual suspension. Balances are
// untouched.
func (s *DefaultWalletService) BlockProvider(ctx context.Context, providerID, operatorID, reason string) (*models.ProviderWallet, error) {
	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	w.IsBlocked = true
	w.BlockedAt = &now
	if reason == "" {
		reason = "manually blocked"
	}
	w.BlockReason = fmt.Sprintf("%s (by %s)", reason, operatorID)
	if err := s.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *DefaultWalletService) UnblockProvider(ctx context.Context, providerID, operatorID string) (*models.ProviderWallet, error) {
	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	w.IsBlocked = false
	w.BlockedAt = nil
	w.BlockReason = ""
	if err := s.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	s.Logger.Info("provider manually unblocked",
		zap.String("providerId", providerID),
		zap.String("operatorId", operatorID))
	return w, nil
}

// SetCashLimit updates the dues ceiling. An existing block is not lifted
// here; the unblock rule runs on the next settlement, or an operator
// unblocks manually.
func (s *DefaultWalletService) SetCashLimit(ctx context.Context, providerID, operatorID string, limit int64) (*models.ProviderWallet, error) {
	if limit < 0 {
		return nil, &ValidationError{Field: "cashLimit", Reason: "must not be negative"}
	}

	unlock := s.locks.Lock(providerID)
	defer unlock()

	w, err := s.Wallets.GetOrCreate(ctx, providerID, s.DefaultCashLimit)
	if err != nil {
		return nil, err
	}
	w.CashLimit = limit
	if err := s.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	s.Logger.Info("provider cash limit updated",
		zap.String("providerId", providerID),
		zap.String("operatorId", operatorID),
		zap.Int64("cashLimit", limit))
	return w, nil
}
