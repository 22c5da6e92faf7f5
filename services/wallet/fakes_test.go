package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	walletRepo "fixserv/database/repository/wallet"
	"fixserv/models"
)

type memWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]*models.ProviderWallet
	saveErr error
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[string]*models.ProviderWallet)}
}

func (r *memWalletRepo) GetOrCreate(ctx context.Context, providerID string, defaultCashLimit int64) (*models.ProviderWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[providerID]
	if !ok {
		w = &models.ProviderWallet{
			ProviderID: providerID,
			CashLimit:  defaultCashLimit,
			CreatedAt:  time.Now(),
		}
		r.wallets[providerID] = w
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Get(ctx context.Context, providerID string) (*models.ProviderWallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[providerID]
	if !ok {
		return nil, walletRepo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) Save(ctx context.Context, w *models.ProviderWallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *w
	r.wallets[w.ProviderID] = &cp
	return nil
}

func (r *memWalletRepo) failSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

type memTxRepo struct {
	mu  sync.Mutex
	txs []models.Transaction
}

func (r *memTxRepo) Append(ctx context.Context, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, *t)
	return nil
}

func (r *memTxRepo) ListByProvider(ctx context.Context, providerID string, limit int64) ([]models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for i := len(r.txs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.txs[i].ProviderID == providerID {
			out = append(out, r.txs[i])
		}
	}
	return out, nil
}

func (r *memTxRepo) byType(providerID string, typ models.TransactionType) []models.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Transaction
	for _, t := range r.txs {
		if t.ProviderID == providerID && t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

type memRequestRepo struct {
	mu          sync.Mutex
	settlements map[string]*models.SettlementRequest
	withdrawals map[string]*models.WithdrawalRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{
		settlements: make(map[string]*models.SettlementRequest),
		withdrawals: make(map[string]*models.WithdrawalRequest),
	}
}

func (r *memRequestRepo) CreateSettlement(ctx context.Context, req *models.SettlementRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.settlements[req.ID] = &cp
	return nil
}

func (r *memRequestRepo) GetSettlement(ctx context.Context, id string) (*models.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.settlements[id]
	if !ok {
		return nil, walletRepo.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memRequestRepo) HasPendingSettlement(ctx context.Context, providerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.settlements {
		if req.ProviderID == providerID && req.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRequestRepo) FinalizeSettlement(ctx context.Context, req *models.SettlementRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.settlements[req.ID]
	if !ok || stored.Status != models.RequestPending {
		return walletRepo.ErrNoMatch
	}
	cp := *req
	r.settlements[req.ID] = &cp
	return nil
}

func (r *memRequestRepo) ListSettlements(ctx context.Context, status models.RequestStatus) ([]models.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SettlementRequest
	for _, req := range r.settlements {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *memRequestRepo) CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.withdrawals[req.ID] = &cp
	return nil
}

func (r *memRequestRepo) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.withdrawals[id]
	if !ok {
		return nil, walletRepo.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memRequestRepo) SumPendingWithdrawals(ctx context.Context, providerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, req := range r.withdrawals {
		if req.ProviderID == providerID && req.Status == models.RequestPending {
			sum += req.Amount
		}
	}
	return sum, nil
}

func (r *memRequestRepo) FinalizeWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.withdrawals[req.ID]
	if !ok || stored.Status != models.RequestPending {
		return walletRepo.ErrNoMatch
	}
	cp := *req
	r.withdrawals[req.ID] = &cp
	return nil
}

func (r *memRequestRepo) ListWithdrawals(ctx context.Context, status models.RequestStatus) ([]models.WithdrawalRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WithdrawalRequest
	for _, req := range r.withdrawals {
		if req.Status == status {
			out = append(out, *req)
		}
	}
	return out, nil
}

// stubBookingRepo backs the adjuster's booking lookups and write-once ledger
// flags. The lifecycle methods the adjuster never calls just fail loudly.
type stubBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newStubBookingRepo(bookings ...*models.Booking) *stubBookingRepo {
	r := &stubBookingRepo{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		cp := *b
		r.bookings[b.ID] = &cp
	}
	return r
}

var errNotImplemented = errors.New("not implemented in stub")

func (r *stubBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBookingRepo) MarkEarningsCredited(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.EarningsCredited {
		return false, nil
	}
	b.EarningsCredited = true
	return true, nil
}

func (r *stubBookingRepo) MarkCashRecorded(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.CashRecorded {
		return false, nil
	}
	b.CashRecorded = true
	return true, nil
}

func (r *stubBookingRepo) ClearEarningsCredited(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.EarningsCredited = false
	return nil
}

func (r *stubBookingRepo) ClearCashRecorded(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.CashRecorded = false
	return nil
}

func (r *stubBookingRepo) SetPaymentResult(ctx context.Context, id, status, ref string) error {
	return errNotImplemented
}

func (r *stubBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return errNotImplemented
}

func (r *stubBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return nil, errNotImplemented
}

func (r *stubBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return nil, errNotImplemented
}

func (r *stubBookingRepo) Claim(ctx context.Context, id, providerID string, from []models.BookingStatus, at time.Time) (*models.Booking, error) {
	return nil, errNotImplemented
}

func (r *stubBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, upd bookingRepo.StatusUpdate) (*models.Booking, error) {
	return nil, errNotImplemented
}

func (r *stubBookingRepo) RecordRejection(ctx context.Context, id, providerID string) (*models.Booking, error) {
	return nil, errNotImplemented
}

func (r *stubBookingRepo) AdvanceWave(ctx context.Context, id string, fromWave, wave int, notified []string, at time.Time) (*models.Booking, error) {
	return nil, errNotImplemented
}
