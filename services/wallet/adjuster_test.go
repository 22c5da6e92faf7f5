package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"fixserv/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWalletService(bookings *stubBookingRepo, defaultCashLimit int64) (*DefaultWalletService, *memWalletRepo, *memTxRepo, *memRequestRepo) {
	wallets := newMemWalletRepo()
	txs := &memTxRepo{}
	requests := newMemRequestRepo()
	svc := NewDefaultWalletService(wallets, txs, requests, bookings, nil, zap.NewNop(), defaultCashLimit)
	return svc, wallets, txs, requests
}

func cashBooking(id, providerID string, finalAmount, earnings int64) *models.Booking {
	return &models.Booking{
		ID:         id,
		BookingNo:  "FS-20260830-" + id,
		CustomerID: "c1",
		ProviderID: providerID,
		Status:     models.StatusWorkDone,
		Pricing: models.PricingSnapshot{
			FinalAmount:        finalAmount,
			ProviderEarnings:   earnings,
			PlatformCommission: finalAmount - earnings,
		},
		PaymentMethod: "cash",
	}
}

func TestRecordCashCollectionCreditsDuesAndEarnings(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	svc, _, txs, _ := newTestWalletService(newStubBookingRepo(b), 10000)

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Dues)
	assert.Equal(t, int64(4500), w.Earnings)
	assert.False(t, w.IsBlocked)

	assert.Len(t, txs.byType("p1", models.TxnCashCollected), 1)
	assert.Len(t, txs.byType("p1", models.TxnEarningsCredit), 1)
}

func TestRecordCashCollectionIsIdempotent(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	svc, _, txs, _ := newTestWalletService(newStubBookingRepo(b), 100000)

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))
	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))
	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Dues, "retries never double-charge dues")
	assert.Equal(t, int64(4500), w.Earnings, "retries never double-credit earnings")
	assert.Len(t, txs.byType("p1", models.TxnCashCollected), 1)
	assert.Len(t, txs.byType("p1", models.TxnEarningsCredit), 1)
}

func TestRecordCashCollectionConcurrentRetries(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(b), 100000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.RecordCashCollection(context.Background(), "p1", "b1", 5000)
		}()
	}
	wg.Wait()

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Dues)
	assert.Equal(t, int64(4500), w.Earnings)
}

func TestAutoBlockWhenDuesExceedLimit(t *testing.T) {
	b1 := cashBooking("b1", "p1", 8000, 7200)
	b2 := cashBooking("b2", "p1", 4000, 3600)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(b1, b2), 10000)

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 8000))
	w, _ := svc.GetWallet(context.Background(), "p1")
	assert.False(t, w.IsBlocked, "dues 8000 within limit 10000")

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b2", 4000))
	w, _ = svc.GetWallet(context.Background(), "p1")
	assert.True(t, w.IsBlocked, "dues 12000 exceed limit 10000")
	assert.NotNil(t, w.BlockedAt)
	assert.NotEmpty(t, w.BlockReason)
	assert.Equal(t, int64(12000), w.Dues)
}

func TestDuesAtExactLimitNotBlocked(t *testing.T) {
	b := cashBooking("b1", "p1", 10000, 9000)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(b), 10000)

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 10000))
	w, _ := svc.GetWallet(context.Background(), "p1")
	assert.False(t, w.IsBlocked, "block triggers strictly above the limit")
}

func TestRecordCashCollectionEligibility(t *testing.T) {
	early := cashBooking("b1", "p1", 5000, 4500)
	early.Status = models.StatusInProgress
	other := cashBooking("b2", "p2", 5000, 4500)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(early, other), 10000)

	var notEligible *NotEligibleError
	err := svc.RecordCashCollection(context.Background(), "p1", "b1", 5000)
	require.ErrorAs(t, err, &notEligible, "work not done yet")

	err = svc.RecordCashCollection(context.Background(), "p1", "b2", 5000)
	require.ErrorAs(t, err, &notEligible, "booking belongs to another provider")

	var notFound *NotFoundError
	err = svc.RecordCashCollection(context.Background(), "p1", "missing", 5000)
	require.ErrorAs(t, err, &notFound)

	var vErr *ValidationError
	err = svc.RecordCashCollection(context.Background(), "p1", "b1", 0)
	require.ErrorAs(t, err, &vErr)
}

func TestCreditJobEarningsOnlineBooking(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	b.PaymentMethod = "card"
	svc, _, txs, _ := newTestWalletService(newStubBookingRepo(b), 10000)

	require.NoError(t, svc.CreditJobEarnings(context.Background(), "p1", "b1"))
	require.NoError(t, svc.CreditJobEarnings(context.Background(), "p1", "b1"))

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Dues, "online payment never creates dues")
	assert.Equal(t, int64(4500), w.Earnings)
	assert.Len(t, txs.byType("p1", models.TxnEarningsCredit), 1)
}

func TestConcurrentCollectionsKeepBalancesExact(t *testing.T) {
	const n = 20
	bookings := make([]*models.Booking, 0, n)
	for i := 0; i < n; i++ {
		bookings = append(bookings, cashBooking(fmt.Sprintf("b%d", i), "p1", 100, 90))
	}
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(bookings...), 1000000)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = svc.RecordCashCollection(context.Background(), "p1", fmt.Sprintf("b%d", i), 100)
		}(i)
	}
	wg.Wait()

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(n*100), w.Dues)
	assert.Equal(t, int64(n*90), w.Earnings)
}

func TestRecordCashCollectionRetriesAfterSaveFailure(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	repo := newStubBookingRepo(b)
	svc, wallets, txs, _ := newTestWalletService(repo, 10000)

	wallets.failSaves(errors.New("primary stepped down"))
	require.Error(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))

	stored, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.False(t, stored.CashRecorded, "a failed balance write releases the ledger flags")
	assert.False(t, stored.EarningsCredited)
	assert.Empty(t, txs.byType("p1", models.TxnCashCollected), "no transaction without a committed balance")
	assert.Empty(t, txs.byType("p1", models.TxnEarningsCredit))

	wallets.failSaves(nil)
	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 5000))

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), w.Dues)
	assert.Equal(t, int64(4500), w.Earnings)
	assert.Len(t, txs.byType("p1", models.TxnCashCollected), 1)
	assert.Len(t, txs.byType("p1", models.TxnEarningsCredit), 1)
}

func TestCreditJobEarningsRetriesAfterSaveFailure(t *testing.T) {
	b := cashBooking("b1", "p1", 5000, 4500)
	b.PaymentMethod = "card"
	repo := newStubBookingRepo(b)
	svc, wallets, txs, _ := newTestWalletService(repo, 10000)

	wallets.failSaves(errors.New("primary stepped down"))
	require.Error(t, svc.CreditJobEarnings(context.Background(), "p1", "b1"))

	stored, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.False(t, stored.EarningsCredited)

	wallets.failSaves(nil)
	require.NoError(t, svc.CreditJobEarnings(context.Background(), "p1", "b1"))

	w, err := svc.GetWallet(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(4500), w.Earnings)
	assert.Len(t, txs.byType("p1", models.TxnEarningsCredit), 1)
}

func TestIsProviderBlockedReflectsWalletState(t *testing.T) {
	b := cashBooking("b1", "p1", 15000, 13500)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(b), 10000)

	blocked, err := svc.IsProviderBlocked(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, blocked, "fresh wallets start unblocked")

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 15000))

	blocked, err = svc.IsProviderBlocked(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, blocked, "dues over the limit suspend the provider")
}

func TestManualBlockUnblockAndCashLimit(t *testing.T) {
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(), 10000)

	w, err := svc.BlockProvider(context.Background(), "p1", "ops-1", "fraud review")
	require.NoError(t, err)
	assert.True(t, w.IsBlocked)
	assert.Contains(t, w.BlockReason, "fraud review")

	w, err = svc.UnblockProvider(context.Background(), "p1", "ops-1")
	require.NoError(t, err)
	assert.False(t, w.IsBlocked)
	assert.Nil(t, w.BlockedAt)
	assert.Empty(t, w.BlockReason)

	w, err = svc.SetCashLimit(context.Background(), "p1", "ops-1", 25000)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), w.CashLimit)

	var vErr *ValidationError
	_, err = svc.SetCashLimit(context.Background(), "p1", "ops-1", -1)
	require.ErrorAs(t, err, &vErr)
}

func TestRaisingCashLimitDoesNotAutoUnblock(t *testing.T) {
	b := cashBooking("b1", "p1", 15000, 13500)
	svc, _, _, _ := newTestWalletService(newStubBookingRepo(b), 10000)

	require.NoError(t, svc.RecordCashCollection(context.Background(), "p1", "b1", 15000))
	w, _ := svc.GetWallet(context.Background(), "p1")
	require.True(t, w.IsBlocked)

	w, err := svc.SetCashLimit(context.Background(), "p1", "ops-1", 50000)
	require.NoError(t, err)
	assert.True(t, w.IsBlocked, "unblock happens on settlement or manually, not on limit change")
}
