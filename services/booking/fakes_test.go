package booking

import (
	"context"
	"sync"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	providerRepo "fixserv/database/repository/provider"
	"fixserv/models"
)

// memBookingRepo mirrors the conditional-update semantics of the Mongo repo:
// every guarded method checks its precondition and applies the write under
// one lock, so concurrent callers resolve to a single winner.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Claim(ctx context.Context, id, providerID string, from []models.BookingStatus, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.ProviderID != "" || !statusIn(b.Status, from) {
		return nil, bookingRepo.ErrNoMatch
	}
	b.ProviderID = providerID
	b.Status = models.StatusConfirmed
	b.AcceptedAt = &at
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, upd bookingRepo.StatusUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || !statusIn(b.Status, from) {
		return nil, bookingRepo.ErrNoMatch
	}
	b.Status = upd.To
	if upd.Assignment != nil {
		b.Assignment = *upd.Assignment
	}
	if upd.ClearVisitCode {
		b.VisitCode = ""
	}
	if upd.ClearPaymentCode {
		b.PaymentCode = ""
	}
	if upd.CancelReason != "" {
		b.CancelReason = upd.CancelReason
	}
	at := upd.At
	switch upd.To {
	case models.StatusAssigned:
		b.AssignedAt = &at
	case models.StatusJourneyStarted:
		b.JourneyStartedAt = &at
	case models.StatusVisited:
		b.VisitedAt = &at
	case models.StatusWorkDone:
		b.WorkDoneAt = &at
	case models.StatusCompleted:
		b.CompletedAt = &at
	case models.StatusCancelled, models.StatusRejected:
		b.CancelledAt = &at
	}
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) RecordRejection(ctx context.Context, id, providerID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	for _, p := range b.Dispatch.Rejected {
		if p == providerID {
			cp := *b
			return &cp, nil
		}
	}
	b.Dispatch.Rejected = append(b.Dispatch.Rejected, providerID)
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) AdvanceWave(ctx context.Context, id string, fromWave, wave int, notified []string, at time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.ProviderID != "" || b.Dispatch.Wave != fromWave ||
		!statusIn(b.Status, []models.BookingStatus{models.StatusSearching, models.StatusRequested}) {
		return nil, bookingRepo.ErrNoMatch
	}
	b.Status = models.StatusRequested
	b.Dispatch.Wave = wave
	b.Dispatch.Notified = notified
	b.Dispatch.WaveStartedAt = at
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) MarkEarningsCredited(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.EarningsCredited {
		return false, nil
	}
	b.EarningsCredited = true
	return true, nil
}

func (r *memBookingRepo) MarkCashRecorded(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.CashRecorded {
		return false, nil
	}
	b.CashRecorded = true
	return true, nil
}

func (r *memBookingRepo) ClearEarningsCredited(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.EarningsCredited = false
	return nil
}

func (r *memBookingRepo) ClearCashRecorded(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.CashRecorded = false
	return nil
}

func (r *memBookingRepo) SetPaymentResult(ctx context.Context, id, status, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrNotFound
	}
	b.PaymentStatus = status
	b.PaymentRef = ref
	return nil
}

func statusIn(s models.BookingStatus, set []models.BookingStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// memProviderRepo serves a fixed provider list for dispatch ranking.
type memProviderRepo struct {
	providers []models.Provider
}

func (r *memProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	for i := range r.providers {
		if r.providers[i].ID == id {
			return &r.providers[i], nil
		}
	}
	return nil, providerRepo.ErrNotFound
}

func (r *memProviderRepo) SearchNearby(ctx context.Context, criteria providerRepo.SearchCriteria) ([]models.Provider, error) {
	var out []models.Provider
	for _, p := range r.providers {
		if p.ServesCategory(criteria.ServiceCategory) {
			out = append(out, p)
		}
	}
	return out, nil
}

// recordingWallet captures the ledger calls the booking flow makes.
type recordingWallet struct {
	mu          sync.Mutex
	cashCalls   []string
	creditCalls []string
	blocked     map[string]bool
	err         error
}

func (w *recordingWallet) RecordCashCollection(ctx context.Context, providerID, bookingID string, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.cashCalls = append(w.cashCalls, bookingID)
	return nil
}

func (w *recordingWallet) CreditJobEarnings(ctx context.Context, providerID, bookingID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.creditCalls = append(w.creditCalls, bookingID)
	return nil
}

func (w *recordingWallet) IsProviderBlocked(ctx context.Context, providerID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.blocked[providerID], nil
}

func (w *recordingWallet) setBlocked(providerID string, blocked bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.blocked == nil {
		w.blocked = make(map[string]bool)
	}
	w.blocked[providerID] = blocked
}

func (w *recordingWallet) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

// memAttemptGuard counts failed code presentations in memory.
type memAttemptGuard struct {
	mu    sync.Mutex
	fails map[string]int64
}

func newMemAttemptGuard() *memAttemptGuard {
	return &memAttemptGuard{fails: make(map[string]int64)}
}

func (g *memAttemptGuard) Failures(ctx context.Context, bookingID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fails[bookingID], nil
}

func (g *memAttemptGuard) RecordFailure(ctx context.Context, bookingID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fails[bookingID]++
	return nil
}

func (g *memAttemptGuard) Reset(ctx context.Context, bookingID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.fails, bookingID)
	return nil
}

// recordingScheduler captures deferred wave promotions.
type recordingScheduler struct {
	mu    sync.Mutex
	waves []int
}

func (s *recordingScheduler) ScheduleWavePromotion(ctx context.Context, bookingID string, wave int, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waves = append(s.waves, wave)
	return nil
}

func (s *recordingScheduler) scheduled() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.waves...)
}
