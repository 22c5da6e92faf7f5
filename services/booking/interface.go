package booking

import (
	"context"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"

	"go.uber.org/zap"
)

// Actor is the authenticated party invoking an operation.
type Actor struct {
	Role models.ActorRole
	ID   string
}

// CreateBookingRequest carries the customer's booking input. Amounts are in
// currency minor units.
type CreateBookingRequest struct {
	CustomerID      string
	ServiceCategory string
	Location        models.GeoPoint
	Address         string
	Description     string
	PaymentMethod   string
	BasePrice       int64
	Discount        int64
	Tax             int64
	VisitingCharge  int64
}

// BookingService manages the full booking lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, id string, actor Actor) (*models.Booking, error)
	ListBookings(ctx context.Context, actor Actor) ([]models.Booking, error)

	Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	Reject(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	AssignWorker(ctx context.Context, bookingID, providerID, workerID string) (*models.Booking, error)

	StartJourney(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error)
	VerifyVisit(ctx context.Context, bookingID string, actor Actor, code string) (*models.Booking, error)
	StartWork(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error)
	MarkWorkDone(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error)
	CollectCash(ctx context.Context, bookingID string, actor Actor, code string) (*models.Booking, error)
	CompleteOnline(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string, actor Actor, reason string) (*models.Booking, error)

	PromoteWave(ctx context.Context, bookingID string, expectWave int) error
}

// CashCollector is the wallet surface the booking flow needs: the ledger
// effects at the cash-collection and completion boundaries, and the
// suspension state gating new cash jobs.
type CashCollector interface {
	RecordCashCollection(ctx context.Context, providerID, bookingID string, amount int64) error
	CreditJobEarnings(ctx context.Context, providerID, bookingID string) error
	IsProviderBlocked(ctx context.Context, providerID string) (bool, error)
}

// AttemptGuard tracks failed verification-code attempts per booking so a
// brute-forced OTP locks the booking out for a cooling-off window.
type AttemptGuard interface {
	Failures(ctx context.Context, bookingID string) (int64, error)
	RecordFailure(ctx context.Context, bookingID string) error
	Reset(ctx context.Context, bookingID string) error
}

// Announcer delivers fire-and-forget notifications; failures never propagate.
type Announcer interface {
	Notify(ctx context.Context, target models.NotifyTarget, msg models.NotifyMessage)
}

// WaveScheduler enqueues a deferred wave-promotion check.
type WaveScheduler interface {
	ScheduleWavePromotion(ctx context.Context, bookingID string, wave int, delay time.Duration) error
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo       bookingRepo.BookingRepository
	Dispatch   DispatchEngine
	Wallet     CashCollector
	Notify     Announcer
	Scheduler  WaveScheduler
	Attempts   AttemptGuard
	Logger     *zap.Logger
	WaveSize   int
	WaveExpiry time.Duration

	// MaxCodeAttempts caps failed code presentations per booking; zero
	// disables the guard.
	MaxCodeAttempts int
}
