package bookingRepo

import (
	"context"
	"errors"
	"time"

	"fixserv/models"
)

// ErrNoMatch is returned by conditional updates whose precondition did not
// hold at write time. Callers decide whether that means "not found",
// "already claimed" or "invalid transition" by re-reading the document.
var ErrNoMatch = errors.New("no booking matched the update precondition")

// ErrNotFound is returned when a booking does not exist.
var ErrNotFound = errors.New("booking not found")

// BookingRepository defines the interface for booking data access. Every
// status-changing method is a compare-and-set: the filter carries the
// expected current state so concurrent writers resolve to one winner.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)

	// Claim exclusively assigns the booking to a provider. The precondition
	// is "status in from, no provider set".
	Claim(ctx context.Context, id, providerID string, from []models.BookingStatus, at time.Time) (*models.Booking, error)

	// Transition applies a guarded status change. The milestone timestamp for
	// the target status is stamped, and verification codes are cleared when
	// the update says so.
	Transition(ctx context.Context, id string, from []models.BookingStatus, upd StatusUpdate) (*models.Booking, error)

	// RecordRejection adds a provider to the dispatch rejection set.
	RecordRejection(ctx context.Context, id, providerID string) (*models.Booking, error)

	// AdvanceWave promotes dispatch to the given wave, replacing the notified
	// set. The precondition is "still unclaimed and dispatch.wave == fromWave".
	AdvanceWave(ctx context.Context, id string, fromWave, wave int, notified []string, at time.Time) (*models.Booking, error)

	// MarkEarningsCredited / MarkCashRecorded flip write-once ledger flags.
	// They report whether this call won the flip, so a retried cash-collection
	// cannot double-credit.
	MarkEarningsCredited(ctx context.Context, id string) (bool, error)
	MarkCashRecorded(ctx context.Context, id string) (bool, error)

	// ClearEarningsCredited / ClearCashRecorded roll a won flip back when the
	// balance write it claimed could not be committed, so a retry can reapply
	// the effect.
	ClearEarningsCredited(ctx context.Context, id string) error
	ClearCashRecorded(ctx context.Context, id string) error

	// SetPaymentResult records the opaque gateway outcome.
	SetPaymentResult(ctx context.Context, id, status, ref string) error
}

// StatusUpdate carries the optional effects applied together with a status
// transition.
type StatusUpdate struct {
	To               models.BookingStatus
	At               time.Time
	Assignment       *models.WorkerAssignment
	ClearVisitCode   bool
	ClearPaymentCode bool
	CancelReason     string
}
