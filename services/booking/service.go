package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"
	"fixserv/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const verificationCodeLength = 6

// CreateBooking creates the booking record, computes the pricing snapshot and
// dispatches the first wave of nearby providers. An empty candidate list is
// not an error: the booking stays in SEARCHING for support to resolve.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if req.CustomerID == "" {
		return nil, &ValidationError{Field: "customerId", Reason: "required"}
	}
	if req.ServiceCategory == "" {
		return nil, &ValidationError{Field: "serviceCategory", Reason: "required"}
	}
	if req.PaymentMethod != "cash" && req.PaymentMethod != "card" {
		return nil, &ValidationError{Field: "paymentMethod", Reason: "must be cash or card"}
	}
	if len(req.Location.Coordinates) < 2 {
		return nil, &ValidationError{Field: "location", Reason: "coordinates required"}
	}

	pricing, err := BuildPricing(req.BasePrice, req.Discount, req.Tax, req.VisitingCharge, CurrentRates())
	if err != nil {
		return nil, err
	}

	visitCode, err := utils.GenerateVerificationCode(verificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate visit code: %w", err)
	}
	paymentCode, err := utils.GenerateVerificationCode(verificationCodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment code: %w", err)
	}

	candidates, err := s.Dispatch.RankCandidates(ctx, req.ServiceCategory, req.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to rank candidate providers: %w", err)
	}

	now := time.Now()
	b := &models.Booking{
		ID:              uuid.New().String(),
		BookingNo:       newBookingNo(now),
		CustomerID:      req.CustomerID,
		Assignment:      models.WorkerAssignment{Mode: models.AssignmentUnassigned},
		ServiceCategory: req.ServiceCategory,
		Location:        req.Location,
		Address:         req.Address,
		Description:     req.Description,
		Status:          models.StatusSearching,
		Pricing:         pricing,
		Dispatch: models.DispatchState{
			Candidates:    candidates,
			Wave:          0,
			WaveStartedAt: now,
			Notified:      []string{},
		},
		PaymentMethod: req.PaymentMethod,
		VisitCode:     visitCode,
		PaymentCode:   paymentCode,
		CreatedAt:     now,
	}

	if err := s.Repo.Create(ctx, b); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		s.Logger.Warn("no candidate providers for booking",
			zap.String("bookingId", b.ID),
			zap.String("category", req.ServiceCategory))
		return b, nil
	}

	promoted, err := s.startNextWave(ctx, b)
	if err != nil {
		// The booking exists; the scheduler retries promotion later.
		s.Logger.Error("failed to dispatch first wave", zap.String("bookingId", b.ID), zap.Error(err))
		return b, nil
	}
	return promoted, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id string, actor Actor) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: id}
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(b, actor); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *DefaultBookingService) ListBookings(ctx context.Context, actor Actor) ([]models.Booking, error) {
	switch actor.Role {
	case models.RoleCustomer:
		return s.Repo.ListByCustomer(ctx, actor.ID)
	case models.RoleProvider:
		return s.Repo.ListByProvider(ctx, actor.ID)
	default:
		return nil, &ValidationError{Field: "role", Reason: "listing is available to customers and providers"}
	}
}

// Accept exclusively claims the booking for a provider. Exactly one of N
// concurrent acceptances wins; the rest get AlreadyClaimedError.
func (s *DefaultBookingService) Accept(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if !contains(b.Dispatch.Notified, providerID) {
		return nil, &NotPartyError{BookingID: bookingID, ActorID: providerID}
	}
	if err := ValidateTransition(bookingID, b.Status, models.StatusConfirmed, models.RoleProvider); err != nil {
		if b.ProviderID != "" {
			return nil, &AlreadyClaimedError{BookingID: bookingID, ClaimedBy: b.ProviderID}
		}
		return nil, err
	}
	if b.PaymentMethod == "cash" && s.Wallet != nil {
		blocked, err := s.Wallet.IsProviderBlocked(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check provider suspension: %w", err)
		}
		if blocked {
			return nil, &ProviderBlockedError{ProviderID: providerID}
		}
	}

	claimed, err := s.Repo.Claim(ctx, bookingID, providerID, acceptableFrom, time.Now())
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return nil, s.classifyClaimFailure(ctx, bookingID, providerID)
	}
	if err != nil {
		return nil, err
	}

	s.announce(models.NotifyTarget{Role: models.RoleCustomer, ID: claimed.CustomerID}, models.NotifyMessage{
		Type:  "booking_confirmed",
		Title: "Provider found",
		Body:  "A provider accepted your booking " + claimed.BookingNo + ".",
		Data:  map[string]string{"bookingId": claimed.ID, "providerId": providerID},
	})
	return claimed, nil
}

// classifyClaimFailure re-reads the booking to turn a missed compare-and-set
// into the right typed error.
func (s *DefaultBookingService) classifyClaimFailure(ctx context.Context, bookingID, providerID string) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return err
	}
	if b.ProviderID != "" && b.ProviderID != providerID {
		return &AlreadyClaimedError{BookingID: bookingID, ClaimedBy: b.ProviderID}
	}
	return &InvalidTransitionError{
		BookingID: bookingID,
		Current:   b.Status,
		Requested: models.StatusConfirmed,
		Role:      models.RoleProvider,
	}
}

// Reject removes a notified provider from candidacy. The booking transitions
// to REJECTED only when every ranked candidate has declined; otherwise it
// stays open for the rest of the wave.
func (s *DefaultBookingService) Reject(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if !contains(b.Dispatch.Notified, providerID) {
		return nil, &NotPartyError{BookingID: bookingID, ActorID: providerID}
	}
	if err := ValidateTransition(bookingID, b.Status, models.StatusRejected, models.RoleProvider); err != nil {
		return nil, err
	}

	b, err = s.Repo.RecordRejection(ctx, bookingID, providerID)
	if err != nil {
		return nil, err
	}

	if len(b.Dispatch.Rejected) >= len(b.Dispatch.Candidates) {
		rejected, err := s.Repo.Transition(ctx, bookingID, acceptableFrom, bookingRepo.StatusUpdate{
			To: models.StatusRejected,
			At: time.Now(),
		})
		if errors.Is(err, bookingRepo.ErrNoMatch) {
			// Someone accepted in the meantime; the rejection stands, the
			// booking does not close.
			return b, nil
		}
		if err != nil {
			return nil, err
		}
		s.announce(models.NotifyTarget{Role: models.RoleCustomer, ID: rejected.CustomerID}, models.NotifyMessage{
			Type:  "booking_rejected",
			Title: "No provider available",
			Body:  "All nearby providers declined booking " + rejected.BookingNo + ".",
			Data:  map[string]string{"bookingId": rejected.ID},
		})
		return rejected, nil
	}
	return b, nil
}

// AssignWorker moves a confirmed booking to ASSIGNED. An empty workerID means
// the provider performs the job personally.
func (s *DefaultBookingService) AssignWorker(ctx context.Context, bookingID, providerID, workerID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, &NotPartyError{BookingID: bookingID, ActorID: providerID}
	}
	if err := ValidateTransition(bookingID, b.Status, models.StatusAssigned, models.RoleProvider); err != nil {
		return nil, err
	}

	assignment := models.SelfAssignment()
	if workerID != "" {
		assignment = models.AssignedTo(workerID)
	}

	updated, err := s.Repo.Transition(ctx, bookingID, []models.BookingStatus{models.StatusConfirmed}, bookingRepo.StatusUpdate{
		To:         models.StatusAssigned,
		At:         time.Now(),
		Assignment: &assignment,
	})
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return nil, s.staleTransitionError(ctx, bookingID, models.StatusAssigned, models.RoleProvider)
	}
	if err != nil {
		return nil, err
	}

	if assignment.Mode == models.AssignmentWorker {
		s.announce(models.NotifyTarget{Role: models.RoleWorker, ID: workerID}, models.NotifyMessage{
			Type:  "job_assigned",
			Title: "New job assigned",
			Body:  "You have been assigned booking " + updated.BookingNo + ".",
			Data:  map[string]string{"bookingId": updated.ID},
		})
	}
	return updated, nil
}

// Cancel marks the booking cancelled. Allowed from any non-terminal state for
// the customer and operators; cancellation is a terminal status, never a
// delete.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID string, actor Actor, reason string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCustomer && b.CustomerID != actor.ID {
		return nil, &NotPartyError{BookingID: bookingID, ActorID: actor.ID}
	}
	if err := ValidateTransition(bookingID, b.Status, models.StatusCancelled, actor.Role); err != nil {
		return nil, err
	}

	cancelled, err := s.Repo.Transition(ctx, bookingID, []models.BookingStatus{b.Status}, bookingRepo.StatusUpdate{
		To:           models.StatusCancelled,
		At:           time.Now(),
		CancelReason: reason,
	})
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return nil, s.staleTransitionError(ctx, bookingID, models.StatusCancelled, actor.Role)
	}
	if err != nil {
		return nil, err
	}

	if cancelled.ProviderID != "" {
		s.announce(models.NotifyTarget{Role: models.RoleProvider, ID: cancelled.ProviderID}, models.NotifyMessage{
			Type:  "booking_cancelled",
			Title: "Booking cancelled",
			Body:  "Booking " + cancelled.BookingNo + " was cancelled.",
			Data:  map[string]string{"bookingId": cancelled.ID},
		})
	}
	return cancelled, nil
}

// staleTransitionError re-reads the booking to report the status that beat us.
func (s *DefaultBookingService) staleTransitionError(ctx context.Context, bookingID string, target models.BookingStatus, role models.ActorRole) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return err
	}
	return &InvalidTransitionError{BookingID: bookingID, Current: b.Status, Requested: target, Role: role}
}

func (s *DefaultBookingService) authorizeView(b *models.Booking, actor Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if b.CustomerID == actor.ID {
			return nil
		}
	case models.RoleProvider:
		if b.ProviderID == actor.ID || contains(b.Dispatch.Notified, actor.ID) {
			return nil
		}
	case models.RoleWorker:
		if b.Assignment.Mode == models.AssignmentWorker && b.Assignment.WorkerID == actor.ID {
			return nil
		}
	}
	return &NotPartyError{BookingID: b.ID, ActorID: actor.ID}
}

// announce fires a notification without blocking the request path.
func (s *DefaultBookingService) announce(target models.NotifyTarget, msg models.NotifyMessage) {
	if s.Notify == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Notify.Notify(ctx, target, msg)
	}()
}

func newBookingNo(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return "FS-" + t.Format("20060102") + "-" + suffix
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
