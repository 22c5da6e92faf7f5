package booking

import (
	"context"
	"errors"
	"time"

	"fixserv/config"
	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"

	"go.uber.org/zap"
)

// StartJourney records the performer heading to the site.
func (s *DefaultBookingService) StartJourney(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	return s.advance(ctx, bookingID, actor, models.StatusJourneyStarted, []models.BookingStatus{models.StatusAssigned}, bookingRepo.StatusUpdate{})
}

// VerifyVisit is an OTP-gated transition: the performer presents the visit
// code issued to the customer. On success the status advances and the secret
// is cleared in the same write; on mismatch nothing changes.
func (s *DefaultBookingService) VerifyVisit(ctx context.Context, bookingID string, actor Actor, code string) (*models.Booking, error) {
	b, err := s.loadForMilestone(ctx, bookingID, actor, models.StatusVisited)
	if err != nil {
		return nil, err
	}
	if err := s.verifyCode(ctx, b.ID, b.VisitCode, code); err != nil {
		return nil, err
	}
	return s.applyTransition(ctx, bookingID, actor, []models.BookingStatus{models.StatusJourneyStarted}, bookingRepo.StatusUpdate{
		To:             models.StatusVisited,
		At:             time.Now(),
		ClearVisitCode: true,
	})
}

// StartWork is the optional VISITED -> IN_PROGRESS step.
func (s *DefaultBookingService) StartWork(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	return s.advance(ctx, bookingID, actor, models.StatusInProgress, []models.BookingStatus{models.StatusVisited}, bookingRepo.StatusUpdate{})
}

// MarkWorkDone records the job finished, ready for payment.
func (s *DefaultBookingService) MarkWorkDone(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	b, err := s.advance(ctx, bookingID, actor, models.StatusWorkDone,
		[]models.BookingStatus{models.StatusVisited, models.StatusInProgress}, bookingRepo.StatusUpdate{})
	if err != nil {
		return nil, err
	}
	s.announce(models.NotifyTarget{Role: models.RoleCustomer, ID: b.CustomerID}, models.NotifyMessage{
		Type:  "work_done",
		Title: "Work completed",
		Body:  "Work on booking " + b.BookingNo + " is done. Share the payment code to settle.",
		Data:  map[string]string{"bookingId": b.ID},
	})
	return b, nil
}

// CollectCash completes a cash booking. The payment code gates the handover;
// the status flips first and the wallet adjuster then records dues and
// credits earnings, so a cancellation racing the handover never leaves
// credited balances on a cancelled booking. The ledger effects are idempotent
// per booking, and a completed booking whose ledger write failed can be
// retried until it sticks.
func (s *DefaultBookingService) CollectCash(ctx context.Context, bookingID string, actor Actor, code string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if b.PaymentMethod != "cash" {
		return nil, &ValidationError{Field: "paymentMethod", Reason: "booking is not payable in cash"}
	}

	// Ledger retry: the handover already flipped the status but the wallet
	// write failed. The code was consumed by the winning transition.
	if b.Status == models.StatusCompleted && !b.CashRecorded {
		if err := s.authorizePerformer(b, actor); err != nil {
			return nil, err
		}
		if err := s.Wallet.RecordCashCollection(ctx, b.ProviderID, b.ID, b.Pricing.FinalAmount); err != nil {
			return nil, err
		}
		return b, nil
	}

	if err := ValidateTransition(bookingID, b.Status, models.StatusCompleted, actor.Role); err != nil {
		return nil, err
	}
	if err := s.authorizePerformer(b, actor); err != nil {
		return nil, err
	}
	if err := s.verifyCode(ctx, b.ID, b.PaymentCode, code); err != nil {
		return nil, err
	}

	updated, err := s.applyTransition(ctx, bookingID, actor, []models.BookingStatus{models.StatusWorkDone}, bookingRepo.StatusUpdate{
		To:               models.StatusCompleted,
		At:               time.Now(),
		ClearPaymentCode: true,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Wallet.RecordCashCollection(ctx, updated.ProviderID, updated.ID, updated.Pricing.FinalAmount); err != nil {
		return nil, err
	}
	return updated, nil
}

// CompleteOnline completes a card booking once the gateway reported success.
// The paying customer triggers it; the assigned performer may also close the
// job out. No cash changes hands, so only the earnings credit applies, and it
// runs after the status flip for the same reason as CollectCash.
func (s *DefaultBookingService) CompleteOnline(ctx context.Context, bookingID string, actor Actor) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if b.PaymentMethod != "card" {
		return nil, &ValidationError{Field: "paymentMethod", Reason: "booking is not paid online"}
	}

	// Ledger retry: completed earlier but the earnings credit failed.
	if b.Status == models.StatusCompleted && !b.EarningsCredited {
		if err := s.authorizeCompletion(b, actor); err != nil {
			return nil, err
		}
		if err := s.Wallet.CreditJobEarnings(ctx, b.ProviderID, b.ID); err != nil {
			return nil, err
		}
		return b, nil
	}

	if err := ValidateTransition(bookingID, b.Status, models.StatusCompleted, actor.Role); err != nil {
		return nil, err
	}
	if err := s.authorizeCompletion(b, actor); err != nil {
		return nil, err
	}
	if b.PaymentStatus != "succeeded" {
		return nil, &ValidationError{Field: "paymentStatus", Reason: "payment has not succeeded"}
	}

	updated, err := s.applyTransition(ctx, bookingID, actor, []models.BookingStatus{models.StatusWorkDone}, bookingRepo.StatusUpdate{
		To:               models.StatusCompleted,
		At:               time.Now(),
		ClearPaymentCode: true,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Wallet.CreditJobEarnings(ctx, updated.ProviderID, updated.ID); err != nil {
		return nil, err
	}
	return updated, nil
}

// authorizeCompletion admits the booking's customer or the assigned
// performer; online completion is the one milestone the customer drives.
func (s *DefaultBookingService) authorizeCompletion(b *models.Booking, actor Actor) error {
	if actor.Role == models.RoleCustomer {
		if b.CustomerID == actor.ID {
			return nil
		}
		return &NotPartyError{BookingID: b.ID, ActorID: actor.ID}
	}
	return s.authorizePerformer(b, actor)
}

// advance is the shared guarded-milestone path for non-OTP transitions.
func (s *DefaultBookingService) advance(ctx context.Context, bookingID string, actor Actor, target models.BookingStatus, from []models.BookingStatus, upd bookingRepo.StatusUpdate) (*models.Booking, error) {
	if _, err := s.loadForMilestone(ctx, bookingID, actor, target); err != nil {
		return nil, err
	}
	upd.To = target
	upd.At = time.Now()
	return s.applyTransition(ctx, bookingID, actor, from, upd)
}

// loadForMilestone fetches the booking and checks both the transition table
// and that the actor is the booking's performer.
func (s *DefaultBookingService) loadForMilestone(ctx context.Context, bookingID string, actor Actor, target models.BookingStatus) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(bookingID, b.Status, target, actor.Role); err != nil {
		return nil, err
	}
	if err := s.authorizePerformer(b, actor); err != nil {
		return nil, err
	}
	return b, nil
}

// authorizePerformer restricts physical milestones to the assigned party:
// the provider on a self-performed job, the worker on a delegated one.
func (s *DefaultBookingService) authorizePerformer(b *models.Booking, actor Actor) error {
	switch actor.Role {
	case models.RoleProvider:
		if b.ProviderID == actor.ID && b.Assignment.Mode != models.AssignmentWorker {
			return nil
		}
	case models.RoleWorker:
		if b.Assignment.Mode == models.AssignmentWorker && b.Assignment.WorkerID == actor.ID {
			return nil
		}
	}
	return &NotPartyError{BookingID: b.ID, ActorID: actor.ID}
}

func (s *DefaultBookingService) applyTransition(ctx context.Context, bookingID string, actor Actor, from []models.BookingStatus, upd bookingRepo.StatusUpdate) (*models.Booking, error) {
	updated, err := s.Repo.Transition(ctx, bookingID, from, upd)
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return nil, s.staleTransitionError(ctx, bookingID, upd.To, actor.Role)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// verifyCode checks a presented code against the stored secret under the
// failed-attempt cap. The guard is best-effort: an unreachable counter never
// blocks a legitimate handover.
func (s *DefaultBookingService) verifyCode(ctx context.Context, bookingID, secret, presented string) error {
	if s.Attempts != nil && s.MaxCodeAttempts > 0 {
		n, err := s.Attempts.Failures(ctx, bookingID)
		if err != nil {
			s.Logger.Warn("code attempt guard unavailable",
				zap.String("bookingId", bookingID), zap.Error(err))
		} else if n >= int64(s.MaxCodeAttempts) {
			return &TooManyAttemptsError{BookingID: bookingID}
		}
	}
	if !codeMatches(secret, presented) {
		if s.Attempts != nil {
			if err := s.Attempts.RecordFailure(ctx, bookingID); err != nil {
				s.Logger.Warn("failed to record code attempt",
					zap.String("bookingId", bookingID), zap.Error(err))
			}
		}
		return &InvalidVerificationCodeError{BookingID: bookingID}
	}
	if s.Attempts != nil {
		if err := s.Attempts.Reset(ctx, bookingID); err != nil {
			s.Logger.Warn("failed to reset code attempts",
				zap.String("bookingId", bookingID), zap.Error(err))
		}
	}
	return nil
}

// codeMatches compares a presented code with the stored secret. A cleared
// secret never matches again. The development bypass code is honored only
// when explicitly enabled, which LoadConfig forbids in production.
func codeMatches(secret, presented string) bool {
	if secret != "" && presented == secret {
		return true
	}
	if config.AppConfig.OTPBypassEnabled &&
		config.AppConfig.OTPBypassCode != "" &&
		presented == config.AppConfig.OTPBypassCode {
		return true
	}
	return false
}
