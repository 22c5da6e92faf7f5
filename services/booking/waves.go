package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"

	"go.uber.org/zap"
)

// PromoteWave is invoked by the background scheduler once a wave's expiry
// window has elapsed. It never touches a claimed booking: promotion shares
// the no-provider precondition with acceptance, so a promotion racing an
// acceptance loses quietly.
func (s *DefaultBookingService) PromoteWave(ctx context.Context, bookingID string, expectWave int) error {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return err
	}

	if b.ProviderID != "" || b.Status.IsTerminal() {
		return nil // accepted, cancelled or rejected in the meantime
	}
	if b.Dispatch.Wave != expectWave {
		return nil // a concurrent promotion already ran
	}
	if elapsed := time.Since(b.Dispatch.WaveStartedAt); elapsed < s.WaveExpiry && b.Dispatch.Wave > 0 {
		return nil // rescheduled too early; the next tick will handle it
	}

	if _, err := s.startNextWave(ctx, b); err != nil {
		return err
	}
	return nil
}

// startNextWave notifies the next ranked batch and advances the persisted
// wave index under the same exclusivity precondition as acceptance.
// Notification happens after the state write, outside any critical section.
// Suspended providers are skipped for cash bookings; they re-enter candidacy
// on a later wave if unblocked by then.
func (s *DefaultBookingService) startNextWave(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	batch := s.Dispatch.NextWave(b.Dispatch, s.WaveSize)
	if b.PaymentMethod == "cash" && s.Wallet != nil {
		remaining := s.Dispatch.NextWave(b.Dispatch, len(b.Dispatch.Candidates))
		batch = s.fillEligible(ctx, remaining, s.WaveSize)
	}
	if len(batch) == 0 {
		s.Logger.Info("dispatch exhausted all candidates",
			zap.String("bookingId", b.ID),
			zap.Int("wave", b.Dispatch.Wave))
		return b, nil
	}

	notified := append(append([]string{}, b.Dispatch.Notified...), batch...)
	updated, err := s.Repo.AdvanceWave(ctx, b.ID, b.Dispatch.Wave, b.Dispatch.Wave+1, notified, time.Now())
	if errors.Is(err, bookingRepo.ErrNoMatch) {
		return b, nil // claimed or promoted concurrently
	}
	if err != nil {
		return nil, err
	}

	for _, providerID := range batch {
		s.announce(models.NotifyTarget{Role: models.RoleProvider, ID: providerID}, models.NotifyMessage{
			Type:  "booking_request",
			Title: "New job nearby",
			Body:  "A " + updated.ServiceCategory + " job is waiting for acceptance.",
			Data:  map[string]string{"bookingId": updated.ID, "bookingNo": updated.BookingNo},
		})
	}

	if s.Scheduler != nil {
		if err := s.Scheduler.ScheduleWavePromotion(ctx, updated.ID, updated.Dispatch.Wave, s.WaveExpiry); err != nil {
			s.Logger.Error("failed to schedule wave promotion",
				zap.String("bookingId", updated.ID),
				zap.Int("wave", updated.Dispatch.Wave),
				zap.Error(err))
		}
	}
	return updated, nil
}

// fillEligible takes providers from the ranked remainder until the wave is
// full, skipping suspended ones. A failed suspension lookup keeps the
// provider in the wave; the authoritative refusal happens at acceptance.
func (s *DefaultBookingService) fillEligible(ctx context.Context, remaining []string, waveSize int) []string {
	var batch []string
	for _, providerID := range remaining {
		blocked, err := s.Wallet.IsProviderBlocked(ctx, providerID)
		if err != nil {
			s.Logger.Warn("failed to check provider suspension for dispatch",
				zap.String("providerId", providerID), zap.Error(err))
		} else if blocked {
			continue
		}
		batch = append(batch, providerID)
		if len(batch) == waveSize {
			break
		}
	}
	return batch
}
