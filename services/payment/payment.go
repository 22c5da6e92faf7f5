package payment

import (
	"context"
	"errors"
	"fmt"

	"fixserv/config"
	bookingRepo "fixserv/database/repository/booking"
	"fixserv/models"
	"fixserv/services/booking"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// PaymentService collects card payments for bookings. The gateway is an
// opaque collaborator: we create an intent, later fetch its outcome, and
// record only the resulting status and reference on the booking.
type PaymentService interface {
	CreateIntent(ctx context.Context, bookingID string, actor booking.Actor) (*IntentInfo, error)
	SyncResult(ctx context.Context, bookingID string, actor booking.Actor) (string, error)
}

// IntentInfo is what the client needs to drive the gateway's payment sheet.
type IntentInfo struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type DefaultPaymentService struct {
	Bookings bookingRepo.BookingRepository
	Logger   *zap.Logger
}

func NewDefaultPaymentService(bookings bookingRepo.BookingRepository, logger *zap.Logger) *DefaultPaymentService {
	return &DefaultPaymentService{Bookings: bookings, Logger: logger}
}

// CreateIntent opens a gateway intent for the booking's final amount. Only
// the booking's customer may pay, only card bookings get intents, and the
// work must be done before payment is collected.
func (s *DefaultPaymentService) CreateIntent(ctx context.Context, bookingID string, actor booking.Actor) (*IntentInfo, error) {
	b, err := s.loadForPayment(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}

	currency := config.AppConfig.Currency
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(b.Pricing.FinalAmount),
		Currency: stripe.String(currency),
		Metadata: map[string]string{
			"bookingId": b.ID,
			"bookingNo": b.BookingNo,
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for booking %s: %w", bookingID, err)
	}

	if err := s.Bookings.SetPaymentResult(ctx, b.ID, string(pi.Status), pi.ID); err != nil {
		s.Logger.Error("failed to record payment intent on booking",
			zap.String("bookingId", b.ID),
			zap.String("intentId", pi.ID),
			zap.Error(err))
	}

	return &IntentInfo{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       b.Pricing.FinalAmount,
		Currency:     currency,
	}, nil
}

// SyncResult fetches the intent's current status from the gateway and records
// it on the booking. Returns the recorded status.
func (s *DefaultPaymentService) SyncResult(ctx context.Context, bookingID string, actor booking.Actor) (string, error) {
	b, err := s.loadForPayment(ctx, bookingID, actor)
	if err != nil {
		return "", err
	}
	if b.PaymentRef == "" {
		return "", &booking.ValidationError{Field: "payment", Reason: "no payment intent exists for this booking"}
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(b.PaymentRef, params)
	if err != nil {
		return "", fmt.Errorf("failed to fetch payment intent %s: %w", b.PaymentRef, err)
	}

	status := string(pi.Status)
	if err := s.Bookings.SetPaymentResult(ctx, b.ID, status, pi.ID); err != nil {
		return "", fmt.Errorf("failed to record payment result on booking %s: %w", b.ID, err)
	}
	return status, nil
}

func (s *DefaultPaymentService) loadForPayment(ctx context.Context, bookingID string, actor booking.Actor) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, &booking.NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer || actor.ID != b.CustomerID {
		return nil, &booking.NotPartyError{BookingID: bookingID, ActorID: actor.ID}
	}
	if b.PaymentMethod != "card" {
		return nil, &booking.ValidationError{Field: "paymentMethod", Reason: "booking is not a card booking"}
	}
	if b.Status != models.StatusWorkDone {
		return nil, &booking.ValidationError{Field: "status", Reason: "payment is collected after work is done"}
	}
	return b, nil
}
