package booking

import (
	"fmt"

	"fixserv/models"
)

// NotFoundError indicates the referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvalidTransitionError means the state machine rejected the requested move.
// It carries both statuses so the caller can retry correctly.
type InvalidTransitionError struct {
	BookingID string
	Current   models.BookingStatus
	Requested models.BookingStatus
	Role      models.ActorRole
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %s: %s may not move %s -> %s", e.BookingID, e.Role, e.Current, e.Requested)
}

// AlreadyClaimedError is the concurrent-acceptance conflict: another provider
// claimed the booking first.
type AlreadyClaimedError struct {
	BookingID string
	ClaimedBy string
}

func (e *AlreadyClaimedError) Error() string {
	return fmt.Sprintf("booking %s already claimed by provider %s", e.BookingID, e.ClaimedBy)
}

// InvalidVerificationCodeError is an OTP mismatch; the booking is unchanged.
type InvalidVerificationCodeError struct {
	BookingID string
}

func (e *InvalidVerificationCodeError) Error() string {
	return fmt.Sprintf("booking %s: verification code does not match", e.BookingID)
}

// TooManyAttemptsError means the failed-code cap was reached; further
// presentations are refused until the attempt window expires.
type TooManyAttemptsError struct {
	BookingID string
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("booking %s: too many failed verification attempts", e.BookingID)
}

// ProviderBlockedError means the provider is suspended over the cash limit
// and may not take new cash jobs until dues are settled.
type ProviderBlockedError struct {
	ProviderID string
}

func (e *ProviderBlockedError) Error() string {
	return fmt.Sprintf("provider %s is blocked from new cash jobs", e.ProviderID)
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotPartyError means the actor is not a party to the booking.
type NotPartyError struct {
	BookingID string
	ActorID   string
}

func (e *NotPartyError) Error() string {
	return fmt.Sprintf("actor %s is not a party to booking %s", e.ActorID, e.BookingID)
}
