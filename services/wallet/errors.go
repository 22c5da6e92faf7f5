package wallet

import "fmt"

// NotFoundError indicates the referenced wallet or request does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientBalanceError means a settlement or withdrawal exceeds the
// available balance; no mutation was performed.
type InsufficientBalanceError struct {
	ProviderID string
	Requested  int64
	Available  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("provider %s: requested %d exceeds available %d", e.ProviderID, e.Requested, e.Available)
}

// DuplicatePendingRequestError means a settlement request already awaits
// processing for this provider.
type DuplicatePendingRequestError struct {
	ProviderID string
}

func (e *DuplicatePendingRequestError) Error() string {
	return fmt.Sprintf("provider %s already has a pending settlement request", e.ProviderID)
}

// RequestNotPendingError means the request was already processed.
type RequestNotPendingError struct {
	RequestID string
	Status    string
}

func (e *RequestNotPendingError) Error() string {
	return fmt.Sprintf("request %s is %s, not pending", e.RequestID, e.Status)
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotEligibleError means the booking is not in a state that allows the
// requested ledger operation, or does not belong to the provider.
type NotEligibleError struct {
	BookingID string
	Reason    string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("booking %s: %s", e.BookingID, e.Reason)
}
