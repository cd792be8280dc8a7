package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can map it to a transport
// status without parsing messages.
type ErrorKind string

const (
	// Validation errors — caller-fixable, rejected before any state mutation.
	KindCommissionOutOfRange ErrorKind = "COMMISSION_OUT_OF_RANGE"
	KindInvalidQuantity      ErrorKind = "INVALID_QUANTITY"
	KindInvalidPrice         ErrorKind = "INVALID_PRICE"
	KindInvalidPaidAmount    ErrorKind = "INVALID_PAID_AMOUNT"
	KindInvalidPaymentAmount ErrorKind = "INVALID_PAYMENT_AMOUNT"
	KindInvalidAmount        ErrorKind = "INVALID_AMOUNT"
	KindInvalidInput         ErrorKind = "INVALID_INPUT"

	// Not-found errors.
	KindCustomerNotFound  ErrorKind = "CUSTOMER_NOT_FOUND"
	KindInventoryNotFound ErrorKind = "INVENTORY_NOT_FOUND"
	KindCandidateNotFound ErrorKind = "CANDIDATE_NOT_FOUND"

	// Conflict / invariant errors — the whole operation is rejected atomically.
	KindInsufficientStock         ErrorKind = "INSUFFICIENT_STOCK"
	KindCommissionExceedsSubtotal ErrorKind = "COMMISSION_EXCEEDS_SUBTOTAL"
	KindCustomerInactive          ErrorKind = "CUSTOMER_INACTIVE"
	KindNoBalanceDue              ErrorKind = "NO_BALANCE_DUE"

	// Concurrency errors — transient, the caller may retry the whole commit.
	KindConflict ErrorKind = "CONFLICT"

	KindInternal ErrorKind = "INTERNAL"
)

// Error is a structured domain error: a closed kind, the offending field when
// known, and a human-readable message. The calling layer renders it; the core
// never reduces an invariant violation to a bare string.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errf builds a field-scoped domain error.
func Errf(kind ErrorKind, field, format string, args ...any) *Error {
	return &Error{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the domain error kind from err, unwrapping as needed.
// Returns KindInternal for non-domain errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given domain error kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
