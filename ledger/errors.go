/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All domain errors in one place. The api package maps these onto HTTP
  status codes; nothing else in the module invents error strings for
  conditions listed here.

ERROR CATEGORIES:
  1. Validation errors - bad shape, rejected before any write (HTTP 400)
  2. Not-found errors  - missing references, before any write (HTTP 404)
  3. Conflict errors   - state machine refusals, before any write (HTTP 409)
  4. Persistence errors - bubbled up from the store, whole scope rolled
     back (HTTP 500)

USAGE:
  if errors.Is(err, ledger.ErrAccountNotFound) { ... }
  if ledger.IsConflict(err) { ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// Not-found errors.
	ErrAccountNotFound         = errors.New("account not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDebtNotFound            = errors.New("debt not found")
	ErrItemNotFound            = errors.New("item not found")
	ErrTransactionItemNotFound = errors.New("transaction item not found")
	ErrCategoryNotFound        = errors.New("category not found")
	ErrMerchantNotFound        = errors.New("merchant not found")

	// Conflict errors: the state machine refuses the transition.
	ErrDebtExists            = errors.New("debt already exists for this transaction")
	ErrDebtSettled           = errors.New("debt is already settled")
	ErrTransactionNotPending = errors.New("transaction is not pending")
	ErrItemInUse             = errors.New("item is referenced by transactions")
	ErrDuplicateName         = errors.New("name already exists")

	// ErrUnknownEffect is returned for a transaction type outside the closed
	// enum; it indicates a bug upstream of the Effect mapping, not bad input.
	ErrUnknownEffect = errors.New("no balance effect for transaction type")
)

// =============================================================================
// VALIDATION ERRORS - Carry the offending field
// =============================================================================

// ValidationError is a client-input rejection, raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrDebtNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrTransactionItemNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrMerchantNotFound)
}

// IsConflict reports whether err is a state-machine refusal: the request was
// well-formed but the target is in a state that forbids the transition.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDebtExists) ||
		errors.Is(err, ErrDebtSettled) ||
		errors.Is(err, ErrTransactionNotPending) ||
		errors.Is(err, ErrItemInUse) ||
		errors.Is(err, ErrDuplicateName)
}

// IsValidation reports whether err is a client-input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClientError reports whether the caller, not the system, is at fault.
func IsClientError(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsConflict(err)
}
