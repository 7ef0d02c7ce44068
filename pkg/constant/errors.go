// Package constant holds the sentinel business-error catalog for the core.
// Each sentinel carries a stable numeric code string, the way the teacher's
// common/constant/errors.go catalogs its own business errors; pkg/apperr
// wraps each sentinel into a typed, HTTP-mappable error.
package constant

import "errors"

var (
	// Validation-class sentinels (400).
	ErrInvalidAmount       = errors.New("1001")
	ErrUnknownEnumValue    = errors.New("1002")
	ErrMissingRequiredField = errors.New("1003")
	ErrUnbalancedJournal   = errors.New("1004")
	ErrInvalidIdempotencyKey = errors.New("1005")
	ErrCurrencyMismatch    = errors.New("1006")
	ErrInvalidTimestamp    = errors.New("1007")

	// Auth-class sentinels (401/403).
	ErrMissingStaffID      = errors.New("1101")
	ErrDeciderNotPermitted = errors.New("1102")
	ErrDeciderIsMaker      = errors.New("1103")
	ErrDeciderAlreadyDecided = errors.New("1104")

	// Not-found-class sentinels (404).
	ErrAccountNotFound  = errors.New("1201")
	ErrJournalNotFound  = errors.New("1202")
	ErrRequestNotFound  = errors.New("1203")
	ErrPolicyNotFound   = errors.New("1204")
	ErrFeeRuleNotFound  = errors.New("1205")

	// Conflict-class sentinels (409).
	ErrIdempotencyConflict     = errors.New("1301")
	ErrRequestAlreadyDecided   = errors.New("1302")
	ErrJournalAlreadyReversed  = errors.New("1303")

	// Unprocessable-class sentinels (422).
	ErrInsufficientFunds    = errors.New("1401")
	ErrAccountFrozen        = errors.New("1402")
	ErrPeriodClosed         = errors.New("1403")
	ErrNoApprovalPolicy     = errors.New("1404")
	ErrNoOverdraftCoverage  = errors.New("1405")
	ErrDelegationNotActive  = errors.New("1406")

	// Retryable-class sentinels (503).
	ErrConcurrencyRetryExhausted = errors.New("1501")
	ErrTransientStorage          = errors.New("1502")

	// Internal-class sentinel (500).
	ErrInternal = errors.New("1601")
)
