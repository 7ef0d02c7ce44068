// Package apperr maps the pkg/constant sentinel catalog into the typed
// error kinds the HTTP layer understands, mirroring the teacher's
// common.ValidateBusinessError switch. No error is ever silently
// swallowed: every sentinel reaching ValidateBusinessError either maps to
// a known kind or is returned unwrapped so callers still see it.
package apperr

import (
	"errors"
	"fmt"

	"github.com/fnyamweya/caricash-nova-sub001/pkg/constant"
)

// ValidationError indicates malformed input: bad amount, unknown enum,
// missing field, unbalanced journal.
type ValidationError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e ValidationError) Error() string { return e.Message }
func (e ValidationError) Unwrap() error  { return e.Err }

// AuthError indicates a missing or insufficient decider identity.
type AuthError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e AuthError) Error() string { return e.Message }
func (e AuthError) Unwrap() error  { return e.Err }

// NotFoundError indicates an unknown account/journal/request/policy.
type NotFoundError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e NotFoundError) Error() string { return e.Message }
func (e NotFoundError) Unwrap() error  { return e.Err }

// ConflictError indicates an idempotency-key payload mismatch or a
// concurrent state transition (e.g. a request already decided).
type ConflictError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e ConflictError) Error() string { return e.Message }
func (e ConflictError) Unwrap() error  { return e.Err }

// UnprocessableError indicates a business rule rejected an otherwise
// well-formed command: insufficient funds, frozen account, closed period,
// no matching approval policy.
type UnprocessableError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e UnprocessableError) Error() string { return e.Message }
func (e UnprocessableError) Unwrap() error  { return e.Err }

// RetryableError indicates a transient condition the caller may retry:
// CAS retries exhausted, transient storage failure.
type RetryableError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e RetryableError) Error() string { return e.Message }
func (e RetryableError) Unwrap() error  { return e.Err }

// InternalError indicates an unexpected failure; always carries the
// original error for correlation-id logging at the boundary.
type InternalError struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e InternalError) Error() string { return e.Message }
func (e InternalError) Unwrap() error  { return e.Err }

// Wrap converts an unexpected error into an InternalError, preserving it
// for logging with a correlation id at the HTTP boundary.
func Wrap(err error, entityType string) error {
	if err == nil {
		return nil
	}

	return InternalError{
		EntityType: entityType,
		Code:       constant.ErrInternal.Error(),
		Title:      "Internal Server Error",
		Message:    "The server encountered an unexpected error. Please try again later.",
		Err:        err,
	}
}

// ValidateBusinessError maps a pkg/constant sentinel into its typed,
// HTTP-mappable form. Unknown errors pass through unchanged so they are
// never silently swallowed.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, constant.ErrInvalidAmount):
		return ValidationError{EntityType: entityType, Code: constant.ErrInvalidAmount.Error(),
			Title: "Invalid Amount", Message: "The amount string does not match the accepted decimal grammar."}
	case errors.Is(err, constant.ErrUnknownEnumValue):
		return ValidationError{EntityType: entityType, Code: constant.ErrUnknownEnumValue.Error(),
			Title: "Unknown Enum Value", Message: fmt.Sprintf("The field value %v is not a recognized enum member.", args)}
	case errors.Is(err, constant.ErrMissingRequiredField):
		return ValidationError{EntityType: entityType, Code: constant.ErrMissingRequiredField.Error(),
			Title: "Missing Required Field", Message: fmt.Sprintf("Required field %v was not provided.", args)}
	case errors.Is(err, constant.ErrUnbalancedJournal):
		return ValidationError{EntityType: entityType, Code: constant.ErrUnbalancedJournal.Error(),
			Title: "Unbalanced Journal", Message: "Debit and credit totals of the command's entries do not match."}
	case errors.Is(err, constant.ErrInvalidIdempotencyKey):
		return ValidationError{EntityType: entityType, Code: constant.ErrInvalidIdempotencyKey.Error(),
			Title: "Invalid Idempotency Key", Message: "The idempotency key must be a non-empty string."}
	case errors.Is(err, constant.ErrCurrencyMismatch):
		return ValidationError{EntityType: entityType, Code: constant.ErrCurrencyMismatch.Error(),
			Title: "Currency Mismatch", Message: fmt.Sprintf("Account %v's currency does not match the command currency.", args)}
	case errors.Is(err, constant.ErrInvalidTimestamp):
		return ValidationError{EntityType: entityType, Code: constant.ErrInvalidTimestamp.Error(),
			Title: "Invalid Timestamp", Message: "The field must be an RFC3339 timestamp."}
	case errors.Is(err, constant.ErrMissingStaffID):
		return AuthError{EntityType: entityType, Code: constant.ErrMissingStaffID.Error(),
			Title: "Missing Staff ID", Message: "A staff id must be provided to decide on this request."}
	case errors.Is(err, constant.ErrDeciderNotPermitted):
		return AuthError{EntityType: entityType, Code: constant.ErrDeciderNotPermitted.Error(),
			Title: "Decider Not Permitted", Message: "The decider's role is not authorized for this approval stage."}
	case errors.Is(err, constant.ErrDeciderIsMaker):
		return AuthError{EntityType: entityType, Code: constant.ErrDeciderIsMaker.Error(),
			Title: "Decider Is Maker", Message: "This policy excludes the request's maker from deciding on it."}
	case errors.Is(err, constant.ErrDeciderAlreadyDecided):
		return AuthError{EntityType: entityType, Code: constant.ErrDeciderAlreadyDecided.Error(),
			Title: "Decider Already Decided", Message: "This decider has already recorded a decision on this stage."}
	case errors.Is(err, constant.ErrAccountNotFound):
		return NotFoundError{EntityType: entityType, Code: constant.ErrAccountNotFound.Error(),
			Title: "Account Not Found", Message: fmt.Sprintf("No account found for %v.", args)}
	case errors.Is(err, constant.ErrJournalNotFound):
		return NotFoundError{EntityType: entityType, Code: constant.ErrJournalNotFound.Error(),
			Title: "Journal Not Found", Message: fmt.Sprintf("No journal found for %v.", args)}
	case errors.Is(err, constant.ErrRequestNotFound):
		return NotFoundError{EntityType: entityType, Code: constant.ErrRequestNotFound.Error(),
			Title: "Approval Request Not Found", Message: fmt.Sprintf("No approval request found for %v.", args)}
	case errors.Is(err, constant.ErrPolicyNotFound):
		return NotFoundError{EntityType: entityType, Code: constant.ErrPolicyNotFound.Error(),
			Title: "Approval Policy Not Found", Message: fmt.Sprintf("No approval policy found for %v.", args)}
	case errors.Is(err, constant.ErrFeeRuleNotFound):
		return NotFoundError{EntityType: entityType, Code: constant.ErrFeeRuleNotFound.Error(),
			Title: "Fee Rule Not Found", Message: "No fee/commission rule matches the given transaction type, currency and agent type."}
	case errors.Is(err, constant.ErrIdempotencyConflict):
		return ConflictError{EntityType: entityType, Code: constant.ErrIdempotencyConflict.Error(),
			Title: "Idempotency Conflict", Message: "The same idempotency key was used with a different payload."}
	case errors.Is(err, constant.ErrRequestAlreadyDecided):
		return ConflictError{EntityType: entityType, Code: constant.ErrRequestAlreadyDecided.Error(),
			Title: "Request Already Decided", Message: "This approval request has already reached a terminal state."}
	case errors.Is(err, constant.ErrJournalAlreadyReversed):
		return ConflictError{EntityType: entityType, Code: constant.ErrJournalAlreadyReversed.Error(),
			Title: "Journal Already Reversed", Message: "This journal has already been reversed and cannot be reversed again."}
	case errors.Is(err, constant.ErrInsufficientFunds):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrInsufficientFunds.Error(),
			Title: "Insufficient Funds", Message: "The account does not have sufficient available balance for this debit."}
	case errors.Is(err, constant.ErrAccountFrozen):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrAccountFrozen.Error(),
			Title: "Account Frozen", Message: "A debit was attempted on a frozen account."}
	case errors.Is(err, constant.ErrPeriodClosed):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrPeriodClosed.Error(),
			Title: "Accounting Period Closed", Message: "The accounting period covering this journal's effective date is not OPEN."}
	case errors.Is(err, constant.ErrNoApprovalPolicy):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrNoApprovalPolicy.Error(),
			Title: "No Approval Policy", Message: "No active approval policy or auto-policy matches this operation."}
	case errors.Is(err, constant.ErrNoOverdraftCoverage):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrNoOverdraftCoverage.Error(),
			Title: "No Overdraft Coverage", Message: "The debit would overdraw the account and no active overdraft facility covers the deficit."}
	case errors.Is(err, constant.ErrDelegationNotActive):
		return UnprocessableError{EntityType: entityType, Code: constant.ErrDelegationNotActive.Error(),
			Title: "Delegation Not Active", Message: "The referenced delegation is not active for the current time."}
	case errors.Is(err, constant.ErrConcurrencyRetryExhausted):
		return RetryableError{EntityType: entityType, Code: constant.ErrConcurrencyRetryExhausted.Error(),
			Title: "Concurrency Retry Exhausted", Message: "Too many concurrent postings contended for the same account; please retry."}
	case errors.Is(err, constant.ErrTransientStorage):
		return RetryableError{EntityType: entityType, Code: constant.ErrTransientStorage.Error(),
			Title: "Transient Storage Error", Message: "A transient storage error occurred; please retry."}
	default:
		return err
	}
}
