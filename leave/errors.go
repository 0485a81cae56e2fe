/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All business-rule failures in one place. Every rejection is an expected,
  recoverable-by-the-caller condition: the validator and lifecycle return
  these as values, never panic, so batch processors can inspect the
  specific reason and continue with the remaining items.

ERROR CATEGORIES:
  1. Configuration errors  - Unknown type/duration codes (fix the request)
  2. Validation errors     - Day count, duration, balance rule violations
  3. Lifecycle errors      - Illegal state transitions
  4. Store errors          - Missing records, optimistic lock conflicts

USAGE:
  Callers branch with errors.Is / errors.As:

    var insufficient *leave.InsufficientBalanceError
    if errors.As(err, &insufficient) {
        // render remaining vs requested
    }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownLeaveType is returned when a leave type code is not in the
	// policy table. Callers should fix the request, not retry.
	ErrUnknownLeaveType = errors.New("unknown leave type")

	// ErrUnknownDuration is returned when a duration code is not in the
	// duration model.
	ErrUnknownDuration = errors.New("unknown duration")

	// ErrDurationNotAllowed is returned when a half/quarter duration is
	// requested for a type that only permits full days.
	ErrDurationNotAllowed = errors.New("duration not allowed for leave type")

	// ErrInvalidDayCount is returned when an exact-length type's span does
	// not match the required day count.
	ErrInvalidDayCount = errors.New("invalid day count")

	// ErrDayCountOutOfRange is returned when a ranged type's span falls
	// outside the permitted bounds.
	ErrDayCountOutOfRange = errors.New("day count out of range")

	// ErrPartialDaySpansDates is returned when a half/quarter request
	// covers more than one calendar date.
	ErrPartialDaySpansDates = errors.New("partial day must be a single date")

	// ErrInvalidDateRange is returned when the end date precedes the start
	// date or a date is missing.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInsufficientBalance is returned when a drawing request exceeds
	// the remaining annual balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidStateTransition is returned when a lifecycle operation is
	// attempted from a state it is not legal in.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrRequestNotFound is returned when a request ID resolves to nothing.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrBalanceNotFound is returned when no balance record exists for the
	// employee and accounting year.
	ErrBalanceNotFound = errors.New("leave balance not found")

	// ErrBalanceExists is returned when granting a balance that is already
	// materialized for the employee-year.
	ErrBalanceExists = errors.New("leave balance already exists")

	// ErrConcurrentModification is returned when the optimistic version
	// check on a balance update detects a lost-update race.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry context for precise user-facing messages
// =============================================================================

type UnknownLeaveTypeError struct {
	Code LeaveType
}

func (e *UnknownLeaveTypeError) Error() string {
	return fmt.Sprintf("unknown leave type %q", string(e.Code))
}

func (e *UnknownLeaveTypeError) Unwrap() error { return ErrUnknownLeaveType }

type UnknownDurationError struct {
	Code Duration
}

func (e *UnknownDurationError) Error() string {
	return fmt.Sprintf("unknown duration %q", string(e.Code))
}

func (e *UnknownDurationError) Unwrap() error { return ErrUnknownDuration }

// DurationNotAllowedError reports a partial-day duration against a type
// that only supports full days.
type DurationNotAllowedError struct {
	Type     LeaveType
	Duration Duration
}

func (e *DurationNotAllowedError) Error() string {
	return fmt.Sprintf("leave type %s does not allow duration %s", e.Type, e.Duration)
}

func (e *DurationNotAllowedError) Unwrap() error { return ErrDurationNotAllowed }

// InvalidDayCountError reports an exact-length mismatch. Required is the
// day count the type demands; Got is the span that was requested.
type InvalidDayCountError struct {
	Type     LeaveType
	Required int
	Got      int
}

func (e *InvalidDayCountError) Error() string {
	return fmt.Sprintf("leave type %s requires exactly %d days, got %d", e.Type, e.Required, e.Got)
}

func (e *InvalidDayCountError) Unwrap() error { return ErrInvalidDayCount }

// DayCountOutOfRangeError reports a ranged-type violation with the bounds
// for display.
type DayCountOutOfRangeError struct {
	Type LeaveType
	Min  int
	Max  int
	Got  int
}

func (e *DayCountOutOfRangeError) Error() string {
	return fmt.Sprintf("leave type %s allows %d-%d days, got %d", e.Type, e.Min, e.Max, e.Got)
}

func (e *DayCountOutOfRangeError) Unwrap() error { return ErrDayCountOutOfRange }

// PartialDaySpanError reports a half/quarter request over multiple dates.
type PartialDaySpanError struct {
	StartDate Date
	EndDate   Date
}

func (e *PartialDaySpanError) Error() string {
	return fmt.Sprintf("partial-day leave must start and end on the same date, got %s..%s",
		e.StartDate, e.EndDate)
}

func (e *PartialDaySpanError) Unwrap() error { return ErrPartialDaySpansDates }

// InsufficientBalanceError carries the remaining and requested day counts
// so the caller can render "잔여 N일, 신청 M일" precisely.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Remaining  Days
	Requested  Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%d: remaining %s, requested %s",
		e.EmployeeID, e.Year, e.Remaining, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidStateTransitionError names the current state and the attempted
// transition. It must never silently no-op: bulk approval UIs rely on it
// to surface already-processed rows.
type InvalidStateTransitionError struct {
	RequestID RequestID
	Current   Status
	Attempted string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in state %s", e.Attempted, e.RequestID, e.Current)
}

func (e *InvalidStateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is a business-rule rejection of
// the caller's input (HTTP 4xx territory).
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownLeaveType) ||
		errors.Is(err, ErrUnknownDuration) ||
		errors.Is(err, ErrDurationNotAllowed) ||
		errors.Is(err, ErrInvalidDayCount) ||
		errors.Is(err, ErrDayCountOutOfRange) ||
		errors.Is(err, ErrPartialDaySpansDates) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrBalanceExists)
}

// IsConflict returns true for races and double-processing: the state of
// the world moved between read and write.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrBalanceExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrBalanceNotFound)
}

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
