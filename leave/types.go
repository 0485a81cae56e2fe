/*
Package leave implements the leave (vacation) policy and balance engine.

PURPOSE:
  This package contains the rules that decide which leave requests are
  valid, how approved requests consume an employee's annual allotment,
  and how the request lifecycle (submit -> pending -> approve/reject/
  cancel) keeps the balance consistent.

KEY CONCEPTS IN THIS FILE (types.go):
  - Days: A fractional day count (half and quarter days are exact decimals)
  - Status: The closed set of request states
  - Employee/Request IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.25 + 0.25 is exactly 0.5
  2. Type Safety: Strong typing for IDs prevents mixing employee/request IDs
  3. Closed Enumerations: Status has one canonical internal representation;
     any localized label is applied only at the presentation boundary

SEE ALSO:
  - policy.go: Leave type policy table and duration model
  - validate.go: Request validation
  - lifecycle.go: Approval state machine and balance side effects
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS - Fractional day count
// =============================================================================

// Days is a day count with exact decimal arithmetic. Half-day and
// quarter-day requests produce fractional values that must never
// accumulate float error across a year of ledger updates.
type Days struct {
	Value decimal.Decimal
}

func DaysOf(value float64) Days {
	return Days{Value: decimal.NewFromFloat(value)}
}

func DaysOfInt(value int) Days {
	return Days{Value: decimal.NewFromInt(int64(value))}
}

// ParseDays parses a decimal day count as stored by the persistence layer.
func ParseDays(s string) (Days, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Days{}, err
	}
	return Days{Value: d}, nil
}

func ZeroDays() Days { return Days{Value: decimal.Zero} }

func (d Days) Add(o Days) Days            { return Days{Value: d.Value.Add(o.Value)} }
func (d Days) Sub(o Days) Days            { return Days{Value: d.Value.Sub(o.Value)} }
func (d Days) IsNegative() bool           { return d.Value.IsNegative() }
func (d Days) IsZero() bool               { return d.Value.IsZero() }
func (d Days) IsPositive() bool           { return d.Value.IsPositive() }
func (d Days) LessThan(o Days) bool       { return d.Value.LessThan(o.Value) }
func (d Days) GreaterThan(o Days) bool    { return d.Value.GreaterThan(o.Value) }
func (d Days) Equal(o Days) bool          { return d.Value.Equal(o.Value) }
func (d Days) String() string             { return d.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string

// =============================================================================
// STATUS - Request lifecycle states
// =============================================================================

// Status is the canonical internal representation of a request's state.
// Business logic compares against these constants only; localized labels
// ("대기", "승인", ...) live in the API layer.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is legal from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
