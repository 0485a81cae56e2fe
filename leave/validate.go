/*
validate.go - Candidate request validation

PURPOSE:
  Pure functions that check a candidate leave request against the leave
  type policy table, the duration model, and a read-only balance
  snapshot, producing either an accepted normalized request or a typed
  rejection.

VALIDATION ORDER:
  1. Resolve policy (unknown type fails fast)
  2. Duration gate: partial days only where the policy allows them
  3. Date sanity: both dates present, start <= end
  4. Day-count rule: exact-length match, then range check
  5. Partial-day rule: half/quarter requests are single-date only
  6. RequestedDays: span for full days, the fraction otherwise
  7. Balance check: drawing types only, against the given snapshot

TWO CALL SITES, ONE FUNCTION:
  Submit runs this pre-flight against a possibly stale snapshot
  (advisory). Approve runs it again inside the store transaction against
  a fresh snapshot (authoritative), because other approvals may have
  consumed the remainder in between. The rules are identical in both.
*/
package leave

// RawRequest is a candidate leave request as collected from the caller,
// before any rule has been applied.
type RawRequest struct {
	EmployeeID EmployeeID
	Type       LeaveType
	Duration   Duration
	StartDate  Date
	EndDate    Date
	Reason     string
}

// ValidatedRequest is an accepted, normalized request. It is immutable:
// RequestedDays here is the value all downstream ledger arithmetic uses.
type ValidatedRequest struct {
	EmployeeID    EmployeeID
	Policy        TypePolicy
	Duration      DurationUnit
	StartDate     Date
	EndDate       Date
	Reason        string
	SpanDays      int
	RequestedDays Days
	Year          int
}

// Validate checks a candidate request against the policy tables and the
// employee's balance snapshot. The snapshot is only consulted for types
// that draw down the balance; it may be nil for all other types.
func Validate(raw RawRequest, balance *Balance) (*ValidatedRequest, error) {
	policy, err := PolicyFor(raw.Type)
	if err != nil {
		return nil, err
	}

	unit, err := DurationFor(raw.Duration)
	if err != nil {
		return nil, err
	}

	if !unit.IsFullDay() && !policy.AllowsPartialDay {
		return nil, &DurationNotAllowedError{Type: policy.Code, Duration: unit.Code}
	}

	if raw.StartDate.IsZero() || raw.EndDate.IsZero() || raw.EndDate.Before(raw.StartDate) {
		return nil, ErrInvalidDateRange
	}

	span := SpanDays(raw.StartDate, raw.EndDate)

	if err := checkDayCount(policy, span); err != nil {
		return nil, err
	}

	requested := DaysOfInt(span)
	if !unit.IsFullDay() {
		// A half/quarter request charges the fraction and must address a
		// single calendar day.
		if span != 1 {
			return nil, &PartialDaySpanError{StartDate: raw.StartDate, EndDate: raw.EndDate}
		}
		requested = unit.Fraction
	}

	if policy.DrawsDownBalance {
		if balance == nil {
			return nil, ErrBalanceNotFound
		}
		if !balance.CanCover(requested) {
			return nil, &InsufficientBalanceError{
				EmployeeID: raw.EmployeeID,
				Year:       balance.Year,
				Remaining:  balance.Remaining(),
				Requested:  requested,
			}
		}
	}

	return &ValidatedRequest{
		EmployeeID:    raw.EmployeeID,
		Policy:        policy,
		Duration:      unit,
		StartDate:     raw.StartDate,
		EndDate:       raw.EndDate,
		Reason:        raw.Reason,
		SpanDays:      span,
		RequestedDays: requested,
		Year:          AccountingYear(raw.StartDate),
	}, nil
}

// checkDayCount applies the fixed-bound rules. Exact-length types demand
// an exact match, not a range: partial compliance is rejected, never
// clamped.
func checkDayCount(policy TypePolicy, span int) error {
	switch {
	case policy.ExactLength():
		if span != policy.MaxDays {
			return &InvalidDayCountError{Type: policy.Code, Required: policy.MaxDays, Got: span}
		}
	case policy.Ranged():
		if span < policy.MinDays || span > policy.MaxDays {
			return &DayCountOutOfRangeError{Type: policy.Code, Min: policy.MinDays, Max: policy.MaxDays, Got: span}
		}
	}
	return nil
}

// Revalidate re-applies the deterministic shape rules (type, duration,
// dates, day count) to a stored request. The lifecycle calls this at
// approval time before the authoritative balance re-check.
func Revalidate(r *Request) error {
	_, err := Validate(RawRequest{
		EmployeeID: r.EmployeeID,
		Type:       r.Type,
		Duration:   r.Duration,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Reason:     r.Reason,
	}, revalidationBalance(r))
	return err
}

// revalidationBalance supplies a snapshot that always covers the request
// so Validate's balance step passes; the authoritative balance check at
// approval runs separately against the fresh store record.
func revalidationBalance(r *Request) *Balance {
	if !r.DrawsDownBalance() {
		return nil
	}
	return &Balance{
		EmployeeID:   r.EmployeeID,
		Year:         r.Year,
		TotalGranted: r.RequestedDays,
		Used:         ZeroDays(),
	}
}
