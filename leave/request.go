package leave

import "time"

// =============================================================================
// LEAVE REQUEST - Mutable aggregate, one per leave application
// =============================================================================

// Request is a leave application. RequestedDays is computed once at
// validation time and never recomputed afterward, so later policy table
// changes cannot retroactively alter a historical request's charge.
type Request struct {
	ID         RequestID
	EmployeeID EmployeeID

	Type     LeaveType
	Duration Duration

	// Inclusive calendar dates.
	StartDate Date
	EndDate   Date

	Reason string
	Status Status

	// The day-count charge this request represents. Frozen at validation.
	RequestedDays Days

	// Accounting year the charge belongs to, derived from StartDate.
	Year int

	CreatedAt time.Time

	// Decision fields, set on approve/reject/cancel.
	DecidedAt       *time.Time
	DecidedBy       *string
	DecisionComment string
}

// DrawsDownBalance reports whether approving this request debits the
// annual balance.
func (r *Request) DrawsDownBalance() bool {
	p, err := PolicyFor(r.Type)
	if err != nil {
		return false
	}
	return p.DrawsDownBalance
}

// Clone returns a copy safe to hand out across store boundaries.
func (r *Request) Clone() *Request {
	c := *r
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		c.DecidedAt = &t
	}
	if r.DecidedBy != nil {
		s := *r.DecidedBy
		c.DecidedBy = &s
	}
	return &c
}
