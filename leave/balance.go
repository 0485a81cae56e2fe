/*
balance.go - Per-employee per-year annual leave ledger

PURPOSE:
  Balance is the single shared mutable resource of the engine. It tracks
  total granted vs. used annual leave days for one employee and one
  accounting year. Only the lifecycle's approval path mutates Used, and
  only by a request's RequestedDays, exactly once.

CRITICAL INVARIANTS:
  1. Remaining() = TotalGranted - Used, never negative after a committed
     transition. Any debit that would go negative is rejected up front.
  2. Pending requests never touch the balance; the debit point is approval.
  3. Version is bumped by the store on every committed update so racing
     approvals are detected (ErrConcurrentModification), not silently lost.

A new year's record supersedes the old at rollover; prior years are never
deleted.
*/
package leave

// Balance is the annual leave ledger record for one employee-year.
type Balance struct {
	EmployeeID   EmployeeID
	Year         int
	TotalGranted Days
	Used         Days

	// Version supports optimistic concurrency on updates. Stores compare
	// it on write and reject stale mutations.
	Version int64
}

// NewBalance materializes a fresh ledger record with nothing used.
func NewBalance(employeeID EmployeeID, year int, granted Days) *Balance {
	return &Balance{
		EmployeeID:   employeeID,
		Year:         year,
		TotalGranted: granted,
		Used:         ZeroDays(),
		Version:      1,
	}
}

// Remaining is the derived available balance.
func (b *Balance) Remaining() Days {
	return b.TotalGranted.Sub(b.Used)
}

// CanCover reports whether the remaining balance covers a charge.
func (b *Balance) CanCover(requested Days) bool {
	return !b.Remaining().LessThan(requested)
}

// Debit consumes days from the balance. It refuses any charge the
// remaining balance does not cover, so Remaining() never goes negative.
func (b *Balance) Debit(requested Days) error {
	if !b.CanCover(requested) {
		return &InsufficientBalanceError{
			EmployeeID: b.EmployeeID,
			Year:       b.Year,
			Remaining:  b.Remaining(),
			Requested:  requested,
		}
	}
	b.Used = b.Used.Add(requested)
	return nil
}

// Clone returns a copy safe to hand out as a read-only snapshot.
func (b *Balance) Clone() *Balance {
	c := *b
	return &c
}
