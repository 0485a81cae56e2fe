package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date (leave requests are day-granular)
// =============================================================================

// Date is a calendar date normalized to UTC midnight. Requests address
// whole calendar days; time-of-day never participates in any rule.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(o Date) bool { return d.normalize().Before(o.normalize()) }
func (d Date) After(o Date) bool  { return d.normalize().After(o.normalize()) }
func (d Date) Equal(o Date) bool  { return d.normalize().Equal(o.normalize()) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic / properties
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) String() string     { return d.normalize().Format(dateLayout) }

// SpanDays returns the calendar day count of [start, end], inclusive on
// both ends. SpanDays(d, d) == 1.
func SpanDays(start, end Date) int {
	return int(end.normalize().Sub(start.normalize()).Hours()/24) + 1
}

// =============================================================================
// ACCOUNTING YEAR
// =============================================================================

// AccountingYear returns the accounting year a request is charged to.
// The year is derived from the request's start date; a balance record is
// keyed by (employee, AccountingYear(startDate)).
func AccountingYear(startDate Date) int {
	return startDate.Year()
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
