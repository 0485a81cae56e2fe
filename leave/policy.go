/*
policy.go - Leave type policy table and duration model

PURPOSE:
  Static registries describing each leave category's pay status, whether
  it draws down the annual balance, and its permitted day-count range,
  plus the fractional value of each duration selector.

POLICY TABLE SHAPE:
  MinDays == MaxDays == 0    unconstrained (no fixed bound is checked)
  MinDays == MaxDays  > 0    exact-length type (span must match exactly)
  otherwise                  ranged type (MinDays <= span <= MaxDays)

  Only ANNUAL draws down the balance and only ANNUAL permits half/quarter
  day durations.

FAIL FAST:
  Lookup by an unknown code is a programming error and returns a typed
  error, never a silent default. Misclassifying a leave type could
  silently bypass balance accounting.

SEE ALSO:
  - validate.go: Applies these rules to candidate requests
*/
package leave

// =============================================================================
// LEAVE TYPE POLICY TABLE
// =============================================================================

type LeaveType string

const (
	TypeAnnual         LeaveType = "ANNUAL"
	TypeSick           LeaveType = "SICK"
	TypeSickPaid       LeaveType = "SICK_PAID"
	TypeMaternity      LeaveType = "MATERNITY"
	TypePaternity      LeaveType = "PATERNITY"
	TypeChildcare      LeaveType = "CHILDCARE"
	TypeMarriage       LeaveType = "MARRIAGE"
	TypeFamilyMarriage LeaveType = "FAMILY_MARRIAGE"
	TypeBereavement    LeaveType = "BEREAVEMENT"
	TypeOfficial       LeaveType = "OFFICIAL"
	TypeUnpaid         LeaveType = "UNPAID"
)

// TypePolicy describes one leave category. The table is immutable at run
// time; it is configuration, not state.
type TypePolicy struct {
	Code             LeaveType
	Name             string
	Paid             bool
	DrawsDownBalance bool

	// Inclusive day-count bounds. Zero/zero means unconstrained.
	MinDays int
	MaxDays int

	AllowsPartialDay bool
}

// ExactLength reports whether the type requires an exact span
// (e.g. maternity leave is exactly 90 days, not "up to 90").
func (p TypePolicy) ExactLength() bool {
	return p.MinDays == p.MaxDays && p.MaxDays > 0
}

// Ranged reports whether the type bounds the span to [MinDays, MaxDays].
func (p TypePolicy) Ranged() bool {
	return p.MaxDays > 0 && !p.ExactLength()
}

// Unconstrained reports whether no fixed day-count bound applies.
func (p TypePolicy) Unconstrained() bool {
	return p.MinDays == 0 && p.MaxDays == 0
}

// typePolicies is ordered for stable listing in the API.
var typePolicies = []TypePolicy{
	{Code: TypeAnnual, Name: "연차", Paid: true, DrawsDownBalance: true, AllowsPartialDay: true},
	{Code: TypeSick, Name: "병가", Paid: true},
	{Code: TypeSickPaid, Name: "유급병가", Paid: true, MinDays: 1, MaxDays: 3},
	{Code: TypeMaternity, Name: "출산휴가", Paid: true, MinDays: 90, MaxDays: 90},
	{Code: TypePaternity, Name: "배우자출산휴가", Paid: true, MinDays: 10, MaxDays: 10},
	{Code: TypeChildcare, Name: "육아휴직", MinDays: 30, MaxDays: 365},
	{Code: TypeMarriage, Name: "결혼휴가", Paid: true, MinDays: 5, MaxDays: 5},
	{Code: TypeFamilyMarriage, Name: "가족결혼휴가", Paid: true, MinDays: 1, MaxDays: 1},
	{Code: TypeBereavement, Name: "경조휴가", Paid: true, MinDays: 1, MaxDays: 5},
	{Code: TypeOfficial, Name: "공가", Paid: true, MinDays: 1, MaxDays: 30},
	{Code: TypeUnpaid, Name: "무급휴가"},
}

var typePolicyIndex = func() map[LeaveType]TypePolicy {
	idx := make(map[LeaveType]TypePolicy, len(typePolicies))
	for _, p := range typePolicies {
		if p.MinDays > p.MaxDays {
			panic("leave: policy table has min > max for " + string(p.Code))
		}
		idx[p.Code] = p
	}
	return idx
}()

// PolicyFor resolves the policy row for a leave type code.
func PolicyFor(code LeaveType) (TypePolicy, error) {
	p, ok := typePolicyIndex[code]
	if !ok {
		return TypePolicy{}, &UnknownLeaveTypeError{Code: code}
	}
	return p, nil
}

// Policies returns the full policy table in stable order.
func Policies() []TypePolicy {
	out := make([]TypePolicy, len(typePolicies))
	copy(out, typePolicies)
	return out
}

// =============================================================================
// DURATION MODEL
// =============================================================================

type Duration string

const (
	FullDay      Duration = "FULL_DAY"
	HalfDayAM    Duration = "HALF_DAY_AM"
	HalfDayPM    Duration = "HALF_DAY_PM"
	QuarterDayAM Duration = "QUARTER_DAY_AM"
	QuarterDayPM Duration = "QUARTER_DAY_PM"
)

// DurationUnit maps a duration selector to its fractional day value.
type DurationUnit struct {
	Code     Duration
	Name     string
	Fraction Days
}

// IsFullDay reports whether the unit charges a whole day per calendar day.
func (u DurationUnit) IsFullDay() bool { return u.Code == FullDay }

var durationUnits = []DurationUnit{
	{Code: FullDay, Name: "종일", Fraction: DaysOfInt(1)},
	{Code: HalfDayAM, Name: "오전반차", Fraction: DaysOf(0.5)},
	{Code: HalfDayPM, Name: "오후반차", Fraction: DaysOf(0.5)},
	{Code: QuarterDayAM, Name: "오전반반차", Fraction: DaysOf(0.25)},
	{Code: QuarterDayPM, Name: "오후반반차", Fraction: DaysOf(0.25)},
}

var durationIndex = func() map[Duration]DurationUnit {
	idx := make(map[Duration]DurationUnit, len(durationUnits))
	for _, u := range durationUnits {
		if !u.Fraction.IsPositive() || u.Fraction.GreaterThan(DaysOfInt(1)) {
			panic("leave: duration fraction outside (0, 1] for " + string(u.Code))
		}
		idx[u.Code] = u
	}
	return idx
}()

// DurationFor resolves a duration selector code.
func DurationFor(code Duration) (DurationUnit, error) {
	u, ok := durationIndex[code]
	if !ok {
		return DurationUnit{}, &UnknownDurationError{Code: code}
	}
	return u, nil
}

// Durations returns the duration model in stable order.
func Durations() []DurationUnit {
	out := make([]DurationUnit, len(durationUnits))
	copy(out, durationUnits)
	return out
}
