/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

LOCALIZATION:
  The domain keeps one canonical status representation. Korean display
  labels and user-facing rejection messages are produced here, at the
  boundary, and are never compared against in business logic.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/hrworks/leave-engine/leave"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

// SubmitLeaveRequest is the leave submission payload.
type SubmitLeaveRequest struct {
	Type      string `json:"type"`
	Duration  string `json:"duration"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// DecisionRequest is the approval/rejection/cancellation payload.
type DecisionRequest struct {
	ActorID string `json:"actor_id"`
	Comment string `json:"comment,omitempty"`
}

// BatchDecisionRequest decides a set of selected request IDs at once.
type BatchDecisionRequest struct {
	RequestIDs []string `json:"request_ids"`
	ApproverID string   `json:"approver_id"`
	Approved   bool     `json:"approved"`
	Comment    string   `json:"comment,omitempty"`
}

// GrantBalanceRequest materializes an employee-year balance.
type GrantBalanceRequest struct {
	Year        int     `json:"year"`
	GrantedDays float64 `json:"granted_days"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	Type          string  `json:"type"`
	TypeName      string  `json:"type_name"`
	Duration      string  `json:"duration"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	StatusLabel   string  `json:"status_label"`
	RequestedDays string  `json:"requested_days"`
	Year          int     `json:"year"`
	CreatedAt     string  `json:"created_at"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	DecidedBy     *string `json:"decided_by,omitempty"`
	Comment       string  `json:"comment,omitempty"`
}

// BalanceDTO represents the annual leave ledger record.
type BalanceDTO struct {
	EmployeeID   string `json:"employee_id"`
	Year         int    `json:"year"`
	TotalGranted string `json:"total_granted"`
	Used         string `json:"used"`
	Remaining    string `json:"remaining"`
}

// PolicyDTO represents one leave type policy row.
type PolicyDTO struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Paid             bool   `json:"paid"`
	DrawsDownBalance bool   `json:"draws_down_balance"`
	MinDays          int    `json:"min_days"`
	MaxDays          int    `json:"max_days"`
	AllowsPartialDay bool   `json:"allows_partial_day"`
}

// DurationDTO represents one duration model row.
type DurationDTO struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Fraction string `json:"fraction"`
}

// BatchOutcomeDTO is the per-item result of a batch decision.
type BatchOutcomeDTO struct {
	RequestID string           `json:"request_id"`
	OK        bool             `json:"ok"`
	Request   *LeaveRequestDTO `json:"request,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// BatchDecisionResponse summarizes a batch decision.
type BatchDecisionResponse struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Outcomes  []BatchOutcomeDTO `json:"outcomes"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toRequestDTO(r *leave.Request) *LeaveRequestDTO {
	dto := &LeaveRequestDTO{
		ID:            string(r.ID),
		EmployeeID:    string(r.EmployeeID),
		Type:          string(r.Type),
		TypeName:      typeName(r.Type),
		Duration:      string(r.Duration),
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		Reason:        r.Reason,
		Status:        string(r.Status),
		StatusLabel:   statusLabel(r.Status),
		RequestedDays: r.RequestedDays.String(),
		Year:          r.Year,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		DecidedBy:     r.DecidedBy,
		Comment:       r.DecisionComment,
	}
	if r.DecidedAt != nil {
		s := r.DecidedAt.UTC().Format(time.RFC3339)
		dto.DecidedAt = &s
	}
	return dto
}

func toBalanceDTO(b *leave.Balance) *BalanceDTO {
	return &BalanceDTO{
		EmployeeID:   string(b.EmployeeID),
		Year:         b.Year,
		TotalGranted: b.TotalGranted.String(),
		Used:         b.Used.String(),
		Remaining:    b.Remaining().String(),
	}
}

func toPolicyDTO(p leave.TypePolicy) PolicyDTO {
	return PolicyDTO{
		Code:             string(p.Code),
		Name:             p.Name,
		Paid:             p.Paid,
		DrawsDownBalance: p.DrawsDownBalance,
		MinDays:          p.MinDays,
		MaxDays:          p.MaxDays,
		AllowsPartialDay: p.AllowsPartialDay,
	}
}

func toDurationDTO(u leave.DurationUnit) DurationDTO {
	return DurationDTO{
		Code:     string(u.Code),
		Name:     u.Name,
		Fraction: u.Fraction.String(),
	}
}

// statusLabel maps the canonical status to its Korean display label.
func statusLabel(s leave.Status) string {
	switch s {
	case leave.StatusPending:
		return "대기"
	case leave.StatusApproved:
		return "승인"
	case leave.StatusRejected:
		return "반려"
	case leave.StatusCancelled:
		return "취소"
	}
	return string(s)
}

func typeName(code leave.LeaveType) string {
	p, err := leave.PolicyFor(code)
	if err != nil {
		return string(code)
	}
	return p.Name
}

// userMessage renders a business-rule rejection as a specific, actionable
// message. Generic "failed" messages are never shown.
func userMessage(err error) string {
	var (
		insufficient *leave.InsufficientBalanceError
		exact        *leave.InvalidDayCountError
		ranged       *leave.DayCountOutOfRangeError
		partial      *leave.PartialDaySpanError
		duration     *leave.DurationNotAllowedError
		transition   *leave.InvalidStateTransitionError
	)
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("연차가 부족합니다 (잔여 %s일, 신청 %s일)",
			insufficient.Remaining, insufficient.Requested)
	case errors.As(err, &exact):
		return fmt.Sprintf("%s은(는) 정확히 %d일이어야 합니다 (신청 %d일)",
			typeName(exact.Type), exact.Required, exact.Got)
	case errors.As(err, &ranged):
		return fmt.Sprintf("%s은(는) %d~%d일 범위여야 합니다 (신청 %d일)",
			typeName(ranged.Type), ranged.Min, ranged.Max, ranged.Got)
	case errors.As(err, &partial):
		return "반차/반반차는 하루 단위로만 신청할 수 있습니다"
	case errors.As(err, &duration):
		return fmt.Sprintf("%s은(는) 반차/반반차를 사용할 수 없습니다", typeName(duration.Type))
	case errors.As(err, &transition):
		return fmt.Sprintf("이미 처리된 신청입니다 (현재 상태: %s)", statusLabel(transition.Current))
	case errors.Is(err, leave.ErrInvalidDateRange):
		return "시작일과 종료일을 확인해 주세요"
	case errors.Is(err, leave.ErrBalanceNotFound):
		return "해당 연도의 연차 정보가 없습니다"
	case errors.Is(err, leave.ErrBalanceExists):
		return "해당 연도의 연차가 이미 부여되어 있습니다"
	}
	return err.Error()
}
