/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST. Handles HTTP request/response, JSON
  serialization, and delegates every decision to the domain package.

ENDPOINTS:
  Requests:
    POST /api/employees/{id}/requests       Submit a leave request
    GET  /api/employees/{id}/requests       List an employee's requests
    GET  /api/requests/pending              Approval queue (filterable)
    GET  /api/requests/{id}                 Get one request
    POST /api/requests/{id}/approve         Approve
    POST /api/requests/{id}/reject          Reject
    POST /api/requests/{id}/cancel          Cancel (employee, pending only)
    POST /api/requests/decide               Batch approve/reject

  Balances:
    GET  /api/employees/{id}/balance        Balance view (?year=)
    POST /api/employees/{id}/balance        Grant a year's allotment

  Reference data:
    GET  /api/policies                      Leave type policy table
    GET  /api/durations                     Duration model

ERROR HANDLING:
  Errors map to JSON with appropriate HTTP status:
  - 400: Malformed payloads, unknown codes, validation rule failures
  - 404: Missing request/balance records
  - 409: Conflicts (insufficient balance at approval, illegal state
         transition, version conflict, duplicate grant)
  - 500: Store failures
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hrworks/leave-engine/leave"
)

// Handler holds the handlers' dependencies.
type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest handles POST /api/employees/{id}/requests.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var body SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	raw, err := buildRawRequest(employeeID, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	req, err := h.Service.Submit(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

func buildRawRequest(employeeID string, body SubmitLeaveRequest) (leave.RawRequest, error) {
	start, err := leave.ParseDate(body.StartDate)
	if err != nil {
		return leave.RawRequest{}, err
	}
	end, err := leave.ParseDate(body.EndDate)
	if err != nil {
		return leave.RawRequest{}, err
	}
	duration := leave.Duration(body.Duration)
	if duration == "" {
		duration = leave.FullDay
	}
	return leave.RawRequest{
		EmployeeID: leave.EmployeeID(employeeID),
		Type:       leave.LeaveType(body.Type),
		Duration:   duration,
		StartDate:  start,
		EndDate:    end,
		Reason:     body.Reason,
	}, nil
}

// ListEmployeeRequests handles GET /api/employees/{id}/requests.
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))

	requests, err := h.Service.RequestsForEmployee(r.Context(), employeeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// GetRequest handles GET /api/requests/{id}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ListPendingRequests handles GET /api/requests/pending.
// Optional query parameters: employee, from, to (start-date range).
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	var employeeID *leave.EmployeeID
	if v := r.URL.Query().Get("employee"); v != "" {
		id := leave.EmployeeID(v)
		employeeID = &id
	}

	from, err := optionalDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	to, err := optionalDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	requests, err := h.Service.PendingRequests(r.Context(), employeeID, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

func optionalDate(s string) (*leave.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := leave.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ApproveRequest handles POST /api/requests/{id}/approve.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id leave.RequestID, body DecisionRequest) (*leave.Request, error) {
		return h.Service.Approve(r.Context(), id, body.ActorID, body.Comment)
	})
}

// RejectRequest handles POST /api/requests/{id}/reject.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id leave.RequestID, body DecisionRequest) (*leave.Request, error) {
		return h.Service.Reject(r.Context(), id, body.ActorID, body.Comment)
	})
}

// CancelRequest handles POST /api/requests/{id}/cancel.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(id leave.RequestID, body DecisionRequest) (*leave.Request, error) {
		return h.Service.Cancel(r.Context(), id, body.ActorID)
	})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(leave.RequestID, DecisionRequest) (*leave.Request, error)) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var body DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if body.ActorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("actor_id is required"))
		return
	}

	req, err := fn(id, body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// DecideBatch handles POST /api/requests/decide. Items are processed
// independently; a mixed batch partially succeeds with per-row errors.
func (h *Handler) DecideBatch(w http.ResponseWriter, r *http.Request) {
	var body BatchDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if body.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("approver_id is required"))
		return
	}
	if len(body.RequestIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("request_ids must not be empty"))
		return
	}

	ids := make([]leave.RequestID, len(body.RequestIDs))
	for i, s := range body.RequestIDs {
		ids[i] = leave.RequestID(s)
	}

	outcomes := h.Service.DecideBatch(r.Context(), ids, body.ApproverID, body.Approved, body.Comment)

	resp := BatchDecisionResponse{Outcomes: make([]BatchOutcomeDTO, 0, len(outcomes))}
	for _, o := range outcomes {
		dto := BatchOutcomeDTO{RequestID: string(o.RequestID), OK: o.Err == nil}
		if o.Err != nil {
			resp.Failed++
			dto.Error = userMessage(o.Err)
		} else {
			resp.Succeeded++
			dto.Request = toRequestDTO(o.Request)
		}
		resp.Outcomes = append(resp.Outcomes, dto)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance handles GET /api/employees/{id}/balance?year=.
// The year defaults to the current year.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))

	year := leave.Today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err)
			return
		}
		year = parsed
	}

	balance, err := h.Service.Balance(r.Context(), employeeID, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// GrantBalance handles POST /api/employees/{id}/balance.
func (h *Handler) GrantBalance(w http.ResponseWriter, r *http.Request) {
	employeeID := leave.EmployeeID(chi.URLParam(r, "id"))

	var body GrantBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if body.Year == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("year is required"))
		return
	}

	balance, err := h.Service.GrantAnnual(r.Context(), employeeID, body.Year, leave.DaysOf(body.GrantedDays))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBalanceDTO(balance))
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListPolicies handles GET /api/policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies := leave.Policies()
	dtos := make([]PolicyDTO, len(policies))
	for i, p := range policies {
		dtos[i] = toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListDurations handles GET /api/durations.
func (h *Handler) ListDurations(w http.ResponseWriter, r *http.Request) {
	units := leave.Durations()
	dtos := make([]DurationDTO, len(units))
	for i, u := range units {
		dtos[i] = toDurationDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func toRequestDTOs(requests []*leave.Request) []*LeaveRequestDTO {
	dtos := make([]*LeaveRequestDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: userMessage(err),
		Detail:  err.Error(),
	})
}

// writeDomainError maps engine errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case leave.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
