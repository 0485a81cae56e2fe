package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrworks/leave-engine/api"
	"github.com/hrworks/leave-engine/leave"
	"github.com/hrworks/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *leave.Service) {
	t.Helper()
	svc := leave.NewService(store.NewMemory())
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: "http://localhost:5173",
		Env:            "test",
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func grantBalance(t *testing.T, ts *httptest.Server, employeeID string, year int, days float64) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/employees/"+employeeID+"/balance",
		api.GrantBalanceRequest{Year: year, GrantedDays: days})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func submit(t *testing.T, ts *httptest.Server, employeeID string, body api.SubmitLeaveRequest) api.LeaveRequestDTO {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/employees/"+employeeID+"/requests", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[api.LeaveRequestDTO](t, resp)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmitRequest_Created(t *testing.T) {
	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	dto := submit(t, ts, "emp-1", api.SubmitLeaveRequest{
		Type:      "ANNUAL",
		Duration:  "HALF_DAY_AM",
		StartDate: "2025-06-10",
		EndDate:   "2025-06-10",
		Reason:    "병원 방문",
	})

	assert.Equal(t, "emp-1", dto.EmployeeID)
	assert.Equal(t, "PENDING", dto.Status)
	assert.Equal(t, "대기", dto.StatusLabel)
	assert.Equal(t, "0.5", dto.RequestedDays)
	assert.Equal(t, 2025, dto.Year)
	assert.NotEmpty(t, dto.ID)
}

func TestSubmitRequest_DurationDefaultsToFullDay(t *testing.T) {
	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	dto := submit(t, ts, "emp-1", api.SubmitLeaveRequest{
		Type:      "ANNUAL",
		StartDate: "2025-06-10",
		EndDate:   "2025-06-11",
	})

	assert.Equal(t, "FULL_DAY", dto.Duration)
	assert.Equal(t, "2", dto.RequestedDays)
}

func TestSubmitRequest_InsufficientBalance_Conflict(t *testing.T) {
	// The rejection must carry a precise, renderable message, never a
	// generic "failed".

	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 3)

	resp := postJSON(t, ts.URL+"/api/employees/emp-1/requests", api.SubmitLeaveRequest{
		Type:      "ANNUAL",
		Duration:  "FULL_DAY",
		StartDate: "2025-08-04",
		EndDate:   "2025-08-08",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "conflict", body.Error)
	assert.Equal(t, "연차가 부족합니다 (잔여 3일, 신청 5일)", body.Message)
}

func TestSubmitRequest_ExactLengthViolation_BadRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/employees/emp-1/requests", api.SubmitLeaveRequest{
		Type:      "MATERNITY",
		Duration:  "FULL_DAY",
		StartDate: "2025-03-01",
		EndDate:   "2025-05-28", // 89 days
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Contains(t, body.Message, "90")
}

func TestSubmitRequest_MalformedDate_BadRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/employees/emp-1/requests", api.SubmitLeaveRequest{
		Type:      "ANNUAL",
		StartDate: "June 10th",
		EndDate:   "2025-06-10",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// DECISIONS
// =============================================================================

func TestApproveRequest_DebitsBalance(t *testing.T) {
	ts, svc := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	dto := submit(t, ts, "emp-1", api.SubmitLeaveRequest{
		Type: "ANNUAL", StartDate: "2025-06-10", EndDate: "2025-06-10",
	})

	resp := postJSON(t, ts.URL+"/api/requests/"+dto.ID+"/approve",
		api.DecisionRequest{ActorID: "mgr-7", Comment: "승인"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	approved := decodeBody[api.LeaveRequestDTO](t, resp)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, "승인", approved.StatusLabel)
	require.NotNil(t, approved.DecidedBy)
	assert.Equal(t, "mgr-7", *approved.DecidedBy)

	b, err := svc.Balance(context.Background(), "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(leave.DaysOfInt(1)))
}

func TestApproveRequest_Twice_Conflict(t *testing.T) {
	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	dto := submit(t, ts, "emp-1", api.SubmitLeaveRequest{
		Type: "ANNUAL", StartDate: "2025-06-10", EndDate: "2025-06-10",
	})

	resp := postJSON(t, ts.URL+"/api/requests/"+dto.ID+"/approve", api.DecisionRequest{ActorID: "mgr-7"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/requests/"+dto.ID+"/approve", api.DecisionRequest{ActorID: "mgr-7"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Message, "이미 처리된 신청입니다")
}

func TestCancelRequest_MissingActor_BadRequest(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/requests/some-id/cancel", api.DecisionRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecideBatch_PartialSuccess(t *testing.T) {
	// GIVEN: Three selected rows, one already approved
	// WHEN: The batch is approved
	// THEN: 2 succeed, 1 reports a per-row error, nothing aborts

	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	var ids []string
	for day := 9; day <= 11; day++ {
		date := fmt.Sprintf("2025-06-%02d", day)
		dto := submit(t, ts, "emp-1", api.SubmitLeaveRequest{
			Type: "ANNUAL", StartDate: date, EndDate: date,
		})
		ids = append(ids, dto.ID)
	}

	resp := postJSON(t, ts.URL+"/api/requests/"+ids[1]+"/approve", api.DecisionRequest{ActorID: "mgr-7"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/requests/decide", api.BatchDecisionRequest{
		RequestIDs: ids,
		ApproverID: "mgr-7",
		Approved:   true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	batch := decodeBody[api.BatchDecisionResponse](t, resp)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	require.Len(t, batch.Outcomes, 3)
	assert.True(t, batch.Outcomes[0].OK)
	assert.False(t, batch.Outcomes[1].OK)
	assert.NotEmpty(t, batch.Outcomes[1].Error)
	assert.True(t, batch.Outcomes[2].OK)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestGetBalance_Remaining(t *testing.T) {
	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)

	resp, err := http.Get(ts.URL + "/api/employees/emp-1/balance?year=2025")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b := decodeBody[api.BalanceDTO](t, resp)
	assert.Equal(t, "15", b.TotalGranted)
	assert.Equal(t, "0", b.Used)
	assert.Equal(t, "15", b.Remaining)
}

func TestGetBalance_MissingYear_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/employees/emp-1/balance?year=1999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPendingRequests_FilterByEmployee(t *testing.T) {
	ts, _ := newTestServer(t)
	grantBalance(t, ts, "emp-1", 2025, 15)
	grantBalance(t, ts, "emp-2", 2025, 15)

	submit(t, ts, "emp-1", api.SubmitLeaveRequest{Type: "ANNUAL", StartDate: "2025-06-09", EndDate: "2025-06-09"})
	submit(t, ts, "emp-2", api.SubmitLeaveRequest{Type: "ANNUAL", StartDate: "2025-06-10", EndDate: "2025-06-10"})

	resp, err := http.Get(ts.URL + "/api/requests/pending?employee=emp-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decodeBody[[]api.LeaveRequestDTO](t, resp)
	require.Len(t, rows, 1)
	assert.Equal(t, "emp-1", rows[0].EmployeeID)
}

func TestListPolicies_FullTable(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/policies")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decodeBody[[]api.PolicyDTO](t, resp)
	assert.Len(t, rows, 11)

	byCode := map[string]api.PolicyDTO{}
	for _, p := range rows {
		byCode[p.Code] = p
	}
	assert.True(t, byCode["ANNUAL"].DrawsDownBalance)
	assert.True(t, byCode["ANNUAL"].AllowsPartialDay)
	assert.Equal(t, 90, byCode["MATERNITY"].MinDays)
	assert.Equal(t, 90, byCode["MATERNITY"].MaxDays)
}

func TestListDurations_FullModel(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/durations")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decodeBody[[]api.DurationDTO](t, resp)
	require.Len(t, rows, 5)
	assert.Equal(t, "FULL_DAY", rows[0].Code)
	assert.Equal(t, "1", rows[0].Fraction)
}
