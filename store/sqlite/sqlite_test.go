package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrworks/leave-engine/leave"
	"github.com/hrworks/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testRequest(id, employeeID string, start leave.Date) *leave.Request {
	return &leave.Request{
		ID:            leave.RequestID(id),
		EmployeeID:    leave.EmployeeID(employeeID),
		Type:          leave.TypeAnnual,
		Duration:      leave.FullDay,
		StartDate:     start,
		EndDate:       start,
		Reason:        "연차",
		Status:        leave.StatusPending,
		RequestedDays: leave.DaysOfInt(1),
		Year:          start.Year(),
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// REQUEST PERSISTENCE
// =============================================================================

func TestStore_RequestRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	req := testRequest("req-1", "emp-1", leave.NewDate(2025, 6, 10))
	require.NoError(t, st.CreateRequest(ctx, req))

	got, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)

	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.EmployeeID, got.EmployeeID)
	assert.Equal(t, req.Type, got.Type)
	assert.Equal(t, req.Duration, got.Duration)
	assert.True(t, got.StartDate.Equal(req.StartDate))
	assert.True(t, got.EndDate.Equal(req.EndDate))
	assert.Equal(t, req.Status, got.Status)
	assert.True(t, got.RequestedDays.Equal(req.RequestedDays))
	assert.Equal(t, req.Year, got.Year)
	assert.Nil(t, got.DecidedAt)
	assert.Nil(t, got.DecidedBy)
}

func TestStore_UpdateRequest_DecisionFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	req := testRequest("req-1", "emp-1", leave.NewDate(2025, 6, 10))
	require.NoError(t, st.CreateRequest(ctx, req))

	decidedAt := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	decidedBy := "mgr-7"
	req.Status = leave.StatusApproved
	req.DecidedAt = &decidedAt
	req.DecidedBy = &decidedBy
	req.DecisionComment = "승인"
	require.NoError(t, st.UpdateRequest(ctx, req))

	got, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(decidedAt))
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, "mgr-7", *got.DecidedBy)
	assert.Equal(t, "승인", got.DecisionComment)
}

func TestStore_GetRequest_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)

	err = st.UpdateRequest(context.Background(), testRequest("missing", "emp-1", leave.NewDate(2025, 6, 10)))
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestStore_ListRequests_Filters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateRequest(ctx, testRequest("req-1", "emp-1", leave.NewDate(2025, 6, 9))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("req-2", "emp-1", leave.NewDate(2025, 7, 14))))
	require.NoError(t, st.CreateRequest(ctx, testRequest("req-3", "emp-2", leave.NewDate(2025, 7, 21))))

	approved := testRequest("req-4", "emp-1", leave.NewDate(2025, 8, 1))
	approved.Status = leave.StatusApproved
	require.NoError(t, st.CreateRequest(ctx, approved))

	// By employee
	emp1 := leave.EmployeeID("emp-1")
	got, err := st.ListRequests(ctx, leave.RequestFilter{EmployeeID: &emp1})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// By status
	pending := leave.StatusPending
	got, err = st.ListRequests(ctx, leave.RequestFilter{EmployeeID: &emp1, Status: &pending})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// By start-date range, ordered by start date
	from := leave.NewDate(2025, 7, 1)
	to := leave.NewDate(2025, 7, 31)
	got, err = st.ListRequests(ctx, leave.RequestFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, leave.RequestID("req-2"), got[0].ID)
	assert.Equal(t, leave.RequestID("req-3"), got[1].ID)
}

// =============================================================================
// BALANCE PERSISTENCE
// =============================================================================

func TestStore_BalanceRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(15))))

	got, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, got.TotalGranted.Equal(leave.DaysOfInt(15)))
	assert.True(t, got.Used.IsZero())
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_DuplicateBalance_Rejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(15))))
	err := st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(20)))
	assert.ErrorIs(t, err, leave.ErrBalanceExists)
}

func TestStore_UpdateBalance_VersionConflict(t *testing.T) {
	// GIVEN: Two snapshots of the same balance row
	// WHEN: Both are written back
	// THEN: The stale writer is told, not silently overwritten

	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(15))))

	first, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	second, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)

	require.NoError(t, first.Debit(leave.DaysOfInt(2)))
	require.NoError(t, st.UpdateBalance(ctx, first))
	assert.Equal(t, int64(2), first.Version, "successful update advances the snapshot's version")

	require.NoError(t, second.Debit(leave.DaysOfInt(2)))
	err = st.UpdateBalance(ctx, second)
	assert.ErrorIs(t, err, leave.ErrConcurrentModification)

	current, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, current.Used.Equal(leave.DaysOfInt(2)), "only the first debit landed")
}

func TestStore_UpdateBalance_MissingRow(t *testing.T) {
	st := newTestStore(t)

	err := st.UpdateBalance(context.Background(), leave.NewBalance("emp-9", 2025, leave.DaysOf(15)))
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_Commit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(15))))
	req := testRequest("req-1", "emp-1", leave.NewDate(2025, 6, 10))
	require.NoError(t, st.CreateRequest(ctx, req))

	// The approve-shaped unit of work: debit + status flip together.
	err := st.WithTx(ctx, func(tx leave.Store) error {
		b, err := tx.GetBalance(ctx, "emp-1", 2025)
		if err != nil {
			return err
		}
		if err := b.Debit(leave.DaysOfInt(1)); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, b); err != nil {
			return err
		}
		req.Status = leave.StatusApproved
		return tx.UpdateRequest(ctx, req)
	})
	require.NoError(t, err)

	b, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(leave.DaysOfInt(1)))

	got, err := st.GetRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, got.Status)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateBalance(ctx, leave.NewBalance("emp-1", 2025, leave.DaysOf(15))))

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx leave.Store) error {
		b, err := tx.GetBalance(ctx, "emp-1", 2025)
		if err != nil {
			return err
		}
		if err := b.Debit(leave.DaysOfInt(5)); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, b); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	b, err := st.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.IsZero(), "rolled-back debit must not be visible")
	assert.Equal(t, int64(1), b.Version)
}

// =============================================================================
// END-TO-END WITH THE LIFECYCLE
// =============================================================================

func TestStore_DrivesLifecycle(t *testing.T) {
	// The SQLite store must satisfy the same contract the lifecycle
	// exercises against the in-memory store.

	st := newTestStore(t)
	ctx := context.Background()

	svc := leave.NewService(st)
	_, err := svc.GrantAnnual(ctx, "emp-1", 2025, leave.DaysOf(15))
	require.NoError(t, err)

	day := leave.NewDate(2025, 6, 10)
	req, err := svc.Submit(ctx, leave.RawRequest{
		EmployeeID: "emp-1",
		Type:       leave.TypeAnnual,
		Duration:   leave.HalfDayAM,
		StartDate:  day,
		EndDate:    day,
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr-7", "")
	require.NoError(t, err)

	b, err := svc.Balance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, b.Used.Equal(leave.DaysOf(0.5)))
	assert.True(t, b.Remaining().Equal(leave.DaysOf(14.5)))
}
