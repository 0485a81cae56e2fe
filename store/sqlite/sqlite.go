/*
Package sqlite provides a SQLite-backed implementation of leave.TxStore.

PURPOSE:
  Persists leave requests and annual balances. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  leave_requests: One row per leave application, status and decision
                  fields updated in place.
  leave_balances: One row per employee per accounting year, guarded by
                  an optimistic version column.

ATOMICITY:
  WithTx wraps the approval path's balance re-check, debit, and status
  update in one SQL transaction. There is no intermediate state where a
  request is APPROVED but the balance was not debited.

OPTIMISTIC LOCKING:
  UpdateBalance runs
    UPDATE ... SET version = version + 1 WHERE ... AND version = ?
  and treats zero affected rows as a conflict. Two approvals racing for
  the same employee-year balance cannot lose an update.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/leave.db")   // ":memory:" for tests
  if err != nil { ... }
  defer st.Close()
  svc := leave.NewService(st)

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hrworks/leave-engine/leave"
)

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
}

var _ leave.TxStore = (*Store)(nil)

// New opens (creating if needed) the database at dbPath. Use ":memory:"
// for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_requests (
		id               TEXT PRIMARY KEY,
		employee_id      TEXT NOT NULL,
		leave_type       TEXT NOT NULL,
		duration         TEXT NOT NULL,
		start_date       TEXT NOT NULL,
		end_date         TEXT NOT NULL,
		reason           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		requested_days   TEXT NOT NULL,
		year             INTEGER NOT NULL,
		created_at       TEXT NOT NULL,
		decided_at       TEXT,
		decided_by       TEXT,
		decision_comment TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status_date
		ON leave_requests(status, start_date);

	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id   TEXT NOT NULL,
		year          INTEGER NOT NULL,
		total_granted TEXT NOT NULL,
		used          TEXT NOT NULL,
		version       INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (employee_id, year)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the same statement helpers
// serve both paths.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, r *leave.Request) error {
	return createRequest(ctx, s.db, r)
}

func createRequest(ctx context.Context, q querier, r *leave.Request) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests
			(id, employee_id, leave_type, duration, start_date, end_date,
			 reason, status, requested_days, year, created_at,
			 decided_at, decided_by, decision_comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.EmployeeID), string(r.Type), string(r.Duration),
		r.StartDate.String(), r.EndDate.String(),
		r.Reason, string(r.Status), r.RequestedDays.String(), r.Year,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullTime(r.DecidedAt), nullStr(r.DecidedBy), r.DecisionComment,
	)
	return err
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id leave.RequestID) (*leave.Request, error) {
	row := q.QueryRowContext(ctx, selectRequestCols+` WHERE id = ?`, string(id))
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrRequestNotFound
	}
	return r, err
}

func (s *Store) UpdateRequest(ctx context.Context, r *leave.Request) error {
	return updateRequest(ctx, s.db, r)
}

func updateRequest(ctx context.Context, q querier, r *leave.Request) error {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, decided_at = ?, decided_by = ?, decision_comment = ?
		WHERE id = ?`,
		string(r.Status), nullTime(r.DecidedAt), nullStr(r.DecidedBy),
		r.DecisionComment, string(r.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrRequestNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	return listRequests(ctx, s.db, f)
}

func listRequests(ctx context.Context, q querier, f leave.RequestFilter) ([]*leave.Request, error) {
	query := selectRequestCols + ` WHERE 1=1`
	var args []any
	if f.EmployeeID != nil {
		query += ` AND employee_id = ?`
		args = append(args, string(*f.EmployeeID))
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		query += ` AND start_date >= ?`
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += ` AND start_date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY start_date, created_at`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectRequestCols = `
	SELECT id, employee_id, leave_type, duration, start_date, end_date,
	       reason, status, requested_days, year, created_at,
	       decided_at, decided_by, decision_comment
	FROM leave_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*leave.Request, error) {
	var (
		r                            leave.Request
		id, employeeID, leaveType    string
		duration, startDate, endDate string
		status, requestedDays        string
		createdAt                    string
		decidedAt, decidedBy         sql.NullString
	)
	err := row.Scan(&id, &employeeID, &leaveType, &duration, &startDate, &endDate,
		&r.Reason, &status, &requestedDays, &r.Year, &createdAt,
		&decidedAt, &decidedBy, &r.DecisionComment)
	if err != nil {
		return nil, err
	}

	r.ID = leave.RequestID(id)
	r.EmployeeID = leave.EmployeeID(employeeID)
	r.Type = leave.LeaveType(leaveType)
	r.Duration = leave.Duration(duration)
	r.Status = leave.Status(status)

	if r.StartDate, err = leave.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("corrupt start_date for request %s: %w", id, err)
	}
	if r.EndDate, err = leave.ParseDate(endDate); err != nil {
		return nil, fmt.Errorf("corrupt end_date for request %s: %w", id, err)
	}
	if r.RequestedDays, err = leave.ParseDays(requestedDays); err != nil {
		return nil, fmt.Errorf("corrupt requested_days for request %s: %w", id, err)
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for request %s: %w", id, err)
	}
	if decidedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, decidedAt.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt decided_at for request %s: %w", id, err)
		}
		r.DecidedAt = &t
	}
	if decidedBy.Valid {
		by := decidedBy.String
		r.DecidedBy = &by
	}
	return &r, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nullStr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetBalance(ctx context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	return getBalance(ctx, s.db, employeeID, year)
}

func getBalance(ctx context.Context, q querier, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	row := q.QueryRowContext(ctx, `
		SELECT employee_id, year, total_granted, used, version
		FROM leave_balances WHERE employee_id = ? AND year = ?`,
		string(employeeID), year)

	var (
		b             leave.Balance
		id            string
		granted, used string
	)
	err := row.Scan(&id, &b.Year, &granted, &used, &b.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrBalanceNotFound
	}
	if err != nil {
		return nil, err
	}
	b.EmployeeID = leave.EmployeeID(id)
	if b.TotalGranted, err = leave.ParseDays(granted); err != nil {
		return nil, fmt.Errorf("corrupt total_granted for %s/%d: %w", id, year, err)
	}
	if b.Used, err = leave.ParseDays(used); err != nil {
		return nil, fmt.Errorf("corrupt used for %s/%d: %w", id, year, err)
	}
	return &b, nil
}

func (s *Store) CreateBalance(ctx context.Context, b *leave.Balance) error {
	return createBalance(ctx, s.db, b)
}

func createBalance(ctx context.Context, q querier, b *leave.Balance) error {
	if b.Version == 0 {
		b.Version = 1
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_balances (employee_id, year, total_granted, used, version)
		VALUES (?, ?, ?, ?, ?)`,
		string(b.EmployeeID), b.Year, b.TotalGranted.String(), b.Used.String(), b.Version,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return leave.ErrBalanceExists
	}
	return err
}

func (s *Store) UpdateBalance(ctx context.Context, b *leave.Balance) error {
	return updateBalance(ctx, s.db, b)
}

// updateBalance applies the optimistic version check in the statement
// itself so the compare-and-swap is atomic even outside WithTx.
func updateBalance(ctx context.Context, q querier, b *leave.Balance) error {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_balances
		SET total_granted = ?, used = ?, version = version + 1
		WHERE employee_id = ? AND year = ? AND version = ?`,
		b.TotalGranted.String(), b.Used.String(),
		string(b.EmployeeID), b.Year, b.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a stale version from a missing row.
		if _, getErr := getBalance(ctx, q, b.EmployeeID, b.Year); getErr != nil {
			return getErr
		}
		return leave.ErrConcurrentModification
	}
	b.Version++
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a SQL transaction. If fn returns an error
// the transaction is rolled back, otherwise committed.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// txStore routes Store calls through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) CreateRequest(ctx context.Context, r *leave.Request) error {
	return createRequest(ctx, ts.tx, r)
}

func (ts *txStore) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) UpdateRequest(ctx context.Context, r *leave.Request) error {
	return updateRequest(ctx, ts.tx, r)
}

func (ts *txStore) ListRequests(ctx context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	return listRequests(ctx, ts.tx, f)
}

func (ts *txStore) GetBalance(ctx context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	return getBalance(ctx, ts.tx, employeeID, year)
}

func (ts *txStore) CreateBalance(ctx context.Context, b *leave.Balance) error {
	return createBalance(ctx, ts.tx, b)
}

func (ts *txStore) UpdateBalance(ctx context.Context, b *leave.Balance) error {
	return updateBalance(ctx, ts.tx, b)
}
