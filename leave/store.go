/*
store.go - Persistence interface for requests and balances

PURPOSE:
  Defines the boundary between the engine and whatever holds its state.
  The engine does not care whether this is SQLite, PostgreSQL, or an
  in-memory map; it only requires that the balance debit and the status
  update that triggers it be applied together or not at all.

OPTIMISTIC CONCURRENCY:
  UpdateBalance compares the record's Version against the stored one and
  fails with ErrConcurrentModification on mismatch, bumping Version on
  success. This turns the "first reader, first writer" race between two
  approvals into a detected conflict instead of a lost update.

IMPLEMENTATIONS:
  - store/sqlite: production store (SQL transaction per unit of work)
  - leave/store:  in-memory store for tests and development
*/
package leave

import "context"

// Store handles persistence of leave requests and balances.
type Store interface {
	// CreateRequest persists a new request.
	CreateRequest(ctx context.Context, r *Request) error

	// GetRequest returns a request by ID, or ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (*Request, error)

	// UpdateRequest persists status/decision changes to an existing
	// request, or ErrRequestNotFound.
	UpdateRequest(ctx context.Context, r *Request) error

	// ListRequests returns requests matching the filter, ordered by
	// start date then creation time.
	ListRequests(ctx context.Context, f RequestFilter) ([]*Request, error)

	// GetBalance returns the balance for an employee-year, or
	// ErrBalanceNotFound.
	GetBalance(ctx context.Context, employeeID EmployeeID, year int) (*Balance, error)

	// CreateBalance materializes a new balance record, or
	// ErrBalanceExists if the employee-year is already present.
	CreateBalance(ctx context.Context, b *Balance) error

	// UpdateBalance persists a balance mutation guarded by the version
	// check. On success the stored Version is incremented.
	UpdateBalance(ctx context.Context, b *Balance) error
}

// TxStore wraps Store with unit-of-work support. The lifecycle uses it so
// the approve path's re-check, debit, and status flip commit atomically.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// RequestFilter narrows ListRequests. Nil fields match everything.
type RequestFilter struct {
	EmployeeID *EmployeeID
	Status     *Status

	// Inclusive bounds on the request's start date.
	From *Date
	To   *Date
}

// Matches reports whether a request satisfies the filter. Store
// implementations may use it directly or translate it into SQL.
func (f RequestFilter) Matches(r *Request) bool {
	if f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.From != nil && r.StartDate.Before(*f.From) {
		return false
	}
	if f.To != nil && r.StartDate.After(*f.To) {
		return false
	}
	return true
}
