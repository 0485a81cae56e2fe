// Package store provides an in-memory leave.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hrworks/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	requests map[leave.RequestID]*leave.Request
	balances map[balanceKey]*leave.Balance
}

type balanceKey struct {
	EmployeeID leave.EmployeeID
	Year       int
}

func NewMemory() *Memory {
	return &Memory{
		requests: make(map[leave.RequestID]*leave.Request),
		balances: make(map[balanceKey]*leave.Balance),
	}
}

var _ leave.TxStore = (*Memory)(nil)

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

func (m *Memory) CreateRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createRequestLocked(r)
}

func (m *Memory) createRequestLocked(r *leave.Request) error {
	m.requests[r.ID] = r.Clone()
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRequestLocked(id)
}

func (m *Memory) getRequestLocked(id leave.RequestID) (*leave.Request, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) UpdateRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRequestLocked(r)
}

func (m *Memory) updateRequestLocked(r *leave.Request) error {
	if _, ok := m.requests[r.ID]; !ok {
		return leave.ErrRequestNotFound
	}
	m.requests[r.ID] = r.Clone()
	return nil
}

func (m *Memory) ListRequests(_ context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRequestsLocked(f)
}

func (m *Memory) listRequestsLocked(f leave.RequestFilter) ([]*leave.Request, error) {
	var out []*leave.Request
	for _, r := range m.requests {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// -----------------------------------------------------------------------------
// Balances
// -----------------------------------------------------------------------------

func (m *Memory) GetBalance(_ context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBalanceLocked(employeeID, year)
}

func (m *Memory) getBalanceLocked(employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	b, ok := m.balances[balanceKey{EmployeeID: employeeID, Year: year}]
	if !ok {
		return nil, leave.ErrBalanceNotFound
	}
	return b.Clone(), nil
}

func (m *Memory) CreateBalance(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBalanceLocked(b)
}

func (m *Memory) createBalanceLocked(b *leave.Balance) error {
	k := balanceKey{EmployeeID: b.EmployeeID, Year: b.Year}
	if _, ok := m.balances[k]; ok {
		return leave.ErrBalanceExists
	}
	stored := b.Clone()
	if stored.Version == 0 {
		stored.Version = 1
	}
	m.balances[k] = stored
	b.Version = stored.Version
	return nil
}

func (m *Memory) UpdateBalance(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateBalanceLocked(b)
}

// updateBalanceLocked enforces the optimistic version check: a stale
// writer gets ErrConcurrentModification instead of silently overwriting
// a racing approval's debit.
func (m *Memory) updateBalanceLocked(b *leave.Balance) error {
	k := balanceKey{EmployeeID: b.EmployeeID, Year: b.Year}
	current, ok := m.balances[k]
	if !ok {
		return leave.ErrBalanceNotFound
	}
	if current.Version != b.Version {
		return leave.ErrConcurrentModification
	}
	stored := b.Clone()
	stored.Version = current.Version + 1
	m.balances[k] = stored
	b.Version = stored.Version
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn under the store lock with snapshot/rollback
// semantics: if fn fails, every write it made is discarded.
func (m *Memory) WithTx(_ context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&txView{parent: m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	requests map[leave.RequestID]*leave.Request
	balances map[balanceKey]*leave.Balance
}

func (m *Memory) snapshotLocked() memorySnapshot {
	reqs := make(map[leave.RequestID]*leave.Request, len(m.requests))
	for k, v := range m.requests {
		reqs[k] = v.Clone()
	}
	bals := make(map[balanceKey]*leave.Balance, len(m.balances))
	for k, v := range m.balances {
		bals[k] = v.Clone()
	}
	return memorySnapshot{requests: reqs, balances: bals}
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.requests = s.requests
	m.balances = s.balances
}

// txView routes Store calls to the locked parent without re-acquiring
// the mutex.
type txView struct {
	parent *Memory
}

func (tv *txView) CreateRequest(_ context.Context, r *leave.Request) error {
	return tv.parent.createRequestLocked(r)
}

func (tv *txView) GetRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	return tv.parent.getRequestLocked(id)
}

func (tv *txView) UpdateRequest(_ context.Context, r *leave.Request) error {
	return tv.parent.updateRequestLocked(r)
}

func (tv *txView) ListRequests(_ context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	return tv.parent.listRequestsLocked(f)
}

func (tv *txView) GetBalance(_ context.Context, employeeID leave.EmployeeID, year int) (*leave.Balance, error) {
	return tv.parent.getBalanceLocked(employeeID, year)
}

func (tv *txView) CreateBalance(_ context.Context, b *leave.Balance) error {
	return tv.parent.createBalanceLocked(b)
}

func (tv *txView) UpdateBalance(_ context.Context, b *leave.Balance) error {
	return tv.parent.updateBalanceLocked(b)
}
