/*
lifecycle.go - Request lifecycle and approval state machine

PURPOSE:
  Governs the legal transitions of a leave request and the balance side
  effects of each one. All balance mutation in the system funnels through
  this file.

STATE MACHINE:

  submit ──▶ PENDING ──▶ APPROVED   (debits balance for drawing types)
                  │
                  ├────▶ REJECTED   (no ledger effect)
                  │
                  └────▶ CANCELLED  (no ledger effect)

  APPROVED, REJECTED and CANCELLED are terminal. There is no un-approve
  path: rejecting or cancelling an already-approved request is an
  InvalidStateTransition, the same as any other illegal move.

DEBIT POINT:
  Pending requests never hold balance. Submit validates against the
  balance as observed at submission time but reserves nothing, so two
  pending submissions that together exceed the remainder can coexist.
  The authoritative check happens inside Approve, in the same store
  transaction as the debit and the status flip. If concurrent approvals
  consumed the remainder first, Approve fails with InsufficientBalance
  and the request stays PENDING; it is not auto-rejected.

BATCH SEMANTICS:
  DecideBatch processes each ID independently and reports a per-item
  outcome. A mix of already-processed and still-pending rows partially
  succeeds with a precise per-row error list.
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the request lifecycle over a transactional store.
type Service struct {
	store TxStore

	// DefaultAnnualGrant, when positive, lazily materializes a balance
	// with this many granted days the first time an employee-year is
	// touched. Zero disables lazy materialization.
	DefaultAnnualGrant Days

	// Overridable for tests.
	Now   func() time.Time
	NewID func() RequestID
}

func NewService(store TxStore) *Service {
	return &Service{
		store: store,
		Now:   time.Now,
		NewID: func() RequestID { return RequestID(uuid.NewString()) },
	}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit validates a candidate request against the current balance and,
// on success, creates it in PENDING. The balance is not debited here.
func (s *Service) Submit(ctx context.Context, raw RawRequest) (*Request, error) {
	balance, err := s.balanceSnapshotFor(ctx, raw)
	if err != nil {
		return nil, err
	}

	validated, err := Validate(raw, balance)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	req := &Request{
		ID:            s.NewID(),
		EmployeeID:    validated.EmployeeID,
		Type:          validated.Policy.Code,
		Duration:      validated.Duration.Code,
		StartDate:     validated.StartDate,
		EndDate:       validated.EndDate,
		Reason:        validated.Reason,
		Status:        StatusPending,
		RequestedDays: validated.RequestedDays,
		Year:          validated.Year,
		CreatedAt:     now,
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}
	return req, nil
}

// balanceSnapshotFor fetches (and lazily materializes, if configured) the
// balance used for the pre-flight check. Non-drawing types need none.
func (s *Service) balanceSnapshotFor(ctx context.Context, raw RawRequest) (*Balance, error) {
	policy, err := PolicyFor(raw.Type)
	if err != nil {
		return nil, err
	}
	if !policy.DrawsDownBalance {
		return nil, nil
	}
	if raw.StartDate.IsZero() || raw.EndDate.IsZero() || raw.EndDate.Before(raw.StartDate) {
		return nil, ErrInvalidDateRange
	}
	return s.ensureBalance(ctx, s.store, raw.EmployeeID, AccountingYear(raw.StartDate))
}

// ensureBalance loads the employee-year record, materializing it with the
// default grant when configured.
func (s *Service) ensureBalance(ctx context.Context, st Store, employeeID EmployeeID, year int) (*Balance, error) {
	balance, err := st.GetBalance(ctx, employeeID, year)
	if err == nil {
		return balance, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	if !s.DefaultAnnualGrant.IsPositive() {
		return nil, err
	}

	fresh := NewBalance(employeeID, year, s.DefaultAnnualGrant)
	if createErr := st.CreateBalance(ctx, fresh); createErr != nil {
		// Lost a materialization race; the winner's record is fine.
		if b, getErr := st.GetBalance(ctx, employeeID, year); getErr == nil {
			return b, nil
		}
		return nil, createErr
	}
	return fresh, nil
}

// =============================================================================
// APPROVE / REJECT / CANCEL
// =============================================================================

// Approve transitions a PENDING request to APPROVED. For drawing types
// the fresh-balance re-check, the debit, and the status flip are one
// atomic unit: no interleaving approval can observe a remaining balance
// another approval has spent but not committed.
func (s *Service) Approve(ctx context.Context, id RequestID, approverID, comment string) (*Request, error) {
	var approved *Request
	err := s.store.WithTx(ctx, func(st Store) error {
		req, err := st.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidStateTransitionError{RequestID: id, Current: req.Status, Attempted: "approve"}
		}

		// Cheap, deterministic shape rules first.
		if err := Revalidate(req); err != nil {
			return err
		}

		if req.DrawsDownBalance() {
			balance, err := s.ensureBalance(ctx, st, req.EmployeeID, req.Year)
			if err != nil {
				return err
			}
			if err := balance.Debit(req.RequestedDays); err != nil {
				return err
			}
			if err := st.UpdateBalance(ctx, balance); err != nil {
				return fmt.Errorf("failed to persist balance debit: %w", err)
			}
		}

		now := s.Now()
		req.Status = StatusApproved
		req.DecidedAt = &now
		req.DecidedBy = &approverID
		req.DecisionComment = comment
		if err := st.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to persist approval: %w", err)
		}
		approved = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject transitions a PENDING request to REJECTED. No ledger effect:
// PENDING never debited the balance.
func (s *Service) Reject(ctx context.Context, id RequestID, approverID, comment string) (*Request, error) {
	return s.decideTerminal(ctx, id, StatusRejected, "reject", approverID, comment)
}

// Cancel transitions a PENDING request to CANCELLED. Cancelling an
// already-approved leave is not supported.
func (s *Service) Cancel(ctx context.Context, id RequestID, actorID string) (*Request, error) {
	return s.decideTerminal(ctx, id, StatusCancelled, "cancel", actorID, "")
}

func (s *Service) decideTerminal(ctx context.Context, id RequestID, target Status, attempted, actorID, comment string) (*Request, error) {
	var decided *Request
	err := s.store.WithTx(ctx, func(st Store) error {
		req, err := st.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return &InvalidStateTransitionError{RequestID: id, Current: req.Status, Attempted: attempted}
		}

		now := s.Now()
		req.Status = target
		req.DecidedAt = &now
		req.DecidedBy = &actorID
		req.DecisionComment = comment
		if err := st.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("failed to persist decision: %w", err)
		}
		decided = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// =============================================================================
// BATCH DECISIONS
// =============================================================================

// BatchOutcome is the per-item result of a batch decision.
type BatchOutcome struct {
	RequestID RequestID
	Request   *Request
	Err       error
}

// DecideBatch approves or rejects a set of request IDs, one store
// transaction each, and never aborts the whole batch on one failure.
func (s *Service) DecideBatch(ctx context.Context, ids []RequestID, approverID string, approve bool, comment string) []BatchOutcome {
	outcomes := make([]BatchOutcome, 0, len(ids))
	for _, id := range ids {
		var (
			req *Request
			err error
		)
		if approve {
			req, err = s.Approve(ctx, id, approverID, comment)
		} else {
			req, err = s.Reject(ctx, id, approverID, comment)
		}
		outcomes = append(outcomes, BatchOutcome{RequestID: id, Request: req, Err: err})
	}
	return outcomes
}

// =============================================================================
// QUERIES AND PROVISIONING
// =============================================================================

// GetRequest returns a single request.
func (s *Service) GetRequest(ctx context.Context, id RequestID) (*Request, error) {
	return s.store.GetRequest(ctx, id)
}

// PendingRequests returns the approval queue, optionally narrowed by
// employee and start-date range.
func (s *Service) PendingRequests(ctx context.Context, employeeID *EmployeeID, from, to *Date) ([]*Request, error) {
	pending := StatusPending
	return s.store.ListRequests(ctx, RequestFilter{
		EmployeeID: employeeID,
		Status:     &pending,
		From:       from,
		To:         to,
	})
}

// RequestsForEmployee returns all of an employee's requests.
func (s *Service) RequestsForEmployee(ctx context.Context, employeeID EmployeeID) ([]*Request, error) {
	return s.store.ListRequests(ctx, RequestFilter{EmployeeID: &employeeID})
}

// Balance returns the employee-year ledger record.
func (s *Service) Balance(ctx context.Context, employeeID EmployeeID, year int) (*Balance, error) {
	return s.store.GetBalance(ctx, employeeID, year)
}

// GrantAnnual materializes a new balance for an employee-year with the
// given allotment. Year rollover is exactly this: a new record; prior
// years remain untouched.
func (s *Service) GrantAnnual(ctx context.Context, employeeID EmployeeID, year int, granted Days) (*Balance, error) {
	if granted.IsNegative() {
		return nil, fmt.Errorf("grant must not be negative, got %s", granted)
	}
	balance := NewBalance(employeeID, year, granted)
	if err := s.store.CreateBalance(ctx, balance); err != nil {
		return nil, err
	}
	return balance, nil
}
