package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
	"github.com/libraryhub/library-server/internal/validation"
)

// TransactionService runs the borrowing lifecycle:
//
//	REQUESTED -> APPROVED -> RETURNED
//	REQUESTED -> CANCELLED
//	REQUESTED -> REQUESTED (re-stamps the request date)
//
// Every change to a transaction, the matching copy adjustment on its book
// and the revision describing both commit in one unit of work.
type TransactionService struct {
	store     store.Store
	validator *validation.Validator
	now       Clock
	logger    *slog.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(st store.Store, v *validation.Validator, now Clock, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:     st,
		validator: v,
		now:       orNow(now),
		logger:    orDiscard(logger),
	}
}

// CreateTransactionRequest asks to borrow a book.
type CreateTransactionRequest struct {
	BookID   int64 `json:"book_id" validate:"required,gt=0" doc:"Book to borrow"`
	MemberID int64 `json:"member_id" validate:"required,gt=0" doc:"Borrowing member"`
}

// UpdateTransactionRequest moves a transaction to a new status.
type UpdateTransactionRequest struct {
	Status     string  `json:"status" validate:"required,oneof=REQUESTED APPROVED RETURNED CANCELLED" doc:"Target status"`
	DueDate    *string `json:"due_date,omitempty" doc:"Required when approving (YYYY-MM-DD, today or later)"`
	ReturnDate *string `json:"return_date,omitempty" doc:"When returning (YYYY-MM-DD, defaults to today)"`
}

func transactionNotFound(id int64) string {
	return fmt.Sprintf("book transaction %d not found", id)
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{field: "must be a date (YYYY-MM-DD)"})
	}
	return &d, nil
}

// Create requests a book for a member and reserves one copy.
func (s *TransactionService) Create(ctx context.Context, actor domain.Actor, req CreateTransactionRequest) (*domain.BookTransaction, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	today := domain.Today(now)

	var created *domain.BookTransaction
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		active, err := q.ActiveTransactionExists(ctx, req.BookID, req.MemberID)
		if err != nil {
			return err
		}
		if active {
			return domainerrors.AlreadyExists("member already has an active transaction for this book")
		}

		if _, err := q.GetBook(ctx, req.BookID); err != nil {
			return translate(err, bookNotFound(req.BookID))
		}
		if _, err := q.GetMember(ctx, req.MemberID); err != nil {
			return translate(err, memberNotFound(req.MemberID))
		}

		t := &domain.BookTransaction{
			BookID:      req.BookID,
			MemberID:    req.MemberID,
			RequestDate: today,
			Status:      domain.StatusRequested,
		}
		t.Stamp(actor, now)
		if err := q.CreateTransaction(ctx, t); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.AlreadyExists("member already has an active transaction for this book")
			}
			return err
		}

		if err := q.AdjustCopies(ctx, req.BookID, -1, actor, now); err != nil {
			return translate(err, bookNotFound(req.BookID))
		}

		if created, err = q.GetTransaction(ctx, t.ID); err != nil {
			return err
		}
		return s.record(ctx, q, actor, now, created, domain.RevisionAdd, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book requested",
		"transaction_id", created.ID,
		"book_id", created.BookID,
		"member_id", created.MemberID,
		"actor", actor.OrSystem().Username,
	)
	return created, nil
}

// record appends one revision for t and, when withBook is set, the current
// state of its book.
func (s *TransactionService) record(ctx context.Context, q store.Queries, actor domain.Actor, now time.Time, t *domain.BookTransaction, kind domain.RevisionType, withBook bool) error {
	entries := []domain.RevisionEntry{{
		Entity: domain.AuditTransaction, EntityID: t.ID, Type: kind, Snapshot: t,
	}}
	if withBook {
		b, err := q.GetBook(ctx, t.BookID)
		if err != nil {
			return err
		}
		entries = append(entries, domain.RevisionEntry{
			Entity: domain.AuditBook, EntityID: b.ID, Type: domain.RevisionMod, Snapshot: b,
		})
	}
	_, err := q.AppendRevision(ctx, actor, now, entries...)
	return err
}

// Transition moves a transaction to req.Status, applying the date rules
// and copy adjustment of the target state. Disallowed moves fail with
// Validation before anything is written.
func (s *TransactionService) Transition(ctx context.Context, actor domain.Actor, id int64, req UpdateTransactionRequest) (*domain.BookTransaction, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	next, _ := domain.ParseStatus(req.Status)

	due, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	returned, err := parseOptionalDate("return_date", req.ReturnDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := domain.Today(now)

	var (
		updated *domain.BookTransaction
		from    domain.TransactionStatus
	)
	err = s.store.WithTx(ctx, func(q store.Queries) error {
		t, err := q.GetTransaction(ctx, id)
		if err != nil {
			return translate(err, transactionNotFound(id))
		}
		from = t.Status

		if !t.Status.CanTransition(next) {
			return domainerrors.Validationf("cannot change status from %s to %s", t.Status, next)
		}

		switch next {
		case domain.StatusRequested:
			t.RequestDate = today
		case domain.StatusApproved:
			if due == nil {
				return domainerrors.ValidationWithDetails("validation failed", map[string]string{"due_date": "is required to approve"})
			}
			if due.Before(today) {
				return domainerrors.ValidationWithDetails("validation failed", map[string]string{"due_date": "must be today or later"})
			}
			t.IssueDate = &today
			t.DueDate = due
		case domain.StatusReturned:
			r := today
			if returned != nil {
				r = *returned
			}
			if r.Before(today) {
				return domainerrors.ValidationWithDetails("validation failed", map[string]string{"return_date": "must be today or later"})
			}
			t.ReturnDate = &r
		case domain.StatusCancelled:
		}

		t.Status = next
		t.Touch(actor, now)
		if err := q.UpdateTransaction(ctx, t); err != nil {
			return translate(err, transactionNotFound(id))
		}

		delta := domain.CopyDelta(next)
		if delta != 0 {
			if err := q.AdjustCopies(ctx, t.BookID, delta, actor, now); err != nil {
				return translate(err, bookNotFound(t.BookID))
			}
		}

		if updated, err = q.GetTransaction(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, q, actor, now, updated, domain.RevisionMod, delta != 0)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book transaction updated",
		"transaction_id", id,
		"from", from,
		"to", next,
		"actor", actor.OrSystem().Username,
	)
	return updated, nil
}

// Delete removes a transaction without restoring copies.
func (s *TransactionService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	now := s.now()
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		t, err := q.GetTransaction(ctx, id)
		if err != nil {
			return translate(err, transactionNotFound(id))
		}
		if err := q.DeleteTransaction(ctx, id); err != nil {
			return translate(err, transactionNotFound(id))
		}
		return s.record(ctx, q, actor, now, t, domain.RevisionDel, false)
	})
	if err != nil {
		return err
	}

	s.logger.Info("book transaction deleted", "transaction_id", id, "actor", actor.OrSystem().Username)
	return nil
}

// Get returns a transaction with its book and member summaries.
func (s *TransactionService) Get(ctx context.Context, id int64) (*domain.BookTransaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, translate(err, transactionNotFound(id))
	}
	return t, nil
}

// GetOwned is Get restricted to memberID's transactions. Other members'
// transactions are reported as NotFound, exactly like missing ones.
func (s *TransactionService) GetOwned(ctx context.Context, id, memberID int64) (*domain.BookTransaction, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.MemberID != memberID {
		return nil, domainerrors.NotFound(transactionNotFound(id))
	}
	return t, nil
}

// Search returns a page of transactions matching filter, most recently
// updated first. size is capped at MaxPageSize.
func (s *TransactionService) Search(ctx context.Context, filter store.TransactionFilter, page, size int) (domain.Page[*domain.BookTransaction], error) {
	req, err := pageRequest(page, size)
	if err != nil {
		return domain.Page[*domain.BookTransaction]{}, err
	}
	items, total, err := s.store.SearchTransactions(ctx, filter, req)
	if err != nil {
		return domain.Page[*domain.BookTransaction]{}, err
	}
	return domain.NewPage(items, total, req), nil
}

// Overdue lists loans past their due date. A zero memberID lists everyone's.
func (s *TransactionService) Overdue(ctx context.Context, memberID int64) ([]*domain.BookTransaction, error) {
	if memberID != 0 {
		if _, err := s.store.GetMember(ctx, memberID); err != nil {
			return nil, translate(err, memberNotFound(memberID))
		}
	}
	return s.store.ListOverdue(ctx, domain.Today(s.now()), memberID)
}

// Revisions returns a transaction's audit history, oldest first.
func (s *TransactionService) Revisions(ctx context.Context, id int64) ([]domain.Revision, error) {
	revs, err := s.store.ListRevisions(ctx, domain.AuditTransaction, id)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		if _, err := s.store.GetTransaction(ctx, id); err != nil {
			return nil, translate(err, transactionNotFound(id))
		}
	}
	return revs, nil
}
