package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
	"github.com/libraryhub/library-server/internal/validation"
)

// BookService manages the catalogue.
type BookService struct {
	store     store.Store
	validator *validation.Validator
	now       Clock
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(st store.Store, v *validation.Validator, now Clock, logger *slog.Logger) *BookService {
	return &BookService{
		store:     st,
		validator: v,
		now:       orNow(now),
		logger:    orDiscard(logger),
	}
}

// CreateBookRequest is the payload for adding a book.
type CreateBookRequest struct {
	Title           string  `json:"title" validate:"required,notblank,max=255" doc:"Book title"`
	Author          string  `json:"author" validate:"required,notblank,max=255" doc:"Author name"`
	ISBN            string  `json:"isbn" validate:"required,isbn" doc:"ISBN-10 or ISBN-13; hyphens allowed"`
	Genre           string  `json:"genre,omitempty" validate:"max=100" doc:"Genre"`
	PublicationDate *string `json:"publication_date,omitempty" validate:"omitempty,pastdate" doc:"Publication date (YYYY-MM-DD)"`
	CopiesAvailable int     `json:"copies_available" validate:"gte=0" doc:"Lendable copies"`
}

// BulkCreateBooksRequest adds several books at once.
type BulkCreateBooksRequest struct {
	Books []CreateBookRequest `json:"books" validate:"required,min=1,max=500,dive" doc:"Books to add"`
}

// UpdateBookRequest changes the supplied fields of a book. Nil fields are untouched.
type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitnil,notblank,max=255" doc:"Book title"`
	Author          *string `json:"author,omitempty" validate:"omitnil,notblank,max=255" doc:"Author name"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,isbn" doc:"ISBN-10 or ISBN-13"`
	Genre           *string `json:"genre,omitempty" validate:"omitempty,max=100" doc:"Genre; empty clears it"`
	PublicationDate *string `json:"publication_date,omitempty" validate:"omitempty,pastdate" doc:"Publication date (YYYY-MM-DD)"`
	CopiesAvailable *int    `json:"copies_available,omitempty" validate:"omitempty,gte=0" doc:"Lendable copies"`
}

func (r *CreateBookRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Genre = strings.TrimSpace(r.Genre)
}

func (r *UpdateBookRequest) normalize() {
	r.Title = trimmed(r.Title)
	r.Author = trimmed(r.Author)
	r.Genre = trimmed(r.Genre)
}

func (r *CreateBookRequest) toBook() (*domain.Book, error) {
	b := &domain.Book{
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            validation.NormalizeISBN(r.ISBN),
		Genre:           r.Genre,
		CopiesAvailable: r.CopiesAvailable,
	}
	if r.PublicationDate != nil {
		d, err := domain.ParseDate(*r.PublicationDate)
		if err != nil {
			return nil, domainerrors.Validation(err.Error())
		}
		b.PublicationDate = &d
	}
	return b, nil
}

func bookNotFound(id int64) string {
	return fmt.Sprintf("book %d not found", id)
}

// Create adds a book. A duplicate isbn fails with AlreadyExists.
func (s *BookService) Create(ctx context.Context, actor domain.Actor, req CreateBookRequest) (*domain.Book, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	books, err := s.createAll(ctx, actor, []CreateBookRequest{req})
	if err != nil {
		return nil, err
	}
	return books[0], nil
}

// CreateBulk adds every book or none of them.
func (s *BookService) CreateBulk(ctx context.Context, actor domain.Actor, req BulkCreateBooksRequest) ([]*domain.Book, error) {
	req.Books = slices.Clone(req.Books)
	for i := range req.Books {
		req.Books[i].normalize()
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	seen := make(map[string]int, len(req.Books))
	for i := range req.Books {
		isbn := validation.NormalizeISBN(req.Books[i].ISBN)
		if j, dup := seen[isbn]; dup {
			return nil, domainerrors.AlreadyExistsf("books[%d] repeats isbn %s from books[%d]", i, isbn, j)
		}
		seen[isbn] = i
	}

	return s.createAll(ctx, actor, req.Books)
}

func (s *BookService) createAll(ctx context.Context, actor domain.Actor, reqs []CreateBookRequest) ([]*domain.Book, error) {
	now := s.now()
	books := make([]*domain.Book, 0, len(reqs))
	for i := range reqs {
		b, err := reqs[i].toBook()
		if err != nil {
			return nil, err
		}
		b.Stamp(actor, now)
		books = append(books, b)
	}

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		entries := make([]domain.RevisionEntry, 0, len(books))
		for _, b := range books {
			if _, err := q.GetBookByISBN(ctx, b.ISBN); err == nil {
				return domainerrors.AlreadyExistsf("book with isbn %s already exists", b.ISBN)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			if err := q.CreateBook(ctx, b); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					return domainerrors.AlreadyExistsf("book with isbn %s already exists", b.ISBN)
				}
				return err
			}
			entries = append(entries, domain.RevisionEntry{
				Entity: domain.AuditBook, EntityID: b.ID, Type: domain.RevisionAdd, Snapshot: b,
			})
		}
		_, err := q.AppendRevision(ctx, actor, now, entries...)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("books added", "count", len(books), "actor", actor.OrSystem().Username)
	return books, nil
}

// Get returns a book by id.
func (s *BookService) Get(ctx context.Context, id int64) (*domain.Book, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, translate(err, bookNotFound(id))
	}
	return b, nil
}

// Update applies the non-nil fields of req. Changing the isbn re-checks uniqueness.
func (s *BookService) Update(ctx context.Context, actor domain.Actor, id int64, req UpdateBookRequest) (*domain.Book, error) {
	req.normalize()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	var updated *domain.Book
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		b, err := q.GetBook(ctx, id)
		if err != nil {
			return translate(err, bookNotFound(id))
		}

		if req.ISBN != nil {
			isbn := validation.NormalizeISBN(*req.ISBN)
			if isbn != b.ISBN {
				if other, err := q.GetBookByISBN(ctx, isbn); err == nil && other.ID != b.ID {
					return domainerrors.AlreadyExistsf("book with isbn %s already exists", isbn)
				} else if err != nil && !errors.Is(err, store.ErrNotFound) {
					return err
				}
				b.ISBN = isbn
			}
		}
		if req.Title != nil {
			b.Title = *req.Title
		}
		if req.Author != nil {
			b.Author = *req.Author
		}
		if req.Genre != nil {
			b.Genre = *req.Genre
		}
		if req.PublicationDate != nil {
			d, err := domain.ParseDate(*req.PublicationDate)
			if err != nil {
				return domainerrors.Validation(err.Error())
			}
			b.PublicationDate = &d
		}
		if req.CopiesAvailable != nil {
			b.CopiesAvailable = *req.CopiesAvailable
		}

		b.Touch(actor, now)
		if err := q.UpdateBook(ctx, b); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.AlreadyExistsf("book with isbn %s already exists", b.ISBN)
			}
			return translate(err, bookNotFound(id))
		}
		if _, err := q.AppendRevision(ctx, actor, now, domain.RevisionEntry{
			Entity: domain.AuditBook, EntityID: b.ID, Type: domain.RevisionMod, Snapshot: b,
		}); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book updated", "book_id", id, "actor", actor.OrSystem().Username)
	return updated, nil
}

// Delete removes a book and every transaction referencing it.
func (s *BookService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	now := s.now()
	var removed int
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		b, err := q.GetBook(ctx, id)
		if err != nil {
			return translate(err, bookNotFound(id))
		}

		entries, err := transactionDeletions(ctx, q, id, 0)
		if err != nil {
			return err
		}
		removed = len(entries)
		if _, err := q.DeleteTransactionsFor(ctx, id, 0); err != nil {
			return err
		}
		if err := q.DeleteBook(ctx, id); err != nil {
			return translate(err, bookNotFound(id))
		}

		entries = append(entries, domain.RevisionEntry{
			Entity: domain.AuditBook, EntityID: b.ID, Type: domain.RevisionDel, Snapshot: b,
		})
		_, err = q.AppendRevision(ctx, actor, now, entries...)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("book deleted", "book_id", id, "transactions_removed", removed, "actor", actor.OrSystem().Username)
	return nil
}

// transactionDeletions snapshots every transaction about to be cascaded.
func transactionDeletions(ctx context.Context, q store.Queries, bookID, memberID int64) ([]domain.RevisionEntry, error) {
	ids, err := q.ListTransactionIDs(ctx, bookID, memberID)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.RevisionEntry, 0, len(ids)+1)
	for _, txID := range ids {
		tx, err := q.GetTransaction(ctx, txID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.RevisionEntry{
			Entity: domain.AuditTransaction, EntityID: tx.ID, Type: domain.RevisionDel, Snapshot: tx,
		})
	}
	return entries, nil
}

// Search returns a page of books matching filter, most recently updated first.
// size is capped at MaxPageSize.
func (s *BookService) Search(ctx context.Context, filter store.BookFilter, page, size int) (domain.Page[*domain.Book], error) {
	req, err := pageRequest(page, size)
	if err != nil {
		return domain.Page[*domain.Book]{}, err
	}
	items, total, err := s.store.SearchBooks(ctx, filter, req)
	if err != nil {
		return domain.Page[*domain.Book]{}, err
	}
	return domain.NewPage(items, total, req), nil
}

// Revisions returns a book's audit history, oldest first. History outlives
// the book; an id that never existed is NotFound.
func (s *BookService) Revisions(ctx context.Context, id int64) ([]domain.Revision, error) {
	revs, err := s.store.ListRevisions(ctx, domain.AuditBook, id)
	if err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		if _, err := s.store.GetBook(ctx, id); err != nil {
			return nil, translate(err, bookNotFound(id))
		}
	}
	return revs, nil
}
