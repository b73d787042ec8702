package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

const booksTable = "books"

var bookColumns = []any{
	"id", "title", "author", "isbn", "genre", "publication_date", "copies_available",
	"created_at", "created_by", "updated_at", "updated_by",
}

type bookRow struct {
	ID              int64          `db:"id"`
	Title           string         `db:"title"`
	Author          string         `db:"author"`
	ISBN            string         `db:"isbn"`
	Genre           sql.NullString `db:"genre"`
	PublicationDate sql.NullString `db:"publication_date"`
	CopiesAvailable int            `db:"copies_available"`
	auditRow
}

func (r *bookRow) toDomain() (*domain.Book, error) {
	audit, err := r.auditRow.toDomain()
	if err != nil {
		return nil, err
	}
	pub, err := parseNullDate(r.PublicationDate)
	if err != nil {
		return nil, err
	}
	return &domain.Book{
		Audit:           audit,
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN,
		Genre:           r.Genre.String,
		PublicationDate: pub,
		CopiesAvailable: r.CopiesAvailable,
	}, nil
}

func bookRecord(b *domain.Book) goqu.Record {
	return goqu.Record{
		"title":            b.Title,
		"author":           b.Author,
		"isbn":             b.ISBN,
		"genre":            nullString(b.Genre),
		"publication_date": nullDate(b.PublicationDate),
		"copies_available": b.CopiesAvailable,
	}
}

// CreateBook inserts a book and sets its ID.
// Returns store.ErrAlreadyExists on duplicate isbn.
func (q *queries) CreateBook(ctx context.Context, b *domain.Book) error {
	id, err := q.insert(ctx, booksTable, merge(bookRecord(b), auditRecord(b.Audit)))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// GetBook retrieves a book by ID.
func (q *queries) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return q.getBook(ctx, goqu.C("id").Eq(id))
}

// GetBookByISBN retrieves a book by its exact isbn.
func (q *queries) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return q.getBook(ctx, goqu.C("isbn").Eq(isbn))
}

func (q *queries) getBook(ctx context.Context, cond exp.Expression) (*domain.Book, error) {
	var row bookRow
	if err := q.get(ctx, &row, q.from(booksTable).Select(bookColumns...).Where(cond)); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// UpdateBook overwrites every mutable column of an existing book.
func (q *queries) UpdateBook(ctx context.Context, b *domain.Book) error {
	return q.execOne(ctx, q.dialect.Update(booksTable).
		Set(merge(bookRecord(b), touchRecord(b.Audit))).
		Where(goqu.C("id").Eq(b.ID)).
		Prepared(true))
}

// DeleteBook removes a book. Transactions must be removed first.
func (q *queries) DeleteBook(ctx context.Context, id int64) error {
	return q.execOne(ctx, q.dialect.Delete(booksTable).Where(goqu.C("id").Eq(id)).Prepared(true))
}

// SearchBooks returns one page of books matching f and the total match count.
func (q *queries) SearchBooks(ctx context.Context, f store.BookFilter, page domain.PageRequest) ([]*domain.Book, int64, error) {
	t := goqu.T(booksTable)
	ds := where(q.from(booksTable),
		containsAny(f.Query, t.Col("title"), t.Col("author"), t.Col("isbn"), t.Col("genre")),
		genreEquals(f.Genre),
	)

	total, err := q.count(ctx, ds)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if total == 0 {
		return []*domain.Book{}, 0, nil
	}

	var rows []bookRow
	if err := q.selectAll(ctx, &rows, paginate(ds.Select(bookColumns...), booksTable, page)); err != nil {
		return nil, 0, fmt.Errorf("search books: %w", err)
	}

	books := make([]*domain.Book, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, nil
}

func genreEquals(genre string) exp.Expression {
	g := strings.ToLower(strings.TrimSpace(genre))
	if g == "" {
		return nil
	}
	return goqu.Func("LOWER", goqu.C("genre")).Eq(g)
}

// AdjustCopies changes a book's available copies by delta in a single
// guarded statement, so concurrent decrements can never drive the count
// below zero.
func (q *queries) AdjustCopies(ctx context.Context, bookID int64, delta int, actor domain.Actor, at time.Time) error {
	cond := []exp.Expression{goqu.C("id").Eq(bookID)}
	if delta < 0 {
		cond = append(cond, goqu.C("copies_available").Gte(-delta))
	}

	err := q.execOne(ctx, q.dialect.Update(booksTable).
		Set(goqu.Record{
			"copies_available": goqu.L("copies_available + ?", delta),
			"updated_at":       formatTime(at),
			"updated_by":       actor.OrSystem().Username,
		}).
		Where(cond...).
		Prepared(true))
	if !errors.Is(err, store.ErrNotFound) || delta >= 0 {
		return err
	}

	// Zero rows: either the book is gone or the guard failed.
	if _, getErr := q.GetBook(ctx, bookID); getErr != nil {
		return getErr
	}
	return store.ErrNoCopies
}
