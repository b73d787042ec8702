package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

const transactionsTable = "book_transactions"

var activeStatuses = []string{string(domain.StatusRequested), string(domain.StatusApproved)}

var (
	txT     = goqu.T("t")
	bookT   = goqu.T("b")
	memberT = goqu.T("m")
)

// transactionColumns selects a transaction joined with its book and member.
var transactionColumns = []any{
	txT.Col("id"), txT.Col("book_id"), txT.Col("member_id"), txT.Col("request_date"),
	txT.Col("status"), txT.Col("issue_date"), txT.Col("due_date"), txT.Col("return_date"),
	txT.Col("created_at"), txT.Col("created_by"), txT.Col("updated_at"), txT.Col("updated_by"),
	bookT.Col("title").As("book_title"),
	bookT.Col("author").As("book_author"),
	bookT.Col("isbn").As("book_isbn"),
	memberT.Col("name").As("member_name"),
	memberT.Col("email").As("member_email"),
}

type transactionRow struct {
	ID          int64          `db:"id"`
	BookID      int64          `db:"book_id"`
	MemberID    int64          `db:"member_id"`
	RequestDate string         `db:"request_date"`
	Status      string         `db:"status"`
	IssueDate   sql.NullString `db:"issue_date"`
	DueDate     sql.NullString `db:"due_date"`
	ReturnDate  sql.NullString `db:"return_date"`
	auditRow

	BookTitle   string `db:"book_title"`
	BookAuthor  string `db:"book_author"`
	BookISBN    string `db:"book_isbn"`
	MemberName  string `db:"member_name"`
	MemberEmail string `db:"member_email"`
}

func (r *transactionRow) toDomain() (*domain.BookTransaction, error) {
	audit, err := r.auditRow.toDomain()
	if err != nil {
		return nil, err
	}
	requested, err := domain.ParseDate(r.RequestDate)
	if err != nil {
		return nil, err
	}

	tx := &domain.BookTransaction{
		Audit:       audit,
		ID:          r.ID,
		BookID:      r.BookID,
		MemberID:    r.MemberID,
		RequestDate: requested,
		Status:      domain.TransactionStatus(r.Status),
		Book: domain.BookSummary{
			ID:     r.BookID,
			Title:  r.BookTitle,
			Author: r.BookAuthor,
			ISBN:   r.BookISBN,
		},
		Member: domain.MemberSummary{
			ID:    r.MemberID,
			Name:  r.MemberName,
			Email: r.MemberEmail,
		},
	}

	if tx.IssueDate, err = parseNullDate(r.IssueDate); err != nil {
		return nil, err
	}
	if tx.DueDate, err = parseNullDate(r.DueDate); err != nil {
		return nil, err
	}
	if tx.ReturnDate, err = parseNullDate(r.ReturnDate); err != nil {
		return nil, err
	}
	return tx, nil
}

func transactionRecord(t *domain.BookTransaction) goqu.Record {
	return goqu.Record{
		"book_id":      t.BookID,
		"member_id":    t.MemberID,
		"request_date": domain.FormatDate(t.RequestDate),
		"status":       string(t.Status),
		"issue_date":   nullDate(t.IssueDate),
		"due_date":     nullDate(t.DueDate),
		"return_date":  nullDate(t.ReturnDate),
	}
}

// joined selects transactions with their book and member.
func (q *queries) joined() *goqu.SelectDataset {
	return q.from(goqu.T(transactionsTable).As("t")).
		Join(goqu.T(booksTable).As("b"), goqu.On(bookT.Col("id").Eq(txT.Col("book_id")))).
		Join(goqu.T(membersTable).As("m"), goqu.On(memberT.Col("id").Eq(txT.Col("member_id"))))
}

func (q *queries) scanTransactions(ctx context.Context, ds *goqu.SelectDataset) ([]*domain.BookTransaction, error) {
	var rows []transactionRow
	if err := q.selectAll(ctx, &rows, ds.Select(transactionColumns...)); err != nil {
		return nil, err
	}
	out := make([]*domain.BookTransaction, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTransaction inserts a transaction and sets its ID. Returns
// store.ErrAlreadyExists when the pair already has an active transaction.
func (q *queries) CreateTransaction(ctx context.Context, t *domain.BookTransaction) error {
	id, err := q.insert(ctx, transactionsTable, merge(transactionRecord(t), auditRecord(t.Audit)))
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// GetTransaction retrieves a transaction with its book and member summaries.
func (q *queries) GetTransaction(ctx context.Context, id int64) (*domain.BookTransaction, error) {
	var row transactionRow
	if err := q.get(ctx, &row, q.joined().Select(transactionColumns...).Where(txT.Col("id").Eq(id))); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// UpdateTransaction overwrites the status and date columns of a transaction.
func (q *queries) UpdateTransaction(ctx context.Context, t *domain.BookTransaction) error {
	return q.execOne(ctx, q.dialect.Update(transactionsTable).
		Set(merge(transactionRecord(t), touchRecord(t.Audit))).
		Where(goqu.C("id").Eq(t.ID)).
		Prepared(true))
}

// DeleteTransaction removes a transaction.
func (q *queries) DeleteTransaction(ctx context.Context, id int64) error {
	return q.execOne(ctx, q.dialect.Delete(transactionsTable).Where(goqu.C("id").Eq(id)).Prepared(true))
}

// SearchTransactions returns one page of transactions matching f and the
// total match count.
func (q *queries) SearchTransactions(ctx context.Context, f store.TransactionFilter, page domain.PageRequest) ([]*domain.BookTransaction, int64, error) {
	var status, member exp.Expression
	if f.Status != "" {
		status = txT.Col("status").Eq(string(f.Status))
	}
	if f.MemberID != 0 {
		member = txT.Col("member_id").Eq(f.MemberID)
	}

	ds := where(q.joined(),
		containsAny(f.Query, memberT.Col("name"), bookT.Col("title")),
		status,
		member,
	)

	total, err := q.count(ctx, ds)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	if total == 0 {
		return []*domain.BookTransaction{}, 0, nil
	}

	items, err := q.scanTransactions(ctx, paginate(ds, "t", page))
	if err != nil {
		return nil, 0, fmt.Errorf("search transactions: %w", err)
	}
	return items, total, nil
}

// ActiveTransactionExists reports whether the pair has a REQUESTED or
// APPROVED transaction.
func (q *queries) ActiveTransactionExists(ctx context.Context, bookID, memberID int64) (bool, error) {
	n, err := q.count(ctx, q.from(transactionsTable).Where(
		goqu.C("book_id").Eq(bookID),
		goqu.C("member_id").Eq(memberID),
		goqu.C("status").In(activeStatuses),
	))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func ownerFilter(bookID, memberID int64) exp.Expression {
	if bookID != 0 {
		return goqu.C("book_id").Eq(bookID)
	}
	return goqu.C("member_id").Eq(memberID)
}

// ListTransactionIDs returns the ids of every transaction referencing the
// book (when bookID is set) or the member.
func (q *queries) ListTransactionIDs(ctx context.Context, bookID, memberID int64) ([]int64, error) {
	var ids []int64
	err := q.selectAll(ctx, &ids, q.from(transactionsTable).
		Select("id").
		Where(ownerFilter(bookID, memberID)).
		Order(goqu.C("id").Asc()))
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteTransactionsFor removes every transaction referencing the book
// (when bookID is set) or the member and returns the number removed.
func (q *queries) DeleteTransactionsFor(ctx context.Context, bookID, memberID int64) (int64, error) {
	res, err := q.exec(ctx, q.dialect.Delete(transactionsTable).
		Where(ownerFilter(bookID, memberID)).
		Prepared(true))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// overdue matches loans past due on today that were never returned.
func overdue(today time.Time) exp.Expression {
	return goqu.And(
		txT.Col("due_date").Lt(domain.FormatDate(today)),
		txT.Col("return_date").IsNull(),
		txT.Col("status").Neq(string(domain.StatusCancelled)),
	)
}

// ListOverdue returns overdue transactions, oldest due date first. A zero
// memberID lists every member's.
func (q *queries) ListOverdue(ctx context.Context, today time.Time, memberID int64) ([]*domain.BookTransaction, error) {
	var member exp.Expression
	if memberID != 0 {
		member = txT.Col("member_id").Eq(memberID)
	}
	ds := where(q.joined(), overdue(today), member).
		Order(txT.Col("due_date").Asc(), txT.Col("id").Asc())
	return q.scanTransactions(ctx, ds)
}
