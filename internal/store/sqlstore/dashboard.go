package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/libraryhub/library-server/internal/domain"
)

var (
	borrowed = goqu.And(
		txT.Col("status").Eq(string(domain.StatusApproved)),
		txT.Col("return_date").IsNull(),
	)
	requested = txT.Col("status").Eq(string(domain.StatusRequested))
)

func (q *queries) countTransactions(ctx context.Context, exprs ...exp.Expression) (int64, error) {
	return q.count(ctx, where(q.from(goqu.T(transactionsTable).As("t")), exprs...))
}

// AdminCounts computes the library-wide dashboard counters.
func (q *queries) AdminCounts(ctx context.Context, today time.Time) (domain.AdminCounts, error) {
	var (
		c   domain.AdminCounts
		err error
	)

	if c.TotalBooks, err = q.count(ctx, q.from(booksTable)); err != nil {
		return c, fmt.Errorf("count books: %w", err)
	}
	if c.TotalMembers, err = q.count(ctx, q.from(membersTable)); err != nil {
		return c, fmt.Errorf("count members: %w", err)
	}
	if c.TotalBorrowedBooks, err = q.countTransactions(ctx, borrowed); err != nil {
		return c, fmt.Errorf("count borrowed: %w", err)
	}
	if c.TotalOverdueBooks, err = q.countTransactions(ctx, overdue(today)); err != nil {
		return c, fmt.Errorf("count overdue: %w", err)
	}
	if c.TotalRequestedBooks, err = q.countTransactions(ctx, requested); err != nil {
		return c, fmt.Errorf("count requested: %w", err)
	}
	return c, nil
}

// MemberCounts computes the dashboard counters for one member.
func (q *queries) MemberCounts(ctx context.Context, memberID int64, today time.Time) (domain.MemberCounts, error) {
	var (
		c   domain.MemberCounts
		err error
	)
	mine := txT.Col("member_id").Eq(memberID)

	if c.TotalTransactions, err = q.countTransactions(ctx, mine); err != nil {
		return c, fmt.Errorf("count transactions: %w", err)
	}

	distinct := q.from(goqu.T(transactionsTable).As("t")).
		Select(goqu.COUNT(goqu.DISTINCT(txT.Col("book_id")))).
		Where(mine)
	if err = q.get(ctx, &c.TotalBooks, distinct); err != nil {
		return c, fmt.Errorf("count distinct books: %w", err)
	}

	if c.TotalRequestedBooks, err = q.countTransactions(ctx, mine, requested); err != nil {
		return c, fmt.Errorf("count requested: %w", err)
	}
	if c.TotalBorrowedBooks, err = q.countTransactions(ctx, mine, borrowed); err != nil {
		return c, fmt.Errorf("count borrowed: %w", err)
	}
	if c.TotalOverdueBooks, err = q.countTransactions(ctx, mine, overdue(today)); err != nil {
		return c, fmt.Errorf("count overdue: %w", err)
	}
	return c, nil
}
