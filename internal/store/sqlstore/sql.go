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
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

// timestampLayout is fixed width so stored values sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

// auditRow holds the audit columns shared by every entity table.
type auditRow struct {
	CreatedAt string `db:"created_at"`
	CreatedBy string `db:"created_by"`
	UpdatedAt string `db:"updated_at"`
	UpdatedBy string `db:"updated_by"`
}

func (r auditRow) toDomain() (domain.Audit, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return domain.Audit{}, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return domain.Audit{}, err
	}
	return domain.Audit{
		CreatedAt: created,
		CreatedBy: r.CreatedBy,
		UpdatedAt: updated,
		UpdatedBy: r.UpdatedBy,
	}, nil
}

func auditRecord(a domain.Audit) goqu.Record {
	return goqu.Record{
		"created_at": formatTime(a.CreatedAt),
		"created_by": a.CreatedBy,
		"updated_at": formatTime(a.UpdatedAt),
		"updated_by": a.UpdatedBy,
	}
}

func touchRecord(a domain.Audit) goqu.Record {
	return goqu.Record{
		"updated_at": formatTime(a.UpdatedAt),
		"updated_by": a.UpdatedBy,
	}
}

// merge copies every key of src into dst and returns dst.
func merge(dst goqu.Record, src goqu.Record) goqu.Record {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullDate returns a YYYY-MM-DD string or nil for SQL NULL.
func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatDate(*t)
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (q *queries) from(table any) *goqu.SelectDataset {
	return q.dialect.From(table).Prepared(true)
}

// insert adds a row and returns its generated id. goqu's sqlite3 dialect
// has no RETURNING support, so SQLite reads LastInsertId instead.
func (q *queries) insert(ctx context.Context, table string, rec goqu.Record) (int64, error) {
	ds := q.dialect.Insert(table).Rows(rec).Prepared(true)

	if q.driver == DriverPostgres {
		query, args, err := ds.Returning("id").ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		var id int64
		if err := q.ex.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, mapError(err)
		}
		return id, nil
	}

	res, err := q.exec(ctx, ds)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (q *queries) exec(ctx context.Context, b sqlBuilder) (sql.Result, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.ex.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// execOne executes a statement that must touch exactly one row.
func (q *queries) execOne(ctx context.Context, b sqlBuilder) error {
	res, err := q.exec(ctx, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q *queries) get(ctx context.Context, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := sqlx.GetContext(ctx, q.ex, dest, query, args...); err != nil {
		return mapError(err)
	}
	return nil
}

func (q *queries) selectAll(ctx context.Context, dest any, b sqlBuilder) error {
	query, args, err := b.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := sqlx.SelectContext(ctx, q.ex, dest, query, args...); err != nil {
		return mapError(err)
	}
	return nil
}

// count returns the number of rows matched by ds, ignoring any ordering or
// pagination already applied.
func (q *queries) count(ctx context.Context, ds *goqu.SelectDataset) (int64, error) {
	var n int64
	if err := q.get(ctx, &n, ds.ClearOrder().ClearLimit().ClearOffset().Select(goqu.COUNT(goqu.Star()))); err != nil {
		return 0, err
	}
	return n, nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return store.ErrAlreadyExists.WithCause(err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// containsAny matches a lowercased free-text query as a substring of any
// of cols. An empty query yields nil, meaning no predicate.
func containsAny(query string, cols ...exp.IdentifierExpression) exp.Expression {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	pattern := "%" + q + "%"
	ors := make([]exp.Expression, 0, len(cols))
	for _, c := range cols {
		ors = append(ors, goqu.Func("LOWER", c).Like(pattern))
	}
	return goqu.Or(ors...)
}

// where applies the non-nil expressions as an AND.
func where(ds *goqu.SelectDataset, exprs ...exp.Expression) *goqu.SelectDataset {
	kept := make([]exp.Expression, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return ds
	}
	return ds.Where(kept...)
}

// paginate orders by most recently updated first and applies the page window.
func paginate(ds *goqu.SelectDataset, table string, page domain.PageRequest) *goqu.SelectDataset {
	return ds.
		Order(goqu.T(table).Col("updated_at").Desc(), goqu.T(table).Col("id").Desc()).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset()))
}
