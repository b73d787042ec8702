package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

const membersTable = "members"

var memberColumns = []any{
	"id", "name", "email", "phone", "role", "password_hash",
	"created_at", "created_by", "updated_at", "updated_by",
}

type memberRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Phone        string `db:"phone"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	auditRow
}

func (r *memberRow) toDomain() (*domain.Member, error) {
	audit, err := r.auditRow.toDomain()
	if err != nil {
		return nil, err
	}
	return &domain.Member{
		Audit:        audit,
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         domain.Role(r.Role),
		PasswordHash: r.PasswordHash,
	}, nil
}

func memberRecord(m *domain.Member) goqu.Record {
	return goqu.Record{
		"name":          m.Name,
		"email":         m.Email,
		"phone":         m.Phone,
		"role":          string(m.Role),
		"password_hash": m.PasswordHash,
	}
}

// CreateMember inserts a member and sets its ID.
// Returns store.ErrAlreadyExists on duplicate email.
func (q *queries) CreateMember(ctx context.Context, m *domain.Member) error {
	id, err := q.insert(ctx, membersTable, merge(memberRecord(m), auditRecord(m.Audit)))
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// GetMember retrieves a member by ID.
func (q *queries) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	return q.getMember(ctx, goqu.C("id").Eq(id))
}

// GetMemberByEmail retrieves a member by exact email.
func (q *queries) GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return q.getMember(ctx, goqu.C("email").Eq(email))
}

func (q *queries) getMember(ctx context.Context, cond exp.Expression) (*domain.Member, error) {
	var row memberRow
	if err := q.get(ctx, &row, q.from(membersTable).Select(memberColumns...).Where(cond)); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// UpdateMember overwrites every mutable column of an existing member.
func (q *queries) UpdateMember(ctx context.Context, m *domain.Member) error {
	return q.execOne(ctx, q.dialect.Update(membersTable).
		Set(merge(memberRecord(m), touchRecord(m.Audit))).
		Where(goqu.C("id").Eq(m.ID)).
		Prepared(true))
}

// DeleteMember removes a member. Transactions must be removed first.
func (q *queries) DeleteMember(ctx context.Context, id int64) error {
	return q.execOne(ctx, q.dialect.Delete(membersTable).Where(goqu.C("id").Eq(id)).Prepared(true))
}

// SearchMembers returns one page of members matching f and the total match count.
func (q *queries) SearchMembers(ctx context.Context, f store.MemberFilter, page domain.PageRequest) ([]*domain.Member, int64, error) {
	t := goqu.T(membersTable)

	var role exp.Expression
	if f.Role != "" {
		role = t.Col("role").Eq(string(f.Role))
	}

	ds := where(q.from(membersTable),
		containsAny(f.Query, t.Col("name"), t.Col("phone"), t.Col("email"), t.Col("role")),
		role,
	)

	total, err := q.count(ctx, ds)
	if err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	if total == 0 {
		return []*domain.Member{}, 0, nil
	}

	var rows []memberRow
	if err := q.selectAll(ctx, &rows, paginate(ds.Select(memberColumns...), membersTable, page)); err != nil {
		return nil, 0, fmt.Errorf("search members: %w", err)
	}

	members := make([]*domain.Member, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, nil
}
