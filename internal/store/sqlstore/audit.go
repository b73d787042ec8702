package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	jsoniter "github.com/json-iterator/go"

	"github.com/libraryhub/library-server/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const revinfoTable = "revinfo"

type auditTable struct {
	name  string
	idCol string
}

var auditTables = map[domain.AuditedEntity]auditTable{
	domain.AuditBook:        {name: "books_aud", idCol: "book_id"},
	domain.AuditTransaction: {name: "book_transactions_aud", idCol: "transaction_id"},
}

type revisionRow struct {
	Rev      int64  `db:"rev"`
	RevTstmp int64  `db:"revtstmp"`
	Username string `db:"username"`
	UserType string `db:"user_type"`
	RevType  int    `db:"revtype"`
	EntityID int64  `db:"entity_id"`
	Snapshot string `db:"snapshot"`
}

// AppendRevision records one revision carrying every entry and returns
// the revision number. It must run in the same unit of work as the
// changes it describes.
func (q *queries) AppendRevision(ctx context.Context, actor domain.Actor, at time.Time, entries ...domain.RevisionEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	actor = actor.OrSystem()

	rev, err := q.insert(ctx, revinfoTable, goqu.Record{
		"revtstmp":  at.UnixMilli(),
		"username":  actor.Username,
		"user_type": actor.Type,
	})
	if err != nil {
		return 0, fmt.Errorf("insert revinfo: %w", err)
	}

	for _, e := range entries {
		tbl, ok := auditTables[e.Entity]
		if !ok {
			return 0, fmt.Errorf("entity %q is not audited", e.Entity)
		}
		snapshot, err := json.Marshal(e.Snapshot)
		if err != nil {
			return 0, fmt.Errorf("marshal %s snapshot: %w", e.Entity, err)
		}
		_, err = q.exec(ctx, q.dialect.Insert(tbl.name).Rows(goqu.Record{
			"rev":      rev,
			"revtype":  int(e.Type),
			tbl.idCol:  e.EntityID,
			"snapshot": string(snapshot),
		}).Prepared(true))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", tbl.name, err)
		}
	}
	return rev, nil
}

// ListRevisions returns the history of one entity, oldest first.
func (q *queries) ListRevisions(ctx context.Context, entity domain.AuditedEntity, entityID int64) ([]domain.Revision, error) {
	tbl, ok := auditTables[entity]
	if !ok {
		return nil, fmt.Errorf("entity %q is not audited", entity)
	}

	a := goqu.T(tbl.name).As("a")
	r := goqu.T(revinfoTable).As("r")
	ds := q.from(a).
		Join(r, goqu.On(goqu.T("r").Col("rev").Eq(goqu.T("a").Col("rev")))).
		Select(
			goqu.T("r").Col("rev"),
			goqu.T("r").Col("revtstmp"),
			goqu.T("r").Col("username"),
			goqu.T("r").Col("user_type"),
			goqu.T("a").Col("revtype"),
			goqu.T("a").Col(tbl.idCol).As("entity_id"),
			goqu.T("a").Col("snapshot"),
		).
		Where(goqu.T("a").Col(tbl.idCol).Eq(entityID)).
		Order(goqu.T("r").Col("rev").Asc())

	var rows []revisionRow
	if err := q.selectAll(ctx, &rows, ds); err != nil {
		return nil, err
	}

	revs := make([]domain.Revision, 0, len(rows))
	for _, row := range rows {
		revs = append(revs, domain.Revision{
			Rev:       row.Rev,
			Timestamp: time.UnixMilli(row.RevTstmp).UTC(),
			Username:  row.Username,
			UserType:  row.UserType,
			Type:      domain.RevisionType(row.RevType),
			EntityID:  row.EntityID,
			Snapshot:  []byte(row.Snapshot),
		})
	}
	return revs, nil
}
