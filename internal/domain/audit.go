package domain

import (
	"strings"
	"time"
)

// Actor identifies who performed a mutation. It is passed explicitly to
// every mutating service call and stamped onto audit columns and revisions.
type Actor struct {
	Username string `json:"username"`
	Type     string `json:"type"`
}

// SystemActor is used when no authenticated member is available, e.g. the
// CLI bootstrap or bulk imports.
var SystemActor = Actor{Username: "system", Type: "SYSTEM"}

// ActorFor returns the actor for an authenticated member.
func ActorFor(email string, role Role) Actor {
	return Actor{Username: email, Type: "ROLE_" + string(role)}
}

// OrSystem returns a, or SystemActor when a carries no username.
func (a Actor) OrSystem() Actor {
	if strings.TrimSpace(a.Username) == "" {
		return SystemActor
	}
	return a
}

// Privileged reports whether the actor is an admin or the system itself.
func (a Actor) Privileged() bool {
	return a.Type == "ROLE_"+string(RoleAdmin) || a == SystemActor
}

// Audit holds the creation and last modification stamps shared by every entity.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// Stamp initializes both creation and update stamps.
func (a *Audit) Stamp(actor Actor, now time.Time) {
	actor = actor.OrSystem()
	a.CreatedAt = now
	a.CreatedBy = actor.Username
	a.UpdatedAt = now
	a.UpdatedBy = actor.Username
}

// Touch records a modification.
func (a *Audit) Touch(actor Actor, now time.Time) {
	a.UpdatedAt = now
	a.UpdatedBy = actor.OrSystem().Username
}

// RevisionType is the kind of change a revision entry records.
type RevisionType int

// Revision types. Values are persisted.
const (
	RevisionAdd RevisionType = 0
	RevisionMod RevisionType = 1
	RevisionDel RevisionType = 2
)

// String returns ADD, MOD or DEL.
func (t RevisionType) String() string {
	switch t {
	case RevisionAdd:
		return "ADD"
	case RevisionMod:
		return "MOD"
	case RevisionDel:
		return "DEL"
	default:
		return "UNKNOWN"
	}
}

// AuditedEntity names an entity kind that keeps a revision history.
type AuditedEntity string

// Audited entity kinds.
const (
	AuditBook        AuditedEntity = "book"
	AuditTransaction AuditedEntity = "book_transaction"
)

// RevisionEntry is one entity change inside a revision.
type RevisionEntry struct {
	Entity   AuditedEntity
	EntityID int64
	Type     RevisionType
	// Snapshot is the entity state after the change (before it, for DEL).
	Snapshot any
}

// Revision is a persisted audit record for a single entity.
type Revision struct {
	Rev       int64        `json:"rev"`
	Timestamp time.Time    `json:"timestamp"`
	Username  string       `json:"username"`
	UserType  string       `json:"user_type"`
	Type      RevisionType `json:"revtype"`
	EntityID  int64        `json:"entity_id"`
	Snapshot  []byte       `json:"-"`
}
