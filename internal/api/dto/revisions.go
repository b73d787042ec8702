package dto

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/libraryhub/library-server/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RevisionResponse is one audit history entry.
type RevisionResponse struct {
	Rev       int64     `json:"rev" doc:"Revision number, increasing across all entities"`
	Timestamp time.Time `json:"timestamp" doc:"When the change committed"`
	Username  string    `json:"username" doc:"Acting user"`
	UserType  string    `json:"user_type" doc:"Acting user type, ROLE_<role> or SYSTEM"`
	Type      string    `json:"type" doc:"ADD, MOD or DEL"`
	EntityID  int64     `json:"entity_id" doc:"Audited entity ID"`
	Snapshot  any       `json:"snapshot,omitempty" doc:"Entity state after the change"`
}

// FromRevisions maps audit history. Snapshots that fail to decode are
// omitted rather than failing the listing.
func FromRevisions(revs []domain.Revision) []RevisionResponse {
	out := make([]RevisionResponse, 0, len(revs))
	for _, r := range revs {
		var snapshot any
		if len(r.Snapshot) > 0 {
			if err := json.Unmarshal(r.Snapshot, &snapshot); err != nil {
				snapshot = nil
			}
		}
		out = append(out, RevisionResponse{
			Rev:       r.Rev,
			Timestamp: r.Timestamp,
			Username:  r.Username,
			UserType:  r.UserType,
			Type:      r.Type.String(),
			EntityID:  r.EntityID,
			Snapshot:  snapshot,
		})
	}
	return out
}
