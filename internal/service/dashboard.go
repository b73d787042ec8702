package service

import (
	"context"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

// DashboardService computes read-only counters. Nothing is cached; each
// call reflects the committed state at the time of the call.
type DashboardService struct {
	store store.Store
	now   Clock
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(st store.Store, now Clock) *DashboardService {
	return &DashboardService{store: st, now: orNow(now)}
}

// Admin returns library-wide counts.
func (s *DashboardService) Admin(ctx context.Context) (domain.AdminCounts, error) {
	return s.store.AdminCounts(ctx, domain.Today(s.now()))
}

// Member returns counts for one member, or NotFound.
func (s *DashboardService) Member(ctx context.Context, memberID int64) (domain.MemberCounts, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return domain.MemberCounts{}, translate(err, memberNotFound(memberID))
	}
	return s.store.MemberCounts(ctx, memberID, domain.Today(s.now()))
}
