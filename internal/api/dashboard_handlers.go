package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/libraryhub/library-server/internal/domain"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard/admin/count",
		Summary:     "Library counts",
		Description: "Library-wide totals. Requires admin:read.",
		Tags:        []string{"Dashboard"},
		Security:    bearerSecurity,
	}, s.handleAdminDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "memberDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard/member/count",
		Summary:     "Member counts",
		Description: "Totals for one member. Members always get their own.",
		Tags:        []string{"Dashboard"},
		Security:    bearerSecurity,
	}, s.handleMemberDashboard)
}

// AdminCountsOutput wraps the library-wide counts for Huma.
type AdminCountsOutput struct {
	Body domain.AdminCounts
}

// MemberDashboardInput selects the member for the dashboard.
type MemberDashboardInput struct {
	MemberID int64 `query:"memberId" doc:"Member to report on (admins only, defaults to the caller)"`
}

// MemberCountsOutput wraps a member's counts for Huma.
type MemberCountsOutput struct {
	Body domain.MemberCounts
}

func (s *Server) handleAdminDashboard(ctx context.Context, _ *struct{}) (*AdminCountsOutput, error) {
	if _, err := requirePermission(ctx, domain.PermAdminRead); err != nil {
		return nil, err
	}

	counts, err := s.services.Dashboard.Admin(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminCountsOutput{Body: counts}, nil
}

func (s *Server) handleMemberDashboard(ctx context.Context, input *MemberDashboardInput) (*MemberCountsOutput, error) {
	m, err := requirePermission(ctx, domain.PermMemberRead)
	if err != nil {
		return nil, err
	}

	memberID := scopeMember(m, input.MemberID)
	if memberID == 0 {
		memberID = m.ID
	}

	counts, err := s.services.Dashboard.Member(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &MemberCountsOutput{Body: counts}, nil
}
