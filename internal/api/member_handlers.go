package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/libraryhub/library-server/internal/api/dto"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/service"
	"github.com/libraryhub/library-server/internal/store"
)

func (s *Server) registerMemberRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createMember",
		Method:        http.MethodPost,
		Path:          "/api/v1/member",
		Summary:       "Register member",
		Description:   "Registers a member. Requires admin:create.",
		Tags:          []string{"Member"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/member",
		Summary:     "Search members",
		Description: "Pages through members, most recently updated first. Requires admin:read.",
		Tags:        []string{"Member"},
		Security:    bearerSecurity,
	}, s.handleSearchMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMember",
		Method:      http.MethodGet,
		Path:        "/api/v1/member/{id}",
		Summary:     "Get member",
		Description: "Admins may read any member; others only themselves.",
		Tags:        []string{"Member"},
		Security:    bearerSecurity,
	}, s.handleGetMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMember",
		Method:      http.MethodPut,
		Path:        "/api/v1/member/{id}",
		Summary:     "Update member",
		Description: "Admins may update any member; others only themselves and never their role.",
		Tags:        []string{"Member"},
		Security:    bearerSecurity,
	}, s.handleUpdateMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/member/{id}",
		Summary:     "Delete member",
		Description: "Deletes a member and their transactions. Requires admin:delete.",
		Tags:        []string{"Member"},
		Security:    bearerSecurity,
	}, s.handleDeleteMember)
}

// === DTOs ===

// CreateMemberInput wraps a new member for Huma.
type CreateMemberInput struct {
	Body service.CreateMemberRequest
}

// SearchMembersInput holds member search parameters.
type SearchMembersInput struct {
	Query string `query:"query" doc:"Matched against name, phone, email and role"`
	Role  string `query:"role" doc:"Exact role"`
	dto.PaginationParams
}

// GetMemberInput identifies a member.
type GetMemberInput struct {
	ID int64 `path:"id" doc:"Member ID"`
}

// UpdateMemberInput wraps a member change for Huma.
type UpdateMemberInput struct {
	ID   int64 `path:"id" doc:"Member ID"`
	Body service.UpdateMemberRequest
}

// MemberPageOutput wraps a page of members for Huma.
type MemberPageOutput struct {
	Body dto.PageResponse[dto.MemberResponse]
}

// === Handlers ===

func (s *Server) handleCreateMember(ctx context.Context, input *CreateMemberInput) (*MemberOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminCreate)
	if err != nil {
		return nil, err
	}

	created, err := s.services.Member.Create(ctx, m.Actor(), input.Body)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: dto.FromMember(created)}, nil
}

func (s *Server) handleSearchMembers(ctx context.Context, input *SearchMembersInput) (*MemberPageOutput, error) {
	if _, err := requirePermission(ctx, domain.PermAdminRead); err != nil {
		return nil, err
	}

	filter := store.MemberFilter{Query: input.Query}
	if input.Role != "" {
		role, _ := domain.ParseRole(input.Role)
		filter.Role = role
	}

	page, err := s.services.Member.Search(ctx, filter, input.Page, input.Size)
	if err != nil {
		return nil, err
	}
	return &MemberPageOutput{Body: dto.NewPageResponse(page, dto.FromMember)}, nil
}

func (s *Server) handleGetMember(ctx context.Context, input *GetMemberInput) (*MemberOutput, error) {
	if _, err := requireSelfOr(ctx, domain.PermAdminRead, input.ID); err != nil {
		return nil, err
	}

	m, err := s.services.Member.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: dto.FromMember(m)}, nil
}

func (s *Server) handleUpdateMember(ctx context.Context, input *UpdateMemberInput) (*MemberOutput, error) {
	caller, err := requireSelfOr(ctx, domain.PermAdminUpdate, input.ID)
	if err != nil {
		return nil, err
	}

	m, err := s.services.Member.Update(ctx, caller.Actor(), input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: dto.FromMember(m)}, nil
}

func (s *Server) handleDeleteMember(ctx context.Context, input *GetMemberInput) (*dto.MessageOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminDelete)
	if err != nil {
		return nil, err
	}

	if err := s.services.Member.Delete(ctx, m.Actor(), input.ID); err != nil {
		return nil, err
	}
	return &dto.MessageOutput{Body: dto.MessageResponse{Message: "Member deleted"}}, nil
}
