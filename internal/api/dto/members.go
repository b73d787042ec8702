package dto

import (
	"github.com/libraryhub/library-server/internal/domain"
)

// MemberResponse is a member as returned by the API. Password hashes are
// never exposed.
type MemberResponse struct {
	ID    int64  `json:"id" doc:"Member ID"`
	Name  string `json:"name" doc:"Full name"`
	Email string `json:"email" doc:"Login email"`
	Phone string `json:"phone" doc:"Mobile number"`
	Role  string `json:"role" doc:"ADMIN, STUDENT or FACULTY"`
	AuditResponse
}

// FromMember maps a domain member.
func FromMember(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Role:          string(m.Role),
		AuditResponse: auditResponse(m.Audit),
	}
}
