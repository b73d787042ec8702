package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/libraryhub/library-server/internal/api/dto"
	"github.com/libraryhub/library-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "authenticate",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/authenticate",
		Summary:     "Authenticate",
		Description: "Exchanges member credentials for a bearer access token. Rate limited per client IP.",
		Tags:        []string{"Authentication"},
		Middlewares: huma.Middlewares{s.rateLimited(s.loginLimiter)},
	}, s.handleAuthenticate)

	huma.Register(s.api, huma.Operation{
		OperationID: "currentMember",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current member",
		Description: "Returns the member the bearer token was issued to",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleCurrentMember)
}

// === DTOs ===

// AuthenticateInput wraps the credentials for Huma.
type AuthenticateInput struct {
	Body service.LoginRequest
}

// AuthResponse is an issued access token.
type AuthResponse struct {
	AccessToken string             `json:"access_token" doc:"Bearer access token"`
	TokenType   string             `json:"token_type" doc:"Always Bearer"`
	ExpiresAt   time.Time          `json:"expires_at" doc:"Token expiry"`
	Member      dto.MemberResponse `json:"member" doc:"Authenticated member"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MemberOutput wraps a member response for Huma.
type MemberOutput struct {
	Body dto.MemberResponse
}

// === Handlers ===

func (s *Server) handleAuthenticate(ctx context.Context, input *AuthenticateInput) (*AuthOutput, error) {
	res, err := s.services.Auth.Authenticate(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		Member:      dto.FromMember(res.Member),
	}}, nil
}

func (s *Server) handleCurrentMember(ctx context.Context, _ *struct{}) (*MemberOutput, error) {
	m, err := currentMember(ctx)
	if err != nil {
		return nil, err
	}
	return &MemberOutput{Body: dto.FromMember(m)}, nil
}
