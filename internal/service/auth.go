package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
	"github.com/libraryhub/library-server/internal/validation"
)

const invalidCredentials = "invalid email or password"

// dummyHash is verified against when the email is unknown so both failure
// paths cost one password derivation.
var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("not-a-real-password")
	return h
})

// AuthService handles login and access token verification.
type AuthService struct {
	store     store.Store
	tokens    auth.TokenIssuer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st store.Store, tokens auth.TokenIssuer, v *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     st,
		tokens:    tokens,
		validator: v,
		logger:    orDiscard(logger),
	}
}

// LoginRequest contains member credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" doc:"Member email"`
	Password string `json:"password" validate:"required,max=1024" doc:"Member password"`
}

// LoginResult is a freshly issued access token.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Member      *domain.Member `json:"member"`
}

// Authenticate checks credentials and issues an access token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	m, err := s.store.GetMemberByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		auth.VerifyPassword(dummyHash(), req.Password)
		s.logger.Info("login failed", "reason", "unknown email")
		return nil, domainerrors.InvalidCredentials(invalidCredentials)
	}

	if !auth.VerifyPassword(m.PasswordHash, req.Password) {
		s.logger.Info("login failed", "reason", "wrong password", "member_id", m.ID)
		return nil, domainerrors.InvalidCredentials(invalidCredentials)
	}

	if auth.NeedsRehash(m.PasswordHash) {
		s.rehash(ctx, m, req.Password)
	}

	token, expires, err := s.tokens.Issue(m)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "issue access token")
	}

	s.logger.Info("member logged in", "member_id", m.ID, "role", m.Role)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		Member:      m,
	}, nil
}

// rehash upgrades a legacy bcrypt hash. Failure only costs the upgrade.
func (s *AuthService) rehash(ctx context.Context, m *domain.Member, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("rehash password", "member_id", m.ID, "error", err)
		return
	}
	m.PasswordHash = hash
	if err := s.store.UpdateMember(ctx, m); err != nil {
		s.logger.Warn("store rehashed password", "member_id", m.ID, "error", err)
	}
}

// ResolveToken verifies a bearer token and loads the member it was issued
// to. A member deleted after issue no longer authenticates.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.Member, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainerrors.Unauthorized("missing access token")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domainerrors.TokenExpired("access token expired")
		}
		return nil, domainerrors.Unauthorized("invalid access token")
	}

	m, err := s.store.GetMember(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid access token")
		}
		return nil, err
	}
	return m, nil
}
