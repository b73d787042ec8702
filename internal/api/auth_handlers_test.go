package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/library-server/internal/api/dto"
	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/service"
)

func TestAuthenticate_Success(t *testing.T) {
	ts := setupTestServer(t)
	m := ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)

	resp := ts.api.Post("/api/v1/auth/authenticate", map[string]any{
		"email":    "Asha@Example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[AuthResponse](t, resp)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.AccessToken)
	assert.Equal(t, "Bearer", env.Data.TokenType)
	assert.Equal(t, m.ID, env.Data.Member.ID)
	assert.Equal(t, "STUDENT", env.Data.Member.Role)
	assert.True(t, env.Data.ExpiresAt.After(ts.now))

	// The issued token works on a protected route.
	me := ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+env.Data.AccessToken)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "asha@example.com", decode[dto.MemberResponse](t, me).Data.Email)
}

func TestAuthenticate_Failures(t *testing.T) {
	ts := setupTestServer(t)
	ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "wrong password",
			body:       map[string]any{"email": "asha@example.com", "password": "password124"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "unknown email",
			body:       map[string]any{"email": "nobody@example.com", "password": "password123"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "malformed email",
			body:       map[string]any{"email": "asha", "password": "password123"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			name:       "missing password",
			body:       map[string]any{"email": "asha@example.com"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/authenticate", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code)

			env := decode[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}
}

func TestCurrentMember_Tokens(t *testing.T) {
	ts := setupTestServer(t)
	m := ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)

	foreignIssuer, err := auth.NewTokenIssuer(auth.FormatJWT, make([]byte, auth.KeySize), time.Minute,
		func() time.Time { return ts.now })
	require.NoError(t, err)
	foreign, _, err := foreignIssuer.Issue(m)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   []any
		wantCode string
	}{
		{"no header", nil, "UNAUTHORIZED"},
		{"wrong scheme", []any{"Authorization: Basic abc"}, "UNAUTHORIZED"},
		{"garbage", []any{"Authorization: Bearer not.a.token"}, "UNAUTHORIZED"},
		{"foreign key", []any{"Authorization: Bearer " + foreign}, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/auth/me", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Equal(t, tt.wantCode, decode[any](t, resp).Code)
		})
	}
}

func TestCurrentMember_ExpiredToken(t *testing.T) {
	ts := setupTestServer(t)
	m := ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)

	key := make([]byte, auth.KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	old, err := auth.NewTokenIssuer(auth.FormatJWT, key, time.Minute,
		func() time.Time { return ts.now.Add(-time.Hour) })
	require.NoError(t, err)
	token, _, err := old.Issue(m)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decode[any](t, resp).Code)
}

func TestCurrentMember_DeletedMember(t *testing.T) {
	ts := setupTestServer(t)
	m := ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)
	header := ts.bearer(t, m)

	require.NoError(t, ts.services.Member.Delete(context.Background(), domain.SystemActor, m.ID))

	resp := ts.api.Get("/api/v1/auth/me", header)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthenticate_RateLimited(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{LoginRate: 1, LoginBurst: 2})
	ts.addMember(t, "Asha Rao", "asha@example.com", domain.RoleStudent)
	body := service.LoginRequest{Email: "asha@example.com", Password: "password124"}

	for range 2 {
		resp := ts.api.Post("/api/v1/auth/authenticate", body)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/api/v1/auth/authenticate", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decode[any](t, resp).Code)

	// Other clients keep their own budget.
	resp = ts.api.Post("/api/v1/auth/authenticate", "X-Forwarded-For: 203.0.113.9", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
