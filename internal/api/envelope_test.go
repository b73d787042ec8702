package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
)

func TestEnvelopeTransformer(t *testing.T) {
	v, err := EnvelopeTransformer(nil, "200", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, APIEnvelope{Version: EnvelopeVersion, Success: true, Data: map[string]int{"n": 1}}, v)

	v, err = EnvelopeTransformer(nil, "404", &APIError{status: 404, Code: "NOT_FOUND", Message: "book 3 not found"})
	require.NoError(t, err)
	assert.Equal(t, APIErrorEnvelope{Version: EnvelopeVersion, Error: "book 3 not found", Code: "NOT_FOUND"}, v)

	v, err = EnvelopeTransformer(nil, "500", errors.New("boom"))
	require.NoError(t, err)
	assert.Equal(t, APIEnvelope{Version: EnvelopeVersion, Error: "boom"}, v)
}

func TestErrorHandler_MapsErrors(t *testing.T) {
	RegisterErrorHandler(nil)

	tests := []struct {
		name       string
		status     int
		errs       []error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "domain error keeps its status",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.Conflict("no copies left")},
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
			wantMsg:    "no copies left",
		},
		{
			name:       "wrapped internal error is hidden",
			status:     http.StatusInternalServerError,
			errs:       []error{domainerrors.Wrap(errors.New("disk on fire"), domainerrors.CodeInternal, "save")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "internal server error",
		},
		{
			name:       "store sentinel",
			status:     http.StatusInternalServerError,
			errs:       []error{store.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "unknown error",
			status:     http.StatusInternalServerError,
			errs:       []error{errors.New("sql: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
			wantMsg:    "internal server error",
		},
		{
			name:       "schema failure becomes 400",
			status:     http.StatusUnprocessableEntity,
			errs:       []error{&huma.ErrorDetail{Location: "body.email", Message: "expected required property email to be present"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
			wantMsg:    "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := huma.NewError(tt.status, "validation failed", tt.errs...)
			assert.Equal(t, tt.wantStatus, se.GetStatus())

			var apiErr *APIError
			require.ErrorAs(t, se, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apiErr.Message)
			}
		})
	}
}

func TestSchemaDetails(t *testing.T) {
	details := schemaDetails([]error{
		&huma.ErrorDetail{Location: "body.email", Message: "expected required property email to be present"},
		errors.New("not a detail"),
	})
	assert.Equal(t, map[string]string{"body.email": "expected required property email to be present"}, details)
	assert.Nil(t, schemaDetails(nil))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:1234", "192.0.2.1"},
		{"bare remote", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer"))
}
