package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to render domain errors.
// Call this after creating the huma.API but before registering routes.
// Unexpected errors are logged to logger and rendered without detail.
func RegisterErrorHandler(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				if domainErr.Code == domainerrors.CodeInternal {
					logger.Error("request failed", "error", err)
					return internalError()
				}
				return fromDomain(domainErr)
			}

			// Store sentinels that escaped a service.
			var storeErr *store.Error
			if errors.As(err, &storeErr) && storeErr.HTTPCode() < 500 {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    statusToCode(storeErr.HTTPCode()),
					Message: storeErr.Message,
				}
			}
		}

		if status >= 500 {
			for _, err := range errs {
				logger.Error("request failed", "status", status, "error", err)
			}
			return internalError()
		}

		// Request decoding and schema failures.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
			Details: schemaDetails(errs),
		}
	}
}

// internalError hides the cause of unexpected failures from clients.
func internalError() *APIError {
	return fromDomain(domainerrors.Internal("internal server error"))
}

func fromDomain(e *domainerrors.Error) *APIError {
	return &APIError{
		status:  e.HTTPStatus(),
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Details,
	}
}

// schemaDetails flattens huma's per-field errors into location -> message.
func schemaDetails(errs []error) map[string]string {
	var details map[string]string
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			continue
		}
		if details == nil {
			details = make(map[string]string, len(errs))
		}
		details[detail.Location] = detail.Message
	}
	return details
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	return string(domainerrors.CodeForStatus(status))
}
