// Package service implements the library's business operations on top of
// the store. Every mutating call takes the acting domain.Actor explicitly.
package service

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/store"
)

// Clock returns the current time. Services take one so tests can fix "today".
type Clock func() time.Time

// Page size bounds applied to every search.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func orNow(now Clock) Clock {
	if now == nil {
		return time.Now
	}
	return now
}

// pageRequest validates a 1-based page and a positive size, capping the
// size at MaxPageSize. The returned request carries the capped size.
func pageRequest(page, size int) (domain.PageRequest, error) {
	if page < 1 {
		return domain.PageRequest{}, domainerrors.Validationf("page must be at least 1, got %d", page)
	}
	if size <= 0 {
		return domain.PageRequest{}, domainerrors.Validationf("size must be positive, got %d", size)
	}
	return domain.PageRequest{Page: page, Size: min(size, MaxPageSize)}, nil
}

// trimmed returns a copy of p with surrounding whitespace removed.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// translate converts store sentinels into domain errors. notFound is the
// message used when the row is missing.
func translate(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists("resource already exists").WithCause(err)
	case errors.Is(err, store.ErrNoCopies):
		return domainerrors.Conflict("no copies available")
	default:
		return err
	}
}
