package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("get book 7: %w", ErrNotFound.WithCause(errors.New("sql: no rows")))

	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(err, ErrAlreadyExists) {
		t.Error("did not expect match with ErrAlreadyExists")
	}
}

func TestError_Message(t *testing.T) {
	if got := ErrNoCopies.Error(); got != "no copies available" {
		t.Errorf("Error(): got %q", got)
	}

	wrapped := ErrAlreadyExists.WithCause(errors.New("UNIQUE constraint failed: books.isbn"))
	if got, want := wrapped.Error(), "resource already exists: UNIQUE constraint failed: books.isbn"; got != want {
		t.Errorf("Error(): got %q, want %q", got, want)
	}
	if wrapped.HTTPCode() != http.StatusConflict {
		t.Errorf("HTTPCode: got %d", wrapped.HTTPCode())
	}
}
