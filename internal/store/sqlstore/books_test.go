package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

func TestCreateAndGetBook(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		pub := time.Date(1937, time.September, 21, 0, 0, 0, 0, time.UTC)
		b := makeBook("0261103571", "The Hobbit", 3)
		b.PublicationDate = &pub

		mustCreateBook(t, s, b)
		if b.ID == 0 {
			t.Fatal("expected ID to be assigned")
		}

		got, err := s.GetBook(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBook: %v", err)
		}
		if got.Title != "The Hobbit" || got.ISBN != "0261103571" || got.CopiesAvailable != 3 {
			t.Errorf("unexpected book: %+v", got)
		}
		if got.PublicationDate == nil || !got.PublicationDate.Equal(pub) {
			t.Errorf("PublicationDate: got %v, want %v", got.PublicationDate, pub)
		}
		if got.CreatedBy != testActor.Username || !got.CreatedAt.Equal(testNow) {
			t.Errorf("audit: got %q at %v", got.CreatedBy, got.CreatedAt)
		}

		byISBN, err := s.GetBookByISBN(ctx, "0261103571")
		if err != nil {
			t.Fatalf("GetBookByISBN: %v", err)
		}
		if byISBN.ID != b.ID {
			t.Errorf("GetBookByISBN ID: got %d, want %d", byISBN.ID, b.ID)
		}
	})
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		mustCreateBook(t, s, makeBook("0261103571", "The Hobbit", 1))

		err := s.CreateBook(context.Background(), makeBook("0261103571", "Another", 1))
		if !errors.Is(err, store.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestGetBook_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetBook(context.Background(), 404); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := mustCreateBook(t, s, makeBook("0261103571", "The Hobbit", 1))

	b.Title = "The Hobbit, or There and Back Again"
	b.Genre = ""
	b.Touch(domain.SystemActor, testNow.Add(time.Minute))
	if err := s.UpdateBook(ctx, b); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := s.GetBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != b.Title || got.Genre != "" || got.UpdatedBy != "system" {
		t.Errorf("after update: %+v", got)
	}
	if got.CreatedBy != testActor.Username {
		t.Errorf("CreatedBy must not change, got %q", got.CreatedBy)
	}

	if err := s.DeleteBook(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if err := s.DeleteBook(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateBook(ctx, b); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update deleted: expected ErrNotFound, got %v", err)
	}
}

func TestSearchBooks(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		hobbit := makeBook("0261103571", "The Hobbit", 1)
		lotr := makeBook("0261103253", "The Lord of the Rings", 1)
		dune := makeBook("0441013597", "Dune", 2)
		dune.Author = "Frank Herbert"
		dune.Genre = "Science Fiction"

		// Distinct update times so order is deterministic.
		for i, b := range []*domain.Book{hobbit, lotr, dune} {
			b.Stamp(testActor, testNow.Add(time.Duration(i)*time.Minute))
			mustCreateBook(t, s, b)
		}

		tests := []struct {
			name   string
			filter store.BookFilter
			want   []int64
		}{
			{"no filter newest first", store.BookFilter{}, []int64{dune.ID, lotr.ID, hobbit.ID}},
			{"title case insensitive", store.BookFilter{Query: "HOBBIT"}, []int64{hobbit.ID}},
			{"author", store.BookFilter{Query: "tolkien"}, []int64{lotr.ID, hobbit.ID}},
			{"isbn substring", store.BookFilter{Query: "13597"}, []int64{dune.ID}},
			{"genre in text", store.BookFilter{Query: "science"}, []int64{dune.ID}},
			{"genre filter", store.BookFilter{Genre: "fantasy"}, []int64{lotr.ID, hobbit.ID}},
			{"text AND genre", store.BookFilter{Query: "dune", Genre: "Fantasy"}, nil},
			{"no match", store.BookFilter{Query: "zzz"}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, total, err := s.SearchBooks(ctx, tt.filter, domain.PageRequest{Page: 1, Size: 10})
				if err != nil {
					t.Fatalf("SearchBooks: %v", err)
				}
				if items == nil {
					t.Fatal("items must never be nil")
				}
				if total != int64(len(tt.want)) {
					t.Errorf("total: got %d, want %d", total, len(tt.want))
				}
				if len(items) != len(tt.want) {
					t.Fatalf("len: got %d, want %d", len(items), len(tt.want))
				}
				for i, id := range tt.want {
					if items[i].ID != id {
						t.Errorf("items[%d]: got %d, want %d", i, items[i].ID, id)
					}
				}
			})
		}
	})
}

func TestSearchBooks_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	isbns := []string{"0000000001", "0000000002", "0000000003", "0000000004", "0000000005"}
	for i, isbn := range isbns {
		b := makeBook(isbn, "Book "+isbn, 1)
		b.Stamp(testActor, testNow.Add(time.Duration(i)*time.Second))
		mustCreateBook(t, s, b)
	}

	page2, total, err := s.SearchBooks(ctx, store.BookFilter{}, domain.PageRequest{Page: 2, Size: 2})
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if total != 5 {
		t.Errorf("total counts rows before pagination: got %d, want 5", total)
	}
	if len(page2) != 2 || page2[0].ISBN != "0000000003" || page2[1].ISBN != "0000000002" {
		t.Errorf("page 2: got %v", isbnsOf(page2))
	}

	last, _, err := s.SearchBooks(ctx, store.BookFilter{}, domain.PageRequest{Page: 3, Size: 2})
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(last) != 1 || last[0].ISBN != "0000000001" {
		t.Errorf("page 3: got %v", isbnsOf(last))
	}

	beyond, total, err := s.SearchBooks(ctx, store.BookFilter{}, domain.PageRequest{Page: 9, Size: 2})
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(beyond) != 0 || total != 5 {
		t.Errorf("beyond last page: got %d items, total %d", len(beyond), total)
	}
}

func TestSearchBooks_TiesBreakByID(t *testing.T) {
	s := newTestStore(t)
	a := mustCreateBook(t, s, makeBook("0000000001", "A", 1))
	b := mustCreateBook(t, s, makeBook("0000000002", "B", 1))

	items, _, err := s.SearchBooks(context.Background(), store.BookFilter{}, domain.PageRequest{Page: 1, Size: 10})
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if items[0].ID != b.ID || items[1].ID != a.ID {
		t.Errorf("equal updated_at should order by id desc, got %d, %d", items[0].ID, items[1].ID)
	}
}

func isbnsOf(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ISBN
	}
	return out
}

func TestAdjustCopies(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		b := mustCreateBook(t, s, makeBook("0261103571", "The Hobbit", 1))

		if err := s.AdjustCopies(ctx, b.ID, -1, testActor, testNow); err != nil {
			t.Fatalf("decrement: %v", err)
		}
		if err := s.AdjustCopies(ctx, b.ID, -1, testActor, testNow); !errors.Is(err, store.ErrNoCopies) {
			t.Fatalf("decrement at zero: expected ErrNoCopies, got %v", err)
		}
		if err := s.AdjustCopies(ctx, b.ID, 2, domain.SystemActor, testNow.Add(time.Hour)); err != nil {
			t.Fatalf("increment: %v", err)
		}

		got, err := s.GetBook(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBook: %v", err)
		}
		if got.CopiesAvailable != 2 {
			t.Errorf("CopiesAvailable: got %d, want 2", got.CopiesAvailable)
		}
		if got.UpdatedBy != "system" {
			t.Errorf("UpdatedBy: got %q", got.UpdatedBy)
		}

		if err := s.AdjustCopies(ctx, 9999, -1, testActor, testNow); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("missing book: expected ErrNotFound, got %v", err)
		}
		if err := s.AdjustCopies(ctx, 9999, 1, testActor, testNow); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("missing book increment: expected ErrNotFound, got %v", err)
		}
	})
}

func TestAdjustCopies_ConcurrentNeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := mustCreateBook(t, s, makeBook("0261103571", "The Hobbit", 3))

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(q store.Queries) error {
				return q.AdjustCopies(ctx, b.ID, -1, testActor, testNow)
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrNoCopies) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 3 {
		t.Errorf("successful decrements: got %d, want 3", success)
	}
	got, err := s.GetBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.CopiesAvailable != 0 {
		t.Errorf("CopiesAvailable: got %d, want 0", got.CopiesAvailable)
	}
}
