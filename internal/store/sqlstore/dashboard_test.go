package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store"
)

// scanAll loads every transaction for the naive dashboard comparison.
func scanAll(t *testing.T, s *Store) []*domain.BookTransaction {
	t.Helper()
	items, _, err := s.SearchTransactions(context.Background(), store.TransactionFilter{}, domain.PageRequest{Page: 1, Size: 1000})
	if err != nil {
		t.Fatalf("SearchTransactions: %v", err)
	}
	return items
}

func seedDashboard(t *testing.T, s *Store) (asha, ravi *domain.Member) {
	t.Helper()
	hobbit := mustCreateBook(t, s, makeBook("0261103571", "The Hobbit", 5))
	dune := mustCreateBook(t, s, makeBook("0441013597", "Dune", 5))
	mustCreateBook(t, s, makeBook("0261103253", "The Lord of the Rings", 5))
	asha = mustCreateMember(t, s, makeMember("asha@example.com", "Asha Rao", domain.RoleStudent))
	ravi = mustCreateMember(t, s, makeMember("ravi@example.com", "Ravi Kumar", domain.RoleFaculty))

	yesterday := testToday.AddDate(0, 0, -1)
	nextWeek := testToday.AddDate(0, 0, 7)

	add := func(book, member int64, status domain.TransactionStatus, due *time.Time, returned *time.Time) {
		tx := makeTransaction(book, member, status)
		tx.DueDate = due
		tx.ReturnDate = returned
		mustCreateTransaction(t, s, tx)
	}
	add(hobbit.ID, asha.ID, domain.StatusApproved, &yesterday, nil) // borrowed, overdue
	add(dune.ID, asha.ID, domain.StatusRequested, nil, nil)         // requested
	add(dune.ID, asha.ID, domain.StatusReturned, &yesterday, &testToday)
	add(hobbit.ID, ravi.ID, domain.StatusApproved, &nextWeek, nil) // borrowed
	add(dune.ID, ravi.ID, domain.StatusCancelled, &yesterday, nil) // cancelled never overdue
	return asha, ravi
}

func TestAdminCounts(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		seedDashboard(t, s)

		got, err := s.AdminCounts(context.Background(), testToday)
		if err != nil {
			t.Fatalf("AdminCounts: %v", err)
		}
		want := domain.AdminCounts{
			TotalBooks:          3,
			TotalBorrowedBooks:  2,
			TotalOverdueBooks:   1,
			TotalRequestedBooks: 1,
			TotalMembers:        2,
		}
		if got != want {
			t.Errorf("AdminCounts: got %+v, want %+v", got, want)
		}

		// Same numbers from a naive scan.
		var borrowed, overdue, requested int64
		for _, tx := range scanAll(t, s) {
			if tx.Status == domain.StatusApproved && tx.ReturnDate == nil {
				borrowed++
			}
			if tx.IsOverdue(testToday) {
				overdue++
			}
			if tx.Status == domain.StatusRequested {
				requested++
			}
		}
		if borrowed != got.TotalBorrowedBooks || overdue != got.TotalOverdueBooks || requested != got.TotalRequestedBooks {
			t.Errorf("naive scan disagrees: borrowed=%d overdue=%d requested=%d", borrowed, overdue, requested)
		}
	})
}

func TestMemberCounts(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *Store) {
		asha, ravi := seedDashboard(t, s)
		ctx := context.Background()

		got, err := s.MemberCounts(ctx, asha.ID, testToday)
		if err != nil {
			t.Fatalf("MemberCounts: %v", err)
		}
		want := domain.MemberCounts{
			TotalTransactions:   3,
			TotalBooks:          2,
			TotalRequestedBooks: 1,
			TotalBorrowedBooks:  1,
			TotalOverdueBooks:   1,
		}
		if got != want {
			t.Errorf("asha: got %+v, want %+v", got, want)
		}

		got, err = s.MemberCounts(ctx, ravi.ID, testToday)
		if err != nil {
			t.Fatalf("MemberCounts: %v", err)
		}
		want = domain.MemberCounts{
			TotalTransactions:  2,
			TotalBooks:         2,
			TotalBorrowedBooks: 1,
		}
		if got != want {
			t.Errorf("ravi: got %+v, want %+v", got, want)
		}
	})
}

func TestCounts_EmptyStore(t *testing.T) {
	s := newTestStore(t)
	got, err := s.AdminCounts(context.Background(), testToday)
	if err != nil {
		t.Fatalf("AdminCounts: %v", err)
	}
	if got != (domain.AdminCounts{}) {
		t.Errorf("empty store: got %+v", got)
	}
}
