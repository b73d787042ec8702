package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/store/sqlstore"
	"github.com/libraryhub/library-server/internal/validation"
)

var (
	adminActor  = domain.ActorFor("admin@example.com", domain.RoleAdmin)
	memberActor = domain.ActorFor("student@example.com", domain.RoleStudent)
)

// testClock is a settable clock shared by every service in a fixture.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

type fixture struct {
	store        *sqlstore.Store
	clock        *testClock
	books        *BookService
	members      *MemberService
	transactions *TransactionService
	dashboard    *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlstore.Open(sqlstore.Config{
		Driver: sqlstore.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "library.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clock := &testClock{now: time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)}
	v := validation.NewWithClock(clock.Now)

	return &fixture{
		store:        st,
		clock:        clock,
		books:        NewBookService(st, v, clock.Now, nil),
		members:      NewMemberService(st, v, clock.Now, nil),
		transactions: NewTransactionService(st, v, clock.Now, nil),
		dashboard:    NewDashboardService(st, clock.Now),
	}
}

func (f *fixture) today() string {
	return domain.FormatDate(domain.Today(f.clock.Now()))
}

func (f *fixture) addBook(t *testing.T, isbn, title string, copies int) *domain.Book {
	t.Helper()
	b, err := f.books.Create(context.Background(), adminActor, CreateBookRequest{
		Title:           title,
		Author:          "Ursula K. Le Guin",
		ISBN:            isbn,
		Genre:           "Fantasy",
		CopiesAvailable: copies,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) addMember(t *testing.T, name, email string, role domain.Role) *domain.Member {
	t.Helper()
	m, err := f.members.Create(context.Background(), adminActor, CreateMemberRequest{
		Name:     name,
		Email:    email,
		Phone:    "9876543210",
		Role:     string(role),
		Password: "password123",
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) copies(t *testing.T, bookID int64) int {
	t.Helper()
	b, err := f.store.GetBook(context.Background(), bookID)
	require.NoError(t, err)
	return b.CopiesAvailable
}

func ptr[T any](v T) *T { return &v }
