// Package store defines the persistence interface for the library server.
package store

import (
	"context"
	"time"

	"github.com/libraryhub/library-server/internal/domain"
)

// BookFilter narrows a book search. Empty fields are ignored.
type BookFilter struct {
	// Query is matched case-insensitively against title, author, isbn and genre.
	Query string
	Genre string
}

// MemberFilter narrows a member search. Empty fields are ignored.
type MemberFilter struct {
	// Query is matched case-insensitively against name, phone, email and role.
	Query string
	Role  domain.Role
}

// TransactionFilter narrows a transaction search. Zero fields are ignored.
type TransactionFilter struct {
	// Query is matched case-insensitively against member name and book title.
	Query    string
	Status   domain.TransactionStatus
	MemberID int64
}

// Queries is the set of operations available both on the store and
// inside a unit of work.
type Queries interface {
	// Books
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error)
	UpdateBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	SearchBooks(ctx context.Context, f BookFilter, page domain.PageRequest) ([]*domain.Book, int64, error)
	// AdjustCopies changes copies_available by delta. A negative delta
	// fails with ErrNoCopies when fewer than -delta copies remain.
	AdjustCopies(ctx context.Context, bookID int64, delta int, actor domain.Actor, at time.Time) error

	// Members
	CreateMember(ctx context.Context, m *domain.Member) error
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*domain.Member, error)
	UpdateMember(ctx context.Context, m *domain.Member) error
	DeleteMember(ctx context.Context, id int64) error
	SearchMembers(ctx context.Context, f MemberFilter, page domain.PageRequest) ([]*domain.Member, int64, error)

	// Transactions
	CreateTransaction(ctx context.Context, t *domain.BookTransaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.BookTransaction, error)
	UpdateTransaction(ctx context.Context, t *domain.BookTransaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	SearchTransactions(ctx context.Context, f TransactionFilter, page domain.PageRequest) ([]*domain.BookTransaction, int64, error)
	ActiveTransactionExists(ctx context.Context, bookID, memberID int64) (bool, error)
	// ListTransactionIDs returns ids of transactions referencing a book or a
	// member. Exactly one of bookID and memberID is non-zero.
	ListTransactionIDs(ctx context.Context, bookID, memberID int64) ([]int64, error)
	DeleteTransactionsFor(ctx context.Context, bookID, memberID int64) (int64, error)
	ListOverdue(ctx context.Context, today time.Time, memberID int64) ([]*domain.BookTransaction, error)

	// Audit
	AppendRevision(ctx context.Context, actor domain.Actor, at time.Time, entries ...domain.RevisionEntry) (int64, error)
	ListRevisions(ctx context.Context, entity domain.AuditedEntity, entityID int64) ([]domain.Revision, error)

	// Dashboard
	AdminCounts(ctx context.Context, today time.Time) (domain.AdminCounts, error)
	MemberCounts(ctx context.Context, memberID int64, today time.Time) (domain.MemberCounts, error)
}

// Store is the persistence root.
type Store interface {
	Queries

	// WithTx runs fn inside a database transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Ping(ctx context.Context) error
	Close() error
}
