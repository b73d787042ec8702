package domain

import "time"

// TransactionStatus is the lifecycle state of a book transaction.
type TransactionStatus string

// Transaction statuses.
const (
	StatusRequested TransactionStatus = "REQUESTED"
	StatusApproved  TransactionStatus = "APPROVED"
	StatusReturned  TransactionStatus = "RETURNED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// ParseStatus parses an exact status name.
func ParseStatus(s string) (TransactionStatus, bool) {
	st := TransactionStatus(s)
	switch st {
	case StatusRequested, StatusApproved, StatusReturned, StatusCancelled:
		return st, true
	}
	return "", false
}

// IsActive reports whether the status is REQUESTED or APPROVED.
func (s TransactionStatus) IsActive() bool {
	return s == StatusRequested || s == StatusApproved
}

// transitions lists the allowed target states for each source state.
// RETURNED and CANCELLED are terminal.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusRequested: {StatusRequested, StatusApproved, StatusCancelled},
	StatusApproved:  {StatusReturned},
}

// CanTransition reports whether moving from s to next is allowed.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CopyDelta returns the change to a book's available copies caused by
// entering status next. Only valid for allowed transitions.
func CopyDelta(next TransactionStatus) int {
	switch next {
	case StatusApproved:
		return -1
	case StatusReturned, StatusCancelled:
		return 1
	default:
		return 0
	}
}

// BookSummary is the subset of a book carried on transaction reads.
type BookSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// MemberSummary is the subset of a member carried on transaction reads.
type MemberSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookTransaction is one borrowing of a book by a member.
type BookTransaction struct {
	Audit
	ID          int64             `json:"id"`
	BookID      int64             `json:"book_id"`
	MemberID    int64             `json:"member_id"`
	RequestDate time.Time         `json:"request_date"`
	Status      TransactionStatus `json:"status"`
	IssueDate   *time.Time        `json:"issue_date,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	ReturnDate  *time.Time        `json:"return_date,omitempty"`

	// Populated on reads.
	Book   BookSummary   `json:"book"`
	Member MemberSummary `json:"member"`
}

// IsOverdue reports whether the loan is past due on today.
func (t *BookTransaction) IsOverdue(today time.Time) bool {
	return t.DueDate != nil &&
		t.DueDate.Before(today) &&
		t.ReturnDate == nil &&
		t.Status != StatusCancelled
}
