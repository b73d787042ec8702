package domain

// AdminCounts is the library-wide dashboard.
type AdminCounts struct {
	TotalBooks          int64 `json:"total_books"`
	TotalBorrowedBooks  int64 `json:"total_borrowed_books"`
	TotalOverdueBooks   int64 `json:"total_overdue_books"`
	TotalRequestedBooks int64 `json:"total_requested_books"`
	TotalMembers        int64 `json:"total_members"`
}

// MemberCounts is the dashboard for a single member.
type MemberCounts struct {
	TotalTransactions   int64 `json:"total_transactions"`
	TotalBooks          int64 `json:"total_books"`
	TotalRequestedBooks int64 `json:"total_requested_books"`
	TotalBorrowedBooks  int64 `json:"total_borrowed_books"`
	TotalOverdueBooks   int64 `json:"total_overdue_books"`
}
