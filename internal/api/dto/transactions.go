package dto

import (
	"github.com/libraryhub/library-server/internal/domain"
)

// TransactionResponse is a book transaction as returned by the API.
type TransactionResponse struct {
	ID          int64                `json:"id" doc:"Transaction ID"`
	Book        domain.BookSummary   `json:"book" doc:"Borrowed book"`
	Member      domain.MemberSummary `json:"member" doc:"Borrowing member"`
	Status      string               `json:"status" doc:"REQUESTED, APPROVED, RETURNED or CANCELLED"`
	RequestDate string               `json:"request_date" doc:"Request date (YYYY-MM-DD)"`
	IssueDate   *string              `json:"issue_date,omitempty" doc:"Issue date (YYYY-MM-DD)"`
	DueDate     *string              `json:"due_date,omitempty" doc:"Due date (YYYY-MM-DD)"`
	ReturnDate  *string              `json:"return_date,omitempty" doc:"Return date (YYYY-MM-DD)"`
	AuditResponse
}

// FromTransaction maps a domain transaction.
func FromTransaction(t *domain.BookTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Book:          t.Book,
		Member:        t.Member,
		Status:        string(t.Status),
		RequestDate:   domain.FormatDate(t.RequestDate),
		IssueDate:     domain.FormatDatePtr(t.IssueDate),
		DueDate:       domain.FormatDatePtr(t.DueDate),
		ReturnDate:    domain.FormatDatePtr(t.ReturnDate),
		AuditResponse: auditResponse(t.Audit),
	}
}

// FromTransactions maps a slice of domain transactions.
func FromTransactions(ts []*domain.BookTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromTransaction(t))
	}
	return out
}
