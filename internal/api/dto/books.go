package dto

import (
	"github.com/libraryhub/library-server/internal/domain"
)

// BookResponse is a book as returned by the API.
type BookResponse struct {
	ID              int64   `json:"id" doc:"Book ID"`
	Title           string  `json:"title" doc:"Title"`
	Author          string  `json:"author" doc:"Author"`
	ISBN            string  `json:"isbn" doc:"Normalized ISBN"`
	Genre           string  `json:"genre,omitempty" doc:"Genre"`
	PublicationDate *string `json:"publication_date,omitempty" doc:"Publication date (YYYY-MM-DD)"`
	CopiesAvailable int     `json:"copies_available" doc:"Copies that can be lent"`
	AuditResponse
}

// FromBook maps a domain book.
func FromBook(b *domain.Book) BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		PublicationDate: domain.FormatDatePtr(b.PublicationDate),
		CopiesAvailable: b.CopiesAvailable,
		AuditResponse:   auditResponse(b.Audit),
	}
}

// FromBooks maps a slice of domain books.
func FromBooks(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, FromBook(b))
	}
	return out
}
