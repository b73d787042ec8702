package domain

import "time"

// Book is a lendable title. CopiesAvailable never drops below zero.
type Book struct {
	Audit
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn"`
	Genre           string     `json:"genre,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	CopiesAvailable int        `json:"copies_available"`
}
