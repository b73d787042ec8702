package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/libraryhub/library-server/internal/api/dto"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/service"
	"github.com/libraryhub/library-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/book",
		Summary:       "Add book",
		Description:   "Adds a book to the catalogue. Requires admin:create.",
		Tags:          []string{"Book"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBooksBulk",
		Method:        http.MethodPost,
		Path:          "/api/v1/book/bulk",
		Summary:       "Add books in bulk",
		Description:   "Adds every book or none of them. Requires admin:create.",
		Tags:          []string{"Book"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBooksBulk)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/book",
		Summary:     "Search books",
		Description: "Pages through books, most recently updated first",
		Tags:        []string{"Book"},
		Security:    bearerSecurity,
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/book/{id}",
		Summary:     "Get book",
		Tags:        []string{"Book"},
		Security:    bearerSecurity,
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookRevisions",
		Method:      http.MethodGet,
		Path:        "/api/v1/book/{id}/revisions",
		Summary:     "Book history",
		Description: "Lists audit revisions of a book, oldest first. Requires admin:read.",
		Tags:        []string{"Book"},
		Security:    bearerSecurity,
	}, s.handleGetBookRevisions)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/book/{id}",
		Summary:     "Update book",
		Description: "Changes the supplied fields. Requires admin:update.",
		Tags:        []string{"Book"},
		Security:    bearerSecurity,
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/book/{id}",
		Summary:     "Delete book",
		Description: "Deletes a book and its transactions. Requires admin:delete.",
		Tags:        []string{"Book"},
		Security:    bearerSecurity,
	}, s.handleDeleteBook)
}

// === DTOs ===

// CreateBookInput wraps a new book for Huma.
type CreateBookInput struct {
	Body service.CreateBookRequest
}

// CreateBooksBulkInput wraps a batch of books for Huma.
type CreateBooksBulkInput struct {
	Body service.BulkCreateBooksRequest
}

// SearchBooksInput holds book search parameters.
type SearchBooksInput struct {
	Query string `query:"query" doc:"Matched against title, author, isbn and genre"`
	Genre string `query:"genre" doc:"Exact genre, case-insensitive"`
	dto.PaginationParams
}

// GetBookInput identifies a book.
type GetBookInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// UpdateBookInput wraps a book change for Huma.
type UpdateBookInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body service.UpdateBookRequest
}

// BookOutput wraps a book response for Huma.
type BookOutput struct {
	Body dto.BookResponse
}

// BooksOutput wraps several books for Huma.
type BooksOutput struct {
	Body []dto.BookResponse
}

// BookPageOutput wraps a page of books for Huma.
type BookPageOutput struct {
	Body dto.PageResponse[dto.BookResponse]
}

// RevisionsOutput wraps audit history for Huma.
type RevisionsOutput struct {
	Body []dto.RevisionResponse
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminCreate)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Book.Create(ctx, m.Actor(), input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.FromBook(b)}, nil
}

func (s *Server) handleCreateBooksBulk(ctx context.Context, input *CreateBooksBulkInput) (*BooksOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminCreate)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Book.CreateBulk(ctx, m.Actor(), input.Body)
	if err != nil {
		return nil, err
	}
	return &BooksOutput{Body: dto.FromBooks(books)}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*BookPageOutput, error) {
	if _, err := requirePermission(ctx, domain.PermMemberRead); err != nil {
		return nil, err
	}

	page, err := s.services.Book.Search(ctx, store.BookFilter{
		Query: input.Query,
		Genre: input.Genre,
	}, input.Page, input.Size)
	if err != nil {
		return nil, err
	}
	return &BookPageOutput{Body: dto.NewPageResponse(page, dto.FromBook)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := requirePermission(ctx, domain.PermMemberRead); err != nil {
		return nil, err
	}

	b, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.FromBook(b)}, nil
}

func (s *Server) handleGetBookRevisions(ctx context.Context, input *GetBookInput) (*RevisionsOutput, error) {
	if _, err := requirePermission(ctx, domain.PermAdminRead); err != nil {
		return nil, err
	}

	revs, err := s.services.Book.Revisions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RevisionsOutput{Body: dto.FromRevisions(revs)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminUpdate)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Book.Update(ctx, m.Actor(), input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: dto.FromBook(b)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *GetBookInput) (*dto.MessageOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminDelete)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.Delete(ctx, m.Actor(), input.ID); err != nil {
		return nil, err
	}
	return &dto.MessageOutput{Body: dto.MessageResponse{Message: "Book deleted"}}, nil
}
