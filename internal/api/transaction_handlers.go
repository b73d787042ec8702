package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/libraryhub/library-server/internal/api/dto"
	"github.com/libraryhub/library-server/internal/domain"
	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/service"
	"github.com/libraryhub/library-server/internal/store"
)

const transactionsPath = "/api/v1/book-transaction"

func (s *Server) registerTransactionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createTransaction",
		Method:        http.MethodPost,
		Path:          transactionsPath,
		Summary:       "Request book",
		Description:   "Requests a book for a member and reserves one copy. Members may only request for themselves.",
		Tags:          []string{"BookTransaction"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTransaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTransactions",
		Method:      http.MethodGet,
		Path:        transactionsPath,
		Summary:     "Search transactions",
		Description: "Pages through transactions. Members only ever see their own.",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleSearchTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOverdueTransactions",
		Method:      http.MethodGet,
		Path:        transactionsPath + "/overdue",
		Summary:     "List overdue",
		Description: "Lists loans past their due date that have not been returned.",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleListOverdue)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTransaction",
		Method:      http.MethodGet,
		Path:        transactionsPath + "/{id}",
		Summary:     "Get transaction",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleGetTransaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTransactionRevisions",
		Method:      http.MethodGet,
		Path:        transactionsPath + "/{id}/revisions",
		Summary:     "Transaction history",
		Description: "Lists every recorded change to a transaction, oldest first. Requires admin:read.",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleTransactionRevisions)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTransaction",
		Method:      http.MethodPut,
		Path:        transactionsPath + "/{id}",
		Summary:     "Change status",
		Description: "Moves a transaction through its lifecycle. Members may only re-request or cancel their own.",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleUpdateTransaction)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTransaction",
		Method:      http.MethodDelete,
		Path:        transactionsPath + "/{id}",
		Summary:     "Delete transaction",
		Description: "Deletes a transaction without touching the book's copies. Requires admin:delete.",
		Tags:        []string{"BookTransaction"},
		Security:    bearerSecurity,
	}, s.handleDeleteTransaction)
}

// === DTOs ===

// CreateTransactionInput wraps a borrow request for Huma.
type CreateTransactionInput struct {
	Body service.CreateTransactionRequest
}

// SearchTransactionsInput holds transaction search parameters.
type SearchTransactionsInput struct {
	Query    string `query:"query" doc:"Matched against member name and book title"`
	Status   string `query:"status" doc:"REQUESTED, APPROVED, RETURNED or CANCELLED"`
	MemberID int64  `query:"memberId" doc:"Only this member's transactions (admins only)"`
	dto.PaginationParams
}

// OverdueInput selects whose overdue loans to list.
type OverdueInput struct {
	MemberID int64 `query:"memberId" doc:"Only this member's loans (admins only, 0 for all)"`
}

// GetTransactionInput identifies a transaction.
type GetTransactionInput struct {
	ID int64 `path:"id" doc:"Transaction ID"`
}

// UpdateTransactionInput wraps a status change for Huma.
type UpdateTransactionInput struct {
	ID   int64 `path:"id" doc:"Transaction ID"`
	Body service.UpdateTransactionRequest
}

// TransactionOutput wraps a transaction for Huma.
type TransactionOutput struct {
	Body dto.TransactionResponse
}

// TransactionsOutput wraps a list of transactions for Huma.
type TransactionsOutput struct {
	Body []dto.TransactionResponse
}

// TransactionPageOutput wraps a page of transactions for Huma.
type TransactionPageOutput struct {
	Body dto.PageResponse[dto.TransactionResponse]
}

// === Handlers ===

func (s *Server) handleCreateTransaction(ctx context.Context, input *CreateTransactionInput) (*TransactionOutput, error) {
	m, err := requirePermission(ctx, domain.PermMemberCreate)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() && input.Body.MemberID != m.ID {
		return nil, domainerrors.Forbidden("members may only request books for themselves")
	}

	t, err := s.services.Transaction.Create(ctx, m.Actor(), input.Body)
	if err != nil {
		return nil, err
	}
	return &TransactionOutput{Body: dto.FromTransaction(t)}, nil
}

func (s *Server) handleSearchTransactions(ctx context.Context, input *SearchTransactionsInput) (*TransactionPageOutput, error) {
	m, err := requirePermission(ctx, domain.PermMemberRead)
	if err != nil {
		return nil, err
	}

	filter := store.TransactionFilter{
		Query:    input.Query,
		MemberID: scopeMember(m, input.MemberID),
	}
	if input.Status != "" {
		status, ok := domain.ParseStatus(input.Status)
		if !ok {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"status": "must be one of: REQUESTED APPROVED RETURNED CANCELLED",
			})
		}
		filter.Status = status
	}

	page, err := s.services.Transaction.Search(ctx, filter, input.Page, input.Size)
	if err != nil {
		return nil, err
	}
	return &TransactionPageOutput{Body: dto.NewPageResponse(page, dto.FromTransaction)}, nil
}

func (s *Server) handleListOverdue(ctx context.Context, input *OverdueInput) (*TransactionsOutput, error) {
	m, err := requirePermission(ctx, domain.PermMemberRead)
	if err != nil {
		return nil, err
	}

	ts, err := s.services.Transaction.Overdue(ctx, scopeMember(m, input.MemberID))
	if err != nil {
		return nil, err
	}
	return &TransactionsOutput{Body: dto.FromTransactions(ts)}, nil
}

// ownTransaction loads a transaction the caller may see: any of them for
// holders of perm, otherwise only their own. Other members' transactions
// look missing.
func (s *Server) ownTransaction(ctx context.Context, perm domain.Permission, id int64) (*domain.Member, *domain.BookTransaction, error) {
	m, err := currentMember(ctx)
	if err != nil {
		return nil, nil, err
	}
	var t *domain.BookTransaction
	if m.Role.Has(perm) {
		t, err = s.services.Transaction.Get(ctx, id)
	} else {
		t, err = s.services.Transaction.GetOwned(ctx, id, m.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return m, t, nil
}

func (s *Server) handleGetTransaction(ctx context.Context, input *GetTransactionInput) (*TransactionOutput, error) {
	_, t, err := s.ownTransaction(ctx, domain.PermAdminRead, input.ID)
	if err != nil {
		return nil, err
	}
	return &TransactionOutput{Body: dto.FromTransaction(t)}, nil
}

func (s *Server) handleTransactionRevisions(ctx context.Context, input *GetTransactionInput) (*RevisionsOutput, error) {
	if _, err := requirePermission(ctx, domain.PermAdminRead); err != nil {
		return nil, err
	}

	revs, err := s.services.Transaction.Revisions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RevisionsOutput{Body: dto.FromRevisions(revs)}, nil
}

func (s *Server) handleUpdateTransaction(ctx context.Context, input *UpdateTransactionInput) (*TransactionOutput, error) {
	m, _, err := s.ownTransaction(ctx, domain.PermAdminUpdate, input.ID)
	if err != nil {
		return nil, err
	}
	if !m.Role.Has(domain.PermAdminUpdate) {
		switch domain.TransactionStatus(input.Body.Status) {
		case domain.StatusRequested, domain.StatusCancelled:
		default:
			return nil, domainerrors.Forbiddenf("%s permission required to set status %s", domain.PermAdminUpdate, input.Body.Status)
		}
	}

	t, err := s.services.Transaction.Transition(ctx, m.Actor(), input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &TransactionOutput{Body: dto.FromTransaction(t)}, nil
}

func (s *Server) handleDeleteTransaction(ctx context.Context, input *GetTransactionInput) (*dto.MessageOutput, error) {
	m, err := requirePermission(ctx, domain.PermAdminDelete)
	if err != nil {
		return nil, err
	}

	if err := s.services.Transaction.Delete(ctx, m.Actor(), input.ID); err != nil {
		return nil, err
	}
	return &dto.MessageOutput{Body: dto.MessageResponse{Message: "Book transaction deleted"}}, nil
}
