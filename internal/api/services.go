package api

import (
	"github.com/libraryhub/library-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Auth        *service.AuthService
	Book        *service.BookService
	Member      *service.MemberService
	Transaction *service.TransactionService
	Dashboard   *service.DashboardService
}
