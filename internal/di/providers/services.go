package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/logger"
	"github.com/libraryhub/library-server/internal/service"
	"github.com/libraryhub/library-server/internal/validation"
)

// ProvideClock provides the wall clock shared by services and validation.
func ProvideClock(_ do.Injector) (service.Clock, error) {
	return time.Now, nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	now := do.MustInvoke[service.Clock](i)
	return validation.NewWithClock(now), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[auth.TokenIssuer](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, v, log.WithField("component", "auth").Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	now := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, v, now, log.WithField("component", "books").Logger), nil
}

// ProvideMemberService provides the member service.
func ProvideMemberService(i do.Injector) (*service.MemberService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	now := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMemberService(storeHandle.Store, v, now, log.WithField("component", "members").Logger), nil
}

// ProvideTransactionService provides the book transaction service.
func ProvideTransactionService(i do.Injector) (*service.TransactionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	now := do.MustInvoke[service.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransactionService(storeHandle.Store, v, now, log.WithField("component", "transactions").Logger), nil
}

// ProvideDashboardService provides the dashboard service.
func ProvideDashboardService(i do.Injector) (*service.DashboardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	now := do.MustInvoke[service.Clock](i)

	return service.NewDashboardService(storeHandle.Store, now), nil
}
