// Package di provides dependency injection configuration for the library server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/di/providers"
	"github.com/libraryhub/library-server/internal/logger"
	"github.com/libraryhub/library-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Nothing is built until it is invoked.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenIssuer)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideMemberService)
	do.Provide(injector, providers.ProvideTransactionService)
	do.Provide(injector, providers.ProvideDashboardService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes every service and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[auth.TokenIssuer](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.MemberService](injector)
	_ = do.MustInvoke[*service.TransactionService](injector)
	_ = do.MustInvoke[*service.DashboardService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
