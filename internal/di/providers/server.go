package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/api"
	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/logger"
	"github.com/libraryhub/library-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer h.api.Close()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the API and starts serving in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i).WithField("component", "http")

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Book:        do.MustInvoke[*service.BookService](i),
		Member:      do.MustInvoke[*service.MemberService](i),
		Transaction: do.MustInvoke[*service.TransactionService](i),
		Dashboard:   do.MustInvoke[*service.DashboardService](i),
	}

	handler := api.NewServer(services, storeHandle.Store, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
