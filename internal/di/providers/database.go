package providers

import (
	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/logger"
	"github.com/libraryhub/library-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the database and applies the schema.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlstore.Open(sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, log.WithField("component", "store").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Database.Driver)

	return &StoreHandle{Store: db}, nil
}
