package providers

import (
	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/logger"
)

// ProvideConfig loads configuration using the command-line flags registered
// in the container.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags, err := do.Invoke[config.Flags](i)
	if err != nil {
		flags = config.Flags{}
	}
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithFields(map[string]any{
		"environment": cfg.App.Environment,
		"log_level":   cfg.Logger.Level,
		"data_path":   cfg.Data.Path,
		"db_driver":   cfg.Database.Driver,
	}).Info("Starting library server")

	return log, nil
}
