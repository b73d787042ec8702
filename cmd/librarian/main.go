// Package main provides the librarian command: the library API server and
// its administrative subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libraryhub/library-server/internal/config"
)

func newRootCommand() *cobra.Command {
	var flags config.Flags

	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Library management server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.EnvFile, "env-file", "", "path to a .env file (default .env)")
	pf.StringVar(&flags.Env, "env", "", "environment: development, staging or production")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&flags.LogFormat, "log-format", "", "log format: json or pretty")
	pf.StringVar(&flags.DataPath, "data-path", "", "data directory (default ~/.librarian)")
	pf.StringVar(&flags.DBDriver, "db-driver", "", "database driver: sqlite or postgres")
	pf.StringVar(&flags.DBDSN, "db-dsn", "", "database file or connection string")
	pf.StringVar(&flags.Port, "port", "", "HTTP listen port")
	pf.StringVar(&flags.TokenFormat, "token-format", "", "access token format: jwt or paseto")
	pf.StringVar(&flags.AccessTokenDuration, "access-token-duration", "", "access token lifetime, e.g. 10m")

	root.AddCommand(
		newServeCommand(&flags),
		newAdminCommand(&flags),
		newBooksCommand(&flags),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
