package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/di"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newBooksCommand(flags *config.Flags) *cobra.Command {
	books := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalogue",
	}

	books.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Add every book in a JSON array, or none if any entry is rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readBooks(args[0])
			if err != nil {
				return err
			}

			injector := di.NewContainer(*flags)
			defer injector.Shutdown()

			svc, err := do.Invoke[*service.BookService](injector)
			if err != nil {
				return err
			}
			created, err := svc.CreateBulk(cmd.Context(), domain.SystemActor, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books\n", len(created))
			return nil
		},
	})
	return books
}

// readBooks decodes a JSON array of books.
func readBooks(path string) (service.BulkCreateBooksRequest, error) {
	//#nosec G304 -- path is supplied by the operator
	raw, err := os.ReadFile(path)
	if err != nil {
		return service.BulkCreateBooksRequest{}, fmt.Errorf("read %s: %w", path, err)
	}

	var req service.BulkCreateBooksRequest
	if err := json.Unmarshal(raw, &req.Books); err != nil {
		return service.BulkCreateBooksRequest{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}
