package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/di"
	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/id"
	"github.com/libraryhub/library-server/internal/service"
)

func newAdminCommand(flags *config.Flags) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var req service.CreateMemberRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an ADMIN member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			generated := false
			if req.Password == "" {
				password, err := promptPassword()
				if err != nil {
					return err
				}
				generated = password == ""
				if generated {
					if password, err = id.Password(16); err != nil {
						return err
					}
				}
				req.Password = password
			}
			req.Role = string(domain.RoleAdmin)

			injector := di.NewContainer(*flags)
			defer injector.Shutdown()

			members, err := do.Invoke[*service.MemberService](injector)
			if err != nil {
				return err
			}
			m, err := members.Create(cmd.Context(), domain.SystemActor, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", m.Email, m.ID)
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "Generated password: %s\n", req.Password)
			}
			return nil
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "login email")
	create.Flags().StringVar(&req.Name, "name", "", "full name")
	create.Flags().StringVar(&req.Phone, "phone", "", "10 digit mobile number")
	create.Flags().StringVar(&req.Password, "password", "", "password (prompted, or generated without a terminal)")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("phone")

	admin.AddCommand(create)
	return admin
}

// promptPassword reads a password twice from the terminal without echo.
// It returns "" when stdin is not a terminal, or when both entries are
// left empty, so the caller generates one.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	read := func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	password, err := read("Password (empty to generate): ")
	if err != nil {
		return "", err
	}
	confirm, err := read("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}
