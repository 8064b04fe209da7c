package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"orgfees/internal/auth"
	"orgfees/internal/core"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage API users"}
	cmd.AddCommand(a.userCreateCmd())
	return cmd
}

func (a *app) userCreateCmd() *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user that can sign in to the API",
		Long: `Create a user with a bcrypt-hashed password.

The password is read from standard input when --password is not given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			st, err := a.open(ctx, a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			svc := auth.NewService(st, auth.NewIssuer(a.cfg.JWTSecret, a.cfg.TokenTTL))
			user, err := svc.CreateUser(ctx, email, password, core.Role(role))
			if err != nil {
				if rej, ok := core.AsRejection(err); ok {
					return fmt.Errorf("user not created: %s", rej.Reason)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address used to sign in")
	cmd.Flags().StringVar(&password, "password", "", "password (8 to 72 bytes)")
	cmd.Flags().StringVar(&role, "role", string(core.RoleStaff), "role: admin or staff")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
