package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ukm-hub/backend/internal/auth"
	"github.com/ukm-hub/backend/internal/models"
)

// accountCreator registers accounts. *auth.Service satisfies it.
type accountCreator interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, string, error)
}

// roleSetter changes a user's global role. *auth.Repository satisfies it.
type roleSetter interface {
	SetRole(ctx context.Context, email string, role models.GlobalRole) error
}

// backend is what the commands operate on, opened once per invocation.
type backend struct {
	accounts accountCreator
	roles    roleSetter
	migrate  func(ctx context.Context) error
	close    func()
}

type backendKey struct{}

func backendFrom(ctx context.Context) *backend {
	be, _ := ctx.Value(backendKey{}).(*backend)
	return be
}

func newRootCmd(open func(ctx context.Context) (*backend, error)) *cobra.Command {
	root := &cobra.Command{
		Use:          "ukmctl",
		Short:        "Administer the UKM hub",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			be, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open backend: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), backendKey{}, be))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if be := backendFrom(cmd.Context()); be != nil && be.close != nil {
				be.close()
			}
			return nil
		},
	}
	root.SetContext(context.Background())
	root.AddCommand(migrateCmd(), createAdminCmd(), setRoleCmd())
	return root
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := backendFrom(cmd.Context()).migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration: %w", err)
			}
			cmd.Println("schema up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a global administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, _, err := backendFrom(cmd.Context()).accounts.Register(cmd.Context(), auth.RegisterInput{
				Email:    email,
				Password: password,
				Role:     string(models.RoleAdmin),
				Profile:  models.Profile{FullName: name},
			})
			if err != nil {
				return err
			}
			cmd.Printf("created admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "", "admin full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func setRoleCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change a user's global role (user or admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseGlobalRole(role)
			if err != nil || role == "" {
				return fmt.Errorf("role must be %q or %q", models.RoleUser, models.RoleAdmin)
			}
			if err := backendFrom(cmd.Context()).roles.SetRole(cmd.Context(), auth.NormalizeEmail(email), r); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", email, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&role, "role", "", "user or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
