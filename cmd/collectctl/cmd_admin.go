package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/media-collect/internal/application/service"
	"github.com/garyjia/media-collect/internal/container"
	"github.com/garyjia/media-collect/internal/domain/entity"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// createAdminCmd bootstraps the first ADMIN account
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an ADMIN account",
	Long: `Create an ADMIN account. Only admins can register supervisors and
other admins through the API, so the first one is created here.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (or set ADMIN_PASSWORD)")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *container.Container) error {
		return createAdmin(ctx, c.Services().User, cmd)
	})
}

func createAdmin(ctx context.Context, users service.UserService, cmd *cobra.Command) error {
	password := adminPassword
	if password == "" {
		password = envOr("ADMIN_PASSWORD", "")
	}

	user, err := users.Register(ctx, service.RegisterInput{
		Name:     adminName,
		Email:    adminEmail,
		Password: password,
		Role:     entity.RoleAdmin,
	})
	if err != nil {
		if fields := service.FieldsOf(err); fields != nil {
			for field, msg := range fields {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
			}
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
