package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garyjia/media-collect/migrations"
	"github.com/garyjia/media-collect/pkg/database"
)

// migrateCmd applies pending migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

// migrateStatusCmd lists applied and pending migrations
var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrateStatus,
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *database.Migrator) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	db, err := database.New(ctx, database.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, database.NewMigrator(db, migrations.FS, logger))
}

func runMigrate(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
		applied, err := m.Run(ctx)
		if err != nil {
			return err
		}
		if applied == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	return withMigrator(cmd, func(ctx context.Context, m *database.Migrator) error {
		applied, err := m.Applied(ctx)
		if err != nil {
			return err
		}
		pending, err := m.Pending(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
		for _, a := range applied {
			fmt.Fprintf(w, "%03d\t%s\tapplied %s\n", a.Version, a.Name, a.AppliedAt.UTC().Format("2006-01-02 15:04:05"))
		}
		for _, p := range pending {
			fmt.Fprintf(w, "%03d\t%s\tpending\n", p.Version, p.Name)
		}
		return w.Flush()
	})
}
