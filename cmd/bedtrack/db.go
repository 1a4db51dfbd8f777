package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehr/bedtrack/internal/platform/db"
	"github.com/ehr/bedtrack/internal/storage"
	"github.com/ehr/bedtrack/migrations"
)

// migrationSource returns dir as a filesystem, or the embedded migrations
// when dir is empty.
func migrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, dir := c.migrateFlags(cmd)

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, c.cfg.DatabaseURL, c.cfg.DBMaxConns, c.cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.EnsureSchema(ctx, pool, schema, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
			count, err := db.NewMigrator(pool, migrationSource(dir)).Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	addMigrateFlags(upCmd)
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, dir := c.migrateFlags(cmd)

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, c.cfg.DatabaseURL, c.cfg.DBMaxConns, c.cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationSource(dir)).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatuses(cmd, schema, statuses)
			return nil
		},
	}
	addMigrateFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func addMigrateFlags(cmd *cobra.Command) {
	cmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.Flags().String("dir", "", "Migrations directory (defaults to the built-in migrations)")
}

func (c *cli) migrateFlags(cmd *cobra.Command) (schema, dir string) {
	schema, _ = cmd.Flags().GetString("schema")
	dir, _ = cmd.Flags().GetString("dir")
	if schema == "" {
		schema = c.cfg.DBSchema
	}
	return schema, dir
}

func printStatuses(cmd *cobra.Command, schema string, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func (c *cli) syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the tables between the data files and Postgres",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "push",
		Short: "Replace the Postgres tables with the data files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.copyTables(cmd, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "pull",
		Short: "Replace the data files with the Postgres tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.copyTables(cmd, false)
		},
	})
	return cmd
}

func (c *cli) copyTables(cmd *cobra.Command, push bool) error {
	if c.cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for sync")
	}

	ctx := cmd.Context()
	pool, err := c.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	pg, err := c.pgStore(pool)
	if err != nil {
		return err
	}

	var src, dst storage.Backend = c.fileStore(), pg
	direction := "files -> postgres"
	if !push {
		src, dst = pg, c.fileStore()
		direction = "postgres -> files"
	}

	tables, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	if err := dst.Save(ctx, tables); err != nil {
		return fmt.Errorf("save destination: %w", err)
	}

	c.logger.Info().
		Str("direction", direction).
		Int("patients", len(tables.Patients)).
		Int("admissions", len(tables.Admissions)).
		Int("snapshots", len(tables.Beds)).
		Msg("tables copied")
	fmt.Fprintf(cmd.OutOrStdout(), "Copied %d patients, %d room admissions and %d bed snapshots (%s)\n",
		len(tables.Patients), len(tables.Admissions), len(tables.Beds), direction)
	return nil
}
