package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/bedtrack/internal/config"
	"github.com/ehr/bedtrack/internal/console"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/export"
	"github.com/ehr/bedtrack/internal/platform/db"
	"github.com/ehr/bedtrack/internal/report"
	"github.com/ehr/bedtrack/internal/storage"
	"github.com/ehr/bedtrack/internal/storage/csvfile"
	"github.com/ehr/bedtrack/internal/storage/postgres"
	"github.com/ehr/bedtrack/internal/tracker"
	"github.com/ehr/bedtrack/migrations"
)

// cli carries what every subcommand needs once the root has loaded config.
type cli struct {
	envFiles []string
	cfg      *config.Config
	logger   zerolog.Logger
}

func main() {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:           "bedtrack",
		Short:         "Hospital room admission and bed availability tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "Extra env files to load before the environment")

	rootCmd.AddCommand(c.runCmd())
	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.exportCmd())
	rootCmd.AddCommand(c.seedCmd())
	rootCmd.AddCommand(c.migrateCmd())
	rootCmd.AddCommand(c.syncCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) init(stderr io.Writer) error {
	cfg, err := config.Load(c.envFiles...)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	c.cfg, c.logger = cfg, logger
	return nil
}

// newLogger writes to stderr so log lines never interleave with the menu.
func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func (c *cli) paths() csvfile.Paths {
	return csvfile.Paths{
		Patients:   c.cfg.Path(c.cfg.PatientFile),
		Admissions: c.cfg.Path(c.cfg.RoomFile),
		Beds:       c.cfg.Path(c.cfg.BedFile),
	}
}

func (c *cli) fileStore() *csvfile.Store {
	return csvfile.New(c.paths(),
		csvfile.WithDelimiter(c.cfg.Comma()),
		csvfile.WithLogger(c.logger.With().Str("backend", config.StorageFile).Logger()),
	)
}

// openPool connects to Postgres and brings the schema up to date.
func (c *cli) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, c.cfg.DatabaseURL, c.cfg.DBMaxConns, c.cfg.DBMinConns)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx, pool, c.cfg.DBSchema, migrations.FS); err != nil {
		pool.Close()
		return nil, err
	}
	c.logger.Info().Str("schema", c.cfg.DBSchema).Msg("connected to database")
	return pool, nil
}

func (c *cli) pgStore(pool *pgxpool.Pool) (*postgres.Store, error) {
	return postgres.New(pool, c.cfg.DBSchema, c.logger.With().Str("backend", config.StoragePostgres).Logger())
}

// backend returns the configured store. pool is nil for the file backend;
// the caller closes it otherwise.
func (c *cli) backend(ctx context.Context) (storage.Backend, *pgxpool.Pool, error) {
	if c.cfg.Storage != config.StoragePostgres {
		return c.fileStore(), nil, nil
	}
	pool, err := c.openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := c.pgStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

func (c *cli) session(ctx context.Context, b storage.Backend) (*tracker.Session, error) {
	tables, err := b.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrEmptySource) {
			return nil, fmt.Errorf("%w (create the tables with `bedtrack seed`)", err)
		}
		return nil, err
	}
	policy, err := tracker.ParseDeletePolicy(c.cfg.DeletePolicy)
	if err != nil {
		return nil, err
	}
	order, err := bed.ParseOrder(c.cfg.LatestOrder)
	if err != nil {
		return nil, err
	}
	s, err := tracker.New(tables,
		tracker.WithDeletePolicy(policy),
		tracker.WithSnapshotOrder(order),
		tracker.WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("session_id", s.ID.String()).
		Int("patients", len(tables.Patients)).
		Int("admissions", len(tables.Admissions)).
		Int("snapshots", len(tables.Beds)).
		Msg("tables loaded")
	return s, nil
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive admission menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, pool, err := c.backend(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			s, err := c.session(ctx, b)
			if err != nil {
				return err
			}

			app := console.New(s, cmd.InOrStdin(), cmd.OutOrStdout(), console.WithLogger(c.logger))
			runErr := app.Run(ctx)

			if err := b.Save(ctx, s.Tables()); err != nil {
				return fmt.Errorf("save tables: %w", err)
			}
			c.logger.Info().Int("revision", s.Revision()).Msg("session saved")
			return runErr
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, pool, err := c.backend(ctx)
			if err != nil {
				return err
			}
			var pinger db.Pinger
			if pool != nil {
				defer pool.Close()
				pinger = pool
			}

			s, err := c.session(ctx, b)
			if err != nil {
				return err
			}

			e := report.NewServer(s, c.logger, pinger)
			go func() {
				addr := ":" + c.cfg.Port
				c.logger.Info().Str("addr", addr).Msg("starting server")
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					c.logger.Fatal().Err(err).Msg("server error")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			c.logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			c.logger.Info().Msg("server stopped")
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the tables to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			ctx := cmd.Context()
			b, pool, err := c.backend(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}
			s, err := c.session(ctx, b)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Write(f, s); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported workbook to %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("out", "bedtrack.xlsx", "Path of the workbook to write")
	return cmd
}

func (c *cli) seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create empty data files with a CAPACITY row",
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity, err := capacityFlags(cmd)
			if err != nil {
				return err
			}
			paths := c.paths()
			if err := csvfile.Seed(paths, capacity,
				csvfile.WithDelimiter(c.cfg.Comma()),
				csvfile.WithLogger(c.logger),
			); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s, %s and %s\n", paths.Patients, paths.Admissions, paths.Beds)
			return nil
		},
	}
	cmd.Flags().Int("vvip", 0, "VVIP beds")
	cmd.Flags().Int("vip", 0, "VIP beds")
	cmd.Flags().Int("kelas1", 0, "Kelas 1 beds")
	cmd.Flags().Int("kelas2", 0, "Kelas 2 beds")
	cmd.Flags().Int("kelas3", 0, "Kelas 3 beds")
	return cmd
}

var capacityFlagNames = map[bed.RoomType]string{
	bed.VVIP:   "vvip",
	bed.VIP:    "vip",
	bed.Kelas1: "kelas1",
	bed.Kelas2: "kelas2",
	bed.Kelas3: "kelas3",
}

func capacityFlags(cmd *cobra.Command) (bed.Counts, error) {
	var counts bed.Counts
	for _, r := range bed.RoomTypes {
		n, err := cmd.Flags().GetInt(capacityFlagNames[r])
		if err != nil {
			return counts, err
		}
		if n < 0 {
			return counts, fmt.Errorf("--%s must not be negative", capacityFlagNames[r])
		}
		counts[r] = n
	}
	return counts, nil
}
