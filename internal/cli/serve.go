package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SergeyParamoshkin/blog/internal/applog"
	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/metrics"
	"github.com/SergeyParamoshkin/blog/internal/server"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

type serveOptions struct {
	addr         string
	diagAddr     string
	storage      string
	migrate      bool
	seed         bool
	seedPassword string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the public HTTP server and the diagnostics listener (/metrics, /ping).

Examples:
  blog serve                                 # PostgreSQL from BLOG_DATABASE_URL
  blog serve --migrate                       # create the schema first
  blog serve --storage memory --seed         # in-memory demo with Peter and Julia`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "application address (default $BLOG_ADDR)")
	cmd.Flags().StringVar(&opts.diagAddr, "diag-addr", "", "diagnostics address (default $BLOG_DIAG_ADDR)")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "storage backend: postgres or memory (default $BLOG_STORAGE)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "create the PostgreSQL schema before serving")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "fill the store with demo users, categories and articles")
	cmd.Flags().StringVar(&opts.seedPassword, "seed-password", "secret1", "password of the demo users")

	return cmd
}

// apply lets explicitly set flags win over the environment.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = o.addr
	}
	if cmd.Flags().Changed("diag-addr") {
		cfg.DiagAddr = o.diagAddr
	}
	if cmd.Flags().Changed("storage") {
		cfg.Storage = o.storage
	}
}

func runServe(ctx context.Context, cfg config.Config, opts *serveOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := applog.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }() // flushes buffer, if any

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if pg, ok := st.(*store.Postgres); ok && opts.migrate {
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		logger.Infow("schema ready")
	}

	if opts.seed {
		if err := article.Seed(ctx, st, opts.seedPassword); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Infow("demo data seeded", "users", "Peter, Julia")
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}
	defer func() { _ = m.Shutdown(context.Background()) }()

	srv, err := server.New(cfg, logger, st, m)
	if err != nil {
		return err
	}

	logger.Infow("starting", "service", server.ServiceName, "addr", cfg.Addr, "diag_addr", cfg.DiagAddr, "storage", cfg.Storage)

	return srv.Run(ctx)
}
