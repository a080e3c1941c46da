// Package cli is the blog command line: serve, routes, migrate, useradd.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

const version = "0.3.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blog",
		Short: "Blog - articles, comments, categories and search",
		Long: `Blog serves articles with comments, categories and keyword search,
as HTML pages for browsers and JSON for API clients.

Settings come from BLOG_* environment variables; flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newRoutesCmd(),
		newMigrateCmd(),
		newUseraddCmd(),
	)

	return root
}

// Execute runs the root command
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		failure(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

// openStore connects the storage backend named by cfg.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return store.NewMemory(), nil
	case config.StoragePostgres:
		pg, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
