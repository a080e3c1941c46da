package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL schema",
		Long: `Create the tables and indexes of the blog in the database named by
BLOG_DATABASE_URL. Running it again changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage != config.StoragePostgres {
				return errors.New("migrate needs BLOG_STORAGE=postgres")
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			info(cmd.OutOrStdout(), "Applying schema")
			if err := st.(*store.Postgres).Migrate(cmd.Context()); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Schema is up to date")

			return nil
		},
	}
}
