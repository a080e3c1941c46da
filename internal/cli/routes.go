package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/server"
	"github.com/SergeyParamoshkin/blog/internal/store"
)

func newRoutesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Generate router documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(map[string]string{"BLOG_STORAGE": config.StorageMemory})
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, zap.NewNop().Sugar(), store.NewMemory(), nil)
			if err != nil {
				return err
			}

			if jsonOutput {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), srv.RoutesJSON())
			} else {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), srv.RoutesDoc())
			}

			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
