package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/store"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

func newUseraddCmd() *cobra.Command {
	var (
		password string
		perms    []string
	)

	cmd := &cobra.Command{
		Use:   "useradd NAME",
		Short: "Create a user",
		Long: `Create a user who can log in to the blog.

Permissions: articles.add_article, articles.change_article, articles.delete_article.

Examples:
  blog useradd peter --password secret1 --perm articles.add_article --perm articles.change_article`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			_, err = addUser(cmd.Context(), cmd.OutOrStdout(), st, args[0], password, perms)
			return err
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password of the new user (at least 6 characters)")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permission to grant, repeatable")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

var knownPermissions = map[user.Permission]bool{
	user.AddArticle:    true,
	user.ChangeArticle: true,
	user.DeleteArticle: true,
}

func addUser(ctx context.Context, w io.Writer, users store.UserStore, name, password string, perms []string) (*user.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("user name is required")
	}

	granted := user.ParsePermissions(perms)
	for _, p := range granted {
		if !knownPermissions[p] {
			return nil, fmt.Errorf("unknown permission %q", p)
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &user.User{Name: name, PasswordHash: hash, Permissions: granted}
	if err := users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", name, err)
	}

	success(w, "Created user %s (id %d)", u.Name, u.ID)
	if len(granted) == 0 {
		muted(w, "no permissions granted: the user can comment but not write articles")
	}

	return u, nil
}
