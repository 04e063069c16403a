package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/blog-articles/internal/app"
	"github.com/Adda-Baaj/blog-articles/internal/config"
	"github.com/Adda-Baaj/blog-articles/internal/logger"
)

// blogOpener builds the runtime a command works against.
type blogOpener func(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Blog, error)

type env struct {
	cfg  *config.Config
	log  logger.Logger
	open blogOpener
}

// withBlog opens the runtime, runs fn and closes it again.
func (e env) withBlog(cmd *cobra.Command, fn func(ctx context.Context, blog *app.Blog) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	blog, err := e.open(ctx, e.cfg, e.log)
	if err != nil {
		return fmt.Errorf("init blog: %w", err)
	}
	defer func() {
		if cerr := blog.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close blog: %w", cerr)
		}
	}()
	return fn(ctx, blog)
}

func newRootCmd(cfg *config.Config, log logger.Logger, open blogOpener) *cobra.Command {
	e := env{cfg: cfg, log: logger.Ensure(log), open: open}

	root := &cobra.Command{
		Use:   "blogctl",
		Short: "Manage blog articles on the backend",
		Long: `blogctl loads, renders and edits the blog's articles through the
/articles REST backend. An empty backend is seeded from the configured
seed source on first fetch.

Example usage:
  blogctl list                          # Fetch and list articles, newest first
  blogctl list --author "Kyla Carroll"  # Only one author's articles
  blogctl render --out articles.html    # Render every article to a file
  blogctl render --offline              # Render the last saved snapshot
  blogctl create --title "Hello" --body "# Hi" --published-on 2020-01-01
  blogctl update 42 --title "New title"
  blogctl delete 42
  blogctl truncate --yes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newListCmd(e),
		newFacetsCmd(e),
		newRenderCmd(e),
		newCreateCmd(e),
		newUpdateCmd(e),
		newDeleteCmd(e),
		newTruncateCmd(e),
	)
	return root
}
