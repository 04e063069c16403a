package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/blog-articles/internal/app"
	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/Adda-Baaj/blog-articles/internal/output"
)

var errNoSnapshot = errors.New("no fresh snapshot; run without --offline first")

type selection struct {
	offline  bool
	author   string
	category string
}

func (s *selection) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.offline, "offline", false, "use the last saved snapshot instead of the backend")
	cmd.Flags().StringVar(&s.author, "author", "", "only articles by this author")
	cmd.Flags().StringVar(&s.category, "category", "", "only articles in this category")
}

// load fills the collection and returns the selected articles, newest first.
func (s selection) load(ctx context.Context, blog *app.Blog) ([]*article.Article, error) {
	if s.offline {
		ok, err := blog.LoadOffline()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNoSnapshot
		}
	} else if err := blog.Sync(ctx); err != nil {
		return nil, err
	}
	return blog.Collection().Filter(article.Filter{Author: s.author, Category: s.category}), nil
}

func newListCmd(e env) *cobra.Command {
	var (
		sel    selection
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "fetch"},
		Short:   "Fetch and list articles newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				articles, err := sel.load(ctx, blog)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(articles)
				}
				return printArticles(cmd.OutOrStdout(), blog.Renderer(), articles)
			})
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printArticles(w io.Writer, r *article.Renderer, articles []*article.Article) error {
	table := output.NewTable(w, []string{"ID", "TITLE", "AUTHOR", "CATEGORY", "STATUS"})
	for _, a := range articles {
		v, err := r.View(a)
		if err != nil {
			return err
		}
		table.AddRow(v.ID, v.Title, v.Author, v.Category, v.PublishStatus)
	}
	return table.Render()
}

func newFacetsCmd(e env) *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List distinct authors and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				if _, err := sel.load(ctx, blog); err != nil {
					return err
				}
				table := output.NewTable(cmd.OutOrStdout(), []string{"FACET", "VALUE"})
				for _, a := range blog.Collection().Authors() {
					table.AddRow("author", a)
				}
				for _, c := range blog.Collection().Categories() {
					table.AddRow("category", c)
				}
				return table.Render()
			})
		},
	}
	cmd.Flags().BoolVar(&sel.offline, "offline", false, "use the last saved snapshot instead of the backend")
	return cmd
}

func newRenderCmd(e env) *cobra.Command {
	var (
		sel selection
		out string
	)
	cmd := &cobra.Command{
		Use:   "render [id]",
		Short: "Render articles to HTML",
		Long: `Render every selected article with the article template, newest first.
With an id only that article is rendered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				articles, err := sel.load(ctx, blog)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					a, ok := blog.Collection().ByID(article.ID(args[0]))
					if !ok {
						return fmt.Errorf("article %s not found", args[0])
					}
					articles = []*article.Article{a}
				}

				markup, err := blog.Renderer().RenderAll(articles)
				if err != nil {
					return err
				}
				if out == "" {
					_, err = io.WriteString(cmd.OutOrStdout(), markup)
					return err
				}
				if err := os.WriteFile(out, []byte(markup), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				e.log.InfoObj("articles rendered", "render_result", map[string]any{
					"count": len(articles),
					"path":  out,
				})
				return nil
			})
		},
	}
	sel.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write markup to this file instead of stdout")
	return cmd
}
