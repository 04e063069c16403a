package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/blog-articles/internal/app"
	"github.com/Adda-Baaj/blog-articles/internal/article"
)

// contentFlags are the six editable article fields.
type contentFlags struct {
	title       string
	author      string
	authorURL   string
	category    string
	publishedOn string
	body        string
	bodyFile    string
}

func (c *contentFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.title, "title", "", "article title")
	fs.StringVar(&c.author, "author", "", "author name")
	fs.StringVar(&c.authorURL, "author-url", "", "author profile URL")
	fs.StringVar(&c.category, "category", "", "article category")
	fs.StringVar(&c.publishedOn, "published-on", "", "publication date; empty keeps the article a draft")
	fs.StringVar(&c.body, "body", "", "article body (Markdown or HTML)")
	fs.StringVar(&c.bodyFile, "body-file", "", "read the body from this file")
}

// apply copies the flags the user set onto a.
func (c contentFlags) apply(fs *pflag.FlagSet, a *article.Article) error {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("title", &a.Title, c.title)
	set("author", &a.Author, c.author)
	set("author-url", &a.AuthorURL, c.authorURL)
	set("category", &a.Category, c.category)
	set("published-on", &a.PublishedOn, c.publishedOn)
	set("body", &a.Body, c.body)

	if fs.Changed("body-file") {
		raw, err := os.ReadFile(c.bodyFile)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}
		a.Body = string(raw)
	}
	return nil
}

func printResponse(w io.Writer, verb string, a *article.Article, resp article.Response) {
	if a != nil && !a.ID.IsZero() {
		fmt.Fprintf(w, "%s article %s (status %d)\n", verb, a.ID, resp.Status)
		return
	}
	fmt.Fprintf(w, "%s (status %d)\n", verb, resp.Status)
}

func newCreateCmd(e env) *cobra.Command {
	var content contentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an article on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &article.Article{}
			if err := content.apply(cmd.Flags(), a); err != nil {
				return err
			}
			if a.Title == "" {
				return errors.New("--title is required")
			}
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				resp, err := blog.Model().InsertRecord(ctx, a)
				if err != nil {
					return err
				}
				printResponse(cmd.OutOrStdout(), "created", a, resp)
				return nil
			})
		},
	}
	content.bind(cmd.Flags())
	return cmd
}

func newUpdateCmd(e env) *cobra.Command {
	var content contentFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing article",
		Long: `Fetch the article, apply the given flags on top of its current fields and
send all six fields back. Flags left out keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				a, err := blog.Find(ctx, article.ID(args[0]))
				if err != nil {
					return err
				}
				if err := content.apply(cmd.Flags(), a); err != nil {
					return err
				}
				resp, err := blog.Model().UpdateRecord(ctx, a)
				if err != nil {
					return err
				}
				printResponse(cmd.OutOrStdout(), "updated", a, resp)
				return nil
			})
		},
	}
	content.bind(cmd.Flags())
	return cmd
}

func newDeleteCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one article from the backend",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				a, err := blog.Find(ctx, article.ID(args[0]))
				if err != nil {
					return err
				}
				resp, err := blog.Model().DeleteRecord(ctx, a)
				if err != nil {
					return err
				}
				blog.Collection().Remove(a.ID)
				printResponse(cmd.OutOrStdout(), "deleted", a, resp)
				return nil
			})
		},
	}
}

func newTruncateCmd(e env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "truncate",
		Short: "Delete every article from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("truncate deletes every article; pass --yes to confirm")
			}
			return e.withBlog(cmd, func(ctx context.Context, blog *app.Blog) error {
				resp, err := blog.Model().TruncateTable(ctx)
				if err != nil {
					return err
				}
				printResponse(cmd.OutOrStdout(), "truncated", nil, resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every article")
	return cmd
}
