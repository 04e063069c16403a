package article

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// TemplateName is the identifier the article template is looked up by.
const TemplateName = "article-template"

const (
	draftStatus  = "(draft)"
	teaserBlocks = 2
)

//go:embed templates/article.html
var defaultTemplate string

// BodyConverter turns an article body into safe HTML.
type BodyConverter interface {
	Convert(src string) (template.HTML, error)
}

// MarkdownConverter renders Markdown with GFM extensions. Valid HTML in the
// source passes through as written; only scripts, event handlers and other
// unsafe markup are stripped.
type MarkdownConverter struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewMarkdownConverter builds the default body converter.
func NewMarkdownConverter() *MarkdownConverter {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("class").Globally()

	return &MarkdownConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: p,
	}
}

// Convert renders src to sanitized HTML.
func (c *MarkdownConverter) Convert(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(strings.TrimSpace(c.policy.Sanitize(buf.String()))), nil
}

// View is the render-time projection of an article. Building it never
// mutates the article.
type View struct {
	ID            string
	Author        string
	AuthorURL     string
	Body          template.HTML
	Teaser        template.HTML
	Category      string
	PublishedOn   string
	Title         string
	DaysAgo       Days
	PublishStatus string
}

// Context exposes v under the field names templates are written against.
func (v View) Context() map[string]any {
	return map[string]any{
		"id":            v.ID,
		"author":        v.Author,
		"authorUrl":     v.AuthorURL,
		"body":          v.Body,
		"teaser":        v.Teaser,
		"category":      v.Category,
		"publishedOn":   v.PublishedOn,
		"title":         v.Title,
		"daysAgo":       v.DaysAgo.String(),
		"publishStatus": v.PublishStatus,
	}
}

// PublishStatus is "published N days ago" for any non-empty publication
// date, unparsable ones included, and "(draft)" otherwise.
func PublishStatus(publishedOn string, days Days) string {
	if publishedOn == "" {
		return draftStatus
	}
	return fmt.Sprintf("published %s days ago", days)
}

// RenderOptions configures a Renderer. Zero values select the defaults:
// the embedded template, the Markdown converter, time.Now and UTC.
// Template takes precedence over TemplateFile.
type RenderOptions struct {
	TemplateFile string
	Template     string
	Converter    BodyConverter
	Now          func() time.Time
	Location     *time.Location
}

// Renderer turns articles into markup using the article template.
type Renderer struct {
	tmpl *template.Template
	conv BodyConverter
	now  func() time.Time
	loc  *time.Location
}

// NewRenderer compiles the article template once.
func NewRenderer(opts RenderOptions) (*Renderer, error) {
	text := opts.Template
	if text == "" && strings.TrimSpace(opts.TemplateFile) != "" {
		raw, err := os.ReadFile(opts.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read template file: %w", err)
		}
		text = string(raw)
	}
	if text == "" {
		text = defaultTemplate
	}

	root, err := template.New(TemplateName).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", TemplateName, err)
	}
	tmpl := root.Lookup(TemplateName)
	if tmpl == nil {
		tmpl = root
	}

	r := &Renderer{
		tmpl: tmpl,
		conv: opts.Converter,
		now:  opts.Now,
		loc:  opts.Location,
	}
	if r.conv == nil {
		r.conv = NewMarkdownConverter()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	return r, nil
}

// View computes the view-model for a at the renderer's current time.
func (r *Renderer) View(a *Article) (View, error) {
	if a == nil {
		return View{}, fmt.Errorf("nil article")
	}

	var days Days
	if published, ok := a.Published(r.loc); ok {
		days = DaysSince(r.now(), published)
	}

	body, err := r.conv.Convert(a.Body)
	if err != nil {
		return View{}, fmt.Errorf("article %s body: %w", a.ID, err)
	}

	return View{
		ID:            a.ID.String(),
		Author:        a.Author,
		AuthorURL:     a.AuthorURL,
		Body:          body,
		Teaser:        teaser(body, teaserBlocks),
		Category:      a.Category,
		PublishedOn:   a.PublishedOn,
		Title:         a.Title,
		DaysAgo:       days,
		PublishStatus: PublishStatus(a.PublishedOn, days),
	}, nil
}

// Render returns the markup for a. It is safe to call repeatedly.
func (r *Renderer) Render(a *Article) (string, error) {
	v, err := r.View(a)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v.Context()); err != nil {
		return "", fmt.Errorf("execute %s: %w", TemplateName, err)
	}
	return buf.String(), nil
}

// RenderAll renders articles in order and concatenates the markup.
func (r *Renderer) RenderAll(articles []*Article) (string, error) {
	var sb strings.Builder
	for _, a := range articles {
		out, err := r.Render(a)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// teaser keeps the first n top-level blocks of body.
func teaser(body template.HTML, n int) template.HTML {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return body
	}
	var sb strings.Builder
	doc.Find("body").Children().EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= n {
			return false
		}
		if html, err := goquery.OuterHtml(s); err == nil {
			sb.WriteString(html)
		}
		return true
	})
	return template.HTML(sb.String())
}
