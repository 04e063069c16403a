// Package backend talks to the blog's /articles REST endpoints.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/Adda-Baaj/blog-articles/internal/config"
	"github.com/Adda-Baaj/blog-articles/pkg/httpclient"
)

const articlesPath = "/articles"

// Client implements article.Backend over HTTP.
type Client struct {
	http     httpclient.Client
	baseURL  string
	encoding string
}

// New builds a client for baseURL. encoding is config.EncodingForm or
// config.EncodingJSON; anything else falls back to form.
func New(client httpclient.Client, baseURL, encoding string) *Client {
	encoding = strings.ToLower(strings.TrimSpace(encoding))
	if encoding != config.EncodingJSON {
		encoding = config.EncodingForm
	}
	return &Client{
		http:     client,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		encoding: encoding,
	}
}

// List fetches every article (GET /articles). Null entries are skipped.
func (c *Client) List(ctx context.Context) ([]*article.Article, error) {
	resp, err := c.do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     c.collectionURL(),
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}

	var out []*article.Article
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	// null rows are dropped so a list of only nulls reads as empty.
	return slices.DeleteFunc(out, func(a *article.Article) bool { return a == nil }), nil
}

// Create posts the six content fields (POST /articles).
func (c *Client) Create(ctx context.Context, f article.Fields) (article.Response, error) {
	return c.do(ctx, c.withFields(http.MethodPost, c.collectionURL(), f))
}

// Update replaces one article (PUT /articles/{id}).
func (c *Client) Update(ctx context.Context, id article.ID, f article.Fields) (article.Response, error) {
	return c.do(ctx, c.withFields(http.MethodPut, c.itemURL(id), f))
}

// Delete removes one article (DELETE /articles/{id}).
func (c *Client) Delete(ctx context.Context, id article.ID) (article.Response, error) {
	return c.do(ctx, httpclient.Request{Method: http.MethodDelete, URL: c.itemURL(id)})
}

// DeleteAll removes every article (DELETE /articles).
func (c *Client) DeleteAll(ctx context.Context) (article.Response, error) {
	return c.do(ctx, httpclient.Request{Method: http.MethodDelete, URL: c.collectionURL()})
}

func (c *Client) withFields(method, target string, f article.Fields) httpclient.Request {
	req := httpclient.Request{Method: method, URL: target}
	if c.encoding == config.EncodingJSON {
		req.JSON = f
	} else {
		req.Form = f.Form()
	}
	return req
}

func (c *Client) do(ctx context.Context, req httpclient.Request) (article.Response, error) {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return article.Response{}, err
	}
	out := article.Response{Status: resp.StatusCode(), Body: resp.Body()}
	if err := httpclient.CheckStatus(req.Method, req.URL, resp); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) collectionURL() string {
	return c.baseURL + articlesPath
}

func (c *Client) itemURL(id article.ID) string {
	return c.collectionURL() + "/" + url.PathEscape(id.String())
}
