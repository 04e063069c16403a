package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/Adda-Baaj/blog-articles/internal/backend/backendtest"
	"github.com/Adda-Baaj/blog-articles/internal/config"
	"github.com/Adda-Baaj/blog-articles/pkg/httpclient"
)

func newClient(baseURL, encoding string) *Client {
	return New(httpclient.NewRestyClient(2*time.Second), baseURL, encoding)
}

func TestListDecodesArticles(t *testing.T) {
	srv := backendtest.NewServer(t,
		article.Record{article.KeyID: "1", article.KeyTitle: "a", "views": 3},
		article.Record{article.KeyID: "2", article.KeyTitle: "b"},
	)

	got, err := newClient(srv.URL+"/", config.EncodingForm).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, article.ID("1"), got[0].ID)
	assert.Equal(t, "a", got[0].Title)
	assert.Contains(t, got[0].Extra, "views")
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/articles"))
}

func TestCreateFormEncoded(t *testing.T) {
	srv := backendtest.NewServer(t)
	c := newClient(srv.URL, config.EncodingForm)

	resp, err := c.Create(context.Background(), article.Fields{Title: "t", Author: "a"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Contains(t, string(resp.Body), `"article_id":"1"`)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ContentType, "application/x-www-form-urlencoded")
	assert.Len(t, calls[0].Fields, 6)
	assert.Equal(t, "t", calls[0].Fields[article.KeyTitle])
}

func TestCreateJSONEncoded(t *testing.T) {
	srv := backendtest.NewServer(t)
	c := newClient(srv.URL, config.EncodingJSON)

	_, err := c.Create(context.Background(), article.Fields{Title: "t", PublishedOn: "2020-01-01"})
	require.NoError(t, err)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].ContentType, "application/json")
	assert.Len(t, calls[0].Fields, 6)
	assert.Equal(t, "2020-01-01", calls[0].Fields[article.KeyPublishedOn])
}

func TestUpdateDeleteAndDeleteAll(t *testing.T) {
	srv := backendtest.NewServer(t,
		article.Record{article.KeyID: "a b", article.KeyTitle: "spaced"},
		article.Record{article.KeyID: "2", article.KeyTitle: "two"},
	)
	c := newClient(srv.URL, config.EncodingForm)
	ctx := context.Background()

	_, err := c.Update(ctx, "2", article.Fields{Title: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Count(http.MethodPut, "/articles/2"))

	_, err = c.Delete(ctx, "a b")
	require.NoError(t, err)
	require.Len(t, srv.Articles(), 1)
	assert.Equal(t, "renamed", srv.Articles()[0][article.KeyTitle])

	resp, err := c.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "truncated", string(resp.Body))
	assert.Empty(t, srv.Articles())
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := backendtest.NewServer(t)
	c := newClient(srv.URL, config.EncodingForm)

	resp, err := c.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	var statusErr *httpclient.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
}

func TestListRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, config.EncodingForm).List(context.Background())
	require.Error(t, err)
}

func TestEmptyListBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got, err := newClient(srv.URL, config.EncodingForm).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListSkipsNullEntries(t *testing.T) {
	cases := []struct {
		body string
		want []article.ID
	}{
		{body: `[null]`, want: nil},
		{body: `[null, {"article_id": "1", "title": "kept"}, null]`, want: []article.ID{"1"}},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tc.body))
		}))

		got, err := newClient(srv.URL, config.EncodingForm).List(context.Background())
		srv.Close()
		require.NoError(t, err, tc.body)

		var ids []article.ID
		for _, a := range got {
			require.NotNil(t, a, tc.body)
			ids = append(ids, a.ID)
		}
		assert.Equal(t, tc.want, ids, tc.body)
	}
}

func TestUnknownEncodingFallsBackToForm(t *testing.T) {
	c := New(nil, "http://x/", "xml")
	assert.Equal(t, config.EncodingForm, c.encoding)
	assert.Equal(t, "http://x/articles/a%20b", c.itemURL("a b"))
}
