package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/Adda-Baaj/blog-articles/internal/backend/backendtest"
	"github.com/Adda-Baaj/blog-articles/internal/config"
	"github.com/Adda-Baaj/blog-articles/internal/logger"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "blog-articles",
		BackendURL:             backendURL,
		RequestTimeout:         5 * time.Second,
		RequestEncoding:        config.EncodingForm,
		SeedSource:             article.SeedEmbedded,
		Location:               time.UTC,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(t.TempDir(), "data", "articles.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func openBlog(t *testing.T, cfg *config.Config, log logger.Logger) *Blog {
	t.Helper()
	blog, err := NewBlog(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = blog.Close() })
	return blog
}

func TestSyncEndToEnd(t *testing.T) {
	srv := backendtest.NewServer(t,
		article.Record{article.KeyID: "1", article.KeyTitle: "January", article.KeyPublishedOn: "2020-01-01", article.KeyBody: "old"},
		article.Record{article.KeyID: "2", article.KeyTitle: "June", article.KeyPublishedOn: "2020-06-01", article.KeyBody: "new"},
	)
	blog := openBlog(t, testConfig(t, srv.URL), nil)

	require.NoError(t, blog.Sync(context.Background()))

	all := blog.Collection().All()
	require.Len(t, all, 2)
	assert.Equal(t, "June", all[0].Title)

	out, err := blog.Renderer().Render(all[0])
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>June</h1>")

	require.NoError(t, blog.Sync(context.Background()))
	assert.Equal(t, 2, blog.Collection().Len(), "sync replaces rather than appends")
}

func TestSyncSeedsEmptyBackend(t *testing.T) {
	srv := backendtest.NewServer(t)
	blog := openBlog(t, testConfig(t, srv.URL), nil)

	require.NoError(t, blog.Sync(context.Background()))
	assert.Equal(t, 4, blog.Collection().Len())
	assert.Len(t, srv.Articles(), 4)
	assert.Equal(t, 4, srv.Count(http.MethodPost, "/articles"))
}

func TestLoadOfflineAfterSync(t *testing.T) {
	srv := backendtest.NewServer(t,
		article.Record{article.KeyID: "1", article.KeyTitle: "kept", article.KeyPublishedOn: "2020-01-01"},
	)
	cfg := testConfig(t, srv.URL)

	first, err := NewBlog(context.Background(), cfg, nil)
	require.NoError(t, err)
	ok, err := first.LoadOffline()
	require.NoError(t, err)
	assert.False(t, ok, "no snapshot before the first sync")
	require.NoError(t, first.Sync(context.Background()))
	require.NoError(t, first.Close())

	srv.Close()
	second := openBlog(t, cfg, nil)
	ok, err = second.LoadOffline()
	require.NoError(t, err)
	require.True(t, ok)

	a, err := second.Find(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "kept", a.Title)
}

func TestFindSyncsEmptyCollection(t *testing.T) {
	srv := backendtest.NewServer(t,
		article.Record{article.KeyID: "9", article.KeyTitle: "found", article.KeyPublishedOn: "2020-01-01"},
	)
	blog := openBlog(t, testConfig(t, srv.URL), nil)

	a, err := blog.Find(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "found", a.Title)

	_, err = blog.Find(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, 1, srv.Count(http.MethodGet, "/articles"))
}

func TestMutationsPublishEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []map[string]any
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt map[string]any
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	require.NoError(t, os.WriteFile(pubFile, []byte(`publishers:
  - id: audit
    type: http
    http:
      url: `+sink.URL+`
  - id: disabled
    type: http
    enabled: false
    http:
      url: http://127.0.0.1:1
`), 0o600))

	srv := backendtest.NewServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.PublishersFile = pubFile

	core, logs := observer.New(zap.InfoLevel)
	blog := openBlog(t, cfg, logger.New(zap.New(core)))

	a := &article.Article{Title: "fresh", PublishedOn: "2020-01-01"}
	_, err := blog.Model().InsertRecord(context.Background(), a)
	require.NoError(t, err)
	_, err = blog.Model().DeleteRecord(context.Background(), a)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, string(article.ChangeCreated), events[0]["type"])
	assert.Equal(t, a.ID.String(), events[0]["article_id"])
	assert.Equal(t, string(article.ChangeDeleted), events[1]["type"])

	assert.Equal(t, 1, logs.FilterMessage("publishers registry loaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("article inserted").Len())
}

func TestNewBlogRejectsBadPublishersFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewBlog(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestNewBlogRejectsNilConfig(t *testing.T) {
	_, err := NewBlog(context.Background(), nil, nil)
	require.Error(t, err)
}
