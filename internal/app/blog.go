package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/Adda-Baaj/blog-articles/internal/backend"
	"github.com/Adda-Baaj/blog-articles/internal/config"
	"github.com/Adda-Baaj/blog-articles/internal/logger"
	"github.com/Adda-Baaj/blog-articles/internal/storage"
	"github.com/Adda-Baaj/blog-articles/pkg/httpclient"
	"github.com/Adda-Baaj/blog-articles/pkg/publishers"
)

// Blog wires the article model to its backend, renderer, snapshot store and
// change publishers.
type Blog struct {
	cfg        *config.Config
	log        logger.Logger
	collection *article.Collection
	model      *article.Model
	renderer   *article.Renderer
	store      storage.Store
	fanout     *publishers.Fanout
}

// NewBlog builds the runtime from config.
func NewBlog(ctx context.Context, cfg *config.Config, log logger.Logger) (*Blog, error) {
	return newBlog(ctx, cfg, log, nil)
}

func newBlog(ctx context.Context, cfg *config.Config, log logger.Logger, client httpclient.Client) (*Blog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}
	if client == nil {
		client = httpclient.NewRestyClient(cfg.RequestTimeout)
	}

	seed, err := article.NewSeedSource(cfg.SeedSource, client)
	if err != nil {
		return nil, fmt.Errorf("init seed source: %w", err)
	}

	renderer, err := article.NewRenderer(article.RenderOptions{
		TemplateFile: cfg.TemplateFile,
		Location:     cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	var notifier article.ChangeNotifier
	if fanout.Size() > 0 {
		notifier = fanout
	}

	collection := article.NewCollection(cfg.Location)
	api := backend.New(client, cfg.BackendURL, cfg.RequestEncoding)

	return &Blog{
		cfg:        cfg,
		log:        log,
		collection: collection,
		model:      article.NewModel(api, seed, collection, notifier, log),
		renderer:   renderer,
		store:      store,
		fanout:     fanout,
	}, nil
}

// buildFanout loads the optional publishers file.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Model exposes the article operations.
func (b *Blog) Model() *article.Model { return b.model }

// Collection exposes the loaded articles.
func (b *Blog) Collection() *article.Collection { return b.collection }

// Renderer exposes the article renderer.
func (b *Blog) Renderer() *article.Renderer { return b.renderer }

// Sync replaces the collection with the backend contents and snapshots it.
func (b *Blog) Sync(ctx context.Context) error {
	b.collection.Clear()
	if err := b.model.FetchAll(ctx); err != nil {
		return err
	}
	if err := b.store.SaveSnapshot(b.collection.All()); err != nil {
		b.log.WarnObj("snapshot save failed", "storage_error", map[string]any{
			"error": err.Error(),
		})
	}
	return nil
}

// LoadOffline fills the collection from the last snapshot. It reports false
// when no fresh snapshot exists.
func (b *Blog) LoadOffline() (bool, error) {
	articles, err := b.store.LoadSnapshot()
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if len(articles) == 0 {
		return false, nil
	}
	b.collection.Replace(articles)
	return true, nil
}

// Find looks an article up in the collection, syncing first when the
// collection is empty.
func (b *Blog) Find(ctx context.Context, id article.ID) (*article.Article, error) {
	if b.collection.Len() == 0 {
		if err := b.Sync(ctx); err != nil {
			return nil, err
		}
	}
	a, ok := b.collection.ByID(id)
	if !ok {
		return nil, fmt.Errorf("article %s not found", id)
	}
	return a, nil
}

// Close releases the store and publishers.
func (b *Blog) Close() error {
	if b == nil {
		return nil
	}
	return errors.Join(b.store.Close(), b.fanout.Close())
}
