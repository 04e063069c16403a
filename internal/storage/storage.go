// Package storage keeps a local snapshot of the last fetched articles.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/blog-articles/internal/article"
)

// Store saves and restores article snapshots.
type Store interface {
	Close() error
	SaveSnapshot(articles []*article.Article) error
	// LoadSnapshot returns the unexpired articles in saved order.
	LoadSnapshot() ([]*article.Article, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                              { return nil }
func (noopStore) SaveSnapshot([]*article.Article) error     { return nil }
func (noopStore) LoadSnapshot() ([]*article.Article, error) { return nil, nil }
