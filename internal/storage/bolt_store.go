package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	bolt "go.etcd.io/bbolt"
)

const (
	snapshotBucket   = "articles"
	expiryValueBytes = 8
	seqKeyBytes      = 8
)

// boltStore implements a Store backed by BoltDB. Each article is one entry
// keyed by its position in the snapshot; the value is an 8-byte expiry
// followed by the article JSON.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	snapshotTTL     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		snapshotTTL:     opts.SnapshotTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveSnapshot replaces the stored snapshot with articles.
func (b *boltStore) SaveSnapshot(articles []*article.Article) error {
	if b == nil || b.db == nil {
		return nil
	}

	expiry := b.now().Add(b.snapshotTTL)
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(snapshotBucket)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("reset bucket: %w", err)
		}
		bucket, err := tx.CreateBucket([]byte(snapshotBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		var seq uint64
		for _, a := range articles {
			if a == nil {
				continue
			}
			value, err := encodeEntry(expiry, a)
			if err != nil {
				return err
			}
			key := make([]byte, seqKeyBytes)
			binary.BigEndian.PutUint64(key, seq)
			if err := bucket.Put(key, value); err != nil {
				return err
			}
			seq++
		}
		return nil
	})
}

// LoadSnapshot returns the unexpired articles, dropping expired entries.
func (b *boltStore) LoadSnapshot() ([]*article.Article, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var out []*article.Article
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}

		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			expiry, a, ok := decodeEntry(v)
			if !ok || !expiry.After(now) {
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			out = append(out, a)
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("article bucket missing")
		}

		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeEntry(expiry time.Time, a *article.Article) ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode article %s: %w", a.ID, err)
	}
	buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	return append(buf, payload...), nil
}

func decodeEntry(value []byte) (time.Time, *article.Article, bool) {
	expiry, ok := decodeExpiry(value)
	if !ok {
		return time.Time{}, nil, false
	}
	var a article.Article
	if err := json.Unmarshal(value[expiryValueBytes:], &a); err != nil {
		return time.Time{}, nil, false
	}
	return expiry, &a, true
}

// decodeExpiry decodes the expiry time from the leading bytes of value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
