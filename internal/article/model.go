package article

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/blog-articles/internal/logger"
	"github.com/Adda-Baaj/blog-articles/pkg/httpclient"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMissingID is returned when an operation needs a persisted article.
	ErrMissingID = errors.New("article has no id")
	// ErrNilArticle is returned when a mutation is given no article.
	ErrNilArticle = errors.New("nil article")
	// ErrSeedNotVisible is returned when the backend is still empty after
	// it was seeded.
	ErrSeedNotVisible = errors.New("backend still empty after seeding")
)

// maxSeedRounds bounds how many times FetchAll seeds an empty backend.
const maxSeedRounds = 1

// Response is the raw backend reply to a mutating call.
type Response struct {
	Status int
	Body   []byte
}

// Backend is the remote article store.
type Backend interface {
	List(ctx context.Context) ([]*Article, error)
	Create(ctx context.Context, f Fields) (Response, error)
	Update(ctx context.Context, id ID, f Fields) (Response, error)
	Delete(ctx context.Context, id ID) (Response, error)
	DeleteAll(ctx context.Context) (Response, error)
}

// ChangeKind names a backend mutation.
type ChangeKind string

const (
	ChangeCreated   ChangeKind = "article.created"
	ChangeUpdated   ChangeKind = "article.updated"
	ChangeDeleted   ChangeKind = "article.deleted"
	ChangeTruncated ChangeKind = "articles.truncated"
)

// Change describes a successful mutation. Article is nil for truncation.
type Change struct {
	Kind    ChangeKind
	Article *Article
}

// ChangeNotifier is told about every successful mutation.
type ChangeNotifier interface {
	Notify(ctx context.Context, ch Change) error
}

// Model runs the article operations against a backend and loads results
// into a caller-owned collection.
type Model struct {
	backend    Backend
	seed       SeedSource
	collection *Collection
	notifier   ChangeNotifier
	log        logger.Logger
}

// NewModel wires a model. A nil seed uses the embedded dataset, a nil
// collection starts a fresh UTC one, and notifier may be nil.
func NewModel(backend Backend, seed SeedSource, collection *Collection, notifier ChangeNotifier, log logger.Logger) *Model {
	if seed == nil {
		seed = EmbeddedSeed{}
	}
	if collection == nil {
		collection = NewCollection(nil)
	}
	return &Model{
		backend:    backend,
		seed:       seed,
		collection: collection,
		notifier:   notifier,
		log:        logger.Ensure(log),
	}
}

// Collection returns the collection FetchAll loads into.
func (m *Model) Collection() *Collection { return m.collection }

// FetchAll loads every backend article into the collection. An empty
// backend is seeded once, then read again; a nil return means the
// collection is ready.
func (m *Model) FetchAll(ctx context.Context) error {
	return m.fetchAll(ctx, 0)
}

func (m *Model) fetchAll(ctx context.Context, round int) error {
	records, err := m.backend.List(ctx)
	if err != nil {
		m.log.ErrorObj("fetch articles failed", "fetch_error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("fetch articles: %w", err)
	}

	if len(records) > 0 {
		m.collection.LoadAll(records)
		m.log.InfoObj("articles loaded", "fetch_result", map[string]any{
			"fetched":         len(records),
			"collection_size": m.collection.Len(),
			"seed_rounds":     round,
		})
		return nil
	}

	if round >= maxSeedRounds {
		return ErrSeedNotVisible
	}

	m.log.InfoObj("backend empty; seeding", "seed_meta", map[string]any{
		"round": round + 1,
	})
	if err := m.seedBackend(ctx); err != nil {
		m.log.ErrorObj("seed backend failed", "seed_error", map[string]any{
			"error": err.Error(),
		})
		return err
	}
	return m.fetchAll(ctx, round+1)
}

// seedBackend creates every seed article concurrently and waits for all.
func (m *Model) seedBackend(ctx context.Context) error {
	items, err := m.seed.Load(ctx)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			_, err := m.InsertRecord(gctx, item)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("seed articles: %w", err)
	}
	return nil
}

// TruncateTable deletes every backend article. The collection is untouched.
func (m *Model) TruncateTable(ctx context.Context) (Response, error) {
	resp, err := m.backend.DeleteAll(ctx)
	if err != nil {
		return resp, m.failed("truncate articles", nil, err)
	}
	m.logResponse("articles truncated", nil, resp)
	m.notify(ctx, Change{Kind: ChangeTruncated})
	return resp, nil
}

// InsertRecord creates a on the backend from its six content fields; any id
// already set on a is not sent. When the reply carries the new article_id,
// a.ID is updated to it.
func (m *Model) InsertRecord(ctx context.Context, a *Article) (Response, error) {
	if a == nil {
		return Response{}, m.failed("insert article", nil, ErrNilArticle)
	}
	resp, err := m.backend.Create(ctx, a.Fields())
	if err != nil {
		return resp, m.failed("insert article", a, err)
	}
	if id := createdID(resp.Body); !id.IsZero() {
		a.ID = id
	}
	m.logResponse("article inserted", a, resp)
	m.notify(ctx, Change{Kind: ChangeCreated, Article: a.Clone()})
	return resp, nil
}

// UpdateRecord replaces the backend copy of a, addressed by a.ID as it is
// at call time.
func (m *Model) UpdateRecord(ctx context.Context, a *Article) (Response, error) {
	if a == nil {
		return Response{}, m.failed("update article", nil, ErrNilArticle)
	}
	if a.ID.IsZero() {
		return Response{}, m.failed("update article", a, ErrMissingID)
	}
	resp, err := m.backend.Update(ctx, a.ID, a.Fields())
	if err != nil {
		return resp, m.failed("update article", a, err)
	}
	m.logResponse("article updated", a, resp)
	m.notify(ctx, Change{Kind: ChangeUpdated, Article: a.Clone()})
	return resp, nil
}

// DeleteRecord deletes the backend copy of a. The collection is untouched;
// use Collection.Remove to drop it locally.
func (m *Model) DeleteRecord(ctx context.Context, a *Article) (Response, error) {
	if a == nil {
		return Response{}, m.failed("delete article", nil, ErrNilArticle)
	}
	if a.ID.IsZero() {
		return Response{}, m.failed("delete article", a, ErrMissingID)
	}
	resp, err := m.backend.Delete(ctx, a.ID)
	if err != nil {
		return resp, m.failed("delete article", a, err)
	}
	m.logResponse("article deleted", a, resp)
	m.notify(ctx, Change{Kind: ChangeDeleted, Article: a.Clone()})
	return resp, nil
}

func (m *Model) failed(op string, a *Article, err error) error {
	meta := map[string]any{"operation": op, "error": err.Error()}
	if a != nil {
		meta["article_id"] = a.ID.String()
	}
	m.log.ErrorObj(op+" failed", "backend_error", meta)
	return fmt.Errorf("%s: %w", op, err)
}

func (m *Model) logResponse(msg string, a *Article, resp Response) {
	meta := map[string]any{
		"status": resp.Status,
		"body":   httpclient.Snippet(resp.Body),
	}
	if a != nil {
		meta["article_id"] = a.ID.String()
	}
	m.log.InfoObj(msg, "backend_response", meta)
}

func (m *Model) notify(ctx context.Context, ch Change) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx, ch); err != nil {
		m.log.WarnObj("change notification failed", "notify_error", map[string]any{
			"kind":  string(ch.Kind),
			"error": err.Error(),
		})
	}
}

// createdID pulls article_id out of a JSON reply, either an object or a
// one-element array. Non-JSON replies yield the zero ID.
func createdID(body []byte) ID {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	if body[0] == '[' {
		var list []Article
		if err := json.Unmarshal(body, &list); err != nil || len(list) != 1 {
			return ""
		}
		return list[0].ID
	}
	if body[0] != '{' {
		return ""
	}
	var a Article
	if err := json.Unmarshal(body, &a); err != nil {
		return ""
	}
	return a.ID
}
