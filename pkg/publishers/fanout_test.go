package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/Adda-Baaj/blog-articles/internal/article"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	last   Event
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(_ context.Context, evt Event) error {
	s.calls++
	s.last = evt
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
		nil,
	})

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if fanout.Size() != 2 {
		t.Fatalf("nil publishers should be dropped, size=%d", fanout.Size())
	}
}

func TestFanoutNotifyBuildsEvent(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: "http"}
	fanout := NewFanout([]Publisher{stub})

	err := fanout.Notify(context.Background(), article.Change{
		Kind:    article.ChangeDeleted,
		Article: &article.Article{ID: "11"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if stub.calls != 1 || stub.last.Type != "article.deleted" || stub.last.ArticleID != "11" || stub.last.ID == "" {
		t.Fatalf("unexpected event %#v", stub.last)
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: "gcp_pubsub"}
	if err := NewFanout([]Publisher{stub}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stub.closed {
		t.Fatalf("publisher was not closed")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
