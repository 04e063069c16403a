package publishers

import (
	"time"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/google/uuid"
)

// Event represents the payload published downstream after a backend change.
type Event struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	ArticleID  string           `json:"article_id,omitempty"`
	Article    *article.Article `json:"article,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewEvent constructs an Event for the given change.
func NewEvent(ch article.Change) Event {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       string(ch.Kind),
		OccurredAt: time.Now().UTC(),
	}
	if ch.Article != nil {
		evt.ArticleID = ch.Article.ID.String()
		evt.Article = ch.Article
	}
	return evt
}
