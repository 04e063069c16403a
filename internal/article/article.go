// Package article is the model layer for blog posts: the entity, the ordered
// collection of loaded posts, HTML rendering, and the CRUD operations that
// keep posts in sync with the backend.
package article

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Backend column names.
const (
	KeyID          = "article_id"
	KeyAuthor      = "author"
	KeyAuthorURL   = "authorUrl"
	KeyBody        = "body"
	KeyCategory    = "category"
	KeyPublishedOn = "publishedOn"
	KeyTitle       = "title"
)

// ID is the opaque identifier the backend assigns to a persisted article.
type ID string

func (id ID) String() string { return string(id) }

// IsZero reports whether the article has not been persisted yet.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// Record is a plain key/value payload for one article, as received from or
// sent to the backend.
type Record map[string]any

// Article is one blog post. Unknown backend columns are kept in Extra.
type Article struct {
	ID          ID
	Author      string
	AuthorURL   string
	Body        string
	Category    string
	PublishedOn string
	Title       string
	Extra       map[string]any
}

// Fields is the content sent on create and update. It never carries the id.
type Fields struct {
	Author      string `json:"author"`
	AuthorURL   string `json:"authorUrl"`
	Body        string `json:"body"`
	Category    string `json:"category"`
	PublishedOn string `json:"publishedOn"`
	Title       string `json:"title"`
}

// New builds an Article from rec. Every key is kept: known columns land in
// fields, anything else in Extra. Nothing is validated.
func New(rec Record) *Article {
	a := &Article{}
	a.assign(rec)
	return a
}

func (a *Article) assign(rec Record) {
	for k, v := range rec {
		switch k {
		case KeyID:
			a.ID = ID(stringify(v))
		case KeyAuthor:
			a.Author = stringify(v)
		case KeyAuthorURL:
			a.AuthorURL = stringify(v)
		case KeyBody:
			a.Body = stringify(v)
		case KeyCategory:
			a.Category = stringify(v)
		case KeyPublishedOn:
			a.PublishedOn = stringify(v)
		case KeyTitle:
			a.Title = stringify(v)
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = v
		}
	}
}

// Fields returns exactly the six content fields of a.
func (a *Article) Fields() Fields {
	return Fields{
		Author:      a.Author,
		AuthorURL:   a.AuthorURL,
		Body:        a.Body,
		Category:    a.Category,
		PublishedOn: a.PublishedOn,
		Title:       a.Title,
	}
}

// Form encodes f as form values, one entry per field.
func (f Fields) Form() map[string]string {
	return map[string]string{
		KeyAuthor:      f.Author,
		KeyAuthorURL:   f.AuthorURL,
		KeyBody:        f.Body,
		KeyCategory:    f.Category,
		KeyPublishedOn: f.PublishedOn,
		KeyTitle:       f.Title,
	}
}

// Record flattens a back into a key/value payload, Extra included.
func (a *Article) Record() Record {
	rec := make(Record, len(a.Extra)+7)
	for k, v := range a.Extra {
		rec[k] = v
	}
	if !a.ID.IsZero() {
		rec[KeyID] = a.ID.String()
	}
	for k, v := range a.Fields().Form() {
		rec[k] = v
	}
	return rec
}

// Clone returns a copy that shares nothing mutable with a.
func (a *Article) Clone() *Article {
	cp := *a
	if a.Extra != nil {
		cp.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

// Published parses PublishedOn. Zone-less values are read in loc (UTC when
// nil). ok is false when the value is empty or unparsable.
func (a *Article) Published(loc *time.Location) (t time.Time, ok bool) {
	return parseDate(a.PublishedOn, loc)
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MarshalJSON writes the backend shape: known columns plus Extra.
func (a Article) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(a.Record()))
}

// UnmarshalJSON accepts any object; numeric ids are kept verbatim.
func (a *Article) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("decode article: %w", err)
	}
	*a = Article{}
	a.assign(rec)
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
