package article

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Collection is an ordered set of loaded articles, newest first. It is owned
// by the caller; nothing in this package keeps a global one.
type Collection struct {
	mu       sync.RWMutex
	articles []*Article
	loc      *time.Location
}

// NewCollection returns an empty collection that parses zone-less
// publication dates in loc (UTC when nil).
func NewCollection(loc *time.Location) *Collection {
	if loc == nil {
		loc = time.UTC
	}
	return &Collection{loc: loc}
}

// LoadAll sorts records newest first by publication date and appends them.
// Records whose date cannot be parsed compare equal to everything, so their
// position is unspecified. Prior contents are kept and nothing is
// deduplicated.
func (c *Collection) LoadAll(records []*Article) {
	sorted := SortByPublished(records, c.loc)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range sorted {
		if a == nil {
			continue
		}
		c.articles = append(c.articles, a)
	}
}

// SortByPublished returns a copy of records ordered newest first.
func SortByPublished(records []*Article, loc *time.Location) []*Article {
	type keyed struct {
		a  *Article
		t  time.Time
		ok bool
	}
	tmp := make([]keyed, len(records))
	for i, a := range records {
		tmp[i].a = a
		if a != nil {
			tmp[i].t, tmp[i].ok = a.Published(loc)
		}
	}
	slices.SortStableFunc(tmp, func(x, y keyed) int {
		if !x.ok || !y.ok {
			return 0
		}
		return y.t.Compare(x.t)
	})

	out := make([]*Article, len(tmp))
	for i := range tmp {
		out[i] = tmp[i].a
	}
	return out
}

// Replace clears the collection and loads records.
func (c *Collection) Replace(records []*Article) {
	c.Clear()
	c.LoadAll(records)
}

// Clear drops every article.
func (c *Collection) Clear() {
	c.mu.Lock()
	c.articles = nil
	c.mu.Unlock()
}

// Len returns the number of articles held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}

// All returns the articles in collection order.
func (c *Collection) All() []*Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.articles)
}

// ByID returns the first article with the given id.
func (c *Collection) ByID(id ID) (*Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.articles {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Remove drops every article with the given id and reports how many went.
func (c *Collection) Remove(id ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := len(c.articles)
	c.articles = slices.DeleteFunc(c.articles, func(a *Article) bool { return a.ID == id })
	return before - len(c.articles)
}

// Filter narrows the collection. Empty fields match anything.
type Filter struct {
	Author   string
	Category string
}

func (f Filter) match(a *Article) bool {
	if f.Author != "" && !strings.EqualFold(f.Author, a.Author) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, a.Category) {
		return false
	}
	return true
}

// Filter returns the matching articles in collection order.
func (c *Collection) Filter(f Filter) []*Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Article, 0, len(c.articles))
	for _, a := range c.articles {
		if f.match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Authors lists distinct non-empty authors, sorted.
func (c *Collection) Authors() []string {
	return c.distinct(func(a *Article) string { return a.Author })
}

// Categories lists distinct non-empty categories, sorted.
func (c *Collection) Categories() []string {
	return c.distinct(func(a *Article) string { return a.Category })
}

func (c *Collection) distinct(field func(*Article) string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{}, len(c.articles))
	var out []string
	for _, a := range c.articles {
		v := strings.TrimSpace(field(a))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
