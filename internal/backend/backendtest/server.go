// Package backendtest serves an in-memory /articles API for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Adda-Baaj/blog-articles/internal/article"
	"github.com/gorilla/mux"
)

// Call is one request the server received.
type Call struct {
	Method      string
	Path        string
	ContentType string
	Fields      map[string]string
}

// Server is a fake blog backend. Created articles get sequential numeric ids.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	articles []article.Record
	nextID   int
	calls    []Call
}

// NewServer starts a backend holding seed and stops it when t ends.
func NewServer(t testing.TB, seed ...article.Record) *Server {
	t.Helper()

	s := &Server{nextID: 1}
	for _, rec := range seed {
		s.add(rec)
	}

	r := mux.NewRouter()
	r.HandleFunc("/articles", s.list).Methods(http.MethodGet)
	r.HandleFunc("/articles", s.create).Methods(http.MethodPost)
	r.HandleFunc("/articles", s.truncate).Methods(http.MethodDelete)
	r.HandleFunc("/articles/{id}", s.update).Methods(http.MethodPut)
	r.HandleFunc("/articles/{id}", s.remove).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// Articles returns the stored records.
func (s *Server) Articles() []article.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]article.Record, 0, len(s.articles))
	for _, rec := range s.articles {
		cp := make(article.Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

func (s *Server) add(rec article.Record) article.Record {
	cp := make(article.Record, len(rec)+1)
	for k, v := range rec {
		cp[k] = v
	}
	if _, ok := cp[article.KeyID]; !ok {
		cp[article.KeyID] = strconv.Itoa(s.nextID)
		s.nextID++
	}
	s.articles = append(s.articles, cp)
	return cp
}

func (s *Server) record(r *http.Request, fields map[string]string) {
	s.calls = append(s.calls, Call{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Fields:      fields,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.record(r, nil)
	body, err := json.Marshal(s.articles)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.record(r, fields)
	rec := make(article.Record, len(fields))
	for k, v := range fields {
		rec[k] = v
	}
	created := s.add(rec)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	fields, err := readFields(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r, fields)
	for _, rec := range s.articles {
		if rec[article.KeyID] == id {
			for k, v := range fields {
				rec[k] = v
			}
			_, _ = w.Write([]byte("updated"))
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r, nil)
	before := len(s.articles)
	s.articles = slices.DeleteFunc(s.articles, func(rec article.Record) bool {
		return rec[article.KeyID] == id
	})
	if len(s.articles) == before {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte("deleted"))
}

func (s *Server) truncate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r, nil)
	s.articles = nil
	_, _ = w.Write([]byte("truncated"))
}

func readFields(r *http.Request) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var out map[string]string
		if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		out[k] = r.PostForm.Get(k)
	}
	return out, nil
}
