package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRestyClientSendsFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("title"); got != "hello" {
			t.Errorf("title = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("missing header, got %q", got)
		}
		_, _ = w.Write([]byte("insert complete"))
	}))
	defer srv.Close()

	c := NewRestyClient(2 * time.Second)
	resp, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "1"},
		Form:    map[string]string{"title": "hello"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != "insert complete" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
}

func TestRestyClientSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("content type = %q", ct)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload["author"] != "ada" {
			t.Errorf("author = %q", payload["author"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewRestyClient(2 * time.Second)
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPut,
		URL:    srv.URL,
		JSON:   map[string]string{"author": "ada"},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}

func TestCheckStatusReportsSnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewRestyClient(time.Second)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	err = CheckStatus(http.MethodGet, srv.URL, resp)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Status != http.StatusBadRequest || statusErr.Snippet != "nope" {
		t.Fatalf("unexpected status error %#v", statusErr)
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("a", maxSnippetBytes+10)
	got := Snippet([]byte(long))
	if len(got) != maxSnippetBytes+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected snippet length %d", len(got))
	}
	if Snippet([]byte("  ok \n")) != "ok" {
		t.Fatalf("expected trimmed snippet")
	}
}
