package article

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Adda-Baaj/blog-articles/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// SeedEmbedded selects the bundled dataset in NewSeedSource.
const SeedEmbedded = "embedded"

//go:embed seed/hackerIpsum.json
var embeddedSeed []byte

// SeedSource yields the fallback dataset used to populate an empty backend.
type SeedSource interface {
	Load(ctx context.Context) ([]*Article, error)
}

// NewSeedSource resolves a seed location: "embedded" (or empty) for the
// bundled dataset, an http(s) URL, or a local JSON/YAML file.
func NewSeedSource(location string, client httpclient.Client) (SeedSource, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "" || strings.EqualFold(location, SeedEmbedded):
		return EmbeddedSeed{}, nil
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		if client == nil {
			return nil, errors.New("url seed requires an http client")
		}
		return URLSeed{Client: client, URL: location}, nil
	default:
		return FileSeed{Path: location}, nil
	}
}

// EmbeddedSeed is the dataset bundled into the binary.
type EmbeddedSeed struct{}

func (EmbeddedSeed) Load(context.Context) ([]*Article, error) {
	return ParseSeed(embeddedSeed, ".json")
}

// FileSeed reads the dataset from disk.
type FileSeed struct {
	Path string
}

func (f FileSeed) Load(context.Context) ([]*Article, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw, filepath.Ext(f.Path))
}

// URLSeed fetches the dataset over HTTP.
type URLSeed struct {
	Client httpclient.Client
	URL    string
}

func (u URLSeed) Load(ctx context.Context) ([]*Article, error) {
	resp, err := u.Client.Get(ctx, u.URL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("fetch seed: %w", err)
	}
	if err := httpclient.CheckStatus(http.MethodGet, u.URL, resp); err != nil {
		return nil, fmt.Errorf("fetch seed: %w", err)
	}
	return ParseSeed(resp.Body(), path.Ext(strings.SplitN(u.URL, "?", 2)[0]))
}

type unmarshalFn func([]byte, any) error

// ParseSeed decodes a list of records. ext picks the decoder; an empty or
// unknown extension tries JSON then YAML.
func ParseSeed(data []byte, ext string) ([]*Article, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if d.ext == ext {
			known = true
		}
	}

	var lastErr error
	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var recs []Record
		if err := d.fn(data, &recs); err != nil {
			lastErr = fmt.Errorf("decode %s seed: %w", d.name, err)
			continue
		}
		out := make([]*Article, 0, len(recs))
		for _, rec := range recs {
			out = append(out, New(rec))
		}
		return out, nil
	}

	if lastErr == nil {
		lastErr = errors.New("seed format not recognized (expected YAML or JSON)")
	}
	return nil, lastErr
}
