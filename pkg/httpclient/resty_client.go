package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxSnippetBytes = 512

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers})
}

// Do executes req. Transport failures are returned as errors; HTTP error
// statuses are not, callers inspect StatusCode or use CheckStatus.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	switch {
	case req.Form != nil:
		rr.SetFormData(req.Form)
	case req.JSON != nil:
		rr.SetHeader("Content-Type", "application/json")
		rr.SetBody(req.JSON)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

// StatusError reports a non-2xx response.
type StatusError struct {
	Method  string
	URL     string
	Status  int
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d body: %s", e.Method, e.URL, e.Status, e.Snippet)
}

// CheckStatus returns a *StatusError when resp is outside the 2xx range.
func CheckStatus(method, url string, resp Response) error {
	if resp == nil {
		return fmt.Errorf("%s %s: nil response", method, url)
	}
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{
		Method:  method,
		URL:     url,
		Status:  code,
		Snippet: Snippet(resp.Body()),
	}
}

// Snippet trims body to a loggable size.
func Snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	return s
}
