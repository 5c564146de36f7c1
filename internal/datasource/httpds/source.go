package httpds

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"regatta/internal/datasource"
)

// StatusError reports a response status other than 200 OK. 404 and 410
// unwrap to fs.ErrNotExist so a missing document is classified the same way
// as a missing file.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound || e.Code == http.StatusGone {
		return fs.ErrNotExist
	}
	return nil
}

// Source is a datasource.Source reading one document URL.
type Source struct {
	client *Client
	url    string
}

var _ datasource.Source = (*Source)(nil)

// NewSource returns a Source fetching url with a client built from cfg.
func NewSource(url string, cfg Config) *Source {
	return &Source{client: NewClient(cfg), url: url}
}

// Name implements datasource.Source.
func (s *Source) Name() string { return s.url }

// Open issues the GET and returns the body of a 200 response.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: s.url, Code: resp.StatusCode}
	}
	return resp.Body, nil
}
