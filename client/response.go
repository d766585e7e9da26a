package client

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/adamwoolhether/gocurl/client/content"
)

// Response holds the status, headers and captured content of an executed
// request. Close releases the content and must always be called.
type Response struct {
	statusCode int
	headers    map[string][]string
	encoding   string
	cache      *content.Cache
	contentErr error
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Encoding returns the character set used by ContentString.
func (r *Response) Encoding() string {
	return r.encoding
}

// HeaderValue returns the first value of the named header, matched
// case-insensitively, or "" if it is absent.
func (r *Response) HeaderValue(name string) string {
	values := r.headers[strings.ToLower(name)]
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// HeaderValues returns every value of the named header, matched
// case-insensitively. It never returns nil.
func (r *Response) HeaderValues(name string) []string {
	values := r.headers[strings.ToLower(name)]
	if values == nil {
		return []string{}
	}

	return slices.Clone(values)
}

// Headers returns a copy of the headers keyed by lowercased name.
func (r *Response) Headers() map[string][]string {
	m := make(map[string][]string, len(r.headers))
	for k, v := range r.headers {
		m[k] = slices.Clone(v)
	}

	return m
}

// ContentErr returns the error that prevented the content from being
// captured, if any.
func (r *Response) ContentErr() error {
	return r.contentErr
}

// ContentStream returns a new reader over the captured content. Each call
// starts from the beginning; the caller must close the reader. It fails
// with [ErrNoContent], wrapping the capture error if there is one, when no
// content was captured.
func (r *Response) ContentStream() (io.ReadCloser, error) {
	if r.cache == nil {
		if r.contentErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoContent, r.contentErr)
		}
		return nil, ErrNoContent
	}

	return r.cache.Open()
}

// ContentString reads the whole content and decodes it with the response
// encoding.
func (r *Response) ContentString() (string, error) {
	rc, err := r.ContentStream()
	if err != nil {
		return "", fmt.Errorf("accessing content: %w", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("accessing content: %w", err)
	}

	s, err := decodeText(b, r.encoding)
	if err != nil {
		return "", fmt.Errorf("accessing content: %w", err)
	}

	return s, nil
}

// DecodeJSON decodes the JSON content into dst, which must be a pointer.
func (r *Response) DecodeJSON(dst any) error {
	rc, err := r.ContentStream()
	if err != nil {
		return fmt.Errorf("accessing content: %w", err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

// Close releases the captured content, removing its temporary file if
// there is one. A response without content closes without error.
func (r *Response) Close() error {
	if r.cache == nil {
		return nil
	}

	return r.cache.Close()
}

// Content converts a response with parser.
func Content[T any](r *Response, parser func(*Response) (T, error)) (T, error) {
	return parser(r)
}

// setHeaders stores h keyed by lowercased name. Empty names are dropped and
// the first of several names differing only in case wins.
func (r *Response) setHeaders(h map[string][]string) {
	r.headers = make(map[string][]string, len(h))

	for _, k := range slices.Sorted(maps.Keys(h)) {
		if k == "" {
			continue
		}
		lk := strings.ToLower(k)
		if _, ok := r.headers[lk]; ok {
			continue
		}
		r.headers[lk] = slices.Clone(h[k])
	}
}
