package client

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/adamwoolhether/gocurl/client/content"
	"github.com/adamwoolhether/gocurl/client/metrics"
)

// processor turns a received *http.Response into a Response, capturing the
// body through a content.Buffer.
type processor struct {
	method      Method
	encoding    string
	threshold   int64
	tempDir     string
	compression string
	logger      *slog.Logger
}

// process always consumes and closes resp.Body. Capture failures are
// stored on the Response instead of being returned.
func (p processor) process(resp *http.Response) *Response {
	res := &Response{
		statusCode: resp.StatusCode,
		encoding:   p.encoding,
	}
	res.setHeaders(resp.Header)

	defer func() {
		if resp.Body == nil {
			return
		}
		if err := resp.Body.Close(); err != nil {
			p.logger.Error("failed to close response body", "error", err)
		}
	}()

	cache, err := p.capture(resp)
	if err != nil {
		res.contentErr = err
		metrics.RecordContentError()
		p.logger.Warn("failed to capture response content", "status", resp.StatusCode, "error", err)
		return res
	}
	res.cache = cache

	return res
}

// source selects the stream holding the body. Error statuses carry their
// body the same way; HEAD responses are always empty.
func (p processor) source(resp *http.Response) (io.Reader, error) {
	if p.method == MethodHead || resp.Body == nil || resp.Body == http.NoBody {
		return http.NoBody, nil
	}

	if p.compression == GzipCompression && resp.Header.Get("Content-Encoding") == p.compression {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, nil
	}

	return resp.Body, nil
}

// capture drains the body into a spill buffer and converts it into a cache.
func (p processor) capture(resp *http.Response) (*content.Cache, error) {
	src, err := p.source(resp)
	if err != nil {
		return nil, err
	}

	buf := content.NewBuffer(p.threshold, p.tempDir, p.logger)
	defer func() {
		if err := buf.Close(); err != nil {
			p.logger.Warn("failed to close content buffer", "error", err)
		}
	}()

	if _, err := io.CopyBuffer(buf, src, make([]byte, chunkSize)); err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return nil, err
	}

	var cache *content.Cache
	if buf.InMemory() {
		data, err := buf.Data()
		if err != nil {
			return nil, err
		}
		if cache, err = content.FromBytes(data); err != nil {
			return nil, err
		}
	} else {
		path, err := buf.File()
		if err != nil {
			return nil, err
		}
		if cache, err = content.FromFile(path); err != nil {
			return nil, err
		}
	}

	metrics.RecordCapture(buf.InMemory(), buf.Size())
	p.logger.Debug("<<< response", "status", resp.StatusCode, "in_memory", buf.InMemory(), "bytes", buf.Size())

	return cache, nil
}
