//go:build integration

package e2e_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adamwoolhether/gocurl"
	"github.com/adamwoolhether/gocurl/client"
	"github.com/adamwoolhether/gocurl/client/pool"
	"github.com/adamwoolhether/gocurl/internal/logging"
)

// -------------------------------------------------------------------------
// Types
// -------------------------------------------------------------------------

type user struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type itemResp struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type queryResp struct {
	Search string `json:"search"`
	Page   string `json:"page"`
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func newTestApp(t *testing.T) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /echo", echoHandler)
	mux.HandleFunc("GET /items/{id}/{name}", itemHandler)
	mux.HandleFunc("GET /query", queryHandler)
	mux.HandleFunc("GET /large", largeHandler)
	mux.HandleFunc("GET /gzip", gzipHandler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL
}

func newLogger() *slog.Logger {
	return logging.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func execute(t *testing.T, req *client.Request) *client.Response {
	t.Helper()

	res, err := req.Execute(t.Context())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	t.Cleanup(func() { res.Close() })

	return res
}

// requestsOK reads the successful GET counter from the default registry.
func requestsOK(t *testing.T) float64 {
	t.Helper()

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "gocurl_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == "GET" && labels["outcome"] == "ok" {
				return m.GetCounter().GetValue()
			}
		}
	}

	return 0
}

const largeSize = 3 << 20

// -------------------------------------------------------------------------
// Handlers
// -------------------------------------------------------------------------

func echoHandler(w http.ResponseWriter, r *http.Request) {
	var u user
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(u)
}

func itemHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(itemResp{ID: r.PathValue("id"), Name: r.PathValue("name")})
}

func queryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	json.NewEncoder(w).Encode(queryResp{Search: q.Get("search"), Page: q.Get("page")})
}

func largeHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, io.LimitReader(zeroReader{}, largeSize))
}

func gzipHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Accept-Encoding") != "gzip" {
		io.WriteString(w, "plain")
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	zw := gzip.NewWriter(w)
	io.WriteString(zw, strings.Repeat("gopher ", 1000))
	zw.Close()
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_JSONRoundTrip(t *testing.T) {
	base := newTestApp(t)

	body, err := json.Marshal(user{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	req, err := gocurl.Post(base+"/echo",
		client.WithHeader("Content-Type", "application/json"),
		client.WithBody(string(body)),
		client.WithLogger(newLogger()),
	)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	res := execute(t, req)
	if res.StatusCode() != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode())
	}

	got, err := client.Content(res, func(r *client.Response) (user, error) {
		var u user
		err := r.DecodeJSON(&u)
		return u, err
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(user{Name: "Ada", Email: "ada@example.com"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestE2E_PathAndQueryParams(t *testing.T) {
	base := newTestApp(t)

	t.Run("path", func(t *testing.T) {
		req, err := gocurl.Get(base + "/items/42/widget")
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		var got itemResp
		if err := execute(t, req).DecodeJSON(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := cmp.Diff(itemResp{ID: "42", Name: "widget"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("query", func(t *testing.T) {
		req, err := gocurl.Get(base+"/query",
			client.WithParam("search", "go & gophers"),
			client.WithParam("page", "3"),
		)
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		var got queryResp
		if err := execute(t, req).DecodeJSON(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if diff := cmp.Diff(queryResp{Search: "go & gophers", Page: "3"}, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestE2E_NotFound(t *testing.T) {
	base := newTestApp(t)

	req, err := gocurl.Delete(base + "/nope")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	res := execute(t, req)
	if res.StatusCode() != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode())
	}
	if s, err := res.ContentString(); err != nil || !strings.Contains(s, "404") {
		t.Errorf("expected error body, got %q (%v)", s, err)
	}
}

func TestE2E_LargeBodySpills(t *testing.T) {
	base := newTestApp(t)
	dir := t.TempDir()

	req, err := gocurl.Get(base+"/large", client.WithTempDir(dir))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	res, err := req.Execute(t.Context())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "gocurl-*.tmp"))
	if len(files) != 1 {
		t.Fatalf("expected one spill file, found %v", files)
	}

	rc, err := res.ContentStream()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	n, err := io.Copy(io.Discard, rc)
	rc.Close()
	if err != nil || n != largeSize {
		t.Errorf("expected %d bytes, read %d (%v)", largeSize, n, err)
	}

	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(files[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected spill file to be removed, stat err = %v", err)
	}
}

func TestE2E_Gzip(t *testing.T) {
	base := newTestApp(t)

	req, err := gocurl.Get(base+"/gzip", client.WithGzip(), client.WithThreshold(512), client.WithTempDir(t.TempDir()))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	s, err := execute(t, req).ContentString()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if s != strings.Repeat("gopher ", 1000) {
		t.Errorf("unexpected decoded body of %d bytes", len(s))
	}
}

func TestE2E_AsyncPool(t *testing.T) {
	base := newTestApp(t)
	p := pool.New(3, pool.WithLogger(newLogger()))

	before := requestsOK(t)

	const total = 10
	var mu sync.Mutex
	got := make(map[string]bool)

	for i := range total {
		req, err := gocurl.Get(fmt.Sprintf("%s/items/%d/async", base, i), client.WithExecutor(p))
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		req.ExecuteAsync(context.Background(),
			func(res *client.Response) {
				var item itemResp
				if err := res.DecodeJSON(&item); err != nil {
					t.Errorf("decode: %v", err)
					return
				}
				mu.Lock()
				got[item.ID] = true
				mu.Unlock()
			},
			func(err error) { t.Errorf("request failed: %v", err) },
		)
	}

	if err := p.Wait(); err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(got) != total {
		t.Errorf("expected %d distinct responses, got %d", total, len(got))
	}
	if delta := requestsOK(t) - before; delta != total {
		t.Errorf("expected %d recorded requests, got %v", total, delta)
	}
}
