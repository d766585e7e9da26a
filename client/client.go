package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/net/proxy"

	"github.com/adamwoolhether/gocurl/client/metrics"
	"github.com/adamwoolhether/gocurl/client/throttle"
)

type header struct {
	key   string
	value string
}

// Request describes an HTTP request. It is configured through options and
// drives exactly one execution; once sent it can no longer be changed.
// A Request is not safe for concurrent configuration.
type Request struct {
	method      Method
	url         string
	encoding    string
	threshold   int64
	tempDir     string
	params      []string
	headers     []header
	body        string
	hasBody     bool
	bodyStream  io.Reader
	proxy       *url.URL
	tlsConfig   *tls.Config
	compression string
	timeout     time.Duration
	onConnect   ConnectFunc
	executor    Executor
	transport   http.RoundTripper
	throttle    *throttle.Throttle
	logger      *slog.Logger
	tracer      trace.Tracer

	sent atomic.Bool
}

// NewRequest instantiates a Request for method and rawURL with the provided
// options. The URL is only parsed when the request executes.
func NewRequest(method Method, rawURL string, optFns ...Option) (*Request, error) {
	r := &Request{
		method:    method,
		url:       rawURL,
		encoding:  DefaultEncoding,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	if err := r.Apply(optFns...); err != nil {
		return nil, err
	}

	d := descriptor{
		Method:    r.method,
		URL:       r.url,
		Encoding:  r.encoding,
		Threshold: r.threshold,
	}
	if err := check(d); err != nil {
		return nil, err
	}

	return r, nil
}

// Apply applies further options in order, stopping at the first failure.
// Options applied before the failing one are kept.
func (r *Request) Apply(optFns ...Option) error {
	if r.sent.Load() {
		return ErrRequestSent
	}

	for _, opt := range optFns {
		if err := opt(r); err != nil {
			return fmt.Errorf("applying request option: %w", err)
		}
	}

	return nil
}

// Method returns the request method.
func (r *Request) Method() Method {
	return r.method
}

// URL returns the target URL with the encoded query parameters appended.
func (r *Request) URL() string {
	if len(r.params) == 0 {
		return r.url
	}

	sep := "?"
	if strings.Contains(r.url, "?") {
		sep = "&"
	}

	return r.url + sep + strings.Join(r.params, "&")
}

// Encoding returns the character set of the request.
func (r *Request) Encoding() string {
	return r.encoding
}

// Threshold returns the in-memory limit for the response content.
func (r *Request) Threshold() int64 {
	return r.threshold
}

// Body returns the text body and whether one is set.
func (r *Request) Body() (string, bool) {
	return r.body, r.hasBody
}

// Proxy returns the configured proxy, if any.
func (r *Request) Proxy() *url.URL {
	return r.proxy
}

// Execute sends the request on the calling goroutine and returns the
// response with its content captured. The caller must Close the response.
// A body that cannot be captured is reported by the response's content
// accessors, not here. Any configured Executor is ignored.
func (r *Request) Execute(ctx context.Context) (*Response, error) {
	if !r.sent.CompareAndSwap(false, true) {
		return nil, ErrRequestSent
	}

	return r.execute(ctx)
}

// ExecuteAsync runs the request on the configured Executor, or inline when
// there is none. A response goes to onSuccess and is closed once it
// returns, even if it panics; any other error goes to onFailure. A failure
// to close the response is also passed to onFailure. Nil callbacks are
// ignored.
func (r *Request) ExecuteAsync(ctx context.Context, onSuccess func(*Response), onFailure func(error)) {
	if onSuccess == nil {
		onSuccess = func(*Response) {}
	}
	if onFailure == nil {
		onFailure = func(error) {}
	}

	if !r.sent.CompareAndSwap(false, true) {
		onFailure(ErrRequestSent)
		return
	}

	task := func() {
		res, err := r.execute(ctx)
		if err != nil {
			onFailure(err)
			return
		}

		defer func() {
			if err := res.Close(); err != nil {
				onFailure(fmt.Errorf("closing response: %w", err))
			}
		}()

		onSuccess(res)
	}

	if r.executor == nil {
		task()
		return
	}

	if err := r.executor.Execute(task); err != nil {
		metrics.RecordRequest(r.method.String(), metrics.OutcomeRejected, 0)
		onFailure(&RequestError{
			Method: r.method,
			URL:    r.URL(),
			Err:    fmt.Errorf("%w: %w", ErrRejected, err),
		})
	}
}

// execute runs one exchange inside a span and records its outcome.
func (r *Request) execute(ctx context.Context) (*Response, error) {
	target := r.URL()

	ctx, span := r.tracer.Start(ctx, "gocurl.execute", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", r.method.String()),
		attribute.String("url.full", target),
	)

	start := time.Now()

	res, err := r.roundTrip(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordRequest(r.method.String(), metrics.OutcomeTransport, time.Since(start))

		return nil, &RequestError{Method: r.method, URL: target, Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode()))
	if res.ContentErr() != nil {
		span.RecordError(res.ContentErr())
	}
	metrics.RecordRequest(r.method.String(), metrics.OutcomeOK, time.Since(start))

	return res, nil
}

// roundTrip connects, writes the request and captures the response. The
// connection is released before it returns.
func (r *Request) roundTrip(ctx context.Context, target string) (*Response, error) {
	r.logger.Debug(">>> request", "method", r.method, "url", target)

	req, err := http.NewRequestWithContext(ctx, r.method.String(), target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	hc, tr, err := r.open()
	if err != nil {
		return nil, err
	}

	conn := &Conn{Request: req, Client: hc, Transport: tr}
	defer func() {
		conn.Client.CloseIdleConnections()
		if tr != nil {
			tr.CloseIdleConnections()
		}
	}()

	for _, h := range r.headers {
		r.logger.Debug(">>> header", slog.String(strings.ToLower(h.key), h.value))
		if strings.EqualFold(h.key, "Host") {
			req.Host = h.value
			continue
		}
		req.Header.Add(h.key, h.value)
	}
	if r.compression != "" {
		req.Header.Set("Accept-Encoding", r.compression)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if r.onConnect != nil {
		r.onConnect(r, conn)
		if conn.Client == nil {
			conn.Client = hc
		}
	}
	req = conn.Request

	if err := r.attachBody(req); err != nil {
		return nil, err
	}

	resp, err := conn.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	p := processor{
		method:      r.method,
		encoding:    r.encoding,
		threshold:   r.threshold,
		tempDir:     r.tempDir,
		compression: r.compression,
		logger:      r.logger,
	}

	return p.process(resp), nil
}

// open builds the dedicated client and transport for one execution.
func (r *Request) open() (*http.Client, *http.Transport, error) {
	hc := &http.Client{
		Timeout: r.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if r.transport != nil {
		hc.Transport = r.wrap(r.transport)
		return hc, nil, nil
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	tr := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSClientConfig:     r.tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}

	if r.proxy != nil {
		switch r.proxy.Scheme {
		case "socks5", "socks5h":
			d, err := proxy.FromURL(r.proxy, proxy.Direct)
			if err != nil {
				return nil, nil, fmt.Errorf("configuring proxy: %w", err)
			}
			cd, ok := d.(proxy.ContextDialer)
			if !ok {
				return nil, nil, fmt.Errorf("configuring proxy: %s dialer does not support contexts", r.proxy.Scheme)
			}
			tr.DialContext = cd.DialContext
		default:
			tr.Proxy = http.ProxyURL(r.proxy)
		}
	}

	hc.Transport = r.wrap(tr)

	return hc, tr, nil
}

// wrap layers the throttle, if any, over rt.
func (r *Request) wrap(rt http.RoundTripper) http.RoundTripper {
	if r.throttle == nil {
		return rt
	}

	return r.throttle.Wrap(rt)
}

// attachBody sets the text or stream body on req.
func (r *Request) attachBody(req *http.Request) error {
	switch {
	case r.hasBody:
		b, err := encodeText(r.body, r.encoding)
		if err != nil {
			return fmt.Errorf("writing body: %w", err)
		}
		r.logger.Debug(">>> body", "bytes", len(b))

		if len(b) == 0 {
			req.Body = http.NoBody
			req.ContentLength = 0
			return nil
		}
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.ContentLength = int64(len(b))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}

	case r.bodyStream != nil:
		r.logger.Debug(">>> body", "kind", "binary")

		rc, ok := r.bodyStream.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(r.bodyStream)
		}
		req.Body = rc
		req.ContentLength = -1
		if l, ok := r.bodyStream.(interface{ Len() int }); ok {
			req.ContentLength = int64(l.Len())
		}
		if req.ContentLength == 0 {
			req.Body = http.NoBody
		}
	}

	return nil
}
