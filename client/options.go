package client

import (
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/gocurl/client/throttle"
)

// Option is a functional option for configuring a [Request] via
// [NewRequest] or [Request.Apply]. An option that fails leaves the
// request unchanged.
type Option func(*Request) error

// WithParam appends a query parameter. The key and value are encoded with
// the request's encoding immediately, so [WithEncoding] must come first.
func WithParam(key, value string) Option {
	return func(r *Request) error {
		k, err := queryEscape(key, r.encoding)
		if err != nil {
			return err
		}
		v, err := queryEscape(value, r.encoding)
		if err != nil {
			return err
		}

		r.params = append(r.params, k+"="+v)
		return nil
	}
}

// WithHeader adds a request header. Headers are sent in the order added;
// a Host header sets the request host.
func WithHeader(key, value string) Option {
	return func(r *Request) error {
		if !httpguts.ValidHeaderFieldName(key) {
			return configErr("invalid header name %q", key)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return configErr("invalid value for header %q", key)
		}

		r.headers = append(r.headers, header{key: key, value: value})
		return nil
	}
}

// WithBody sets a text body, written in the request's encoding.
// It cannot be combined with [WithBodyStream].
func WithBody(body string) Option {
	return func(r *Request) error {
		if r.bodyStream != nil {
			return ErrBodyAlreadySet
		}

		r.body = body
		r.hasBody = true
		return nil
	}
}

// WithBodyStream sets a body copied verbatim from rd. If rd is an
// [io.Closer] the transport closes it. It cannot be combined with
// [WithBody].
func WithBodyStream(rd io.Reader) Option {
	return func(r *Request) error {
		if rd == nil {
			return configErr("body stream must not be nil")
		}
		if r.hasBody {
			return ErrBodyAlreadySet
		}

		r.bodyStream = rd
		return nil
	}
}

// WithEncoding sets the character set used for parameters, the text body
// and decoding the response content. It fails once a param was added.
// Unknown names are reported by the operation that needs the encoding.
func WithEncoding(charset string) Option {
	return func(r *Request) error {
		if len(r.params) > 0 {
			return ErrEncodingAfterParam
		}
		if charset == "" {
			return configErr("encoding must not be empty")
		}

		r.encoding = charset
		return nil
	}
}

// WithThreshold sets how many body bytes are held in memory before the
// response content spills to a temporary file. Zero sends every non-empty
// body to disk.
func WithThreshold(n int64) Option {
	return func(r *Request) error {
		if n < 0 {
			return configErr("threshold must not be negative")
		}

		r.threshold = n
		return nil
	}
}

// WithTempDir sets the directory for spill files. It defaults to
// [os.TempDir].
func WithTempDir(dir string) Option {
	return func(r *Request) error {
		if dir == "" {
			return configErr("temp dir must not be empty")
		}

		r.tempDir = dir
		return nil
	}
}

// WithProxy routes the request through u. Supported schemes are http,
// https, socks5 and socks5h.
func WithProxy(u *url.URL) Option {
	return func(r *Request) error {
		if u == nil {
			return configErr("proxy must not be nil")
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return configErr("unsupported proxy scheme %q", u.Scheme)
		}

		r.proxy = u
		return nil
	}
}

// WithTLSConfig sets the TLS configuration used for https requests.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(r *Request) error {
		if cfg == nil {
			return configErr("tls config must not be nil")
		}

		r.tlsConfig = cfg
		return nil
	}
}

// WithGzip requests gzip content and decodes gzip responses.
func WithGzip() Option {
	return WithCompression(GzipCompression)
}

// WithCompression sends token as the Accept-Encoding header. Responses
// whose Content-Encoding equals token are decoded when token is gzip.
func WithCompression(token string) Option {
	return func(r *Request) error {
		if token == "" {
			return configErr("compression must not be empty")
		}

		r.compression = token
		return nil
	}
}

// WithTimeout limits the whole exchange, from connect until the response
// body is read.
func WithTimeout(d time.Duration) Option {
	return func(r *Request) error {
		if d < 0 {
			return configErr("timeout must not be negative")
		}

		r.timeout = d
		return nil
	}
}

// WithOnConnect registers fn to customize the connection after headers are
// set and before the body is written.
func WithOnConnect(fn ConnectFunc) Option {
	return func(r *Request) error {
		if fn == nil {
			return configErr("connect hook must not be nil")
		}

		r.onConnect = fn
		return nil
	}
}

// WithExecutor sets the executor used by [Request.ExecuteAsync].
func WithExecutor(e Executor) Option {
	return func(r *Request) error {
		if e == nil {
			return configErr("executor must not be nil")
		}

		r.executor = e
		return nil
	}
}

// WithTransport replaces the per-request transport. Proxy and TLS settings
// are not applied to a custom transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(r *Request) error {
		if rt == nil {
			return configErr("transport must not be nil")
		}

		r.transport = rt
		return nil
	}
}

// WithThrottle gates the request on a shared rate limiter.
func WithThrottle(th *throttle.Throttle) Option {
	return func(r *Request) error {
		if th == nil {
			return configErr("throttle must not be nil")
		}

		r.throttle = th
		return nil
	}
}

// WithLogger injects a custom [slog.Logger]. Request and response details
// are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Request) error {
		if logger == nil {
			return configErr("logger must not be nil")
		}

		r.logger = logger
		return nil
	}
}

// WithTracer sets the tracer that records a span per execution.
// A no-op tracer is used by default.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Request) error {
		if tracer == nil {
			return configErr("tracer must not be nil")
		}

		r.tracer = tracer
		return nil
	}
}
