package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Throttle is a shared token bucket that can wrap any number of
// transports.
type Throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	logger  *slog.Logger
}

// New returns a Throttle allowing rps requests per second with the given
// burst. A nil logger disables the exhaustion log lines.
func New(rps, burst int, logger *slog.Logger) (*Throttle, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}

	t := &Throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		logger:  logger,
	}

	return t, nil
}

// Wrap returns an http.RoundTripper that waits on the throttle before
// delegating to next.
func (t *Throttle) Wrap(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return &roundTripper{throttle: t, next: next}
}

// Wait blocks until the throttle admits one more request or ctx ends.
func (t *Throttle) Wait(r *http.Request) error {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	if t.logger != nil && t.limiter.Tokens() < 1 {
		t.logger.Info("throttle tokens exhausted", "rate", t.rps, "burst", t.burst, "method", r.Method, "url", r.URL.Redacted())

		defer func() {
			t.logger.Info("throttle wait complete", "waited", waited.String(), "rate", t.rps, "burst", t.burst)
		}()
	}

	start := time.Now()

	err := t.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}

// roundTripper is an http.RoundTripper gated by a Throttle.
type roundTripper struct {
	throttle *Throttle
	next     http.RoundTripper
}

func (rt *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := rt.throttle.Wait(r); err != nil {
		return nil, err
	}

	return rt.next.RoundTrip(r)
}

// CloseIdleConnections forwards to the wrapped transport so that
// [http.Client.CloseIdleConnections] still reaches it.
func (rt *roundTripper) CloseIdleConnections() {
	if ci, ok := rt.next.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}
