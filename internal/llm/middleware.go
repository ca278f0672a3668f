package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Wrap applies middlewares left to right: Wrap(c, A, B) is A(B(c)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit throttles calls to rps per second with the given burst.
// rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, req)
}

// Retry retries up to maxAttempts with exponential backoff from baseDelay.
// Permanent errors and context cancellation stop immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next Client
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, req Request) (string, error) {
	var last error
	for i := 0; i < r.max; i++ {
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		var perm *PermanentError
		if errors.As(err, &perm) {
			return "", err
		}
		last = err
		if i == r.max-1 {
			break
		}
		t := time.NewTimer(r.base * time.Duration(1<<i))
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", last
}

// Logging records each call's size, latency and outcome.
func Logging(log logrus.FieldLogger) Middleware {
	return func(next Client) Client {
		return &logged{next: next, log: log.WithField("model", next.Name())}
	}
}

type logged struct {
	next Client
	log  logrus.FieldLogger
}

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

func (l *logged) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Generate(ctx, req)
	entry := l.log.WithFields(logrus.Fields{
		"turns":   len(req.Messages),
		"json":    req.JSON,
		"out_len": len(out),
		"elapsed": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("llm request failed")
		return "", err
	}
	entry.Debug("llm request")
	return out, nil
}
