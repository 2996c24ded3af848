package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// Sleeper blocks for the given duration, returning early with the context
// error if the context is done. Injectable for deterministic tests.
type Sleeper func(ctx context.Context, d time.Duration) error

// TimerSleeper sleeps on a timer while honoring context cancellation.
func TimerSleeper(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ThrottleConfig controls pacing and retry behavior.
type ThrottleConfig struct {
	// MinDomainDelay is the minimum spacing between two calls to one domain.
	MinDomainDelay time.Duration
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int
	// BackoffBase seeds the exponential backoff between attempts.
	BackoffBase time.Duration
	// RetryStatuses are response statuses treated as transient rejections.
	RetryStatuses []int
}

func (c *ThrottleConfig) applyDefaults() {
	if c.MinDomainDelay <= 0 {
		c.MinDomainDelay = time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if len(c.RetryStatuses) == 0 {
		c.RetryStatuses = []int{403, 429, 503}
	}
}

// Throttler wraps a Fetcher with per-domain pacing and bounded retry. The
// pacing state lives on the instance, never in a process global, so each run
// owns its own map and concurrent runs do not interfere.
type Throttler struct {
	inner  Fetcher
	cfg    ThrottleConfig
	clock  Clock
	sleep  Sleeper
	logger *zap.Logger

	mu          sync.Mutex
	nextAllowed map[string]time.Time
	retryable   map[int]struct{}
}

// NewThrottler builds the wrapper. A nil clock or sleeper selects the
// real-time implementations.
func NewThrottler(inner Fetcher, cfg ThrottleConfig, clk Clock, sleep Sleeper, logger *zap.Logger) *Throttler {
	cfg.applyDefaults()
	if clk == nil {
		clk = systemClock{}
	}
	if sleep == nil {
		sleep = TimerSleeper
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	retryable := make(map[int]struct{}, len(cfg.RetryStatuses))
	for _, status := range cfg.RetryStatuses {
		retryable[status] = struct{}{}
	}
	return &Throttler{
		inner:       inner,
		cfg:         cfg,
		clock:       clk,
		sleep:       sleep,
		logger:      logger,
		nextAllowed: make(map[string]time.Time),
		retryable:   retryable,
	}
}

// Fetch paces calls per domain and retries transient rejections with
// exponential backoff. Exhausting the attempt budget surfaces the last
// transport error, or a generic failure when the final attempt returned a
// retryable status without raising.
func (t *Throttler) Fetch(ctx context.Context, rawURL string) (document.Document, error) {
	domain := domainOf(rawURL)

	var lastErr error
	for attempt := 0; attempt < t.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			fetchRetries.Inc()
			backoff := t.cfg.BackoffBase << (attempt - 1)
			t.logger.Debug("retrying fetch",
				zap.String("url", rawURL), zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff), zap.Error(lastErr))
			if err := t.sleep(ctx, backoff); err != nil {
				return document.Document{}, fmt.Errorf("fetch %s backoff: %w", rawURL, err)
			}
		}

		if err := t.waitDomain(ctx, domain); err != nil {
			return document.Document{}, fmt.Errorf("fetch %s pacing: %w", rawURL, err)
		}

		doc, err := t.inner.Fetch(ctx, rawURL)
		t.advanceDomain(domain)

		if err != nil {
			lastErr = err
			continue
		}
		if _, retry := t.retryable[doc.StatusCode]; retry {
			lastErr = nil
			t.logger.Debug("retryable status",
				zap.String("url", rawURL), zap.Int("status", doc.StatusCode))
			continue
		}
		return doc, nil
	}

	if lastErr != nil {
		return document.Document{}, lastErr
	}
	return document.Document{}, fmt.Errorf("fetch %s failed after %d attempts", rawURL, t.cfg.MaxAttempts)
}

// waitDomain sleeps until the domain's next allowed time, if it is in the future.
func (t *Throttler) waitDomain(ctx context.Context, domain string) error {
	t.mu.Lock()
	wait := t.nextAllowed[domain].Sub(t.clock.Now())
	t.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	return t.sleep(ctx, wait)
}

// advanceDomain pushes the domain's next allowed time forward after an
// attempt, whether it succeeded or not.
func (t *Throttler) advanceDomain(domain string) {
	t.mu.Lock()
	t.nextAllowed[domain] = t.clock.Now().Add(t.cfg.MinDomainDelay)
	t.mu.Unlock()
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(parsed.Hostname())
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
