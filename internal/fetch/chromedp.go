package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// ErrRendererDisabled indicates headless rendering is disabled via configuration.
var ErrRendererDisabled = errors.New("renderer disabled")

// renderedContentType tags documents produced by the headless path.
const renderedContentType = "text/html; renderer=headless"

// RendererConfig controls the chromedp-backed fetcher.
type RendererConfig struct {
	Enabled     bool
	UserAgent   string
	NavTimeout  time.Duration
	DomainQPS   float64
	MaxParallel int
}

// Renderer fetches pages with headless Chrome so script-built content is
// present in the DOM snapshot.
type Renderer struct {
	cfg             RendererConfig
	allocator       context.Context
	allocatorCancel context.CancelFunc
	sem             chan struct{}
	domainLimiters  sync.Map
	logger          *zap.Logger
}

// NewRenderer creates a renderer sharing one Chrome exec allocator across
// fetches; each Fetch runs in its own tab.
func NewRenderer(cfg RendererConfig, logger *zap.Logger) (*Renderer, error) {
	if !cfg.Enabled {
		return nil, ErrRendererDisabled
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		cfg:             cfg,
		allocator:       allocCtx,
		allocatorCancel: allocCancel,
		sem:             make(chan struct{}, cfg.MaxParallel),
		logger:          logger,
	}, nil
}

// Close tears down the Chrome allocator.
func (r *Renderer) Close() {
	if r != nil {
		r.allocatorCancel()
	}
}

// Fetch navigates with a headless browser and returns the rendered Document.
func (r *Renderer) Fetch(ctx context.Context, rawURL string) (document.Document, error) {
	if r == nil {
		return document.Document{}, ErrRendererDisabled
	}
	headlessFetches.Inc()

	release, err := r.acquireSlot(ctx)
	if err != nil {
		return document.Document{}, err
	}
	defer release()

	if err := r.waitDomainBudget(ctx, rawURL); err != nil {
		return document.Document{}, fmt.Errorf("render rate limit: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocator)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavTimeout)
	defer cancelTask()
	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.cfg.UserAgent),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks...); err != nil {
		return document.Document{}, fmt.Errorf("chromedp run %s: %w", rawURL, err)
	}

	status := meta.status()
	r.logger.Debug("headless fetch complete",
		zap.String("url", rawURL), zap.Int("status", status), zap.Int("bytes", len(html)))

	return document.Parse(rawURL, status, renderedContentType, html)
}

func (r *Renderer) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}
}

func (r *Renderer) waitDomainBudget(ctx context.Context, rawURL string) error {
	if r.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse render url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := r.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(r.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	return limiter.Wait(ctx)
}

// responseMeta captures the status of the main document response; sub-resource
// responses are ignored.
type responseMeta struct {
	once       sync.Once
	statusCode int
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.once.Do(func() {
		m.statusCode = int(resp.Response.Status)
	})
}

// status falls back to 200 when no document response was observed, e.g. after
// an in-page navigation.
func (m *responseMeta) status() int {
	if m.statusCode == 0 {
		return 200
	}
	return m.statusCode
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
