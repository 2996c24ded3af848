// Package fetch implements resilient document acquisition: a static HTTP
// fetcher, a headless-browser fetcher, challenge detection, the render-need
// heuristic, and the adaptive orchestrator that composes them.
package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// Mode selects the rendering strategy for a fetch.
type Mode string

// Rendering modes accepted by the orchestrator.
const (
	ModeOff  Mode = "off"  // static fetch only
	ModeOn   Mode = "on"   // headless fetch only
	ModeAuto Mode = "auto" // static first, headless fallback
)

// ParseMode validates a user-supplied mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeOff, ModeOn, ModeAuto:
		return Mode(raw), nil
	case "":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("js mode must be one of: off, on, auto (got %q)", raw)
}

// Fetcher retrieves one URL and decodes it into a Document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (document.Document, error)
}

// Detector decides whether a static result under-represents the page.
type Detector interface {
	NeedsRender(doc document.Document) bool
}

// Clock supplies the current time; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// AdaptiveFetcher composes a static and a headless fetcher behind one Fetch
// call. The headless fetcher may be nil, in which case every promotion is
// skipped and the static result stands.
type AdaptiveFetcher struct {
	static   Fetcher
	headless Fetcher
	detector Detector
	mode     Mode
	logger   *zap.Logger
}

// NewAdaptiveFetcher wires the orchestrator.
func NewAdaptiveFetcher(static, headless Fetcher, detector Detector, mode Mode, logger *zap.Logger) *AdaptiveFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdaptiveFetcher{
		static:   static,
		headless: headless,
		detector: detector,
		mode:     mode,
		logger:   logger,
	}
}

// Fetch retrieves url according to the configured mode.
//
// In auto mode the static result is preferred; the headless fetcher is
// consulted when the static fetch fails outright, returns an error status,
// or yields a page the detector flags as script-rendered. Headless failures
// during promotion are swallowed and the static result is kept.
func (f *AdaptiveFetcher) Fetch(ctx context.Context, url string) (document.Document, error) {
	switch f.mode {
	case ModeOff:
		return f.static.Fetch(ctx, url)
	case ModeOn:
		if f.headless == nil {
			return document.Document{}, fmt.Errorf("headless fetch requested for %s but no renderer is configured", url)
		}
		return f.headless.Fetch(ctx, url)
	}

	staticDoc, staticErr := f.static.Fetch(ctx, url)
	if staticErr != nil {
		if f.headless == nil {
			return document.Document{}, staticErr
		}
		doc, err := f.headless.Fetch(ctx, url)
		if err != nil {
			// The static error describes the primary failure.
			return document.Document{}, staticErr
		}
		f.logger.Debug("static fetch failed, adopted headless result",
			zap.String("url", url), zap.Error(staticErr))
		return doc, nil
	}

	if staticDoc.StatusCode >= 400 {
		return f.promoteOnErrorStatus(ctx, url, staticDoc), nil
	}

	if f.detector == nil || !f.detector.NeedsRender(staticDoc) {
		return staticDoc, nil
	}
	renderPromotions.Inc()
	if f.headless == nil {
		return staticDoc, nil
	}
	doc, err := f.headless.Fetch(ctx, url)
	if err != nil {
		f.logger.Warn("headless promotion failed, keeping static result",
			zap.String("url", url), zap.Error(err))
		return staticDoc, nil
	}
	return doc, nil
}

// promoteOnErrorStatus retries an error-status page through the renderer and
// keeps the headless result only when it is a strict improvement: a lower
// status, or materially more text.
func (f *AdaptiveFetcher) promoteOnErrorStatus(ctx context.Context, url string, staticDoc document.Document) document.Document {
	if f.headless == nil {
		return staticDoc
	}
	dynamicDoc, err := f.headless.Fetch(ctx, url)
	if err != nil {
		f.logger.Debug("headless retry of error status failed",
			zap.String("url", url), zap.Int("status", staticDoc.StatusCode), zap.Error(err))
		return staticDoc
	}
	if dynamicDoc.StatusCode < staticDoc.StatusCode ||
		dynamicDoc.TextLength() > staticDoc.TextLength()+100 {
		f.logger.Debug("headless result adopted over error status",
			zap.String("url", url),
			zap.Int("static_status", staticDoc.StatusCode),
			zap.Int("headless_status", dynamicDoc.StatusCode))
		return dynamicDoc
	}
	return staticDoc
}
