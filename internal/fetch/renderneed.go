package fetch

import (
	"strings"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// Markers that suggest the page is a JavaScript application shell.
var jsHintMarkers = []string{
	"enable javascript",
	"javascript is required",
	"noscript",
	"__next",
	"data-reactroot",
}

// SPA mount points; a bare mount element means the content arrives via script.
var rootMountMarkers = []string{
	`id="app"`, `id='app'`, `id="root"`, `id='root'`,
}

// RenderHeuristic flags static fetches that under-represent the page.
type RenderHeuristic struct{}

// NewRenderHeuristic constructs the detector.
func NewRenderHeuristic() *RenderHeuristic {
	return &RenderHeuristic{}
}

// NeedsRender reports whether a headless fetch is warranted. Pages exposing
// citation metadata are already machine-readable and are never promoted.
func (h *RenderHeuristic) NeedsRender(doc document.Document) bool {
	if doc.HasMetaKeyPrefix("citation_") {
		return false
	}

	html := strings.ToLower(doc.RawHTML)
	textLen := doc.TextLength()
	lineCount := len(doc.NonEmptyLines())
	scriptCount := strings.Count(html, "<script")
	hasRootMount := containsAny(html, rootMountMarkers)
	hasJSHint := containsAny(html, jsHintMarkers)

	switch {
	case hasJSHint && textLen < 300:
		return true
	case hasRootMount && scriptCount >= 2 && textLen < 500:
		return true
	case scriptCount >= 4 && lineCount <= 5 && textLen < 220:
		return true
	}
	return false
}
