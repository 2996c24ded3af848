package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

type fetchResult struct {
	doc document.Document
	err error
}

// scriptedFetcher replays a fixed sequence of results, repeating the last one
// once the script runs out.
type scriptedFetcher struct {
	results []fetchResult
	calls   []string
}

func (s *scriptedFetcher) Fetch(_ context.Context, url string) (document.Document, error) {
	s.calls = append(s.calls, url)
	i := len(s.calls) - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i].doc, s.results[i].err
}

type stubDetector struct{ need bool }

func (d stubDetector) NeedsRender(document.Document) bool { return d.need }

func okDoc(status int, text string) document.Document {
	return document.Document{URL: "https://example.org/x", StatusCode: status, Text: text}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]Mode{
		"off": ModeOff, "on": ModeOn, "auto": ModeAuto, "": ModeAuto,
	} {
		mode, err := ParseMode(raw)
		require.NoError(t, err)
		require.Equal(t, want, mode)
	}

	_, err := ParseMode("sometimes")
	require.Error(t, err)
}

func TestAdaptiveFetch_ModeOffUsesStaticOnly(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "static body")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "rendered body")}}}

	f := NewAdaptiveFetcher(static, headless, stubDetector{need: true}, ModeOff, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "static body", doc.Text)
	require.Empty(t, headless.calls)
}

func TestAdaptiveFetch_ModeOnUsesHeadlessOnly(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "static body")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "rendered body")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeOn, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "rendered body", doc.Text)
	require.Empty(t, static.calls)
}

func TestAdaptiveFetch_ModeOnWithoutRendererFails(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "static body")}}}
	f := NewAdaptiveFetcher(static, nil, nil, ModeOn, nil)
	_, err := f.Fetch(context.Background(), "https://example.org/x")
	require.Error(t, err)
}

func TestAdaptiveFetch_AutoKeepsHealthyStaticResult(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "full article text")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "rendered body")}}}

	f := NewAdaptiveFetcher(static, headless, stubDetector{need: false}, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "full article text", doc.Text)
	require.Empty(t, headless.calls, "headless must not run when static is sufficient")
}

func TestAdaptiveFetch_AutoFallsBackOnStaticError(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{err: errors.New("connection reset")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "rendered body")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "rendered body", doc.Text)
}

func TestAdaptiveFetch_AutoSurfacesStaticErrorWhenHeadlessAlsoFails(t *testing.T) {
	t.Parallel()

	staticErr := errors.New("connection reset")
	static := &scriptedFetcher{results: []fetchResult{{err: staticErr}}}
	headless := &scriptedFetcher{results: []fetchResult{{err: errors.New("tab crashed")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	_, err := f.Fetch(context.Background(), "https://example.org/x")
	require.ErrorIs(t, err, staticErr)
}

func TestAdaptiveFetch_AutoWithoutRendererSurfacesStaticError(t *testing.T) {
	t.Parallel()

	staticErr := errors.New("connection reset")
	static := &scriptedFetcher{results: []fetchResult{{err: staticErr}}}

	f := NewAdaptiveFetcher(static, nil, nil, ModeAuto, nil)
	_, err := f.Fetch(context.Background(), "https://example.org/x")
	require.ErrorIs(t, err, staticErr)
}

func TestAdaptiveFetch_ErrorStatusAdoptsImprovedHeadlessResult(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(403, "short")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "the real article body")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, 200, doc.StatusCode)
}

func TestAdaptiveFetch_ErrorStatusKeepsStaticWhenHeadlessIsNoBetter(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(403, "short")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(403, "short too")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "short", doc.Text)
}

func TestAdaptiveFetch_ErrorStatusAdoptsMateriallyLongerText(t *testing.T) {
	t.Parallel()

	longer := strings.Repeat("recovered content ", 10)
	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(403, "short")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(403, longer)}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(longer), strings.TrimSpace(doc.Text))
}

func TestAdaptiveFetch_ErrorStatusSwallowsHeadlessFailure(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(503, "maintenance page")}}}
	headless := &scriptedFetcher{results: []fetchResult{{err: errors.New("tab crashed")}}}

	f := NewAdaptiveFetcher(static, headless, nil, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, 503, doc.StatusCode)
}

func TestAdaptiveFetch_PromotesScriptRenderedPages(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "loading...")}}}
	headless := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "hydrated article text")}}}

	f := NewAdaptiveFetcher(static, headless, stubDetector{need: true}, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "hydrated article text", doc.Text)
}

func TestAdaptiveFetch_PromotionFailureKeepsStaticResult(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "loading...")}}}
	headless := &scriptedFetcher{results: []fetchResult{{err: errors.New("tab crashed")}}}

	f := NewAdaptiveFetcher(static, headless, stubDetector{need: true}, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "loading...", doc.Text)
}

func TestAdaptiveFetch_PromotionWithoutRendererKeepsStaticResult(t *testing.T) {
	t.Parallel()

	static := &scriptedFetcher{results: []fetchResult{{doc: okDoc(200, "loading...")}}}

	f := NewAdaptiveFetcher(static, nil, stubDetector{need: true}, ModeAuto, nil)
	doc, err := f.Fetch(context.Background(), "https://example.org/x")
	require.NoError(t, err)
	require.Equal(t, "loading...", doc.Text)
}
