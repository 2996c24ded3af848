package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html>
<head>
<title>Journal of Examples: Archive</title>
<meta name="citation_title" content="Example Study">
<meta name="citation_author" content="Jane Smith">
<meta name="citation_author" content="Budi Santoso">
</head>
<body>
<script>var tracking = true;</script>
<style>.hidden { display: none; }</style>
<h1>Archive</h1>
<p>Volume 12, Issue 2</p>
<ul>
<li><a href="/article/1">First article</a></li>
<li><a href="/article/2">Second article</a></li>
<li><a href="/article/1">First article again</a></li>
</ul>
</body>
</html>`

func TestParse_TitleTextLinksMeta(t *testing.T) {
	t.Parallel()

	doc, err := Parse("https://example.org/archive", 200, "text/html", samplePage)
	require.NoError(t, err)

	require.Equal(t, "Journal of Examples: Archive", doc.Title)
	require.Equal(t, 200, doc.StatusCode)
	require.Contains(t, doc.Text, "Volume 12, Issue 2")
	require.NotContains(t, doc.Text, "tracking", "script content must not leak into text")
	require.NotContains(t, doc.Text, "display: none", "style content must not leak into text")

	require.Equal(t, []string{
		"https://example.org/article/1",
		"https://example.org/article/2",
	}, doc.Links, "links are deduplicated in first-seen order")

	require.Equal(t, []string{"Jane Smith", "Budi Santoso"}, doc.Meta["citation_author"],
		"repeated meta keys accumulate")
	require.True(t, doc.HasMetaKeyPrefix("citation_"))
}

func TestParse_MetaPropertyAndHTTPEquiv(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta property="og:title" content="Shared Title">
<meta http-equiv="refresh" content="0; url=/next">
</head><body></body></html>`
	doc, err := Parse("https://example.org", 200, "text/html", html)
	require.NoError(t, err)

	require.Equal(t, []string{"Shared Title"}, doc.Meta["og:title"])
	require.Equal(t, []string{"0; url=/next"}, doc.Meta["refresh"])
}

func TestParse_RelativeLinksResolved(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="issue/3">Issue 3</a><a href="https://other.org/x">X</a></body></html>`
	doc, err := Parse("https://example.org/journal/", 200, "text/html", html)
	require.NoError(t, err)

	require.Equal(t, []string{
		"https://example.org/journal/issue/3",
		"https://other.org/x",
	}, doc.Links)
}

func TestDecodeBody_DeclaredCharset(t *testing.T) {
	t.Parallel()

	// "résumé" in Latin-1.
	body := []byte{0x72, 0xe9, 0x73, 0x75, 0x6d, 0xe9}
	decoded := DecodeBody(body, `text/html; charset=ISO-8859-1`)
	require.Equal(t, "résumé", decoded)
}

func TestDecodeBody_FallsBackToUTF8ThenLatin1(t *testing.T) {
	t.Parallel()

	require.Equal(t, "plain utf-8 ok é", DecodeBody([]byte("plain utf-8 ok é"), ""))

	// Invalid UTF-8 with an unknown declared charset falls through to Latin-1.
	body := []byte{0x63, 0x61, 0x66, 0xe9}
	require.Equal(t, "café", DecodeBody(body, "text/html; charset=not-a-charset"))
}

func TestDocument_TextHelpers(t *testing.T) {
	t.Parallel()

	doc := Document{Text: "  first line \n\n second line \n   \n"}
	require.Equal(t, []string{"first line", "second line"}, doc.NonEmptyLines())
	require.Equal(t, len("first line \n\n second line"), doc.TextLength())
}

func TestDocument_MetaValues(t *testing.T) {
	t.Parallel()

	doc := Document{Meta: map[string][]string{
		"citation_author": {"Jane Smith", "Jane Smith", "Budi Santoso"},
		"dc.creator":      {"Jane Smith"},
	}}
	require.Equal(t, []string{"Jane Smith", "Budi Santoso"},
		doc.MetaValues("citation_author", "DC.Creator"))
}
