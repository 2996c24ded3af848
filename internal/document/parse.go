package document

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	charsetRe    = regexp.MustCompile(`(?i)charset=([^\s;]+)`)
	horizontalWS = regexp.MustCompile(`[ \t\r\f\v]+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// Elements whose rendered content starts and ends a visible text block.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "li": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// DecodeBody converts a raw response body into a string using the charset
// declared in contentType, falling back to UTF-8 and then Latin-1.
func DecodeBody(body []byte, contentType string) string {
	if m := charsetRe.FindStringSubmatch(contentType); m != nil {
		name := strings.Trim(m[1], `"' `)
		if enc, err := htmlindex.Get(name); err == nil && enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
				return string(decoded)
			}
		}
	}
	if utf8.Valid(body) {
		return string(body)
	}
	// Latin-1 maps every byte, so this cannot fail.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "�")
	}
	return string(decoded)
}

// Parse builds a Document from raw HTML. Links are resolved against pageURL,
// deduplicated, and kept in first-seen order; repeated meta keys accumulate.
func Parse(pageURL string, statusCode int, contentType, rawHTML string) (Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(pageURL)

	doc := Document{
		URL:         pageURL,
		StatusCode:  statusCode,
		ContentType: contentType,
		Title:       strings.TrimSpace(gq.Find("title").First().Text()),
		Meta:        make(map[string][]string),
		RawHTML:     rawHTML,
	}

	seenLinks := make(map[string]struct{})
	gq.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}
		resolved := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}
		if _, ok := seenLinks[resolved]; ok {
			return
		}
		seenLinks[resolved] = struct{}{}
		doc.Links = append(doc.Links, resolved)
	})

	gq.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		key := sel.AttrOr("name", "")
		if key == "" {
			key = sel.AttrOr("property", "")
		}
		if key == "" {
			key = sel.AttrOr("http-equiv", "")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value := strings.TrimSpace(sel.AttrOr("content", ""))
		if key != "" && value != "" {
			doc.Meta[key] = append(doc.Meta[key], value)
		}
	})

	var text strings.Builder
	for _, node := range gq.Nodes {
		collectText(node, &text)
	}
	doc.Text = tidyText(text.String())

	return doc, nil
}

func collectText(node *html.Node, out *strings.Builder) {
	if node.Type == html.ElementNode {
		switch node.Data {
		case "script", "style", "noscript":
			return
		case "br":
			out.WriteString("\n")
			return
		}
		if _, block := blockTags[node.Data]; block {
			out.WriteString("\n")
			defer out.WriteString("\n")
		}
	}
	if node.Type == html.TextNode {
		out.WriteString(node.Data)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out)
	}
}

func tidyText(raw string) string {
	text := horizontalWS.ReplaceAllString(raw, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
