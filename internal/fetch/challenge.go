package fetch

import (
	"strings"

	"github.com/ikhwan-arief/DOAJ-Reviewer/internal/document"
)

// ChallengeVerdict reports whether a page is a bot-mitigation interstitial
// rather than real content.
type ChallengeVerdict struct {
	Blocked  bool   `json:"blocked"`
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

// Statuses WAFs commonly use for challenge and rejection pages.
var suspiciousStatuses = map[int]struct{}{
	401: {}, 403: {}, 406: {}, 409: {}, 429: {}, 503: {},
}

// Provider fingerprints, checked in priority order.
var providerFingerprints = []struct {
	name   string
	tokens []string
}{
	{"cloudflare", []string{"cloudflare", "__cf_chl_", "cf-ray", "cf-chl", "just a moment..."}},
	{"akamai", []string{"akamai", "akamai ghost", "akamaibot"}},
	{"imperva", []string{"imperva", "incapsula"}},
	{"sucuri", []string{"sucuri", "sucuri website firewall"}},
	{"generic_waf", []string{"web application firewall", "waf", "ddos protection"}},
}

// Phrases that only appear on challenge pages.
var strongChallengeMarkers = []string{
	"checking your browser before accessing",
	"attention required!",
	"verify you are human",
	"please enable cookies",
	"captcha",
	"turnstile",
	"security check",
	"request blocked",
	"access denied",
	"automated queries",
	"bot protection",
	"challenge platform",
}

// Phrases that also occur on ordinary error pages; only meaningful combined
// with other signals.
var genericChallengeMarkers = []string{
	"forbidden",
	"temporarily unavailable",
	"rate limited",
	"too many requests",
	"blocked",
	"challenge",
}

const shortShellThreshold = 700

// DetectChallenge inspects a Document for bot-protection challenge pages.
// The scan covers the title, the first 5000 characters of visible text, and
// the first 15000 characters of raw markup.
func DetectChallenge(doc document.Document) ChallengeVerdict {
	blob := strings.ToLower(doc.Title + "\n" + clip(doc.Text, 5000) + "\n" + clip(doc.RawHTML, 15000))

	provider := ""
	for _, fp := range providerFingerprints {
		if containsAny(blob, fp.tokens) {
			provider = fp.name
			break
		}
	}

	var matchedStrong, matchedGeneric []string
	for _, marker := range strongChallengeMarkers {
		if strings.Contains(blob, marker) {
			matchedStrong = append(matchedStrong, marker)
		}
	}
	for _, marker := range genericChallengeMarkers {
		if strings.Contains(blob, marker) {
			matchedGeneric = append(matchedGeneric, marker)
		}
	}
	markerCount := len(matchedStrong) + len(matchedGeneric)

	_, statusSuspicious := suspiciousStatuses[doc.StatusCode]
	shortShell := doc.TextLength() < shortShellThreshold

	blocked := false
	switch {
	case len(matchedStrong) > 0 && (statusSuspicious || shortShell || provider != ""):
		blocked = true
	case provider != "" && markerCount >= 2 && (statusSuspicious || shortShell):
		blocked = true
	case statusSuspicious && markerCount >= 3:
		blocked = true
	}

	reason := ""
	if len(matchedStrong) > 0 {
		reason = matchedStrong[0]
	} else if len(matchedGeneric) > 0 {
		reason = matchedGeneric[0]
	}

	if blocked {
		challengeBlocks.Inc()
	}
	return ChallengeVerdict{Blocked: blocked, Provider: provider, Reason: reason}
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
