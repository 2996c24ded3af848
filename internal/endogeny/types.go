// Package endogeny measures how many of a journal's research articles are
// authored by its own editors, board members, or reviewers, and turns the
// ratios into a graded pass/fail/needs-review decision.
package endogeny

const (
	// RuleID identifies this evaluator in emitted decisions.
	RuleID = "doaj.endogeny.v1"
	// RuleVersion is the evaluator version string.
	RuleVersion = "1.0.0"
	// Threshold is the maximum acceptable insider-authorship ratio per unit.
	Threshold = 0.25
	// FuzzyFloor is the minimum similarity accepted from the fuzzy matcher.
	FuzzyFloor = 0.94
)

// Role of a person on the journal's masthead.
type Role string

// Roles recognized by the matcher, in descending tie-break priority.
const (
	RoleEditor      Role = "editor"
	RoleBoardMember Role = "editorial_board_member"
	RoleReviewer    Role = "reviewer"
)

// rolePriority orders roles for tie-breaking; lower is stronger.
func rolePriority(r Role) int {
	switch r {
	case RoleEditor:
		return 0
	case RoleBoardMember:
		return 1
	case RoleReviewer:
		return 2
	}
	return 3
}

// RolePerson is one role-holder extracted from the journal's own pages.
type RolePerson struct {
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	SourceURL   string `json:"source_url"`
	Affiliation string `json:"affiliation,omitempty"`
}

// ResearchArticle is one published research article inside a measurement unit.
type ResearchArticle struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Authors       []string `json:"authors"`
	ArticleType   string   `json:"article_type,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
}

// WindowType distinguishes issue windows from calendar-year aggregations.
type WindowType string

// Measurement window kinds.
const (
	WindowIssue        WindowType = "issue"
	WindowCalendarYear WindowType = "calendar_year"
)

// MeasurementUnit is one issue or one calendar-year window over which the
// insider-authorship ratio is computed.
type MeasurementUnit struct {
	Label            string            `json:"label"`
	WindowType       WindowType        `json:"window_type"`
	SourceURL        string            `json:"source_url"`
	ResearchArticles []ResearchArticle `json:"research_articles"`
}

// MatchMethod names the cascade stage that produced a match.
type MatchMethod string

// Matching methods, strongest first.
const (
	MethodExact    MatchMethod = "exact_normalized_name"
	MethodInitials MatchMethod = "initials_plus_family_name"
	MethodFuzzy    MatchMethod = "fuzzy_name"
)

// MatchResult resolves one raw author string to a role-holder.
type MatchResult struct {
	Author string
	Person RolePerson
	Method MatchMethod
	Score  float64
}

// EvidenceNote is a free-form pointer into source material.
type EvidenceNote struct {
	Kind        string `json:"kind"`
	URL         string `json:"url"`
	Excerpt     string `json:"excerpt"`
	LocatorHint string `json:"locator_hint"`
}

// Submission is the caller-supplied input to the evaluator.
type Submission struct {
	SubmissionID       string              `json:"submission_id"`
	JournalHomepageURL string              `json:"journal_homepage_url"`
	PublicationModel   string              `json:"publication_model"`
	SourceURLs         map[string][]string `json:"source_urls"`
	RolePeople         []RolePerson        `json:"role_people"`
	Units              []MeasurementUnit   `json:"units"`
	Evidence           []EvidenceNote      `json:"evidence"`
	CrawlTimestampUTC  string              `json:"crawl_timestamp_utc"`
}

// UnitMetrics reports the measured ratio for one unit.
type UnitMetrics struct {
	Label                string     `json:"label"`
	WindowType           WindowType `json:"window_type"`
	ResearchArticleCount int        `json:"research_article_count"`
	MatchedArticleCount  int        `json:"matched_article_count"`
	Ratio                float64    `json:"ratio"`
}

// MatchedArticle records one insider-authored article and how it matched.
type MatchedArticle struct {
	UnitLabel         string      `json:"unit_label"`
	ArticleTitle      string      `json:"article_title"`
	ArticleURL        string      `json:"article_url"`
	MatchedAuthor     string      `json:"matched_author"`
	MatchedRole       Role        `json:"matched_role"`
	MatchedPersonName string      `json:"matched_person_name"`
	MatchingMethod    MatchMethod `json:"matching_method"`
	MatchScore        float64     `json:"match_score"`
	PersonSourceURL   string      `json:"person_source_url"`
}

// ComputedMetrics aggregates the per-unit measurements.
type ComputedMetrics struct {
	Units                   []UnitMetrics `json:"units"`
	MaxRatioObserved        float64       `json:"max_ratio_observed"`
	ThresholdRatio          float64       `json:"threshold_ratio"`
	AllUnitsWithinThreshold bool          `json:"all_units_within_threshold"`
}

// ResultKind is the graded outcome of the evaluation.
type ResultKind string

// Evaluation outcomes.
const (
	ResultPass        ResultKind = "pass"
	ResultFail        ResultKind = "fail"
	ResultNeedsReview ResultKind = "need_human_review"
)

// Decision is the evaluator's full output.
type Decision struct {
	RuleID            string           `json:"rule_id"`
	Version           string           `json:"version"`
	Result            ResultKind       `json:"result"`
	Confidence        float64          `json:"confidence"`
	CrawlTimestampUTC string           `json:"crawl_timestamp_utc"`
	PublicationModel  string           `json:"publication_model"`
	ComputedMetrics   ComputedMetrics  `json:"computed_metrics"`
	MatchedArticles   []MatchedArticle `json:"matched_articles"`
	Evidence          []EvidenceNote   `json:"evidence"`
	Explanation       string           `json:"explanation_en"`
	Limitations       []string         `json:"limitations"`
}
