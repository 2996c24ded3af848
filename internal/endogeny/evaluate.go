package endogeny

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Publication models accepted by the decision policy.
const (
	ModelIssueBased = "issue_based"
	ModelContinuous = "continuous"
)

// Evaluator runs the endogeny decision policy over a submission. Every call
// builds its own indices; an Evaluator holds no per-submission state and is
// safe to reuse across runs.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Evaluate measures insider authorship per unit and grades the result.
// Malformed input degrades to empty structures; Evaluate never panics over
// missing fields.
func (e *Evaluator) Evaluate(sub Submission) Decision {
	idx := NewIndex(sub.RolePeople)

	var (
		matchedArticles []MatchedArticle
		allUnits        []UnitMetrics
	)
	for _, unit := range sub.Units {
		label := unit.Label
		if label == "" {
			label = "Unknown unit"
		}
		windowType := unit.WindowType
		if windowType == "" {
			windowType = WindowIssue
		}

		numerator := 0
		for _, article := range unit.ResearchArticles {
			best, found := bestAuthorMatch(idx, article.Authors)
			if !found {
				continue
			}
			numerator++
			matchedArticles = append(matchedArticles, MatchedArticle{
				UnitLabel:         label,
				ArticleTitle:      orDefault(article.Title, "Untitled article"),
				ArticleURL:        article.URL,
				MatchedAuthor:     best.Author,
				MatchedRole:       best.Person.Role,
				MatchedPersonName: best.Person.Name,
				MatchingMethod:    best.Method,
				MatchScore:        best.Score,
				PersonSourceURL:   best.Person.SourceURL,
			})
		}

		denominator := len(unit.ResearchArticles)
		ratio := 0.0
		if denominator > 0 {
			ratio = round4(float64(numerator) / float64(denominator))
		}
		allUnits = append(allUnits, UnitMetrics{
			Label:                label,
			WindowType:           windowType,
			ResearchArticleCount: denominator,
			MatchedArticleCount:  numerator,
			Ratio:                ratio,
		})
	}

	expectedWindow := WindowIssue
	if sub.PublicationModel == ModelContinuous {
		expectedWindow = WindowCalendarYear
	}
	var measured []UnitMetrics
	for _, unit := range allUnits {
		if unit.WindowType == expectedWindow {
			measured = append(measured, unit)
		}
	}

	maxRatio := 0.0
	allWithin := len(measured) > 0
	for _, unit := range measured {
		if unit.Ratio > maxRatio {
			maxRatio = unit.Ratio
		}
		if unit.Ratio > Threshold {
			allWithin = false
		}
	}

	result, limitations := classify(sub.PublicationModel, measured, maxRatio)
	confidence := confidenceScore(result, matchedArticles, limitations)

	e.logger.Info("endogeny evaluated",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("result", string(result)),
		zap.Float64("confidence", confidence),
		zap.Float64("max_ratio", maxRatio),
		zap.Int("measured_units", len(measured)),
		zap.Int("matched_articles", len(matchedArticles)))

	return Decision{
		RuleID:            RuleID,
		Version:           RuleVersion,
		Result:            result,
		Confidence:        confidence,
		CrawlTimestampUTC: orDefault(sub.CrawlTimestampUTC, nowISO()),
		PublicationModel:  sub.PublicationModel,
		ComputedMetrics: ComputedMetrics{
			Units:                   measured,
			MaxRatioObserved:        maxRatio,
			ThresholdRatio:          Threshold,
			AllUnitsWithinThreshold: allWithin,
		},
		MatchedArticles: matchedArticles,
		Evidence:        buildEvidence(sub),
		Explanation:     explanation(result, len(measured), maxRatio, limitations),
		Limitations:     limitations,
	}
}

// bestAuthorMatch keeps the highest-scoring match across an article's authors.
func bestAuthorMatch(idx *Index, authors []string) (MatchResult, bool) {
	var (
		best  MatchResult
		found bool
	)
	for _, author := range authors {
		match, ok := idx.MatchAuthor(author)
		if !ok {
			continue
		}
		if !found || match.Score > best.Score {
			best = match
			found = true
		}
	}
	return best, found
}

// classify applies the decision policy. A ratio over the threshold is
// conclusive evidence of a violation and fails the check even when the
// evidence is otherwise insufficient.
func classify(publicationModel string, measured []UnitMetrics, maxRatio float64) (ResultKind, []string) {
	var limitations []string
	sufficient := true

	if len(measured) == 0 {
		sufficient = false
		limitations = append(limitations, "No measurable unit was found for endogeny computation.")
	}

	switch publicationModel {
	case ModelIssueBased:
		if len(measured) < 2 {
			sufficient = false
			limitations = append(limitations, "Latest two issues are not fully available.")
		}
	case ModelContinuous:
		total := 0
		for _, unit := range measured {
			total += unit.ResearchArticleCount
		}
		if total < 5 {
			sufficient = false
			limitations = append(limitations, "Continuous model has fewer than 5 research articles in the last calendar year.")
		}
	}

	for _, unit := range measured {
		if unit.ResearchArticleCount == 0 {
			sufficient = false
			limitations = append(limitations, fmt.Sprintf("Unit '%s' has zero research articles.", unit.Label))
		}
	}

	if maxRatio > Threshold {
		return ResultFail, limitations
	}
	if sufficient {
		return ResultPass, limitations
	}
	return ResultNeedsReview, limitations
}

// confidenceScore discounts a base confidence by match fuzziness and
// evidence gaps, clamped to [0.10, 0.99].
func confidenceScore(result ResultKind, matched []MatchedArticle, limitations []string) float64 {
	base := 0.66
	if result == ResultPass || result == ResultFail {
		base = 0.90
	}
	fuzzyCount, initialsCount := 0, 0
	for _, article := range matched {
		switch article.MatchingMethod {
		case MethodFuzzy:
			fuzzyCount++
		case MethodInitials:
			initialsCount++
		}
	}
	base -= min(0.20, 0.05*float64(fuzzyCount))
	base -= min(0.10, 0.02*float64(initialsCount))
	base -= min(0.35, 0.08*float64(len(limitations)))
	return round2(max(0.10, min(0.99, base)))
}

func explanation(result ResultKind, unitCount int, maxRatio float64, limitations []string) string {
	ratioPct := round2(maxRatio * 100)
	switch result {
	case ResultFail:
		return fmt.Sprintf(
			"Endogeny exceeds the 25%% threshold. Max observed ratio is %v%% across %d measured unit(s).",
			ratioPct, unitCount)
	case ResultPass:
		return fmt.Sprintf(
			"Endogeny is within the 25%% threshold. Max observed ratio is %v%% across %d measured unit(s).",
			ratioPct, unitCount)
	}
	reason := "Evidence is incomplete or ambiguous."
	if len(limitations) > 0 {
		reason = limitations[0]
	}
	return fmt.Sprintf(
		"Endogeny cannot be decided with high confidence. Max observed ratio is %v%% across %d measured unit(s). Primary limitation: %s",
		ratioPct, unitCount, reason)
}

// buildEvidence sanitizes the caller's evidence notes and appends the
// informational note when no reviewer list URL was supplied.
func buildEvidence(sub Submission) []EvidenceNote {
	var evidence []EvidenceNote
	for _, note := range sub.Evidence {
		if note.URL == "" {
			continue
		}
		if note.Kind == "" {
			note.Kind = "crawl_note"
		}
		if len(note.Excerpt) > 300 {
			note.Excerpt = note.Excerpt[:300]
		}
		evidence = append(evidence, note)
	}
	if len(sub.SourceURLs["reviewers"]) == 0 {
		evidence = append(evidence, EvidenceNote{
			Kind:        "crawl_note",
			URL:         sub.JournalHomepageURL,
			Excerpt:     "Reviewer list URL was not provided. Matching used editor and editorial board names only.",
			LocatorHint: "submission.source_urls.reviewers",
		})
	}
	return evidence
}

func nowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
