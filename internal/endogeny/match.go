package endogeny

import "math"

// MatchAuthor resolves one raw author string against the roster using a
// strict-to-loose cascade: exact normalized name, then initials+family key,
// then a fuzzy scan. The first stage that hits wins; a false second return
// means no stage produced a match.
func (idx *Index) MatchAuthor(author string) (MatchResult, bool) {
	normalized := NormalizeName(author)
	if normalized == "" {
		return MatchResult{}, false
	}

	if entries := idx.byExact[normalized]; len(entries) > 0 {
		return MatchResult{
			Author: author,
			Person: entries[0].person,
			Method: MethodExact,
			Score:  1.0,
		}, true
	}

	if key := InitialsFamilyKey(normalized); key != "" {
		if entries := idx.byInitials[key]; len(entries) > 0 {
			return MatchResult{
				Author: author,
				Person: entries[0].person,
				Method: MethodInitials,
				Score:  0.97,
			}, true
		}
	}

	var (
		best      MatchResult
		bestFound bool
	)
	for _, entry := range idx.people {
		score := similarityRatio(normalized, entry.normalized)
		if score < FuzzyFloor {
			continue
		}
		if !bestFound || score > best.Score {
			best = MatchResult{
				Author: author,
				Person: entry.person,
				Method: MethodFuzzy,
				Score:  round4(score),
			}
			bestFound = true
		}
	}
	return best, bestFound
}

// similarityRatio computes the Ratcliff/Obershelp similarity of two strings:
// twice the total length of matched character runs divided by the combined
// length. Inputs are normalized names, so byte indexing is safe.
func similarityRatio(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, size := longestMatch(a, b, s.alo, s.ahi, s.blo, s.bhi)
		if size == 0 {
			continue
		}
		matched += size
		queue = append(queue,
			span{s.alo, i, s.blo, j},
			span{i + size, s.ahi, j + size, s.bhi},
		)
	}
	return 2.0 * float64(matched) / float64(total)
}

// longestMatch finds the longest matching run of a[alo:ahi] within b[blo:bhi],
// preferring the earliest run on ties.
func longestMatch(a, b string, alo, ahi, blo, bhi int) (bestI, bestJ, bestSize int) {
	bestI, bestJ = alo, blo
	// runLengths[j] is the length of the match ending at a[i-1], b[j-1].
	runLengths := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newRuns := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := runLengths[j-1] + 1
			newRuns[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		runLengths = newRuns
	}
	return bestI, bestJ, bestSize
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
