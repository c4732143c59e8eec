// Package search ranks an owner's sessions against a free-text query.
//
// Scoring is intentionally cheap: a gestalt pattern-matching ratio over the
// normalized text plus a token-overlap ratio, merged by taking the larger of
// the two. It favors recall over precision, which is what the session list
// UI wants.
package search

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyQuery rejects empty or whitespace-only queries.
var ErrEmptyQuery = errors.New("search: query is empty")

// Document is one candidate: an opaque ID plus the concatenated text fields
// the session type exposes for search.
type Document struct {
	ID   string
	Blob string
}

// Match pairs a document with its score in [0, 1].
type Match struct {
	ID    string
	Score float64
}

// Rank scores every document against the query, drops non-positive scores,
// orders by descending score (stable on input order for ties) and caps the
// result at limit. Limit <= 0 means no cap.
func Rank(docs []Document, query string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	matches := make([]Match, 0, len(docs))
	for _, d := range docs {
		score := Score(d.Blob, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{ID: d.ID, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Score computes max(sequence similarity, token overlap) over the normalized
// blob and query. Either side normalizing to nothing scores zero.
func Score(blob, query string) float64 {
	b := normalize(blob)
	q := normalize(query)
	if b == "" || q == "" {
		return 0
	}

	ratio := sequenceRatio([]rune(b), []rune(q))
	overlap := tokenOverlap(b, q)
	if overlap > ratio {
		return overlap
	}
	return ratio
}

// normalize lowercases and collapses all whitespace runs to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokenOverlap is |tokens(blob) ∩ tokens(query)| / |tokens(query)|.
func tokenOverlap(blob, query string) float64 {
	queryTokens := strings.Fields(query)
	if len(queryTokens) == 0 {
		return 0
	}
	blobSet := make(map[string]struct{})
	for _, tok := range strings.Fields(blob) {
		blobSet[tok] = struct{}{}
	}
	seen := make(map[string]struct{})
	hits := 0
	for _, tok := range queryTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := blobSet[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(seen))
}

// sequenceRatio is the Ratcliff-Obershelp gestalt ratio: twice the number of
// matching characters divided by the total length of both strings. Matching
// characters are counted by recursively splitting around the longest common
// substring.
func sequenceRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchingRunes(a, b)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	// prev[j] holds the match length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
