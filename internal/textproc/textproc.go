// Package textproc holds the deterministic text heuristics used when no
// external model is configured for a choice, plus the budget handling that
// keeps prompts inside a model's context window.
package textproc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	reEmail   = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[A-Za-z]{2,}`)
	rePhone   = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
	reURL     = regexp.MustCompile(`https?://[^\s]+`)
	reHandle  = regexp.MustCompile(`@[A-Za-z0-9_]{3,}`)
	rePerson  = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	reOrg     = regexp.MustCompile(`\b(?:Inc|Ltd|LLC|GmbH|Corp|Co)\.?\b`)
	reSentEnd = regexp.MustCompile(`(?:[.!?])\s+`)
)

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// ExtractEntities pulls structured mentions out of free text with plain
// regular expressions. It is the fallback when the entities choice has no
// model type configured.
func ExtractEntities(text string) string {
	groups := []struct {
		name   string
		values []string
	}{
		{"persons", unique(rePerson.FindAllString(text, -1))},
		{"organizations", unique(reOrg.FindAllString(text, -1))},
		{"phones", unique(rePhone.FindAllString(text, -1))},
		{"emails", unique(reEmail.FindAllString(text, -1))},
		{"urls", unique(reURL.FindAllString(text, -1))},
		{"social_accounts", unique(reHandle.FindAllString(text, -1))},
	}
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g.values) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", g.name, strings.Join(g.values, ", ")))
	}
	if len(parts) == 0 {
		// no structured mentions: surface the dominant vocabulary instead
		if kw := TopKeywords(text, 5); len(kw) > 0 {
			return "keywords: " + strings.Join(kw, ", ")
		}
		return "no entities found"
	}
	return strings.Join(parts, "; ")
}

var positiveKeywords = []string{
	"success", "growth", "profit", "support", "improve", "strong", "win", "stable", "new",
}

var negativeKeywords = []string{
	"loss", "crisis", "decline", "drop", "negative", "problem", "error", "conflict", "fail",
}

// AnalyzeSentiment counts positive and negative keyword hits and reports a
// polarity with a rough confidence.
func AnalyzeSentiment(text string) string {
	lowered := strings.ToLower(text)
	var positivity, negativity int
	for _, kw := range positiveKeywords {
		positivity += strings.Count(lowered, kw)
	}
	for _, kw := range negativeKeywords {
		negativity += strings.Count(lowered, kw)
	}

	polarity := "neutral"
	switch {
	case positivity > negativity:
		polarity = "positive"
	case negativity > positivity:
		polarity = "negative"
	}

	strongest := positivity
	if negativity > strongest {
		strongest = negativity
	}
	confidence := float64(strongest)/5 + 0.2
	if confidence > 1 {
		confidence = 1
	}
	return fmt.Sprintf("%s (positive=%d negative=%d confidence=%.2f)", polarity, positivity, negativity, confidence)
}

// ClassifyKeywords picks the candidate label with the most keyword-style hits
// in the text: each label is matched as a lowercase substring. With no hit at
// all the first candidate wins, which keeps the output inside the candidate
// set like the model-backed paths.
func ClassifyKeywords(text string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	lowered := strings.ToLower(text)
	best := candidates[0]
	bestHits := 0
	for _, cand := range candidates {
		hits := strings.Count(lowered, strings.ToLower(strings.TrimSpace(cand)))
		if hits > bestHits {
			best = cand
			bestHits = hits
		}
	}
	return best
}

// SplitSentences breaks text on sentence-final punctuation and trims blanks.
func SplitSentences(text string) []string {
	raw := reSentEnd.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if cleaned := strings.TrimSpace(s); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// ShortSummary is the extractive fallback: the first two sentences.
func ShortSummary(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	return strings.Join(sentences, " ")
}

// FullSummary is the extractive fallback: up to four leading sentences.
func FullSummary(text string) string {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	if len(sentences) > 4 {
		sentences = sentences[:4]
	}
	return strings.Join(sentences, " ")
}

// NormalizeLabel maps raw model output onto the closest candidate label:
// the first candidate contained in the output case-insensitively, defaulting
// to the first candidate. An empty candidate list returns the trimmed output.
func NormalizeLabel(output string, candidates []string) string {
	trimmed := strings.TrimSpace(output)
	if len(candidates) == 0 {
		return trimmed
	}
	lowered := strings.ToLower(trimmed)
	for _, cand := range candidates {
		if strings.Contains(lowered, strings.ToLower(cand)) {
			return cand
		}
	}
	return candidates[0]
}

// ParseLabels splits a comma-separated prompt into candidate labels.
func ParseLabels(prompt string) []string {
	parts := strings.Split(prompt, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if cleaned := strings.TrimSpace(p); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// Chunk splits text into budget-sized rune chunks. Boundaries are purely
// positional so the split is deterministic for a given budget.
func Chunk(text string, budget int) []string {
	if budget <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return []string{text}
	}
	chunks := make([]string, 0, len(runes)/budget+1)
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Truncate hard-cuts text to the rune budget.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return strings.TrimSpace(string(runes[:budget]))
}

// TopKeywords returns up to n most frequent words of at least four runes,
// ties broken alphabetically. It backs the entities fallback when the
// mention patterns find nothing.
func TopKeywords(text string, n int) []string {
	counts := make(map[string]int)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, `.,!?;:"'()[]`)
		if len([]rune(tok)) < 4 {
			continue
		}
		counts[tok]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
