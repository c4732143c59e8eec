package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntitiesGroupsMentions(t *testing.T) {
	text := "John Smith from Acme Corp. wrote to support@example.com, " +
		"see https://example.com/report or ping @acme_support."
	out := ExtractEntities(text)

	assert.Contains(t, out, "persons: John Smith")
	assert.Contains(t, out, "organizations: Corp")
	assert.Contains(t, out, "emails: support@example.com")
	assert.Contains(t, out, "urls: https://example.com/report")
	assert.Contains(t, out, "@acme_support")
}

func TestExtractEntitiesFallsBackToKeywords(t *testing.T) {
	assert.Equal(t, "keywords: here, nothing", ExtractEntities("nothing to see here"))
}

func TestExtractEntitiesEmptyText(t *testing.T) {
	assert.Equal(t, "no entities found", ExtractEntities("so to be it"))
}

func TestAnalyzeSentimentPolarity(t *testing.T) {
	positive := AnalyzeSentiment("Strong growth and record profit, a clear win.")
	assert.True(t, strings.HasPrefix(positive, "positive"), positive)

	negative := AnalyzeSentiment("The crisis deepened after the loss; another problem surfaced.")
	assert.True(t, strings.HasPrefix(negative, "negative"), negative)

	neutral := AnalyzeSentiment("The meeting is scheduled for Tuesday.")
	assert.True(t, strings.HasPrefix(neutral, "neutral"), neutral)
}

func TestClassifyKeywordsPicksMostFrequent(t *testing.T) {
	text := "The match went to extra time. Sports fans loved the sports coverage."
	assert.Equal(t, "sports", ClassifyKeywords(text, []string{"politics", "sports", "culture"}))
}

func TestClassifyKeywordsDefaultsToFirstCandidate(t *testing.T) {
	assert.Equal(t, "politics", ClassifyKeywords("completely unrelated", []string{"politics", "sports"}))
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second one! Third one? Trailing")
	assert.Equal(t, []string{"First one", "Second one", "Third one", "Trailing"}, got)
}

func TestShortSummaryTakesTwoSentences(t *testing.T) {
	text := "One. Two. Three. Four."
	assert.Equal(t, "One Two", ShortSummary(text))
}

func TestFullSummaryTakesFourSentences(t *testing.T) {
	text := "One. Two. Three. Four. Five."
	assert.Equal(t, "One Two Three Four", FullSummary(text))
}

func TestNormalizeLabelMatchesCaseInsensitively(t *testing.T) {
	candidates := []string{"politics", "business", "technology"}
	assert.Equal(t, "business", NormalizeLabel("This is clearly Business news.", candidates))
	assert.Equal(t, "politics", NormalizeLabel("no candidate appears", candidates))
	assert.Equal(t, "raw output", NormalizeLabel("  raw output  ", nil))
}

func TestParseLabels(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseLabels(" a, b ,, c "))
}

func TestChunkIsDeterministicAndCoversText(t *testing.T) {
	text := strings.Repeat("abcde", 10)
	first := Chunk(text, 12)
	second := Chunk(text, 12)
	assert.Equal(t, first, second)
	assert.Equal(t, text, strings.Join(first, ""))
	for i, c := range first {
		if i < len(first)-1 {
			assert.Len(t, []rune(c), 12)
		}
	}
}

func TestChunkSmallTextStaysWhole(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunk("short", 100))
}

func TestTruncateRespectsRuneBudget(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 6))
	assert.Equal(t, "tiny", Truncate("tiny", 10))
}

func TestTopKeywords(t *testing.T) {
	text := "storage storage storage engine engine compaction"
	assert.Equal(t, []string{"storage", "engine", "compaction"}, TopKeywords(text, 3))
}
