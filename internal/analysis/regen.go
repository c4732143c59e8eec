package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/veslo-ai/textlab/internal/ai"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/textproc"
)

// Model type tags carried by catalog choices.
const (
	modelUniversal  = "universal"
	modelPretrained = "pretrained"
)

// Regenerator produces a new content payload for a text and a set of
// requested choices. Fields no requested choice writes into keep the values
// passed as defaults. A collaborator failure poisons only its own field.
type Regenerator struct {
	catalog    *catalog.Catalog
	completer  ai.Completer
	classifier ai.Classifier
	charBudget int
	log        *slog.Logger
}

func NewRegenerator(cat *catalog.Catalog, completer ai.Completer, classifier ai.Classifier, charBudget int, log *slog.Logger) *Regenerator {
	if charBudget <= 0 {
		charBudget = 12000
	}
	if log == nil {
		log = slog.Default()
	}
	return &Regenerator{
		catalog:    cat,
		completer:  completer,
		classifier: classifier,
		charBudget: charBudget,
		log:        log,
	}
}

// errAnnotation is what a failed field holds instead of generated content.
func errAnnotation(err error) string {
	return fmt.Sprintf("[error: %v]", err)
}

// Regenerate resolves the category and every requested choice (both
// strictly: an unknown index rejects the whole call with no effect), then
// dispatches each choice to its collaborator. Duplicated choice indexes are
// processed once.
func (r *Regenerator) Regenerate(ctx context.Context, text string, categoryIndex int, choiceIndexes []int, defaults Content) (Content, error) {
	cat, err := r.catalog.Category(categoryIndex)
	if err != nil {
		return Content{}, err
	}

	indexes := lo.Uniq(choiceIndexes)
	choices := make([]catalog.Choice, 0, len(indexes))
	for _, idx := range indexes {
		choice, err := r.catalog.Choice(cat, idx)
		if err != nil {
			return Content{}, err
		}
		choices = append(choices, choice)
	}

	out := defaults
	if len(choices) == 0 {
		return out, nil
	}

	prepared := r.condense(ctx, text)

	for _, choice := range choices {
		field := choice.TargetField()
		var value string
		var genErr error

		if field == catalog.FieldClassification {
			value, genErr = r.classify(ctx, prepared, choice)
		} else {
			value, genErr = r.generate(ctx, prepared, choice)
		}

		if genErr != nil {
			r.log.Warn("choice generation failed",
				"choice", choice.Name, "model_type", choice.ModelType, "err", genErr)
			value = errAnnotation(genErr)
		}
		out.set(field, value)
	}
	return out, nil
}

func (c *Content) set(field catalog.Field, value string) {
	switch field {
	case catalog.FieldShortSummary:
		c.ShortSummary = value
	case catalog.FieldEntities:
		c.Entities = value
	case catalog.FieldSentiments:
		c.Sentiments = value
	case catalog.FieldClassification:
		c.Classifications = value
	default:
		c.FullSummary = value
	}
}

// classify parses the choice prompt as a candidate label list and normalizes
// whatever the model answers back onto that list.
func (r *Regenerator) classify(ctx context.Context, text string, choice catalog.Choice) (string, error) {
	candidates := textproc.ParseLabels(choice.Prompt)
	if len(candidates) == 0 {
		return "", fmt.Errorf("classification choice %q has no candidate labels", choice.Name)
	}

	switch strings.ToLower(choice.ModelType) {
	case modelPretrained:
		label, _, err := r.classifier.Classify(ctx, text, candidates)
		if err != nil {
			return "", err
		}
		return textproc.NormalizeLabel(label, candidates), nil
	case modelUniversal:
		prompt := fmt.Sprintf(
			"Pick the single most fitting category from this list: %s. Answer with one list item only.",
			strings.Join(candidates, ", "))
		raw, err := r.completer.Complete(ctx, prompt, text)
		if err != nil {
			return "", err
		}
		return textproc.NormalizeLabel(raw, candidates), nil
	default:
		return textproc.ClassifyKeywords(text, candidates), nil
	}
}

// generate fills a non-classification field: universal choices go to the
// completion endpoint with the catalog prompt, everything else uses the
// deterministic heuristics.
func (r *Regenerator) generate(ctx context.Context, text string, choice catalog.Choice) (string, error) {
	if strings.ToLower(choice.ModelType) == modelUniversal {
		return r.completer.Complete(ctx, strings.TrimSpace(choice.Prompt), text)
	}

	switch choice.TargetField() {
	case catalog.FieldShortSummary:
		return textproc.ShortSummary(text), nil
	case catalog.FieldEntities:
		return textproc.ExtractEntities(text), nil
	case catalog.FieldSentiments:
		return textproc.AnalyzeSentiment(text), nil
	default:
		return textproc.FullSummary(text), nil
	}
}

const condensePrompt = "Summarize the text concisely, keeping every concrete fact."

// condense keeps the prompt text inside the configured character budget.
// Oversized input is split into budget-sized chunks which are summarized
// individually and recombined; if the completer is unavailable or the
// combined summary still exceeds the budget, the text is hard-truncated.
// Chunk boundaries and the truncation point depend only on the budget and
// the input, so the fallback is deterministic.
func (r *Regenerator) condense(ctx context.Context, text string) string {
	if len([]rune(text)) <= r.charBudget {
		return text
	}

	r.log.Info("condensing oversized input", "budget", r.charBudget)
	chunks := textproc.Chunk(text, r.charBudget)
	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		summary, err := r.completer.Complete(ctx, condensePrompt, chunk)
		if err != nil {
			r.log.Warn("chunk condensation failed, truncating", "err", err)
			return textproc.Truncate(text, r.charBudget)
		}
		summaries = append(summaries, summary)
	}
	combined := strings.Join(summaries, " ")
	if len([]rune(combined)) > r.charBudget || strings.TrimSpace(combined) == "" {
		return textproc.Truncate(text, r.charBudget)
	}
	return combined
}
