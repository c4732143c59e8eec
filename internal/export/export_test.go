package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/translate"
)

func sampleSession() *analysis.Session {
	return &analysis.Session{
		SessionID:     "01TESTEXPORT00000000000000",
		Title:         "Quarterly report",
		Text:          "Revenue grew in the third quarter.",
		CategoryIndex: 0,
		Content: analysis.Content{
			ShortSummary: "Revenue grew.",
			Sentiments:   "positive (positive=1 negative=0 confidence=0.40)",
		},
	}
}

func sampleCatalog() *catalog.Catalog {
	return catalog.FromCategories([]catalog.Category{
		{CategoryID: "c1", Name: "Finance", Position: 0},
	}, nil)
}

func TestTextReportContainsFilledSectionsOnly(t *testing.T) {
	out := string(Text(sampleSession(), sampleCatalog()))

	if !strings.Contains(out, "Quarterly report") {
		t.Fatalf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Category: Finance") {
		t.Fatalf("missing category line:\n%s", out)
	}
	if !strings.Contains(out, "Summary\n") || !strings.Contains(out, "Revenue grew.") {
		t.Fatalf("missing summary section:\n%s", out)
	}
	if strings.Contains(out, "Named entities") {
		t.Fatalf("empty section should be omitted:\n%s", out)
	}
}

func TestPDFReportRendersValidDocument(t *testing.T) {
	body, err := PDF(sampleSession(), sampleCatalog())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("output is not a pdf (got %d bytes)", len(body))
	}
}

func TestTranslationTextReport(t *testing.T) {
	s := &translate.Session{
		Title:          "Bonjour le... → Hello ever...",
		Mode:           "UNIVERSAL",
		Query:          "Bonjour le monde",
		Translation:    "Hello world",
		SourceLanguage: "fr",
		TargetLanguage: "en",
	}
	out := string(TranslationText(s))

	if !strings.Contains(out, "French → English (UNIVERSAL)") {
		t.Fatalf("missing language line:\n%s", out)
	}
	if !strings.Contains(out, "Bonjour le monde") || !strings.Contains(out, "Hello world") {
		t.Fatalf("missing body sections:\n%s", out)
	}
}
