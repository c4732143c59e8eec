// Package export renders sessions into downloadable artefacts.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/veslo-ai/textlab/internal/analysis"
	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/translate"
)

type section struct {
	heading string
	body    string
}

// report is a renderer-neutral view of a session. Empty sections are
// dropped at construction so both renderers agree on what is shown.
type report struct {
	title    string
	subtitle string
	sections []section
}

func keepFilled(all []section) []section {
	kept := all[:0]
	for _, sec := range all {
		if strings.TrimSpace(sec.body) != "" {
			kept = append(kept, sec)
		}
	}
	return kept
}

func fromAnalysis(s *analysis.Session, cat *catalog.Catalog) report {
	r := report{title: s.Title}
	if c, err := cat.Category(s.CategoryIndex); err == nil {
		r.subtitle = "Category: " + c.Name
	}
	r.sections = keepFilled([]section{
		{"Source text", s.Text},
		{"Summary", s.Content.ShortSummary},
		{"Named entities", s.Content.Entities},
		{"Sentiment", s.Content.Sentiments},
		{"Classification", s.Content.Classifications},
		{"Conclusions", s.Content.FullSummary},
	})
	return r
}

func fromTranslation(s *translate.Session) report {
	return report{
		title:    s.Title,
		subtitle: fmt.Sprintf("%s → %s (%s)", translate.LangTitle(s.SourceLanguage), translate.LangTitle(s.TargetLanguage), s.Mode),
		sections: keepFilled([]section{
			{"Source text", s.Query},
			{"Translation", s.Translation},
		}),
	}
}

func renderText(r report) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s\n%s\n\n", r.title, strings.Repeat("=", len(r.title)))
	if r.subtitle != "" {
		fmt.Fprintf(&b, "%s\n\n", r.subtitle)
	}
	for _, sec := range r.sections {
		fmt.Fprintf(&b, "%s\n%s\n\n%s\n\n", sec.heading, strings.Repeat("-", len(sec.heading)), sec.body)
	}
	return b.Bytes()
}

func renderPDF(r report) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 16)
	doc.MultiCell(0, 8, tr(r.title), "", "L", false)
	if r.subtitle != "" {
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 6, tr(r.subtitle), "", "L", false)
	}
	doc.Ln(4)

	for _, sec := range r.sections {
		doc.SetFont("Helvetica", "B", 12)
		doc.MultiCell(0, 7, tr(sec.heading), "", "L", false)
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 5, tr(sec.body), "", "L", false)
		doc.Ln(3)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Text renders an analysis session as a plain-text report.
func Text(s *analysis.Session, cat *catalog.Catalog) []byte {
	return renderText(fromAnalysis(s, cat))
}

// PDF renders an analysis session as a PDF report.
func PDF(s *analysis.Session, cat *catalog.Catalog) ([]byte, error) {
	return renderPDF(fromAnalysis(s, cat))
}

// TranslationText renders a translation session as a plain-text report.
func TranslationText(s *translate.Session) []byte {
	return renderText(fromTranslation(s))
}

// TranslationPDF renders a translation session as a PDF report.
func TranslationPDF(s *translate.Session) ([]byte, error) {
	return renderPDF(fromTranslation(s))
}
