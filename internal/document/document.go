// Package document converts uploaded files into plain text for analysis.
package document

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

var (
	ErrUnsupportedFormat = errors.New("document: unsupported format")
	ErrEmptyDocument     = errors.New("document: no extractable text")
)

// Extractor accepts a fixed set of file extensions and refuses content that
// sniffs as anything non-textual it cannot handle.
type Extractor struct {
	formats map[string]struct{}
}

// NewExtractor takes the accepted extensions (without dots), e.g.
// txt,doc,docx,pdf,odt.
func NewExtractor(formats []string) *Extractor {
	set := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		cleaned := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
		if cleaned != "" {
			set[cleaned] = struct{}{}
		}
	}
	return &Extractor{formats: set}
}

// Formats lists the accepted extensions.
func (e *Extractor) Formats() []string {
	return lo.Keys(e.formats)
}

// Extract pulls text out of an uploaded file. The extension gates the
// request; the sniffed MIME type decides how the bytes are decoded. Binary
// formats fall back to a lossy UTF-8 decode, which matches the reference
// importer.
func (e *Extractor) Extract(filename string, content []byte) (string, error) {
	if filename == "" {
		return "", ErrUnsupportedFormat
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := e.formats[ext]; !ok {
		return "", ErrUnsupportedFormat
	}
	if len(content) == 0 {
		return "", ErrEmptyDocument
	}

	kind := mimetype.Detect(content)
	var text string
	if kind.Is("text/plain") || strings.HasPrefix(kind.String(), "text/") {
		text = string(content)
	} else {
		text = decodeLossy(content)
	}

	cleaned := cleanLines(text)
	if cleaned == "" {
		return "", ErrEmptyDocument
	}
	return cleaned, nil
}

// decodeLossy drops bytes that do not form valid UTF-8 sequences.
func decodeLossy(content []byte) string {
	var b strings.Builder
	for len(content) > 0 {
		r, size := utf8.DecodeRune(content)
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		content = content[size:]
	}
	return b.String()
}

// cleanLines trims every line and drops blank ones.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if cleaned := strings.TrimSpace(line); cleaned != "" {
			kept = append(kept, cleaned)
		}
	}
	return strings.Join(kept, "\n")
}
