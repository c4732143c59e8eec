package ai

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// ErrUndetectedLanguage means the detector could not settle on a language.
var ErrUndetectedLanguage = errors.New("ai: language not detected")

// WhatlangDetector detects the language of a text locally.
type WhatlangDetector struct {
	// MinConfidence rejects low-confidence guesses; zero uses a default.
	MinConfidence float64
}

func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{MinConfidence: 0.3}
}

func (d *WhatlangDetector) Detect(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetectedLanguage
	}
	info := whatlanggo.Detect(text)
	min := d.MinConfidence
	if min <= 0 {
		min = 0.3
	}
	if !info.IsReliable() && info.Confidence < min {
		return "", ErrUndetectedLanguage
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetectedLanguage
	}
	return code, nil
}
