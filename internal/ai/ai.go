// Package ai wraps the external model collaborators. Their outputs are
// treated as opaque strings; this package only handles transport, timeouts
// and error shaping.
package ai

import "context"

// Message is one chat turn sent to a completion endpoint.
type Message struct {
	Role    string
	Content string
}

// Completer is the hosted completion collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt, text string) (string, error)
}

// Classifier is the local zero-shot classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) (label string, score float64, err error)
}

// Translator turns text from one language into another.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Detector guesses the language of a text.
type Detector interface {
	Detect(text string) (string, error)
}
