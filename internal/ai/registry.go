package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type TranslatorFactory func(ctx context.Context) (Translator, error)

// Registry routes translation requests to a Translator by model mode
// (UNIVERSAL, SPECIAL). Factories are registered once at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TranslatorFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]TranslatorFactory)}
}

func (r *Registry) Register(mode string, f TranslatorFactory) {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[mode] = f
}

func (r *Registry) Get(ctx context.Context, mode string) (Translator, error) {
	mode = strings.ToUpper(strings.TrimSpace(mode))
	r.mu.RLock()
	f, ok := r.factories[mode]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown translator mode: %s", mode)
	}
	return f(ctx)
}
