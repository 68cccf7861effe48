// Package llm wraps hosted language models behind a single-prompt completer
// and builds the article summarizer on top of it.
package llm

import (
	"context"
	"fmt"
	"strings"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
)

// Completer turns one prompt into one text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompleter picks the provider named in cfg. It returns
// domain.ErrNotConfigured when summaries are disabled or no key is set.
func NewCompleter(ctx context.Context, cfg config.SummarizerConfig) (Completer, error) {
	if !cfg.Configured() {
		return nil, domain.ErrNotConfigured
	}

	switch strings.ToLower(cfg.Provider) {
	case "", config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
