package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"NotifyNiche/internal/domain"
	"NotifyNiche/internal/ports"
)

const (
	// MaxSummaryLength caps a summary in characters.
	MaxSummaryLength = 300

	summaryPrompt = `You are a professional article summarizer. Your task is to create a concise, informative summary.

Article Title: %s

Article Content:
%s

Requirements:
1. Write in Korean (unless the content is clearly in English)
2. Create a 2-3 sentence summary that captures the key points
3. Focus on the main topic and important details
4. Keep it under 200 characters
5. If the content is insufficient, return a brief description of the title
6. Output ONLY the summary, no additional text

Summary:`
)

var summaryPrefix = regexp.MustCompile(`^(Summary:|요약:|요약\s*)`)

// Summarizer asks a completer for a short article summary.
type Summarizer struct {
	completer Completer
	extractor ports.ContentExtractor
	timeout   time.Duration
	logger    *slog.Logger
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer wires a completer and an optional content extractor. A nil
// completer yields a summarizer that always reports domain.ErrNotConfigured.
func NewSummarizer(completer Completer, extractor ports.ContentExtractor, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		completer: completer,
		extractor: extractor,
		logger:    logger.With("component", "summarizer"),
	}
}

// WithTimeout bounds each Summarize call, extraction included.
func (s *Summarizer) WithTimeout(d time.Duration) *Summarizer {
	s.timeout = d
	return s
}

// Summarize builds the prompt from the page text when it can be extracted,
// the feed description otherwise, and the title as a last resort.
func (s *Summarizer) Summarize(ctx context.Context, article domain.Article) (string, error) {
	if s == nil || s.completer == nil {
		return "", domain.ErrNotConfigured
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	content := ""
	if s.extractor != nil && article.Link != "" {
		text, err := s.extractor.Extract(ctx, article.Link)
		if err != nil {
			s.logger.Debug("content extraction failed", "link", article.Link, "error", err)
		}
		content = text
	}
	if strings.TrimSpace(content) == "" {
		content = article.Description
	}
	if strings.TrimSpace(content) == "" {
		content = article.Title
	}

	raw, err := s.completer.Complete(ctx, BuildPrompt(article.Title, content))
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", article.Link, err)
	}

	summary := CleanSummary(raw)
	if summary == "" {
		return "", fmt.Errorf("summarize %s: empty summary", article.Link)
	}
	return summary, nil
}

// BuildPrompt renders the summary request for one article.
func BuildPrompt(title, content string) string {
	return fmt.Sprintf(summaryPrompt, title, content)
}

// CleanSummary strips a leading label and enforces MaxSummaryLength.
func CleanSummary(raw string) string {
	summary := strings.TrimSpace(summaryPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))

	runes := []rune(summary)
	if len(runes) > MaxSummaryLength {
		summary = string(runes[:MaxSummaryLength-3]) + "..."
	}
	return summary
}
