// Package content fetches the readable text behind an article link.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"

	"NotifyNiche/internal/ports"
)

const (
	// MaxContentLength bounds the text handed to a summarizer.
	MaxContentLength = 15000

	maxResponseBytes = 4 << 20
	minReadableText  = 200
)

// Extractor fetches a page, optionally through a reader proxy that prefixes
// the target URL (https://r.jina.ai/<url>), and reduces it to plain text.
type Extractor struct {
	readerEndpoint string
	userAgent      string
	client         *http.Client
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// NewExtractor builds an extractor. An empty readerEndpoint fetches pages directly.
func NewExtractor(readerEndpoint, userAgent string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		readerEndpoint: readerEndpoint,
		userAgent:      userAgent,
		client:         &http.Client{Timeout: timeout},
	}
}

// Extract returns at most MaxContentLength characters of page text.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	target := pageURL
	if e.readerEndpoint != "" {
		target = e.readerEndpoint + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "html") {
		text = readableText(text, pageURL)
	}

	return capRunes(strings.TrimSpace(text), MaxContentLength), nil
}

// readableText runs readability over the page and falls back to block-level
// text when it finds too little.
func readableText(page, pageURL string) string {
	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil {
		base = u
	}

	if article, err := readability.FromReader(strings.NewReader(page), base); err == nil {
		var buf strings.Builder
		if err := article.RenderText(&buf); err == nil {
			if text := normalizeWhitespace(buf.String()); len(text) >= minReadableText {
				return text
			}
		}
	}

	return blockText(page)
}

func blockText(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	var blocks []string
	doc.Find("h1, h2, h3, h4, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeWhitespace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return normalizeWhitespace(doc.Text())
	}
	return strings.Join(blocks, "\n")
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
