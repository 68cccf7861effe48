package dispatch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"NotifyNiche/internal/domain"
)

// Webhook limits; rendering stays well under them.
const (
	MaxEmbedsPerMessage       = 10
	MaxEmbedTitleLength       = 256
	MaxEmbedDescriptionLength = 4096

	articleBodyLength = 500
	defaultSuffix     = "..."
)

// Style controls how units look. Zero fields fall back to DefaultStyle.
type Style struct {
	Icons        map[domain.Priority]string
	Colors       map[domain.Priority]int
	HeaderColor  int
	DefaultEmoji string
}

// DefaultStyle returns the stock icons and palette.
func DefaultStyle() Style {
	return Style{
		Icons: map[domain.Priority]string{
			domain.PriorityHigh:   "🔥",
			domain.PriorityMedium: "⭐",
			domain.PriorityLow:    "📌",
			domain.PriorityNone:   "•",
		},
		Colors: map[domain.Priority]int{
			domain.PriorityHigh:   0xFF4444,
			domain.PriorityMedium: 0xFFD700,
			domain.PriorityLow:    0x4499FF,
			domain.PriorityNone:   0x808080,
		},
		HeaderColor:  0x2F3136,
		DefaultEmoji: "📂",
	}
}

func (s Style) withDefaults() Style {
	def := DefaultStyle()
	if s.Icons == nil {
		s.Icons = map[domain.Priority]string{}
	}
	if s.Colors == nil {
		s.Colors = map[domain.Priority]int{}
	}
	for p, icon := range def.Icons {
		if _, ok := s.Icons[p]; !ok {
			s.Icons[p] = icon
		}
	}
	for p, color := range def.Colors {
		if _, ok := s.Colors[p]; !ok {
			s.Colors[p] = color
		}
	}
	if s.HeaderColor == 0 {
		s.HeaderColor = def.HeaderColor
	}
	if s.DefaultEmoji == "" {
		s.DefaultEmoji = def.DefaultEmoji
	}
	return s
}

func (s Style) icon(p domain.Priority) string {
	if icon, ok := s.Icons[p]; ok {
		return icon
	}
	return s.Icons[domain.PriorityNone]
}

func (s Style) color(p domain.Priority) int {
	if color, ok := s.Colors[p]; ok {
		return color
	}
	return s.Colors[domain.PriorityNone]
}

// Truncate shortens text to at most maxLen runes, ending with suffix when cut.
func Truncate(text string, maxLen int, suffix string) string {
	if text == "" || maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	suffixRunes := []rune(suffix)
	cut := maxLen - len(suffixRunes)
	if cut < 0 {
		return string(suffixRunes[:maxLen])
	}
	return string([]rune(text)[:cut]) + suffix
}

// HeaderUnit renders the card that opens a category.
func HeaderUnit(name, emoji string, count int, style Style) domain.NotificationUnit {
	return domain.NotificationUnit{
		Title:       fmt.Sprintf("%s %s", emoji, name),
		Description: fmt.Sprintf("%d개의 새로운 기사", count),
		Color:       style.HeaderColor,
	}
}

// ArticleUnit renders one article card.
func ArticleUnit(article domain.Article, category, emoji string, style Style) domain.NotificationUnit {
	icon := style.icon(article.Priority)
	title := Truncate(article.Title, MaxEmbedTitleLength-utf8.RuneCountInString(icon)-1, defaultSuffix)

	footer := fmt.Sprintf("%s %s", emoji, category)
	if article.FeedName != "" {
		footer += " - " + article.FeedName
	}

	return domain.NotificationUnit{
		Title:       fmt.Sprintf("%s %s", icon, title),
		Description: Truncate(article.Body(), articleBodyLength, defaultSuffix),
		Color:       style.color(article.Priority),
		URL:         article.Link,
		Footer:      &domain.NotificationFooter{Text: footer},
	}
}

// Build renders every group as a header followed by its articles. Groups
// keep their order and are never interleaved; empty groups are skipped.
func Build(groups []domain.CategoryArticles, style Style) []domain.NotificationUnit {
	style = style.withDefaults()

	var units []domain.NotificationUnit
	for _, g := range groups {
		if len(g.Articles) == 0 {
			continue
		}
		emoji := g.Emoji
		if emoji == "" {
			emoji = style.DefaultEmoji
		}

		units = append(units, HeaderUnit(g.Name, emoji, len(g.Articles), style))
		for _, a := range g.Articles {
			units = append(units, ArticleUnit(a, g.Name, emoji, style))
		}
	}
	return units
}

// SummaryLine is the text carried by the first payload of a dispatch.
func SummaryLine(groups []domain.CategoryArticles) string {
	var (
		total  int
		counts []string
	)
	for _, g := range groups {
		if len(g.Articles) == 0 {
			continue
		}
		total += len(g.Articles)
		counts = append(counts, fmt.Sprintf("%s %d", g.Name, len(g.Articles)))
	}
	return fmt.Sprintf("📰 **새로운 기사가 도착했습니다!** (총 %d개: %s)", total, strings.Join(counts, ", "))
}

// Chunk splits units into consecutive batches of at most size units.
func Chunk(units []domain.NotificationUnit, size int) [][]domain.NotificationUnit {
	if len(units) == 0 {
		return nil
	}
	if size <= 0 {
		size = MaxEmbedsPerMessage
	}

	batches := make([][]domain.NotificationUnit, 0, (len(units)+size-1)/size)
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[start:end])
	}
	return batches
}
