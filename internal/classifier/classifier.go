// Package classifier assigns keyword-derived priority tiers to articles.
package classifier

import (
	"strings"

	"NotifyNiche/internal/config"
	"NotifyNiche/internal/domain"
)

// Classify filters articles by title keywords and stamps their priority.
//
// Matching is a case-insensitive substring test on the title only, with
// precedence exclude > high > medium > low; an article matching none of the
// priority lists is dropped. When filters are disabled, or no priority
// keywords are configured, every article passes through unchanged.
// The input slice is never modified and output keeps input order.
func Classify(articles []domain.Article, filters config.KeywordFilters) []domain.Article {
	if !filters.Enabled || !filters.HasPriorityKeywords() {
		return append([]domain.Article(nil), articles...)
	}

	rules := compile(filters)
	out := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		priority, keep := rules.match(article.Title)
		if !keep {
			continue
		}
		article.Priority = priority
		out = append(out, article)
	}
	return out
}

type tier struct {
	priority domain.Priority
	keywords []string
}

type ruleSet struct {
	exclude []string
	tiers   []tier
}

func compile(filters config.KeywordFilters) ruleSet {
	return ruleSet{
		exclude: lowerAll(filters.Exclude),
		tiers: []tier{
			{priority: domain.PriorityHigh, keywords: lowerAll(filters.HighPriority)},
			{priority: domain.PriorityMedium, keywords: lowerAll(filters.MediumPriority)},
			{priority: domain.PriorityLow, keywords: lowerAll(filters.LowPriority)},
		},
	}
}

func (r ruleSet) match(title string) (domain.Priority, bool) {
	title = strings.ToLower(title)

	if containsAny(title, r.exclude) {
		return domain.PriorityNone, false
	}
	for _, t := range r.tiers {
		if containsAny(title, t.keywords) {
			return t.priority, true
		}
	}
	return domain.PriorityNone, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
