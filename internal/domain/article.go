package domain

import "time"

// UntitledTitle replaces missing entry titles.
const UntitledTitle = "Untitled"

// Priority is the keyword-derived importance tier of an article.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// String renders the tier; the unset tier prints as "none".
func (p Priority) String() string {
	if p == PriorityNone {
		return "none"
	}
	return string(p)
}

// SummaryStatus records what happened when the summarizer was consulted.
type SummaryStatus string

const (
	SummaryPending   SummaryStatus = ""
	SummaryCompleted SummaryStatus = "completed"
	SummarySkipped   SummaryStatus = "skipped"
	SummaryFailed    SummaryStatus = "failed"
)

// Article is a core entity describing one feed entry. Link is the identity key.
type Article struct {
	Title       string
	Link        string
	Description string
	Published   string
	PublishedAt time.Time

	Priority Priority
	Category string
	FeedURL  string
	FeedName string

	Summary       string
	SummaryStatus SummaryStatus
}

// Body returns the text a notification should show: the summary when present,
// the feed description otherwise.
func (a Article) Body() string {
	if a.Summary != "" {
		return a.Summary
	}
	return a.Description
}

// CategoryArticles is one category's surviving articles, in feed order.
// Ordered slices of these carry the category order through the pipeline.
type CategoryArticles struct {
	Name     string
	Emoji    string
	Articles []Article
}

// FeedRecord is a configured feed as persisted by the feed sync step.
type FeedRecord struct {
	URL      string
	Name     string
	Category string
	Enabled  bool
}

// Flatten concatenates the groups' articles preserving group order.
func Flatten(groups []CategoryArticles) []Article {
	var total int
	for _, g := range groups {
		total += len(g.Articles)
	}

	out := make([]Article, 0, total)
	for _, g := range groups {
		out = append(out, g.Articles...)
	}
	return out
}

// Regroup distributes articles back into the given groups by Category,
// keeping the group order and dropping groups left empty.
func Regroup(groups []CategoryArticles, articles []Article) []CategoryArticles {
	byCategory := make(map[string][]Article, len(groups))
	for _, a := range articles {
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}

	out := make([]CategoryArticles, 0, len(groups))
	for _, g := range groups {
		members := byCategory[g.Name]
		if len(members) == 0 {
			continue
		}
		out = append(out, CategoryArticles{Name: g.Name, Emoji: g.Emoji, Articles: members})
	}
	return out
}
