package domain

// NotificationFooter is the small caption under an article card.
type NotificationFooter struct {
	Text string `json:"text"`
}

// NotificationUnit is one renderable card: a category header or an article.
type NotificationUnit struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color"`
	URL         string              `json:"url,omitempty"`
	Footer      *NotificationFooter `json:"footer,omitempty"`
}

// NotificationPayload is the body of a single webhook request.
type NotificationPayload struct {
	Content string             `json:"content,omitempty"`
	Embeds  []NotificationUnit `json:"embeds"`
}
