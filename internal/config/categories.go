package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedEndpoint is a feed URL with an optional display name. In YAML it may be
// written either as a bare URL string or as a {url, name} mapping.
type FeedEndpoint struct {
	URL  string
	Name string
}

// UnmarshalYAML normalizes both accepted shapes into FeedEndpoint.
func (f *FeedEndpoint) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*f = FeedEndpoint{URL: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			URL  string `yaml:"url"`
			Name string `yaml:"name"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*f = FeedEndpoint{URL: strings.TrimSpace(raw.URL), Name: strings.TrimSpace(raw.Name)}
		return nil
	default:
		return fmt.Errorf("line %d: feed must be a url string or a {url, name} mapping", value.Line)
	}
}

// KeywordFilters is a category's title-keyword classification block.
type KeywordFilters struct {
	Enabled        bool
	HighPriority   []string
	MediumPriority []string
	LowPriority    []string
	Exclude        []string
}

// HasPriorityKeywords reports whether any of the three priority lists is non-empty.
func (k KeywordFilters) HasPriorityKeywords() bool {
	return len(k.HighPriority) > 0 || len(k.MediumPriority) > 0 || len(k.LowPriority) > 0
}

// CategoryConfig groups feeds that share one emoji and keyword filter.
type CategoryConfig struct {
	Enabled        bool
	Emoji          string
	Feeds          []FeedEndpoint
	KeywordFilters KeywordFilters
}

type keywordFiltersYAML struct {
	Enabled        *bool    `yaml:"enabled"`
	HighPriority   []string `yaml:"high_priority"`
	MediumPriority []string `yaml:"medium_priority"`
	LowPriority    []string `yaml:"low_priority"`
	Exclude        []string `yaml:"exclude"`
}

type categoryYAML struct {
	Enabled        *bool              `yaml:"enabled"`
	Emoji          string             `yaml:"emoji"`
	Feeds          []FeedEndpoint     `yaml:"feeds"`
	KeywordFilters keywordFiltersYAML `yaml:"keyword_filters"`
}

func (c categoryYAML) toConfig() CategoryConfig {
	return CategoryConfig{
		Enabled: boolOrTrue(c.Enabled),
		Emoji:   c.Emoji,
		Feeds:   c.Feeds,
		KeywordFilters: KeywordFilters{
			Enabled:        boolOrTrue(c.KeywordFilters.Enabled),
			HighPriority:   c.KeywordFilters.HighPriority,
			MediumPriority: c.KeywordFilters.MediumPriority,
			LowPriority:    c.KeywordFilters.LowPriority,
			Exclude:        c.KeywordFilters.Exclude,
		},
	}
}

func boolOrTrue(v *bool) bool {
	return v == nil || *v
}

// Categories is an ordered set of named categories. Iteration order is the
// order in which the categories were declared.
type Categories struct {
	names []string
	items map[string]CategoryConfig
}

// NewCategories builds an empty ordered set.
func NewCategories() Categories {
	return Categories{items: map[string]CategoryConfig{}}
}

// Add appends a category, or replaces it in place if the name already exists.
func (c *Categories) Add(name string, cfg CategoryConfig) {
	if c.items == nil {
		c.items = map[string]CategoryConfig{}
	}
	if _, ok := c.items[name]; !ok {
		c.names = append(c.names, name)
	}
	c.items[name] = cfg
}

// Names returns category names in declaration order.
func (c Categories) Names() []string {
	return append([]string(nil), c.names...)
}

// Get looks up a category by name.
func (c Categories) Get(name string) (CategoryConfig, bool) {
	cfg, ok := c.items[name]
	return cfg, ok
}

// Len returns the number of categories.
func (c Categories) Len() int {
	return len(c.names)
}

// UnmarshalYAML decodes a mapping of name → category keeping the key order.
func (c *Categories) UnmarshalYAML(value *yaml.Node) error {
	parsed := NewCategories()
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*c = parsed
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: categories must be a mapping", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		name := strings.TrimSpace(value.Content[i].Value)
		if name == "" {
			return fmt.Errorf("line %d: category name is empty", value.Content[i].Line)
		}
		if _, dup := parsed.items[name]; dup {
			return fmt.Errorf("line %d: duplicate category %q", value.Content[i].Line, name)
		}

		var raw categoryYAML
		if err := value.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		parsed.Add(name, raw.toConfig())
	}

	*c = parsed
	return nil
}
