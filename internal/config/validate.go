package config

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// maxEmbedsPerMessage is the webhook's hard cap on units per payload.
const maxEmbedsPerMessage = 10

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Feeds.Validate(); err != nil {
		return fmt.Errorf("feeds: %w", err)
	}
	if err := c.Notifications.Validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if err := c.Summarizer.Validate(); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	return c.Categories.Validate()
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.By(oneOfFold("debug", "info", "warn", "warning", "error"))),
		validation.Field(&c.Format, validation.By(oneOfFold("text", "json"))),
	)
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgres, DriverSQLite)),
		validation.Field(&c.DSN, validation.Required),
	)
}

// Validate validates the feed fetching limits.
func (c *FeedsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxArticlesPerFeed, validation.Required, validation.Min(1)),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.HostInterval, validation.Min(time.Duration(0))),
	)
}

// Validate validates the notification delivery policy.
func (c *NotificationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.WebhookURL, is.URL),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1), validation.Max(maxEmbedsPerMessage)),
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.BatchDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required),
	)
}

// Validate validates the summarizer configuration. The API key is not
// required: a missing key simply leaves the summarizer unconfigured.
func (c *SummarizerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(ProviderGemini, ProviderOpenAI)),
		validation.Field(&c.Model, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.ReaderEndpoint, is.URL),
		validation.Field(&c.Timeout, validation.When(c.Enabled, validation.Required)),
	)
}

// Validate checks every category's feed endpoints.
func (c Categories) Validate() error {
	errs := validation.Errors{}
	for _, name := range c.names {
		cat := c.items[name]
		for i := range cat.Feeds {
			if err := cat.Feeds[i].Validate(); err != nil {
				errs[fmt.Sprintf("categories.%s.feeds[%d]", name, i)] = err
			}
		}
	}
	return errs.Filter()
}

// Validate validates one feed endpoint.
func (f *FeedEndpoint) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.URL, validation.Required, is.URL),
	)
}

func oneOfFold(allowed ...string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if strings.EqualFold(s, a) {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}
