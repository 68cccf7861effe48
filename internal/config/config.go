package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "NOTIFYNICHE_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	webhookURLEnv     = "DISCORD_WEBHOOK_URL"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	geminiModelEnv    = "GEMINI_MODEL"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
)

// Database drivers understood by the storage layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Summarizer providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Feeds         FeedsConfig        `yaml:"feeds"`
	Notifications NotificationConfig `yaml:"notifications"`
	Summarizer    SummarizerConfig   `yaml:"summarizer"`
	Categories    Categories         `yaml:"categories"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the article store connection.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when the serve mode runs the pipeline.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FeedsConfig bounds feed fetching.
type FeedsConfig struct {
	MaxArticlesPerFeed int           `yaml:"maxArticlesPerFeed"`
	Timeout            time.Duration `yaml:"timeout"`
	HostInterval       time.Duration `yaml:"hostInterval"`
	UserAgent          string        `yaml:"userAgent"`
}

// NotificationConfig wires the webhook sink and its delivery policy.
type NotificationConfig struct {
	WebhookURL  string        `yaml:"webhookUrl"`
	BatchSize   int           `yaml:"batchSize"`
	MaxAttempts int           `yaml:"maxAttempts"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
	BatchDelay  time.Duration `yaml:"batchDelay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SummarizerConfig describes the optional AI summary step.
type SummarizerConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"apiKey"`
	MaxOutputTokens   int           `yaml:"maxOutputTokens"`
	Temperature       float32       `yaml:"temperature"`
	ContentExtraction bool          `yaml:"contentExtraction"`
	ReaderEndpoint    string        `yaml:"readerEndpoint"`
	Timeout           time.Duration `yaml:"timeout"`
}

// Configured reports whether the summarizer can actually be called.
func (s SummarizerConfig) Configured() bool {
	return s.Enabled && s.APIKey != ""
}

// Load reads YAML configuration on top of the defaults, expands ${VAR}
// references, applies environment overrides and validates the result.
// An empty path falls back to NOTIFYNICHE_CONFIG, then to pure defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Notifications.WebhookURL = v
	}

	switch strings.ToLower(c.Summarizer.Provider) {
	case ProviderOpenAI:
		if v := os.Getenv(openAIAPIKeyEnv); v != "" {
			c.Summarizer.APIKey = v
		}
	default:
		if v := os.Getenv(geminiAPIKeyEnv); v != "" {
			c.Summarizer.APIKey = v
		}
		if v := os.Getenv(geminiModelEnv); v != "" {
			c.Summarizer.Model = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("config: unknown timezone, reverting to default", "timezone", tz, "default", defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Database:  DatabaseConfig{Driver: DriverSQLite, DSN: "notifyniche.db"},
		Scheduler: SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Feeds: FeedsConfig{
			MaxArticlesPerFeed: 10,
			Timeout:            10 * time.Second,
			HostInterval:       500 * time.Millisecond,
			UserAgent:          "NotifyNiche/1.0",
		},
		Notifications: NotificationConfig{
			BatchSize:   10,
			MaxAttempts: 3,
			RetryDelay:  2 * time.Second,
			BatchDelay:  time.Second,
			Timeout:     10 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Enabled:           true,
			Provider:          ProviderGemini,
			Model:             "gemini-2.0-flash-exp",
			MaxOutputTokens:   300,
			Temperature:       0.7,
			ContentExtraction: true,
			ReaderEndpoint:    "https://r.jina.ai/",
			Timeout:           30 * time.Second,
		},
		Categories: NewCategories(),
	}
}
