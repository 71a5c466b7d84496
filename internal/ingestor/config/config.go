package config

import (
	"errors"
	"fmt"
	"time"

	"roundtable-ingestor/pkg/config"
)

// FeedSource is one entry of the seed feed list.
type FeedSource struct {
	Name   string `mapstructure:"name"`
	URL    string `mapstructure:"url"`
	Region string `mapstructure:"region"`
}

// Ingestion holds the pipeline tuning knobs.
type Ingestion struct {
	RelevanceThreshold     float64       `mapstructure:"relevance_threshold"`
	MaxItemsPerFeed        int           `mapstructure:"max_items_per_feed"`
	ScoreBatchSize         int           `mapstructure:"score_batch_size"`
	SummarizeBatchSize     int           `mapstructure:"summarize_batch_size"`
	MinContentLength       int           `mapstructure:"min_content_length"`
	MinExtractedLength     int           `mapstructure:"min_extracted_length"`
	MaxContentLength       int           `mapstructure:"max_content_length"`
	FeedTimeout            time.Duration `mapstructure:"feed_timeout"`
	ContentTimeout         time.Duration `mapstructure:"content_timeout"`
	ContentCacheTTL        time.Duration `mapstructure:"content_cache_ttl"`
	Extractor              string        `mapstructure:"extractor"`
	SummarizeDelay         time.Duration `mapstructure:"summarize_delay"`
	ExtractiveMaxSentences int           `mapstructure:"extractive_max_sentences"`
	WatchSchedule          string        `mapstructure:"watch_schedule"`
	Feeds                  []FeedSource  `mapstructure:"feeds"`
}

// Summarizer selects the summarization strategy.
type Summarizer struct {
	// Provider is one of "extractive", "gemini" or "ollama".
	Provider string `mapstructure:"provider"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

// Ollama holds the configuration for a local Ollama server.
type Ollama struct {
	ServerURL string        `mapstructure:"server_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Auth protects the HTTP ingestion trigger.
type Auth struct {
	IngestSecret string `mapstructure:"ingest_secret"`
}

// RunLock guards against overlapping runs across processes.
type RunLock struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Telegram holds configuration for the run report notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the ingestion service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	API        config.API      `mapstructure:"api"`
	Auth       Auth            `mapstructure:"auth"`
	Ingestion  Ingestion       `mapstructure:"ingestion"`
	Summarizer Summarizer      `mapstructure:"summarizer"`
	Gemini     Gemini          `mapstructure:"gemini"`
	Ollama     Ollama          `mapstructure:"ollama"`
	RunLock    RunLock         `mapstructure:"run_lock"`
	Telegram   Telegram        `mapstructure:"telegram"`
}

const (
	ProviderExtractive = "extractive"
	ProviderGemini     = "gemini"
	ProviderOllama     = "ollama"

	ExtractorSelector    = "selector"
	ExtractorReadability = "readability"
)

// DefaultFeeds is the Pennsylvania feed list used when the config names none.
var DefaultFeeds = []FeedSource{
	{Name: "Philadelphia Inquirer", URL: "https://www.inquirer.com/arcio/rss/category/news/", Region: "Philadelphia"},
	{Name: "Pittsburgh Post-Gazette", URL: "https://www.post-gazette.com/rss/local", Region: "Pittsburgh"},
	{Name: "PennLive", URL: "https://www.pennlive.com/arc/outboundfeeds/rss/?outputType=xml", Region: "Statewide"},
	{Name: "WHYY", URL: "https://whyy.org/feed/", Region: "Philadelphia"},
	{Name: "WESA Pittsburgh", URL: "https://www.wesa.fm/rss.xml", Region: "Pittsburgh"},
	{Name: "Spotlight PA", URL: "https://www.spotlightpa.org/news/feed/", Region: "Statewide"},
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                           "roundtable-ingestor",
		"logger.level":                       "info",
		"logger.encoding":                    "json",
		"database.port":                      5432,
		"database.ssl_mode":                  "disable",
		"database.time_zone":                 "UTC",
		"redis.port":                         6379,
		"api.port":                           8080,
		"auth.ingest_secret":                 "",
		"ingestion.relevance_threshold":      0.3,
		"ingestion.max_items_per_feed":       10,
		"ingestion.score_batch_size":         20,
		"ingestion.summarize_batch_size":     5,
		"ingestion.min_content_length":       500,
		"ingestion.min_extracted_length":     200,
		"ingestion.max_content_length":       10000,
		"ingestion.feed_timeout":             "10s",
		"ingestion.content_timeout":          "10s",
		"ingestion.content_cache_ttl":        "10m",
		"ingestion.extractor":                ExtractorSelector,
		"ingestion.summarize_delay":          "500ms",
		"ingestion.extractive_max_sentences": 4,
		"ingestion.watch_schedule":           "@every 5m",
		"summarizer.provider":                ProviderExtractive,
		"gemini.model":                       "gemini-2.0-flash",
		"gemini.timeout":                     "20s",
		"gemini.max_request_per_minute":      15,
		"gemini.max_token_per_minute":        250000,
		"ollama.server_url":                  "http://localhost:11434",
		"ollama.model":                       "llama3.1",
		"ollama.timeout":                     "60s",
		"run_lock.enabled":                   false,
		"run_lock.ttl":                       "15m",
		"telegram.enabled":                   false,
	}
}

// Load loads the ingestion configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	if len(cfg.Ingestion.Feeds) == 0 {
		cfg.Ingestion.Feeds = DefaultFeeds
	}
	return &cfg, nil
}

// Validate reports malformed run configuration. Callers treat it as fatal.
func (c *Config) Validate() error {
	var errs []error

	in := c.Ingestion
	if in.RelevanceThreshold < 0 || in.RelevanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("ingestion.relevance_threshold must be within [0,1], got %v", in.RelevanceThreshold))
	}
	if in.MaxItemsPerFeed <= 0 {
		errs = append(errs, errors.New("ingestion.max_items_per_feed must be positive"))
	}
	if in.ScoreBatchSize <= 0 || in.SummarizeBatchSize <= 0 {
		errs = append(errs, errors.New("ingestion batch sizes must be positive"))
	}
	if in.MaxContentLength <= 0 {
		errs = append(errs, errors.New("ingestion.max_content_length must be positive"))
	}
	if in.FeedTimeout <= 0 || in.ContentTimeout <= 0 {
		errs = append(errs, errors.New("ingestion timeouts must be positive"))
	}
	switch in.Extractor {
	case ExtractorSelector, ExtractorReadability:
	default:
		errs = append(errs, fmt.Errorf("unknown ingestion.extractor %q", in.Extractor))
	}
	for i, feed := range in.Feeds {
		if feed.URL == "" || feed.Name == "" {
			errs = append(errs, fmt.Errorf("ingestion.feeds[%d] needs both name and url", i))
		}
	}

	switch c.Summarizer.Provider {
	case ProviderExtractive:
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini.api_key is required for the gemini provider"))
		}
		if c.Gemini.MaxRequestPerMinute <= 0 {
			errs = append(errs, errors.New("gemini.max_request_per_minute must be positive"))
		}
	case ProviderOllama:
		if c.Ollama.ServerURL == "" || c.Ollama.Model == "" {
			errs = append(errs, errors.New("ollama.server_url and ollama.model are required for the ollama provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.provider %q", c.Summarizer.Provider))
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.bot_token is required when telegram is enabled"))
	}

	return errors.Join(errs...)
}

// ValidateServe adds the checks that only apply to the HTTP trigger.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.IngestSecret == "" {
		return errors.New("auth.ingest_secret is required to expose the ingestion endpoint")
	}
	return nil
}
