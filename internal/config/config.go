package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// scoring
	ScoringCalibrationPath string `toml:"scoring_calibration_path"`
	ScoreCacheSizeMB       int    `toml:"score_cache_size_mb"`
	ScoreCacheTTLSeconds   int    `toml:"score_cache_ttl_seconds"`

	Chat Chat `toml:"chat"`
}

type Chat struct {
	BaseURL            string   `toml:"base_url"`
	Model              string   `toml:"model"`
	SystemPrompt       string   `toml:"system_prompt"`
	MaxTokens          int      `toml:"max_tokens"`
	Temperature        float64  `toml:"temperature"` // 0 means unset
	Timeout            Duration `toml:"timeout"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
}

// Duration decodes TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file and returns the config of the given environment,
// with defaults filled in for everything left out.
func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] missing in %s", env, path)
	}

	cfg.setDefaults()
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config for env [%s]: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.ScoreCacheSizeMB == 0 {
		c.ScoreCacheSizeMB = 10
	}
	if c.ScoreCacheTTLSeconds == 0 {
		c.ScoreCacheTTLSeconds = 60 * 60
	}

	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = "https://api.openai.com/v1"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gpt-4o-mini"
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = DefaultChatSystemPrompt
	}
	if c.Chat.MaxTokens == 0 {
		c.Chat.MaxTokens = 500
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = 0.7
	}
	if c.Chat.Timeout.Duration == 0 {
		c.Chat.Timeout.Duration = 30 * time.Second
	}
	if c.Chat.RateLimitPerMinute == 0 {
		c.Chat.RateLimitPerMinute = 20
	}
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.ScoreCacheSizeMB < 0 {
		return fmt.Errorf("score cache size must be >= 0, got %d", c.ScoreCacheSizeMB)
	}
	if c.ScoreCacheTTLSeconds < 0 {
		return fmt.Errorf("score cache ttl must be >= 0, got %d", c.ScoreCacheTTLSeconds)
	}
	if c.Chat.MaxTokens < 0 {
		return fmt.Errorf("chat max tokens must be >= 0, got %d", c.Chat.MaxTokens)
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		return fmt.Errorf("chat temperature %.2f outside [0,2]", c.Chat.Temperature)
	}
	if c.Chat.RateLimitPerMinute < 0 {
		return fmt.Errorf("chat rate limit must be >= 0, got %d", c.Chat.RateLimitPerMinute)
	}
	return nil
}

const DefaultChatSystemPrompt = "You are a sports performance assistant for a wrestling and strength " +
	"athlete dashboard. Answer questions about training, recovery, body composition and " +
	"nutrition concisely. You are not a doctor; suggest consulting a professional for medical issues."
