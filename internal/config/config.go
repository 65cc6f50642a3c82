package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Environment string `toml:"environment"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	RunMigrations  bool   `toml:"run_migrations"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// rate limits
	LoginRateLimitAllowedPerMin    int `toml:"login_rate_limit_allowed_per_min"`
	InsightsRateLimitAllowedPerMin int `toml:"insights_rate_limit_allowed_per_min"`

	// capture
	CaptureTimeoutSeconds int `toml:"capture_timeout_seconds"`
	DraftTTLMinutes       int `toml:"draft_ttl_minutes"`

	// insights
	InsightsCacheSizeMB     int `toml:"insights_cache_size_mb"`
	InsightsCacheTTLSeconds int `toml:"insights_cache_ttl_seconds"`

	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	STT STT `toml:"stt"`
	LLM LLM `toml:"llm"`
}

// STT holds the speech-to-text backend settings. The API key comes from env.
type STT struct {
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	Language          string  `toml:"language"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LLM holds the insights / scan provider settings. The API key comes from env.
type LLM struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	MaxTokens         int     `toml:"max_tokens"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the validated config of the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return t.resolve(env)
}

// Parse is Load for an in-memory TOML document.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return t.resolve(env)
}

func (t *Toml) resolve(env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.CaptureTimeoutSeconds <= 0 {
		c.CaptureTimeoutSeconds = 15
	}
	if c.DraftTTLMinutes <= 0 {
		c.DraftTTLMinutes = 60
	}
	if c.LoginRateLimitAllowedPerMin <= 0 {
		c.LoginRateLimitAllowedPerMin = 5
	}
	if c.InsightsRateLimitAllowedPerMin <= 0 {
		c.InsightsRateLimitAllowedPerMin = 10
	}
	if c.InsightsCacheSizeMB <= 0 {
		c.InsightsCacheSizeMB = 10
	}
	if c.InsightsCacheTTLSeconds <= 0 {
		c.InsightsCacheTTLSeconds = 3600
	}
	if c.STT.Model == "" {
		c.STT.Model = "scribe_v1"
	}
	if c.STT.TimeoutSeconds <= 0 {
		c.STT.TimeoutSeconds = 30
	}
	if c.STT.RequestsPerSecond <= 0 {
		c.STT.RequestsPerSecond = 2
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "anthropic"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 90
	}
	if c.LLM.RequestsPerSecond <= 0 {
		c.LLM.RequestsPerSecond = 1
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
		errs = append(errs, errors.New("postgres host, port and db name are required"))
	}
	if c.RedisHost == "" || c.RedisPort == "" {
		errs = append(errs, errors.New("redis host and port are required"))
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
	}
	return errors.Join(errs...)
}
