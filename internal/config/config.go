package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort     string `yaml:"server_port"`
	DatabaseType   string `yaml:"database_type"`
	DatabasePath   string `yaml:"database_path"`
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`
	LogLevel       string `yaml:"log_level"`

	// Text generation service
	LLMBaseURL     string        `yaml:"llm_base_url"`
	LLMAPIKey      string        `yaml:"llm_api_key"`
	LLMModel       string        `yaml:"llm_model"`
	LLMTemperature float64       `yaml:"llm_temperature"`
	LLMMaxTokens   int           `yaml:"llm_max_tokens"`
	LLMTimeout     time.Duration `yaml:"llm_timeout"`

	// Retry policy around single generation calls
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`
	RetryMaxBackoff  time.Duration `yaml:"retry_max_backoff"`

	// API authentication; empty disables token checks
	APITokenSecret string `yaml:"api_token_secret"`

	// Manual generation requests allowed per child per window
	GenerateRateLimit  int           `yaml:"generate_rate_limit"`
	GenerateRateWindow time.Duration `yaml:"generate_rate_window"`

	// Weekly batch; zero interval disables the schedule
	BatchInterval time.Duration `yaml:"batch_interval"`

	// Email notification of new summaries via SES; empty from address disables it
	AWSRegion          string `yaml:"aws_region"`
	SESFromEmail       string `yaml:"ses_from_email"`
	SESFromName        string `yaml:"ses_from_name"`
	SummaryNotifyEmail string `yaml:"summary_notify_email"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerPort:         "8080",
		DatabaseType:       "sqlite",
		DatabasePath:       "./growthtrack.db",
		MigrationsPath:     "./migrations",
		LogLevel:           "info",
		LLMBaseURL:         "https://api.openai.com/v1",
		LLMModel:           "gpt-4o-mini",
		LLMTemperature:     0.7,
		LLMMaxTokens:       600,
		LLMTimeout:         120 * time.Second,
		RetryMaxAttempts:   3,
		RetryBackoffBase:   2 * time.Second,
		RetryMaxBackoff:    30 * time.Second,
		GenerateRateLimit:  5,
		GenerateRateWindow: time.Hour,
		BatchInterval:      7 * 24 * time.Hour,
		AWSRegion:          "us-east-1",
		SESFromName:        "Growth Tracker",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing precedence
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validate checks values that would otherwise fail late at runtime
func (cfg *Config) Validate() error {
	switch strings.ToLower(cfg.DatabaseType) {
	case "", "sqlite", "sqlite3":
	case "postgres", "postgresql", "mysql":
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", cfg.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	if cfg.RetryMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.LLMMaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLMMaxTokens)
	}
	if cfg.BatchInterval < 0 {
		return fmt.Errorf("BATCH_INTERVAL must not be negative, got %s", cfg.BatchInterval)
	}

	for key, email := range map[string]string{
		"SES_FROM_EMAIL":       cfg.SESFromEmail,
		"SUMMARY_NOTIFY_EMAIL": cfg.SummaryNotifyEmail,
	} {
		if email != "" && !emailRegex.MatchString(strings.TrimSpace(email)) {
			return fmt.Errorf("invalid %s: %q", key, email)
		}
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel
func (cfg *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	return level, nil
}

// MergeFile overlays the fields present in a YAML file onto cfg
func (cfg *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	cfg.ServerPort = getEnv("PORT", cfg.ServerPort)
	cfg.DatabaseType = getEnv("DB_TYPE", cfg.DatabaseType)
	cfg.DatabasePath = getEnv("DB_PATH", cfg.DatabasePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.MigrationsPath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.APITokenSecret = getEnv("API_TOKEN_SECRET", cfg.APITokenSecret)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.SESFromEmail = getEnv("SES_FROM_EMAIL", cfg.SESFromEmail)
	cfg.SESFromName = getEnv("SES_FROM_NAME", cfg.SESFromName)
	cfg.SummaryNotifyEmail = getEnv("SUMMARY_NOTIFY_EMAIL", cfg.SummaryNotifyEmail)

	var err error
	if cfg.LLMTemperature, err = getEnvFloat("LLM_TEMPERATURE", cfg.LLMTemperature); err != nil {
		return err
	}
	if cfg.LLMMaxTokens, err = getEnvInt("LLM_MAX_TOKENS", cfg.LLMMaxTokens); err != nil {
		return err
	}
	if cfg.LLMTimeout, err = getEnvDuration("LLM_TIMEOUT", cfg.LLMTimeout); err != nil {
		return err
	}
	if cfg.RetryMaxAttempts, err = getEnvInt("LLM_MAX_ATTEMPTS", cfg.RetryMaxAttempts); err != nil {
		return err
	}
	if cfg.RetryBackoffBase, err = getEnvDuration("LLM_BACKOFF_BASE", cfg.RetryBackoffBase); err != nil {
		return err
	}
	if cfg.RetryMaxBackoff, err = getEnvDuration("LLM_MAX_BACKOFF", cfg.RetryMaxBackoff); err != nil {
		return err
	}
	if cfg.GenerateRateLimit, err = getEnvInt("GENERATE_RATE_LIMIT", cfg.GenerateRateLimit); err != nil {
		return err
	}
	if cfg.GenerateRateWindow, err = getEnvDuration("GENERATE_RATE_WINDOW", cfg.GenerateRateWindow); err != nil {
		return err
	}
	if cfg.BatchInterval, err = getEnvDuration("BATCH_INTERVAL", cfg.BatchInterval); err != nil {
		return err
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
