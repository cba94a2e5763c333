package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "professor.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Port, "PROFESSOR_PORT")
	setString(&cfg.Server.CORSOrigin, "PROFESSOR_CORS_ORIGIN")
	setString(&cfg.Server.StaticDir, "PROFESSOR_STATIC_DIR")

	setString(&cfg.Logging.Level, "PROFESSOR_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PROFESSOR_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PROFESSOR_LOG_ASYNC")

	// Research pipeline
	setInt(&cfg.Research.ContextBudget, "PROFESSOR_CONTEXT_BUDGET")
	setDuration(&cfg.Research.FetchTimeout, "PROFESSOR_FETCH_TIMEOUT")
	setDuration(&cfg.Research.Retention, "PROFESSOR_RETENTION")
	setDuration(&cfg.Research.SweepInterval, "PROFESSOR_SWEEP_INTERVAL")
	setString(&cfg.Research.FragmentDir, "PROFESSOR_FRAGMENT_DIR")
	setBool(&cfg.Research.KeepFragments, "PROFESSOR_KEEP_FRAGMENTS")
	setInt(&cfg.Research.MaxConcurrent, "PROFESSOR_MAX_CONCURRENT")
	setInt(&cfg.Research.MaxSources, "PROFESSOR_MAX_SOURCES")

	// Collaborators
	setString(&cfg.Search.URL, "PROFESSOR_SEARCH_URL")
	setString(&cfg.Search.APIKey, "SERPER_API_KEY")
	setString(&cfg.LLM.URL, "PROFESSOR_LLM_URL")
	setString(&cfg.LLM.APIKey, "GOOGLE_API_KEY")
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "PROFESSOR_LLM_MODEL")
	setInt(&cfg.LLM.MaxTokens, "PROFESSOR_LLM_MAX_TOKENS")
	setFloat64(&cfg.LLM.Temperature, "PROFESSOR_LLM_TEMPERATURE")

	setInt(&cfg.Breaker.MaxFailures, "PROFESSOR_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PROFESSOR_BREAKER_TIMEOUT")

	setInt64(&cfg.Cache.PageCacheMB, "PROFESSOR_PAGE_CACHE_MB")
	setDuration(&cfg.Cache.PageTTL, "PROFESSOR_PAGE_TTL")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "PROFESSOR_OTEL_INSECURE")

	setBool(&cfg.MCP.Enabled, "PROFESSOR_MCP_ENABLED")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Research.ContextBudget < 1 {
		return errors.New("research.context_budget must be >= 1")
	}
	if cfg.Research.FetchTimeout <= 0 {
		return errors.New("research.fetch_timeout must be > 0")
	}
	if cfg.Research.Retention <= 0 {
		return errors.New("research.retention must be > 0")
	}
	if cfg.Research.SweepInterval <= 0 {
		return errors.New("research.sweep_interval must be > 0")
	}
	if cfg.Research.MaxConcurrent < 1 {
		return errors.New("research.max_concurrent must be >= 1")
	}
	if cfg.Research.FragmentDir == "" {
		return errors.New("research.fragment_dir is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// CLIFlags carries command-line overrides. Nil fields are left untouched.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	NatsURL    *string
	Budget     *int
}

// LoadWithCLI loads the configuration with the hierarchy
// defaults < YAML < ENV < CLI and returns the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
	if flags.Budget != nil {
		cfg.Research.ContextBudget = *flags.Budget
	}
}
