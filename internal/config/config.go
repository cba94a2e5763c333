// Package config provides hierarchical configuration loading for the research service.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the research service.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Research Research `yaml:"research"`
	Search   Search   `yaml:"search"`
	LLM      LLM      `yaml:"llm"`
	Breaker  Breaker  `yaml:"breaker"`
	Cache    Cache    `yaml:"cache"`
	NATS     NATS     `yaml:"nats"`
	OTEL     OTEL     `yaml:"otel"`
	MCP      MCP      `yaml:"mcp"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	StaticDir  string `yaml:"static_dir"` // optional front-end directory served at /
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Research holds pipeline and task lifecycle settings.
type Research struct {
	ContextBudget int           `yaml:"context_budget"` // max characters in a combined context
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`  // per-source fetch timeout
	Retention     time.Duration `yaml:"retention"`      // task age after which the sweep evicts it
	SweepInterval time.Duration `yaml:"sweep_interval"`
	FragmentDir   string        `yaml:"fragment_dir"`
	KeepFragments bool          `yaml:"keep_fragments"`
	MaxConcurrent int           `yaml:"max_concurrent"` // concurrently running pipelines
	MaxSources    int           `yaml:"max_sources"`
}

// Search holds the web search API configuration.
type Search struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// LLM holds the chat-completions endpoint configuration.
type LLM struct {
	URL         string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the extracted-page cache configuration.
type Cache struct {
	PageCacheMB int64         `yaml:"page_cache_mb"`
	PageTTL     time.Duration `yaml:"page_ttl"`
}

// NATS holds NATS JetStream configuration. An empty URL disables the queue.
type NATS struct {
	URL string `yaml:"url"`
}

// OTEL holds OpenTelemetry export configuration. An empty endpoint disables export.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// MCP toggles the MCP tool endpoint.
type MCP struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "5000",
			CORSOrigin: "*",
		},
		Logging: Logging{
			Level:   "info",
			Service: "professor",
		},
		Research: Research{
			ContextBudget: 7500,
			FetchTimeout:  10 * time.Second,
			Retention:     time.Hour,
			SweepInterval: 5 * time.Minute,
			FragmentDir:   "logs",
			KeepFragments: true,
			MaxConcurrent: 4,
			MaxSources:    10,
		},
		Search: Search{
			URL: "https://google.serper.dev/search",
		},
		LLM: LLM{
			URL:         "http://localhost:4000",
			Model:       "gemini/gemini-2.5-flash",
			MaxTokens:   4096,
			Temperature: 0.3,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Cache: Cache{
			PageCacheMB: 64,
			PageTTL:     30 * time.Minute,
		},
		OTEL: OTEL{
			ServiceName: "professor",
			Insecure:    true,
		},
		MCP: MCP{
			Enabled: true,
		},
	}
}

// Warnings lists settings that are missing but only matter once a task runs.
func (c *Config) Warnings() []string {
	var w []string
	if c.Search.APIKey == "" {
		w = append(w, "SERPER_API_KEY is not set: research tasks will fail at the search stage")
	}
	if c.LLM.APIKey == "" {
		w = append(w, "LLM_API_KEY / GOOGLE_API_KEY is not set: research tasks will fail at the generation stage")
	}
	return w
}
