// Package config loads buildmcp settings from buildmcp.yaml and BUILDMCP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/buildmcp/buildmcp/internal/llm"
	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. BUILDMCP_LLM_MODEL.
const EnvPrefix = "BUILDMCP"

// Config is the complete configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LLMConfig configures the completion gateway.
type LLMConfig struct {
	Provider              string        `mapstructure:"provider"`
	Model                 string        `mapstructure:"model"`
	APIKey                string        `mapstructure:"api_key"`
	BaseURL               string        `mapstructure:"base_url"`
	Timeout               time.Duration `mapstructure:"timeout"`
	MaxRetries            int           `mapstructure:"max_retries"`
	MaxTokens             int           `mapstructure:"max_tokens"`
	InitialTemperature    float64       `mapstructure:"initial_temperature"`
	RefinementTemperature float64       `mapstructure:"refinement_temperature"`
}

// PipelineConfig configures prompt composition and packaging.
type PipelineConfig struct {
	DefaultLanguage   string `mapstructure:"default_language"`
	MaxReferenceChars int    `mapstructure:"max_reference_chars"`
	DocsDir           string `mapstructure:"docs_dir"`
	ServerName        string `mapstructure:"server_name"`
	InstallDir        string `mapstructure:"install_dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RateLimit       int           `mapstructure:"rate_limit"`
	RateWindow      time.Duration `mapstructure:"rate_window"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig configures package persistence. An empty driver disables it.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig configures the package cache and the shared rate limiter. An
// enabled cache with an empty redis_addr is kept in process.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// AuditConfig configures prompt auditing. An empty path logs through zap
// only.
type AuditConfig struct {
	Path           string `mapstructure:"path"`
	IncludePrompts bool   `mapstructure:"include_prompts"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Pretty  bool `mapstructure:"pretty"`
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()
	v.SetDefault("llm.provider", string(llmDefaults.Provider))
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.max_retries", llmDefaults.MaxRetries)
	v.SetDefault("llm.max_tokens", llmDefaults.Initial.MaxTokens)
	v.SetDefault("llm.initial_temperature", llmDefaults.Initial.Temperature)
	v.SetDefault("llm.refinement_temperature", llmDefaults.Refinement.Temperature)

	v.SetDefault("pipeline.default_language", string(model.LanguageTypeScript))
	v.SetDefault("pipeline.max_reference_chars", 4000)
	v.SetDefault("pipeline.docs_dir", "")
	v.SetDefault("pipeline.server_name", "generated-mcp-server")
	v.SetDefault("pipeline.install_dir", "/path/to/generated-mcp-server")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 30)
	v.SetDefault("server.rate_window", time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("store.driver", "")
	v.SetDefault("store.dsn", "")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", time.Hour)

	v.SetDefault("audit.path", "")
	v.SetDefault("audit.include_prompts", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.pretty", false)
}

// providerKeyEnv names the conventional API key variable of each provider,
// consulted when llm.api_key is unset.
var providerKeyEnv = map[string]string{
	string(llm.ProviderAnthropic): "ANTHROPIC_API_KEY",
	string(llm.ProviderGemini):    "GEMINI_API_KEY",
	string(llm.ProviderOpenAI):    "OPENAI_API_KEY",
}

// Load reads configuration. When path is empty, buildmcp.yaml is looked up
// in the working directory and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("buildmcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		if env, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unusable values.
func (c *Config) Validate() error {
	if err := c.Gateway().Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if _, ok := model.ParseLanguage(c.Pipeline.DefaultLanguage); !ok {
		return fmt.Errorf("pipeline.default_language must be typescript or python, got %q", c.Pipeline.DefaultLanguage)
	}
	if c.Pipeline.MaxReferenceChars <= 0 {
		return fmt.Errorf("pipeline.max_reference_chars must be positive, got %d", c.Pipeline.MaxReferenceChars)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %d", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		return fmt.Errorf("server.rate_window must be positive when rate limiting is enabled")
	}
	if c.Store.Driver != "" {
		if _, err := store.DialectFor(c.Store.Driver); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is set")
		}
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// Gateway converts the llm section to a gateway configuration.
func (c *Config) Gateway() llm.Config {
	return llm.Config{
		Provider:   llm.ProviderType(c.LLM.Provider),
		Model:      c.LLM.Model,
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		Timeout:    c.LLM.Timeout,
		MaxRetries: c.LLM.MaxRetries,
		Initial:    llm.ModeSettings{MaxTokens: c.LLM.MaxTokens, Temperature: c.LLM.InitialTemperature},
		Refinement: llm.ModeSettings{MaxTokens: c.LLM.MaxTokens, Temperature: c.LLM.RefinementTemperature},
	}
}

// DefaultLanguage returns the parsed pipeline default language.
func (c *Config) DefaultLanguage() model.Language {
	lang, ok := model.ParseLanguage(c.Pipeline.DefaultLanguage)
	if !ok {
		return model.LanguageTypeScript
	}
	return lang
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
