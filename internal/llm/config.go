// Package llm is the completion gateway: a thin adapter over a remote
// text-completion provider with retry, timeout and response unwrapping.
package llm

import (
	"fmt"
	"time"
)

// ProviderType selects the completion backend.
type ProviderType string

const (
	// ProviderAnthropic uses the Anthropic Messages API.
	ProviderAnthropic ProviderType = "anthropic"

	// ProviderGemini uses the Google Gemini API.
	ProviderGemini ProviderType = "gemini"

	// ProviderOpenAI uses any OpenAI-compatible chat completions endpoint.
	ProviderOpenAI ProviderType = "openai"
)

// Mode distinguishes initial generation from refinement.
type Mode int

const (
	ModeInitial Mode = iota
	ModeRefinement
)

func (m Mode) String() string {
	if m == ModeRefinement {
		return "refinement"
	}
	return "initial"
}

// ModeSettings are the sampling parameters for one mode.
type ModeSettings struct {
	MaxTokens   int
	Temperature float64
}

// Config holds gateway configuration.
type Config struct {
	// Provider is the backend type (anthropic, gemini, openai).
	Provider ProviderType

	// Model is the provider model identifier; empty selects the provider default.
	Model string

	// APIKey authenticates against the provider. When empty the gateway is
	// constructed unavailable rather than failing.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Timeout bounds one Complete call, retries included.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	Initial    ModeSettings
	Refinement ModeSettings
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Timeout:    120 * time.Second,
		MaxRetries: 3,
		Initial:    ModeSettings{MaxTokens: 8192, Temperature: 0.7},
		Refinement: ModeSettings{MaxTokens: 8192, Temperature: 0.2},
	}
}

// Settings returns the sampling parameters for a mode.
func (c Config) Settings(m Mode) ModeSettings {
	if m == ModeRefinement {
		return c.Refinement
	}
	return c.Initial
}

// ModelName returns the configured model or the provider default.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderGemini:
		return "gemini-2.5-pro"
	case ProviderOpenAI:
		return "gpt-4.1"
	default:
		return "claude-sonnet-4-5"
	}
}

// Validate checks that the configuration is usable. A missing API key is
// not a validation error.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid provider type: %q", c.Provider)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative")
	}

	for _, m := range []Mode{ModeInitial, ModeRefinement} {
		s := c.Settings(m)
		if s.MaxTokens <= 0 {
			return fmt.Errorf("%s max tokens must be positive", m)
		}
		if s.Temperature < 0 || s.Temperature > 2 {
			return fmt.Errorf("%s temperature must be between 0 and 2", m)
		}
	}

	return nil
}

// String returns a human-readable identifier for the provider.
func (c Config) String() string {
	return fmt.Sprintf("%s:%s", c.Provider, c.ModelName())
}
