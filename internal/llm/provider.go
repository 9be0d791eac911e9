package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/genai"

	"github.com/buildmcp/buildmcp/internal/model"
)

// Provider is one completion backend.
type Provider interface {
	// Complete sends a prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)

	// Name identifies the provider and model for logs and spans.
	Name() string
}

// NewProvider creates the provider selected by cfg. It fails with
// model.ErrGatewayUnavailable when no API key is configured.
func NewProvider(cfg Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured for %s", model.ErrGatewayUnavailable, cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicProvider(cfg), nil
	case ProviderGemini:
		p, err := newGeminiProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderOpenAI:
		return newOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}

// StatusError is a non-2xx response from an HTTP provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// isRetryable classifies transient provider failures: rate limiting,
// server errors and network timeouts. Cancellation never retries.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if code, ok := statusCode(err); ok {
		return code == 429 || code >= 500
	}

	return false
}

func statusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode, true
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code, true
	}

	return 0, false
}

// truncateForError truncates response bodies in error messages so large or
// sensitive payloads do not end up in logs.
func truncateForError(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}
