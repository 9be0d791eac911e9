package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/model"
)

// scriptedProvider returns queued responses in order.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     []scriptedCall
}

type scriptedResponse struct {
	text string
	err  error
}

type scriptedCall struct {
	prompt      string
	maxTokens   int
	temperature float64
}

func (p *scriptedProvider) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, scriptedCall{prompt, maxTokens, temperature})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(p.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	r := p.responses[0]
	p.responses = p.responses[1:]
	return r.text, r.err
}

func (p *scriptedProvider) Name() string { return "scripted:test" }

func zeroBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }

func testGateway(p Provider) *Gateway {
	return NewGateway(p, DefaultConfig(), WithBackOff(zeroBackOff))
}

func TestGateway_CompleteUnwrapsFence(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{text: "```python\nmcp.run()\n```"}}}

	art, err := testGateway(p).Complete(context.Background(), "prompt", ModeInitial, model.LanguageTypeScript)

	require.NoError(t, err)
	assert.Equal(t, "mcp.run()", art.SourceText)
	assert.Equal(t, model.LanguagePython, art.Language, "fence tag overrides expected language")
	assert.False(t, art.Fallback)
}

func TestGateway_UnknownFenceTagKeepsExpectedLanguage(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{text: "```javascript\nx\n```"}}}

	art, err := testGateway(p).Complete(context.Background(), "prompt", ModeInitial, model.LanguageTypeScript)

	require.NoError(t, err)
	assert.Equal(t, model.LanguageTypeScript, art.Language)
}

func TestGateway_ModeSelectsSettings(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{text: "a"}, {text: "b"}}}
	g := testGateway(p)

	_, err := g.Complete(context.Background(), "one", ModeInitial, model.LanguageTypeScript)
	require.NoError(t, err)
	_, err = g.Complete(context.Background(), "two", ModeRefinement, model.LanguageTypeScript)
	require.NoError(t, err)

	require.Len(t, p.calls, 2)
	assert.Equal(t, scriptedCall{"one", 8192, 0.7}, p.calls[0])
	assert.Equal(t, scriptedCall{"two", 8192, 0.2}, p.calls[1])
}

func TestGateway_Unavailable(t *testing.T) {
	g := NewGateway(nil, DefaultConfig())

	assert.False(t, g.Available())
	_, err := g.Complete(context.Background(), "p", ModeInitial, model.LanguagePython)
	assert.ErrorIs(t, err, model.ErrGatewayUnavailable)
}

func TestNewGatewayFromConfig_MissingKeyIsUnavailable(t *testing.T) {
	g, err := NewGatewayFromConfig(DefaultConfig())

	require.NoError(t, err)
	assert.False(t, g.Available())
}

func TestNewGatewayFromConfig_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "bogus"
	cfg.APIKey = "k"

	_, err := NewGatewayFromConfig(cfg)
	assert.Error(t, err)
}

func TestGateway_RetriesTransientErrors(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{
		{err: &StatusError{StatusCode: 429}},
		{err: &StatusError{StatusCode: 503}},
		{text: "ok"},
	}}

	art, err := testGateway(p).Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)

	require.NoError(t, err)
	assert.Equal(t, "ok", art.SourceText)
	assert.Len(t, p.calls, 3)
}

func TestGateway_StopsAfterMaxRetries(t *testing.T) {
	p := &scriptedProvider{}
	for i := 0; i < 10; i++ {
		p.responses = append(p.responses, scriptedResponse{err: &StatusError{StatusCode: 500}})
	}
	cfg := DefaultConfig()
	cfg.MaxRetries = 2

	_, err := NewGateway(p, cfg, WithBackOff(zeroBackOff)).Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)

	assert.ErrorIs(t, err, model.ErrGatewayError)
	assert.Len(t, p.calls, 3)
}

func TestGateway_DoesNotRetryClientErrors(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{err: &StatusError{StatusCode: 400}}, {text: "ok"}}}

	_, err := testGateway(p).Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)

	assert.ErrorIs(t, err, model.ErrGatewayError)
	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Len(t, p.calls, 1)
}

func TestGateway_CancelledContext(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{text: "ok"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testGateway(p).Complete(ctx, "p", ModeInitial, model.LanguageTypeScript)

	assert.ErrorIs(t, err, model.ErrGatewayError)
	assert.LessOrEqual(t, len(p.calls), 1)
}

func TestGateway_Timeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	g := NewGateway(providerFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), cfg, WithBackOff(zeroBackOff))

	start := time.Now()
	_, err := g.Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)

	assert.ErrorIs(t, err, model.ErrGatewayError)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGateway_EmptyResponses(t *testing.T) {
	p := &scriptedProvider{responses: []scriptedResponse{{text: "  \n"}, {text: "```ts\n\n```"}}}
	g := testGateway(p)

	_, err := g.Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)
	assert.ErrorIs(t, err, model.ErrGatewayError)

	_, err = g.Complete(context.Background(), "p", ModeInitial, model.LanguageTypeScript)
	assert.ErrorIs(t, err, model.ErrMalformedArtifact)
}

type providerFunc func(ctx context.Context) (string, error)

func (f providerFunc) Complete(ctx context.Context, _ string, _ int, _ float64) (string, error) {
	return f(ctx)
}

func (f providerFunc) Name() string { return "func:test" }
