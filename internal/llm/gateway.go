package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/telemetry"
)

const scope = "github.com/buildmcp/buildmcp/internal/llm"

// Gateway turns prompts into generated artifacts through a Provider.
// A Gateway without a provider is unavailable and fails every call with
// model.ErrGatewayUnavailable.
type Gateway struct {
	provider   Provider
	cfg        Config
	logger     *zap.Logger
	newBackOff func() backoff.BackOff

	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithBackOff overrides the retry schedule. BackOff values are stateful, so
// the factory is called once per Complete.
func WithBackOff(factory func() backoff.BackOff) GatewayOption {
	return func(g *Gateway) {
		g.newBackOff = factory
	}
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 8 * time.Second
	bo.MaxElapsedTime = 0
	return bo
}

// NewGateway creates a gateway over provider. provider may be nil.
func NewGateway(provider Provider, cfg Config, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:   provider,
		cfg:        cfg,
		logger:     zap.NewNop(),
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(g)
	}

	m := telemetry.Meter(scope)
	g.calls, _ = m.Int64Counter("buildmcp.llm.calls",
		metric.WithDescription("Completion gateway calls by outcome"),
		metric.WithUnit("{call}"),
	)
	g.duration, _ = m.Float64Histogram("buildmcp.llm.call.duration",
		metric.WithDescription("Completion gateway call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return g
}

// NewGatewayFromConfig builds the configured provider. A missing API key
// yields an unavailable gateway and a warning instead of an error.
func NewGatewayFromConfig(cfg Config, opts ...GatewayOption) (*Gateway, error) {
	provider, err := NewProvider(cfg)
	if err != nil && !errors.Is(err, model.ErrGatewayUnavailable) {
		return nil, err
	}
	g := NewGateway(provider, cfg, opts...)
	if err != nil {
		g.logger.Warn("completion gateway unavailable; generation will use fallback templates",
			zap.String("provider", string(cfg.Provider)),
			zap.Error(err),
		)
	}
	return g, nil
}

// Available reports whether the gateway has a provider.
func (g *Gateway) Available() bool {
	return g.provider != nil
}

// Config returns the gateway configuration.
func (g *Gateway) Config() Config {
	return g.cfg
}

// Complete sends prompt in the given mode and unwraps the response into an
// artifact. lang is the expected language; a recognised fence tag in the
// response overrides it.
func (g *Gateway) Complete(ctx context.Context, prompt string, mode Mode, lang model.Language) (model.GeneratedArtifact, error) {
	if g.provider == nil {
		return model.GeneratedArtifact{}, fmt.Errorf("%w: no completion provider configured", model.ErrGatewayUnavailable)
	}

	ctx, span := telemetry.Tracer(scope).Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("buildmcp.llm.provider", g.provider.Name()),
		attribute.String("buildmcp.llm.mode", mode.String()),
	)

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	settings := g.cfg.Settings(mode)
	start := time.Now()
	attempts := 0
	var raw string
	op := func() error {
		attempts++
		text, err := g.provider.Complete(ctx, prompt, settings.MaxTokens, settings.Temperature)
		if err == nil {
			raw = text
			return nil
		}
		if ctx.Err() != nil || !isRetryable(err) {
			return backoff.Permanent(err)
		}
		g.logger.Debug("retrying completion",
			zap.String("provider", g.provider.Name()),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.cfg.MaxRetries)), ctx)
	err := backoff.Retry(op, bo)

	span.SetAttributes(attribute.Int("buildmcp.llm.attempts", attempts))
	g.record(ctx, mode, start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("completion failed",
			zap.String("provider", g.provider.Name()),
			zap.String("mode", mode.String()),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return model.GeneratedArtifact{}, fmt.Errorf("%w: %s after %d attempt(s): %w", model.ErrGatewayError, g.provider.Name(), attempts, err)
	}

	if strings.TrimSpace(raw) == "" {
		span.SetStatus(codes.Error, "empty response")
		return model.GeneratedArtifact{}, fmt.Errorf("%w: %s returned empty content", model.ErrGatewayError, g.provider.Name())
	}

	source, tag := Unwrap(raw)
	if source == "" {
		span.SetStatus(codes.Error, "malformed artifact")
		return model.GeneratedArtifact{}, fmt.Errorf("%w: response contained an empty code block", model.ErrMalformedArtifact)
	}

	if declared, ok := model.ParseLanguage(tag); ok {
		lang = declared
	}
	return model.GeneratedArtifact{SourceText: source, Language: lang}, nil
}

func (g *Gateway) record(ctx context.Context, mode Mode, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode.String()),
		attribute.String("outcome", outcome),
	)
	if g.calls != nil {
		g.calls.Add(ctx, 1, attrs)
	}
	if g.duration != nil {
		g.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	}
}
