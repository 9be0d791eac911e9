// Package pipeline is the entry point that turns server requirements into a
// packaged, validated MCP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/audit"
	"github.com/buildmcp/buildmcp/internal/cache"
	"github.com/buildmcp/buildmcp/internal/llm"
	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/packager"
	"github.com/buildmcp/buildmcp/internal/prompt"
	"github.com/buildmcp/buildmcp/internal/refine"
	"github.com/buildmcp/buildmcp/internal/rules"
	"github.com/buildmcp/buildmcp/internal/telemetry"
	"github.com/buildmcp/buildmcp/internal/templates"
)

// PackageSaver persists finished packages; *store.Store implements it.
type PackageSaver interface {
	Save(ctx context.Context, pkg *model.ServerPackage) error
}

// Pipeline wires the composer, gateway, validator and packager together.
// It holds no per-run state; concurrent Generate calls are independent.
type Pipeline struct {
	composer  *prompt.Composer
	docs      prompt.DocSource
	validator *rules.Validator
	packager  *packager.Packager
	gateway   refine.Completer
	recorder  audit.Recorder
	saver     PackageSaver
	cache     *cache.PackageCache
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithComposer replaces the default prompt composer.
func WithComposer(c *prompt.Composer) Option {
	return func(p *Pipeline) { p.composer = c }
}

// WithDocSource sets where reference documents come from.
func WithDocSource(src prompt.DocSource) Option {
	return func(p *Pipeline) { p.docs = src }
}

// WithValidator replaces the default validator.
func WithValidator(v *rules.Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithPackager replaces the default packager.
func WithPackager(pk *packager.Packager) Option {
	return func(p *Pipeline) { p.packager = pk }
}

// WithRecorder sets the audit recorder for prompts.
func WithRecorder(r audit.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithStore persists every generated package.
func WithStore(s PackageSaver) Option {
	return func(p *Pipeline) { p.saver = s }
}

// WithCache reuses packages generated for identical requirements.
func WithCache(c *cache.PackageCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithIDGenerator overrides package ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) { p.newID = gen }
}

// New creates a pipeline around a completion gateway.
func New(gateway refine.Completer, opts ...Option) (*Pipeline, error) {
	if gateway == nil {
		return nil, errors.New("pipeline: gateway is required")
	}
	p := &Pipeline{
		gateway:  gateway,
		recorder: audit.Nop{},
		logger:   zap.NewNop(),
		tracer:   telemetry.Tracer("github.com/buildmcp/buildmcp/internal/pipeline"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.composer == nil {
		p.composer = prompt.NewComposer()
	}
	if p.docs == nil {
		p.docs = prompt.EmbeddedSource{}
	}
	if p.validator == nil {
		p.validator = rules.NewValidator(nil)
	}
	if p.packager == nil {
		pk, err := packager.NewDefault()
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.packager = pk
	}
	return p, nil
}

// Validator returns the compliance validator in use.
func (p *Pipeline) Validator() *rules.Validator {
	return p.validator
}

// DefaultLanguage returns the language used when requirements name none.
func (p *Pipeline) DefaultLanguage() model.Language {
	return p.composer.DefaultLanguage()
}

// Generate runs the pipeline for req.
func (p *Pipeline) Generate(ctx context.Context, req model.ServerRequirements) (*model.ServerPackage, error) {
	return p.GenerateObserved(ctx, req, nil)
}

// GenerateObserved is Generate with stage notifications. Only invalid
// requirements or a broken template registry produce an error; gateway
// failures and cancellation end in a fallback package.
func (p *Pipeline) GenerateObserved(ctx context.Context, req model.ServerRequirements, obs Observer) (*model.ServerPackage, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	emit := func(stage Stage, calls int, msg string) {
		obs.OnStage(ctx, Event{Stage: stage, Message: msg, GatewayCalls: calls, Time: p.now()})
	}

	emit(StageValidating, 0, "")
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid requirements")
		emit(StageFailed, 0, err.Error())
		return nil, err
	}

	lang := req.ResolveLanguage(p.composer.DefaultLanguage())
	clients := req.Clients()
	span.SetAttributes(
		attribute.String("buildmcp.language", lang.String()),
		attribute.String("buildmcp.deployment", string(req.Deployment())),
		attribute.Int("buildmcp.clients", len(clients)),
	)

	fingerprint := ""
	if p.cache != nil {
		fingerprint = cache.Fingerprint(req, p.composer.DefaultLanguage())
		if pkg := p.cached(ctx, fingerprint); pkg != nil {
			span.SetAttributes(attribute.Bool("buildmcp.cache_hit", true))
			obs.OnStage(ctx, Event{Stage: StageCached, PackageID: pkg.ID, Time: p.now()})
			return pkg, nil
		}
	}

	emit(StageComposing, 0, "")
	docs := prompt.LoadReferenceDocs(p.docs, lang)
	for _, doc := range []string{docs.Schema, docs.SDK} {
		if prompt.IsPlaceholder(doc) {
			p.logger.Warn("reference document unavailable", zap.String("placeholder", doc))
		}
	}
	initial := p.composer.Compose(req, docs)

	emit(StageGenerating, 0, "")
	gw := newAuditingCompleter(ctx, p.gateway, p.recorder, p.logger, clients)
	defer gw.close()
	cycle := refine.NewCycle(gw, p.validator, p.composer, templates.Fallback, p.logger)
	outcome := cycle.RunObserved(ctx, initial, lang, func(ctx context.Context, to refine.State, snap refine.Outcome) {
		if to == refine.StateRefining {
			emit(StageRefining, snap.GatewayCalls, strings.Join(snap.Verdict.Messages(), "\n"))
		}
	})

	span.SetAttributes(
		attribute.Int("buildmcp.gateway_calls", outcome.GatewayCalls),
		attribute.Bool("buildmcp.refined", outcome.Refined),
		attribute.Bool("buildmcp.used_fallback", outcome.UsedFallback),
		attribute.Bool("buildmcp.valid", outcome.Verdict.IsValid),
	)

	emit(StagePackaging, outcome.GatewayCalls, "")
	bundles, err := p.packager.PackageFor(outcome.Artifact, req.Deployment().TargetKinds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "packaging failed")
		emit(StageFailed, outcome.GatewayCalls, err.Error())
		return nil, fmt.Errorf("package artifact: %w", err)
	}
	configs := p.packager.ClientConfigs(clients, outcome.Artifact)

	pkg := &model.ServerPackage{
		ID:            p.newID(),
		Requirements:  req,
		Artifact:      outcome.Artifact,
		Verdict:       outcome.Verdict,
		Refined:       outcome.Refined,
		UsedFallback:  outcome.UsedFallback,
		ClientConfigs: configs,
		Bundles:       bundles,
		Documentation: packager.BuildDocumentation(configs),
		GeneratedAt:   p.now().UTC(),
	}

	p.logger.Info("server package generated",
		zap.String("id", pkg.ID),
		zap.String("language", pkg.Artifact.Language.String()),
		zap.Bool("valid", pkg.Verdict.IsValid),
		zap.Bool("refined", pkg.Refined),
		zap.Bool("used_fallback", pkg.UsedFallback),
		zap.Int("gateway_calls", outcome.GatewayCalls),
	)

	p.persist(ctx, pkg, fingerprint)
	obs.OnStage(ctx, Event{Stage: StageDone, GatewayCalls: outcome.GatewayCalls, PackageID: pkg.ID, Time: p.now()})
	return pkg, nil
}

func (p *Pipeline) cached(ctx context.Context, fingerprint string) *model.ServerPackage {
	pkg, err := p.cache.Get(ctx, fingerprint)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			p.logger.Warn("package cache lookup failed", zap.Error(err))
		}
		return nil
	}
	p.logger.Debug("package cache hit", zap.String("id", pkg.ID))
	return pkg
}

// persist stores pkg and caches it when it came from the gateway. Failures
// are logged; the caller still receives the package.
func (p *Pipeline) persist(ctx context.Context, pkg *model.ServerPackage, fingerprint string) {
	if p.saver != nil {
		if err := p.saver.Save(ctx, pkg); err != nil {
			p.logger.Warn("failed to persist package", zap.String("id", pkg.ID), zap.Error(err))
		}
	}
	if p.cache != nil && !pkg.UsedFallback {
		if err := p.cache.Put(ctx, fingerprint, pkg); err != nil {
			p.logger.Warn("failed to cache package", zap.String("id", pkg.ID), zap.Error(err))
		}
	}
}

const (
	// auditTimeout bounds each audit write and the wait for pending writes
	// at the end of a run.
	auditTimeout = 2 * time.Second
	// auditQueue matches the most prompts a run sends.
	auditQueue = 2
)

type auditRecord struct {
	prompt string
	mode   string
	meta   map[string]any
}

// auditingCompleter hands every prompt to the recorder before forwarding it.
// Records are written in order by a background goroutine so a slow recorder
// never delays the gateway call.
type auditingCompleter struct {
	next     refine.Completer
	recorder audit.Recorder
	logger   *zap.Logger
	clients  []string

	pending chan auditRecord
	done    chan struct{}
}

func newAuditingCompleter(ctx context.Context, next refine.Completer, recorder audit.Recorder, logger *zap.Logger, clients []string) *auditingCompleter {
	a := &auditingCompleter{
		next:     next,
		recorder: recorder,
		logger:   logger,
		clients:  clients,
		pending:  make(chan auditRecord, auditQueue),
		done:     make(chan struct{}),
	}
	go a.run(context.WithoutCancel(ctx))
	return a
}

func (a *auditingCompleter) run(ctx context.Context) {
	defer close(a.done)
	for rec := range a.pending {
		rctx, cancel := context.WithTimeout(ctx, auditTimeout)
		err := a.recorder.RecordPromptAndMetadata(rctx, rec.prompt, rec.meta)
		cancel()
		if err != nil {
			a.logger.Warn("audit record failed", zap.String("mode", rec.mode), zap.Error(err))
		}
	}
}

func (a *auditingCompleter) Complete(ctx context.Context, text string, mode llm.Mode, lang model.Language) (model.GeneratedArtifact, error) {
	rec := auditRecord{
		prompt: text,
		mode:   mode.String(),
		meta: map[string]any{
			"mode":     mode.String(),
			"language": lang.String(),
			"clients":  a.clients,
		},
	}
	select {
	case a.pending <- rec:
	default:
		a.logger.Warn("audit queue full, record dropped", zap.String("mode", rec.mode))
	}
	return a.next.Complete(ctx, text, mode, lang)
}

// close stops accepting records and waits up to auditTimeout for the queued
// ones to be written.
func (a *auditingCompleter) close() {
	close(a.pending)
	select {
	case <-a.done:
	case <-time.After(auditTimeout):
		a.logger.Warn("audit records still pending after run", zap.Duration("waited", auditTimeout))
	}
}
