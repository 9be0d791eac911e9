package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/buildmcp/buildmcp/internal/audit"
	"github.com/buildmcp/buildmcp/internal/cache"
	"github.com/buildmcp/buildmcp/internal/cli/config"
	"github.com/buildmcp/buildmcp/internal/llm"
	"github.com/buildmcp/buildmcp/internal/packager"
	"github.com/buildmcp/buildmcp/internal/pipeline"
	"github.com/buildmcp/buildmcp/internal/prompt"
	"github.com/buildmcp/buildmcp/internal/rules"
	"github.com/buildmcp/buildmcp/internal/store"
	"github.com/buildmcp/buildmcp/internal/telemetry"
)

// app carries state shared by every subcommand: parsed flags, the loaded
// configuration and the process logger.
type app struct {
	configPath string
	logLevel   string
	verbose    bool
	noColor    bool
	prompter   prompter

	cfg      *config.Config
	logger   *zap.Logger
	shutdown telemetry.ShutdownFunc
}

// setup loads configuration and builds the logger and telemetry providers.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &configError{err: err}
	}
	a.cfg = cfg

	logger, err := newLogger(a.logLevel, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		PrettyPrint: cfg.Telemetry.Pretty,
	}, "buildmcp", Version)
	if err != nil {
		return fmt.Errorf("failed to initialise telemetry: %w", err)
	}
	a.shutdown = shutdown
	return nil
}

// teardown flushes telemetry and the logger.
func (a *app) teardown() {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// newLogger builds a production logger writing JSON to stderr, leaving
// stdout for command output and MCP frames.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("buildmcp"), nil
}

// services is everything a pipeline run touches, wired from configuration.
type services struct {
	Pipeline *pipeline.Pipeline
	Gateway  *llm.Gateway
	Store    *store.Store
	Cache    cache.Cache
	Redis    *redis.Client

	closers []func() error
}

// Close releases every opened resource.
func (s *services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// buildServices wires the pipeline and its optional store, cache and
// audit trail. The caller must Close the result.
func (a *app) buildServices(ctx context.Context) (_ *services, err error) {
	cfg := a.cfg
	svc := &services{}
	defer func() {
		if err != nil {
			_ = svc.Close()
		}
	}()

	gateway, err := llm.NewGatewayFromConfig(cfg.Gateway(), llm.WithLogger(a.logger.Named("llm")))
	if err != nil {
		return nil, err
	}
	svc.Gateway = gateway

	pk, err := packager.NewDefault(
		packager.WithServerName(cfg.Pipeline.ServerName),
		packager.WithInstallDir(cfg.Pipeline.InstallDir),
	)
	if err != nil {
		return nil, err
	}

	recorders := []audit.Recorder{audit.NewZapRecorder(a.logger.Named("audit"))}
	if cfg.Audit.Path != "" {
		recorders = append(recorders, audit.NewFileRecorder(cfg.Audit.Path, cfg.Audit.IncludePrompts))
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger.Named("pipeline")),
		pipeline.WithComposer(prompt.NewComposer(
			prompt.WithDefaultLanguage(cfg.DefaultLanguage()),
			prompt.WithMaxReferenceChars(cfg.Pipeline.MaxReferenceChars),
		)),
		pipeline.WithDocSource(prompt.NewDocSource(cfg.Pipeline.DocsDir, a.logger.Named("docs"))),
		pipeline.WithValidator(rules.NewValidator(nil)),
		pipeline.WithPackager(pk),
		pipeline.WithRecorder(audit.Multi(recorders...)),
	}

	if cfg.Store.Driver != "" {
		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, a.logger.Named("store"))
		if err != nil {
			return nil, err
		}
		svc.Store = st
		svc.closers = append(svc.closers, st.Close)
		opts = append(opts, pipeline.WithStore(st))
	}

	switch {
	case cfg.Cache.Enabled && cfg.Cache.RedisAddr == "":
		a.logger.Debug("using in-process package cache")
		svc.Cache = cache.NewMemoryCache(cache.DefaultConfig())
	case cfg.Cache.Enabled:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Config:   cache.DefaultConfig(),
		})
		if err != nil {
			return nil, err
		}
		svc.Cache = rc
		svc.Redis = rc.Client()
		svc.closers = append(svc.closers, rc.Close)
	}
	if svc.Cache != nil {
		opts = append(opts, pipeline.WithCache(cache.NewPackageCache(svc.Cache, cfg.Cache.TTL)))
	}

	p, err := pipeline.New(gateway, opts...)
	if err != nil {
		return nil, err
	}
	svc.Pipeline = p
	return svc, nil
}

// configError marks failures to load configuration so Execute can render
// them with configuration guidance.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }
