// Package refine runs the bounded generate → validate → correct cycle.
package refine

import (
	"context"

	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/llm"
	"github.com/buildmcp/buildmcp/internal/model"
)

// State is a refinement cycle state.
type State string

const (
	StateInitial  State = "initial"
	StateRefining State = "refining"
	StateDone     State = "done"
)

// Completer produces artifacts from prompts; *llm.Gateway implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string, mode llm.Mode, lang model.Language) (model.GeneratedArtifact, error)
}

// Validator judges artifacts; *rules.Validator implements it.
type Validator interface {
	Validate(a model.GeneratedArtifact) model.ComplianceVerdict
}

// Prompter builds the corrective prompt; *prompt.Composer implements it.
type Prompter interface {
	Refinement(violations []model.Violation, previous model.GeneratedArtifact) string
}

// FallbackFunc returns the built-in artifact for a language.
type FallbackFunc func(lang model.Language) model.GeneratedArtifact

// Outcome is the result of one cycle run.
type Outcome struct {
	Artifact     model.GeneratedArtifact
	Verdict      model.ComplianceVerdict
	States       []State
	GatewayCalls int
	Refined      bool
	UsedFallback bool
	// GatewayErr is the gateway failure that ended the cycle, if any. It is
	// informational: the outcome always carries an artifact.
	GatewayErr error
}

// TransitionFunc observes state changes during a run.
type TransitionFunc func(ctx context.Context, to State, snapshot Outcome)

// Cycle orchestrates at most one refinement round. It holds no per-run
// state and is safe for concurrent use.
type Cycle struct {
	gateway   Completer
	validator Validator
	prompter  Prompter
	fallback  FallbackFunc
	logger    *zap.Logger
}

// NewCycle creates a cycle. logger may be nil.
func NewCycle(gateway Completer, validator Validator, prompter Prompter, fallback FallbackFunc, logger *zap.Logger) *Cycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cycle{
		gateway:   gateway,
		validator: validator,
		prompter:  prompter,
		fallback:  fallback,
		logger:    logger,
	}
}

// Run executes the cycle for an initial prompt.
func (c *Cycle) Run(ctx context.Context, initialPrompt string, lang model.Language) Outcome {
	return c.RunObserved(ctx, initialPrompt, lang, nil)
}

// RunObserved is Run with a transition observer. The cycle makes at most
// two gateway calls and always ends with an artifact.
func (c *Cycle) RunObserved(ctx context.Context, initialPrompt string, lang model.Language, observe TransitionFunc) Outcome {
	out := Outcome{States: []State{StateInitial}}
	transition := func(to State) {
		out.States = append(out.States, to)
		if observe != nil {
			observe(ctx, to, out)
		}
	}
	if observe != nil {
		observe(ctx, StateInitial, out)
	}

	art, err := c.gateway.Complete(ctx, initialPrompt, llm.ModeInitial, lang)
	out.GatewayCalls++
	if err != nil {
		c.logger.Warn("initial generation failed; using fallback template",
			zap.String("language", lang.String()),
			zap.Error(err),
		)
		out.GatewayErr = err
		out.Artifact = c.fallback(lang)
		out.UsedFallback = true
		out.Verdict = c.validator.Validate(out.Artifact)
		transition(StateDone)
		return out
	}

	out.Artifact = art
	out.Verdict = c.validator.Validate(art)
	if out.Verdict.IsValid {
		transition(StateDone)
		return out
	}

	c.logger.Info("artifact failed compliance; requesting one refinement",
		zap.Int("violations", len(out.Verdict.Violations)),
	)
	transition(StateRefining)

	refined, err := c.gateway.Complete(ctx, c.prompter.Refinement(out.Verdict.Violations, art), llm.ModeRefinement, art.Language)
	out.GatewayCalls++
	if err != nil {
		c.logger.Warn("refinement failed; keeping the initial artifact", zap.Error(err))
		out.GatewayErr = err
		transition(StateDone)
		return out
	}

	out.Artifact = refined
	out.Verdict = c.validator.Validate(refined)
	out.Refined = true
	if !out.Verdict.IsValid {
		c.logger.Info("refined artifact still non-compliant; accepting it",
			zap.Int("violations", len(out.Verdict.Violations)),
		)
	}
	transition(StateDone)
	return out
}
