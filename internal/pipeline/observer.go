package pipeline

import (
	"context"
	"time"
)

// Stage names a step of a pipeline run as reported to observers.
type Stage string

const (
	StageValidating Stage = "validating"
	StageComposing  Stage = "composing"
	StageGenerating Stage = "generating"
	StageRefining   Stage = "refining"
	StagePackaging  Stage = "packaging"
	StageCached     Stage = "cached"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Event is one stage notification.
type Event struct {
	Stage        Stage     `json:"stage"`
	Message      string    `json:"message,omitempty"`
	GatewayCalls int       `json:"gateway_calls"`
	PackageID    string    `json:"package_id,omitempty"`
	Time         time.Time `json:"time"`
}

// Observer receives stage events synchronously, in order.
type Observer interface {
	OnStage(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// OnStage implements Observer.
func (f ObserverFunc) OnStage(ctx context.Context, ev Event) { f(ctx, ev) }

type nopObserver struct{}

func (nopObserver) OnStage(context.Context, Event) {}
