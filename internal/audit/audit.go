// Package audit records the prompts sent to the completion gateway together
// with run metadata. Recording is best effort: callers log failures and
// carry on.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder persists prompts and their metadata.
type Recorder interface {
	RecordPromptAndMetadata(ctx context.Context, prompt string, metadata map[string]any) error
}

// Entry is one audit record.
type Entry struct {
	ID           string         `json:"id"`
	Time         time.Time      `json:"time"`
	PromptSHA256 string         `json:"prompt_sha256"`
	Prompt       string         `json:"prompt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// PromptDigest returns the hex sha256 of a prompt.
func PromptDigest(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// Nop discards records.
type Nop struct{}

// RecordPromptAndMetadata implements Recorder.
func (Nop) RecordPromptAndMetadata(context.Context, string, map[string]any) error { return nil }

// ZapRecorder writes a structured log line per prompt. The prompt itself is
// summarised by length and digest.
type ZapRecorder struct {
	logger *zap.Logger
}

// NewZapRecorder creates a recorder that logs through logger.
func NewZapRecorder(logger *zap.Logger) *ZapRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapRecorder{logger: logger}
}

// RecordPromptAndMetadata implements Recorder.
func (r *ZapRecorder) RecordPromptAndMetadata(_ context.Context, prompt string, metadata map[string]any) error {
	r.logger.Info("prompt recorded",
		zap.Int("prompt_chars", len(prompt)),
		zap.String("prompt_sha256", PromptDigest(prompt)),
		zap.Any("metadata", metadata),
	)
	return nil
}

// FileRecorder appends JSON lines to a file.
type FileRecorder struct {
	path          string
	includePrompt bool
	now           func() time.Time
	mu            sync.Mutex
}

// NewFileRecorder creates a JSONL recorder at path. When includePrompt is
// false only the prompt digest is stored.
func NewFileRecorder(path string, includePrompt bool) *FileRecorder {
	return &FileRecorder{path: path, includePrompt: includePrompt, now: time.Now}
}

// RecordPromptAndMetadata implements Recorder.
func (r *FileRecorder) RecordPromptAndMetadata(ctx context.Context, prompt string, metadata map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := Entry{
		ID:           uuid.NewString(),
		Time:         r.now().UTC(),
		PromptSHA256: PromptDigest(prompt),
		Metadata:     metadata,
	}
	if r.includePrompt {
		e.Prompt = prompt
	}

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// multi fans a record out to several recorders.
type multi []Recorder

// Multi returns a recorder writing to all of recorders. Every recorder is
// attempted; their errors are joined.
func Multi(recorders ...Recorder) Recorder {
	return multi(recorders)
}

func (m multi) RecordPromptAndMetadata(ctx context.Context, prompt string, metadata map[string]any) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordPromptAndMetadata(ctx, prompt, metadata); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
