package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/pipeline"
	"github.com/buildmcp/buildmcp/internal/web/middleware"
)

// sseWriter writes Server-Sent Events and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

// send writes one event whose data is v encoded as single-line JSON.
func (s *sseWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// generateEvents runs the pipeline and streams stage events as SSE. The
// requirements are checked before the stream opens so bad input still gets
// a plain 400.
func (h *Handler) generateEvents(w http.ResponseWriter, r *http.Request) {
	var req model.ServerRequirements
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid_requirements", err.Error())
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		middleware.WriteError(w, r, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	obs := pipeline.ObserverFunc(func(_ context.Context, ev pipeline.Event) {
		if err := sse.send(MessageStage, StreamMessage{Type: MessageStage, Event: &ev}); err != nil {
			h.logger.Debug("sse write failed", zap.Error(err))
		}
	})

	pkg, err := h.generator.GenerateObserved(r.Context(), req, obs)
	if err != nil {
		h.logger.Error("generation failed", zap.Error(err))
		_ = sse.send(MessageError, StreamMessage{Type: MessageError, Error: &middleware.ErrorDetail{
			Status:    http.StatusInternalServerError,
			Code:      "generation_failed",
			Message:   "generation failed",
			RequestID: middleware.GetRequestID(r.Context()),
		}})
		return
	}
	_ = sse.send(MessagePackage, StreamMessage{Type: MessagePackage, Package: pkg})
}
