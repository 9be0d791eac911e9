package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
	"github.com/buildmcp/buildmcp/internal/pipeline"
	"github.com/buildmcp/buildmcp/internal/web/middleware"
)

const (
	writeWait = 10 * time.Second
	// readWait bounds how long a client may take to send its requirements.
	readWait = 30 * time.Second
)

// Stream message types.
const (
	MessageStage   = "stage"
	MessagePackage = "package"
	MessageError   = "error"
)

// StreamMessage is one frame sent over the generation stream.
type StreamMessage struct {
	Type    string                  `json:"type"`
	Event   *pipeline.Event         `json:"event,omitempty"`
	Package *model.ServerPackage    `json:"package,omitempty"`
	Error   *middleware.ErrorDetail `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API serves non-browser clients; origin checks are left to a proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// generateStream upgrades to a websocket, reads one requirements document,
// streams stage events and ends with the package or an error.
func (h *Handler) generateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := func(msg StreamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}
	fail := func(status int, code, message string) {
		_ = send(StreamMessage{Type: MessageError, Error: &middleware.ErrorDetail{
			Status:    status,
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		}})
	}

	var req model.ServerRequirements
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	if err := conn.ReadJSON(&req); err != nil {
		fail(http.StatusBadRequest, "invalid_json", err.Error())
		h.closeStream(conn, nil)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	// Watch for the client going away so the run can be cancelled.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	obs := pipeline.ObserverFunc(func(_ context.Context, ev pipeline.Event) {
		if err := send(StreamMessage{Type: MessageStage, Event: &ev}); err != nil {
			h.logger.Debug("stream write failed", zap.Error(err))
		}
	})

	pkg, err := h.generator.GenerateObserved(ctx, req, obs)
	switch {
	case errors.Is(err, model.ErrInvalidRequirements):
		fail(http.StatusBadRequest, "invalid_requirements", err.Error())
	case err != nil:
		h.logger.Error("generation failed", zap.Error(err))
		fail(http.StatusInternalServerError, "generation_failed", "generation failed")
	default:
		_ = send(StreamMessage{Type: MessagePackage, Package: pkg})
	}
	h.closeStream(conn, readerDone)
}

func (h *Handler) closeStream(conn *websocket.Conn, readerDone <-chan struct{}) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	_ = conn.Close()
	if readerDone != nil {
		<-readerDone
	}
}
