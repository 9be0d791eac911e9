package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildmcp/buildmcp/internal/pipeline"
)

func dialStream(t *testing.T, gen Generator) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(gen, nil).Routes())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readAll(t *testing.T, conn *websocket.Conn) []StreamMessage {
	t.Helper()
	var msgs []StreamMessage
	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestStream_StagesThenPackage(t *testing.T) {
	conn := dialStream(t, &fakeGenerator{})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(validBody)))

	msgs := readAll(t, conn)
	require.Len(t, msgs, 3)
	assert.Equal(t, MessageStage, msgs[0].Type)
	assert.Equal(t, pipeline.StageGenerating, msgs[0].Event.Stage)
	assert.Equal(t, pipeline.StageDone, msgs[1].Event.Stage)
	assert.Equal(t, MessagePackage, msgs[2].Type)
	assert.Equal(t, "pkg-1", msgs[2].Package.ID)
}

func TestStream_InvalidRequirements(t *testing.T) {
	conn := dialStream(t, &fakeGenerator{})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"description":"","target_clients":["x"],"deployment_preference":"local"}`)))

	msgs := readAll(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
	assert.Equal(t, "invalid_requirements", msgs[0].Error.Code)
}

func TestStream_MalformedFirstMessage(t *testing.T) {
	conn := dialStream(t, &fakeGenerator{})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	msgs := readAll(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "invalid_json", msgs[0].Error.Code)
}
