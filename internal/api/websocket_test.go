package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
	"github.com/nerrad567/chargebox-core/internal/telemetry"
)

func dialStream(t *testing.T, env *testEnv, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestEventStream_ReceivesExchanges(t *testing.T) {
	env := newTestEnv(t)
	detach := telemetry.Attach(env.gateway.Hooks(), env.srv.Hub())
	defer detach()

	conn := dialStream(t, env, "?chargebox=cp001")
	require.Eventually(t, func() bool { return env.srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// CP002 is not subscribed, so the first frame must be for CP001.
	_, err := env.gateway.Send(context.Background(), "CP002", ocpp.ActionClearCache, nil)
	require.NoError(t, err)
	_, err = env.gateway.Send(context.Background(), "CP001", ocpp.ActionReset, json.RawMessage(`{"type":"Immediate"}`))
	require.NoError(t, err)

	req := readMessage(t, conn)
	assert.Equal(t, WSTypeEvent, req.Type)
	assert.Equal(t, EventTypeRequest, req.EventType)
	assert.Equal(t, "CP001", req.Channel)

	resp := readMessage(t, conn)
	assert.Equal(t, EventTypeResponse, resp.EventType)
	payload, ok := resp.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Reset", payload["action"])
	assert.Equal(t, "server_error", payload["outcome"])
}

func TestEventStream_Subscribe(t *testing.T) {
	env := newTestEnv(t)
	detach := telemetry.Attach(env.gateway.Hooks(), env.srv.Hub())
	defer detach()

	conn := dialStream(t, env, "")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    WSTypeSubscribe,
		"id":      "1",
		"payload": map[string]any{"channels": []string{"*"}},
	}))
	ack := readMessage(t, conn)
	assert.Equal(t, WSTypeResponse, ack.Type)
	assert.Equal(t, "1", ack.ID)

	_, err := env.gateway.Send(context.Background(), "CP009", ocpp.ActionClearCache, nil)
	require.NoError(t, err)

	ev := readMessage(t, conn)
	assert.Equal(t, "CP009", ev.Channel)
	assert.Equal(t, EventTypeRequest, ev.EventType)
}

func TestEventStream_Ping(t *testing.T) {
	env := newTestEnv(t)
	conn := dialStream(t, env, "")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": WSTypePing, "id": "p"}))
	msg := readMessage(t, conn)
	assert.Equal(t, WSTypePong, msg.Type)
	assert.Equal(t, "p", msg.ID)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	assert.Equal(t, WSTypeError, readMessage(t, conn).Type)
}

func TestEventStream_BadChannel(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/events?chargebox=,", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHub_CloseAllOnCancel(t *testing.T) {
	env := newTestEnv(t)
	hub := env.srv.Hub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := dialStream(t, env, "?chargebox=*")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
