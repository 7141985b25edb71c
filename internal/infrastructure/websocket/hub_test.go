package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docmind/backend/internal/domain/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("user_id"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_SendToUser(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("alice") == 1 && hub.ConnectionCount("bob") == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser("alice", events.DocumentStateChanged, map[string]string{"document_id": "d1"}))

	_ = alice.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, string(events.DocumentStateChanged), msg.Type)
	assert.Equal(t, "d1", msg.Data["document_id"])

	// 其他用户收不到
	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}

func TestHub_ForwardsDocumentEvents(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "alice")
	require.Eventually(t, func() bool {
		return hub.ConnectionCount("alice") == 1
	}, time.Second, 10*time.Millisecond)

	bus := &syncBus{}
	unsubscribe := hub.SubscribeDocumentEvents(bus)
	defer unsubscribe()

	bus.Publish(&events.DocumentDeletedEvent{UserID: "alice", DocumentID: "d9", Complete: true, EventTime: time.Now()})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"document.deleted"`)
	assert.Contains(t, string(data), `"document_id":"d9"`)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "alice")
	require.Eventually(t, func() bool {
		return hub.ConnectionCount("alice") == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.ConnectionCount("alice") == 0
	}, time.Second, 10*time.Millisecond)
}

// syncBus 同步分发的最小事件总线
type syncBus struct {
	handlers map[events.EventType][]events.Handler
}

func (b *syncBus) Subscribe(eventType events.EventType, handler events.Handler) func() {
	if b.handlers == nil {
		b.handlers = make(map[events.EventType][]events.Handler)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return func() {}
}

func (b *syncBus) SubscribeMultiple(eventTypes []events.EventType, handler events.Handler) func() {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
	return func() {}
}

func (b *syncBus) Publish(event events.Event) {
	for _, h := range b.handlers[event.Type()] {
		_ = h.HandleEvent(event)
	}
}

func (b *syncBus) Close() {}
