package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welldanyogia/webrana-support-assistant/internal/models"
	"github.com/welldanyogia/webrana-support-assistant/internal/pipeline"
)

func TestNewClient_CreatesClientWithConnection(t *testing.T) {
	hub := NewHub(nil)

	client := NewClient(hub, nil, nil)

	assert.Equal(t, hub, client.hub)
	assert.NotNil(t, client.send)
	assert.NotNil(t, client.logger)
}

func TestClient_HandleMessage_ProcessesSubscribe(t *testing.T) {
	// Arrange
	hub := startHub(t)
	client := NewClient(hub, nil, nil)
	hub.Register(client)
	data, err := json.Marshal(WSMessage{Type: MessageTypeSubscribe, Topic: TopicUrgent})
	require.NoError(t, err)

	// Act
	client.handleMessage(data)

	// Assert
	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.subscriptions[TopicUrgent][client]
	}, time.Second, 5*time.Millisecond)
}

func TestClient_HandleMessage_ProcessesUnsubscribe(t *testing.T) {
	// Arrange
	hub := startHub(t)
	client := subscribed(t, hub, TopicCycles)
	data, err := json.Marshal(WSMessage{Type: MessageTypeUnsubscribe, Topic: TopicCycles})
	require.NoError(t, err)

	// Act
	client.handleMessage(data)

	// Assert
	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return !hub.subscriptions[TopicCycles][client]
	}, time.Second, 5*time.Millisecond)
}

func TestClient_HandleMessage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{"invalid json", "invalid json", "invalid message format"},
		{"unknown type", `{"type":"unknown_type"}`, "unknown message type"},
		{"missing topic", `{"type":"subscribe"}`, "unknown topic"},
		{"bad topic", `{"type":"unsubscribe","topic":"mailbox"}`, "unknown topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(NewHub(nil), nil, nil)

			client.handleMessage([]byte(tt.payload))

			frame := receive(t, client)
			assert.Equal(t, MessageTypeError, frame.Type)
			assert.Contains(t, frame.Error, tt.expected)
		})
	}
}

func TestClient_SendChannel_HasBuffer(t *testing.T) {
	client := NewClient(NewHub(nil), nil, nil)

	for i := 0; i < 10; i++ {
		client.sendError("test error")
	}

	assert.Len(t, client.send, 10)
}

func TestClient_PumpsOverRealConnection(t *testing.T) {
	// Arrange
	hub := startHub(t)
	upgrader := NewSecureUpgrader(nil, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, nil)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MessageTypeSubscribe, Topic: TopicMessages}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.subscriptions[TopicMessages]) == 1
	}, time.Second, 5*time.Millisecond)

	// Act
	hub.Publish(t.Context(), pipeline.Event{
		Type:      pipeline.EventMessageResolved,
		MessageID: 12,
		Data:      &models.SupportMessage{ID: 12, Status: models.StatusResolved},
	})

	// Assert
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame WSMessage
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, MessageTypeEvent, frame.Type)
	assert.Equal(t, pipeline.EventMessageResolved, frame.Event.Type)
	assert.Equal(t, uint(12), frame.Event.MessageID)
}
