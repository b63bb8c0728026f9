package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

func newTestHub() *Hub {
	h := NewHub(nil, noopLogger{})
	go h.Run()
	return h
}

func attachClient(t *testing.T, h *Hub, userID uuid.UUID) *Client {
	t.Helper()
	c := &Client{Hub: h, UserID: userID, Send: make(chan []byte, 8)}
	h.register <- c
	waitForConnections(t, h, userID, func(conns []*Client) bool {
		for _, conn := range conns {
			if conn == c {
				return true
			}
		}
		return false
	})
	return c
}

func waitForConnections(t *testing.T, h *Hub, userID uuid.UUID, ok func([]*Client) bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		h.mu.RLock()
		conns := append([]*Client(nil), h.clients[userID]...)
		h.mu.RUnlock()
		if ok(conns) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("hub never reached expected connection state")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case raw := <-c.Send:
		return raw
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestSendDeliversOneFramePerEvent(t *testing.T) {
	h := newTestHub()
	userID := uuid.New()
	c := attachClient(t, h, userID)

	h.Send(userID, "chat_stream", map[string]string{"type": "token", "content": "hi"})

	var frame envelope
	require.NoError(t, json.Unmarshal(receive(t, c), &frame))
	assert.Equal(t, "chat_stream", frame.Type)

	select {
	case extra := <-c.Send:
		t.Fatalf("unexpected second frame: %s", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClusterPayloadFromOwnInstanceIsIgnored(t *testing.T) {
	h := newTestHub()
	userID := uuid.New()
	c := attachClient(t, h, userID)

	frame, _ := json.Marshal(envelope{Type: "chat_stream", Data: "x"})
	own, _ := json.Marshal(clusterEvent{
		Origin:       h.instanceID,
		TargetUserID: userID.String(),
		Message:      frame,
	})
	h.handleClusterPayload(own)

	select {
	case raw := <-c.Send:
		t.Fatalf("frame from own instance redelivered: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}

	// The same frame from another instance must go through.
	foreign, _ := json.Marshal(clusterEvent{
		Origin:       uuid.New().String(),
		TargetUserID: userID.String(),
		Message:      frame,
	})
	h.handleClusterPayload(foreign)
	assert.JSONEq(t, string(frame), string(receive(t, c)))
}

func TestStalledClientIsUnregisteredWithoutPanic(t *testing.T) {
	h := newTestHub()
	userID := uuid.New()

	c := &Client{Hub: h, UserID: userID, Send: make(chan []byte)} // no buffer, never drained
	h.register <- c
	waitForConnections(t, h, userID, func(conns []*Client) bool { return len(conns) == 1 })
	healthy := attachClient(t, h, userID)

	// The stalled connection is dropped; the run loop closes Send exactly
	// once even when several events hit the full buffer back to back.
	h.Send(userID, "chat_stream", "a")
	h.Send(userID, "chat_stream", "b")

	waitForConnections(t, h, userID, func(conns []*Client) bool {
		return len(conns) == 1 && conns[0] == healthy
	})
	assert.Len(t, healthy.Send, 2)
}
