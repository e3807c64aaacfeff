package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate-insights/internal/logging"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialHub starts the hub, serves a ws endpoint, and returns a connected
// client subscribed to the given subject
func dialHub(t *testing.T, hub *Hub, subjectID string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := hub.NewClient(conn, subjectID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logging.NewNoop())
	go hub.Run(ctx)

	conn := dialHub(t, hub, "alice")
	waitForClients(t, hub, 1)

	hub.Broadcast(InsightEvent{
		Type:      "insights_updated",
		SubjectID: "alice",
		Timestamp: time.Now().UTC(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event InsightEvent
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "insights_updated", event.Type)
	assert.Equal(t, "alice", event.SubjectID)
}

func TestHubSubjectFilter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logging.NewNoop())
	go hub.Run(ctx)

	bobConn := dialHub(t, hub, "bob")
	waitForClients(t, hub, 1)

	hub.Broadcast(InsightEvent{Type: "insights_updated", SubjectID: "alice"})
	hub.Broadcast(InsightEvent{Type: "insights_updated", SubjectID: "bob"})

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event InsightEvent
	require.NoError(t, bobConn.ReadJSON(&event))

	// bob must only see his own subject's event
	assert.Equal(t, "bob", event.SubjectID)
}

func TestHubWildcardSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(logging.NewNoop())
	go hub.Run(ctx)

	conn := dialHub(t, hub, "")
	waitForClients(t, hub, 1)

	hub.Broadcast(InsightEvent{Type: "insights_updated", SubjectID: "anyone"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event InsightEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "anyone", event.SubjectID)
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub(logging.NewNoop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := dialHub(t, hub, "alice")
	waitForClients(t, hub, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection closed by hub shutdown")
}
