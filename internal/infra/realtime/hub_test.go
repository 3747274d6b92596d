package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/event"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.Handle))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_PublishReachesClient(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	sent := event.CodeEvent{Code: "ABCD1234", Action: model.ActionUsed, Timestamp: time.Now().UTC()}
	hub.Publish(sent)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got event.CodeEvent
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Code != sent.Code || got.Action != sent.Action {
		t.Fatalf("expected %+v, got %+v", sent, got)
	}
}

func TestHub_DropsDisconnectedClient(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)

	// Publishing with no clients must not panic or block.
	hub.Publish(event.CodeEvent{Code: "ABCD1234", Action: model.ActionRevoked, Timestamp: time.Now().UTC()})
}
