package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubDeliversEventToConnectedUser(t *testing.T) {
	hub := NewHub(func(r *http.Request) bool { return true })
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, "user-1"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Serve registers before returning, so the connection is routable as
	// soon as Dial succeeds.
	hub.Emit("user-1", "quali:next-question", map[string]string{"id": "q-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.Event != "quali:next-question" {
		t.Fatalf("expected quali:next-question, got %q", event.Event)
	}
}

func TestHubEmitToUnknownUserIsNoop(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	// Must not panic or block.
	hub.Emit("nobody", "quali:next-question", nil)
}
