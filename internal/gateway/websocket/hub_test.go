package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cosinnus_server/internal/infrastructure/mq"
	"cosinnus_server/internal/model"
)

func dial(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(w, r, userID); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Online(userID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHubPushesToAffectedUser(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)
	alice := dial(t, hub, 7)
	bob := dial(t, hub, 8)

	status := model.StatusMember
	evt := mq.NewMembershipEvent("group", mq.ActionCreated, 3, 7, nil, &status)
	if err := hub.Handle(context.Background(), evt); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alice.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := mq.DecodeMembershipEvent(data)
	if err != nil || got.ID != evt.ID || got.GroupID != 3 {
		t.Fatalf("unexpected event %+v, %v", got, err)
	}

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Fatal("unrelated user must not receive the event")
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)
	conn := dial(t, hub, 9)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Online(9) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not unregistered after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := hub.Serve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), 0); err == nil {
		t.Fatal("anonymous connection must be rejected")
	}
}
