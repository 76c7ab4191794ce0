package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hubclient/internal/apiclient"
	"hubclient/internal/model"
)

type captureSink struct {
	mu     sync.Mutex
	events []model.Message
}

func (s *captureSink) ApplyIncoming(conversationID string, m model.Message) {
	s.mu.Lock()
	s.events = append(s.events, m)
	s.mu.Unlock()
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestRunReturnsPromptlyOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	sub := New(wsURL(ts), apiclient.StaticToken("tok"), &captureSink{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEventsReachTheSink(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Event{
			Type:           "message",
			ConversationID: "conv1",
			Message:        model.Message{MessageID: "m1", Content: "ping"},
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	sink := &captureSink{}
	sub := New(wsURL(ts), apiclient.StaticToken("tok"), sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sub.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		sink.mu.Lock()
		n := len(sink.events)
		sink.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pushed event never reached the sink")
		case <-time.After(10 * time.Millisecond):
		}
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.events[0].MessageID != "m1" {
		t.Fatalf("unexpected event: %+v", sink.events[0])
	}
}

func TestDeriveURL(t *testing.T) {
	if got := DeriveURL("https://hub.example.com"); got != "wss://hub.example.com/api/v1/ws" {
		t.Fatalf("got %q", got)
	}
	if got := DeriveURL("http://localhost:8080"); got != "ws://localhost:8080/api/v1/ws" {
		t.Fatalf("got %q", got)
	}
}
