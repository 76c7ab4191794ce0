// Package realtime keeps a websocket subscription to the hub's event
// feed and folds pushed messages into the chat state.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hubclient/internal/apiclient"
	"hubclient/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Sink receives messages pushed over the feed.
type Sink interface {
	ApplyIncoming(conversationID string, m model.Message)
}

// Event is one frame on the feed.
type Event struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Message        model.Message `json:"message"`
}

// Subscriber dials the feed and pumps events into the sink, redialing
// with backoff until its context is canceled.
type Subscriber struct {
	url    string
	tokens apiclient.TokenSource
	sink   Sink
	dialer *websocket.Dialer
}

func New(url string, tokens apiclient.TokenSource, sink Sink) *Subscriber {
	return &Subscriber{url: url, tokens: tokens, sink: sink, dialer: websocket.DefaultDialer}
}

// DeriveURL converts an API base URL into the feed's websocket URL.
func DeriveURL(baseURL string) string {
	u := strings.Replace(baseURL, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/api/v1/ws"
}

// Run blocks, maintaining the subscription until ctx is canceled.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Dur("backoff", backoff).Msg("realtime feed disconnected")
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *Subscriber) runOnce(ctx context.Context) error {
	header := http.Header{}
	if tok := s.tokens.Token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}
	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Heartbeat: keep the read deadline fresh as pongs arrive.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.pingLoop(ctx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			log.Debug().Err(err).Msg("undecodable feed event dropped")
			continue
		}
		if ev.Type == "message" {
			s.sink.ApplyIncoming(ev.ConversationID, ev.Message)
		}
	}
}

func (s *Subscriber) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// Unblock the read pump so Run returns without waiting
			// out the read deadline.
			_ = conn.Close()
			return
		}
	}
}
