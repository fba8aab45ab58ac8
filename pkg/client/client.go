// Package client is the Go client for the live feed: a reconnecting
// websocket consumer plus a local view model that reconciles pushed events
// into authoritative state.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrGaveUp is returned when every reconnect attempt failed.
var ErrGaveUp = errors.New("gave up reconnecting")

// EventHandler receives every decoded event frame.
type EventHandler func(eventType string, raw []byte)

// Options configure a Client.
type Options struct {
	// URL is the websocket endpoint, e.g. ws://host/ws.
	URL string
	// Token is the session token passed as a query parameter.
	Token string
	// MaxAttempts bounds consecutive failed connection attempts.
	MaxAttempts int
	// BaseBackoff is the delay before the first retry; it doubles per
	// consecutive failure.
	BaseBackoff time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 5
	}
	if out.BaseBackoff <= 0 {
		out.BaseBackoff = time.Second
	}
	return out
}

// Client maintains a live connection, redialing with exponential backoff
// when it drops. Missed events are not replayed; callers re-fetch state
// after a reconnect.
type Client struct {
	opts    Options
	handler EventHandler

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a client. handler is invoked from the read loop for every
// event frame.
func New(opts Options, handler EventHandler) *Client {
	return &Client{opts: opts.withDefaults(), handler: handler}
}

type envelope struct {
	Type string `json:"type"`
}

// Run connects and consumes events until ctx is cancelled or reconnection
// is exhausted. The attempt counter resets after every successful connect.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		connected, err := c.connectAndRead(ctx)
		if err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Msg("connection lost")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			attempt = 0
		}

		attempt++
		if attempt > c.opts.MaxAttempts {
			return ErrGaveUp
		}
		delay := backoff(c.opts.BaseBackoff, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// backoff doubles the base delay per consecutive failed attempt (attempt 1
// waits base, attempt 2 waits 2*base, and so on).
func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// connectAndRead reports whether the dial succeeded so Run can reset its
// attempt counter before handling the eventual read error.
func (c *Client) connectAndRead(ctx context.Context) (bool, error) {
	url := c.opts.URL
	if c.opts.Token != "" {
		url += "?token=" + c.opts.Token
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return false, fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// Tear the socket down on cancellation so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if c.handler != nil {
			c.handler(env.Type, raw)
		}
	}
}

// Send writes a JSON message on the current connection.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}
	return conn.WriteJSON(v)
}

// SendTyping emits a typing_start or typing_stop for a post.
func (c *Client) SendTyping(postID string, typing bool) error {
	typ := "typing_stop"
	if typing {
		typ = "typing_start"
	}
	return c.Send(map[string]string{"type": typ, "postId": postID})
}
