package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/logging"
)

// Frame kinds.
const (
	KindNotify   = "notify"
	KindRespond  = "respond"
	KindResponse = "response"
	KindError    = "error"
)

// Frame is the envelope exchanged in both directions.
type Frame struct {
	Kind        string             `json:"kind"`
	Event       *core.InboundEvent `json:"event,omitempty"`
	MessageID   string             `json:"message_id,omitempty"`
	Text        string             `json:"text,omitempty"`
	ContentType string             `json:"content_type,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Handler receives the orchestrator callbacks. *agent.Agent implements it.
type Handler interface {
	OnNotify(ctx context.Context, ev core.InboundEvent) error
	OnRespond(ctx context.Context, ev core.InboundEvent) (core.OutwardMessage, error)
}

// Options configure a Client.
type Options struct {
	Dialer *websocket.Dialer
	Header http.Header
	// WriteWait bounds a single frame write.
	WriteWait time.Duration
	// PingPeriod is the keepalive interval; 0 disables pings.
	PingPeriod time.Duration
	// MaxMessageSize limits inbound frames.
	MaxMessageSize int64
	// QueueSize bounds frames read but not yet dispatched.
	QueueSize int
	// ReconnectDelay is the wait before redialing after a dropped
	// connection; 0 makes Run return on the first drop.
	ReconnectDelay time.Duration
	Logger         logging.Logger
}

// Client dials the orchestrator and dispatches frames to a Handler.
type Client struct {
	url     string
	handler Handler
	opts    Options
}

// NewClient creates a Client for url.
func NewClient(url string, h Handler, optFns ...func(o *Options)) *Client {
	opts := Options{
		Dialer:         websocket.DefaultDialer,
		WriteWait:      10 * time.Second,
		PingPeriod:     30 * time.Second,
		MaxMessageSize: 1 << 20,
		QueueSize:      64,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{url: url, handler: h, opts: opts}
}

// Run dials and serves until ctx is done. Dropped connections are redialed
// after ReconnectDelay.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if c.opts.ReconnectDelay <= 0 {
			return err
		}

		c.opts.Logger.Warn("Connection to orchestrator lost, reconnecting", "url", c.url, "delay", c.opts.ReconnectDelay, "error", err)

		t := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func (c *Client) runOnce(ctx context.Context) error {
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.url, err)
	}
	c.opts.Logger.Info("Connected to orchestrator", "url", c.url)

	return c.Serve(ctx, conn)
}

// Serve handles frames on an established connection until it fails or ctx
// is done. Reading continues while a frame is being handled; frames queued
// before the connection ended are still dispatched. Serve closes conn before
// returning.
func (c *Client) Serve(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)

	s := &session{client: c, conn: conn}
	queue := make(chan Frame, c.opts.QueueSize)

	var wg sync.WaitGroup
	dispatched := make(chan struct{})
	defer func() {
		close(queue)
		<-dispatched
		cancel()
		wg.Wait()
		conn.Close()
	}()

	go func() {
		defer close(dispatched)
		for f := range queue {
			s.dispatch(ctx, f)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		// Unblocks ReadMessage.
		_ = conn.SetReadDeadline(time.Now())
	}()

	if c.opts.PingPeriod > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.keepalive(ctx)
		}()
	}

	conn.SetReadLimit(c.opts.MaxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.writeError("", fmt.Errorf("invalid frame: %w", err))
			continue
		}

		switch f.Kind {
		case KindNotify, KindRespond:
			if f.Event == nil {
				s.writeError("", fmt.Errorf("%w: missing event", core.ErrMalformedEvent))
				continue
			}
		default:
			s.writeError("", fmt.Errorf("unknown frame kind %q", f.Kind))
			continue
		}

		select {
		case queue <- f:
		case <-ctx.Done():
			return nil
		}
	}
}

// session is one connection's write side.
type session struct {
	client *Client
	conn   *websocket.Conn
	mu     sync.Mutex
}

// dispatch hands one frame to the handler. Frames are dispatched one at a
// time in wire order, so the agent ingests them in the order they were sent.
func (s *session) dispatch(ctx context.Context, f Frame) {
	ev := *f.Event
	if f.Kind == KindRespond {
		s.respond(ctx, ev)
		return
	}

	if err := s.client.handler.OnNotify(ctx, ev); err != nil {
		s.client.opts.Logger.Warn("Notify failed", "message_id", ev.MessageID, "error", err)
		if errors.Is(err, core.ErrMalformedEvent) {
			s.writeError(ev.MessageID, err)
		}
	}
}

func (s *session) respond(ctx context.Context, ev core.InboundEvent) {
	out, err := s.client.handler.OnRespond(ctx, ev)
	if err != nil {
		s.client.opts.Logger.Error("Respond failed", "message_id", ev.MessageID, "error", err)
		s.writeError(ev.MessageID, err)
		return
	}

	s.write(Frame{
		Kind:        KindResponse,
		MessageID:   ev.MessageID,
		Text:        out.Text,
		ContentType: out.ContentType,
	})
}

func (s *session) writeError(id string, err error) {
	s.write(Frame{Kind: KindError, MessageID: id, Error: err.Error()})
}

func (s *session) write(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.client.opts.WriteWait))
	if err := s.conn.WriteJSON(f); err != nil {
		s.client.opts.Logger.Warn("Failed to write frame", "kind", f.Kind, "message_id", f.MessageID, "error", err)
	}
}

func (s *session) keepalive(ctx context.Context) {
	ticker := time.NewTicker(s.client.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.client.opts.WriteWait)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.client.opts.Logger.Debug("Ping failed", "error", err)
				return
			}
		}
	}
}
