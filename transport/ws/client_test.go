package ws

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zacbakerr/werewolf/agent"
	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// orchestrator is a test server that hands every upgraded connection to the
// test.
type orchestrator struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
}

func newOrchestrator(t *testing.T) *orchestrator {
	t.Helper()

	o := &orchestrator{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		o.conns <- conn
	}))
	t.Cleanup(o.srv.Close)

	return o
}

func (o *orchestrator) url() string { return "ws" + strings.TrimPrefix(o.srv.URL, "http") }

func (o *orchestrator) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-o.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("client did not connect")
		return nil
	}
}

type fakeHandler struct {
	mu       sync.Mutex
	notified []core.InboundEvent
	respond  func(ctx context.Context, ev core.InboundEvent) (core.OutwardMessage, error)
}

func (h *fakeHandler) OnNotify(_ context.Context, ev core.InboundEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified = append(h.notified, ev)
	return nil
}

func (h *fakeHandler) OnRespond(ctx context.Context, ev core.InboundEvent) (core.OutwardMessage, error) {
	if h.respond != nil {
		return h.respond(ctx, ev)
	}
	return core.NewOutwardMessage("echo: " + ev.Text), nil
}

func (h *fakeHandler) Notified() []core.InboundEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]core.InboundEvent(nil), h.notified...)
}

func event(id, text string) *core.InboundEvent {
	return &core.InboundEvent{
		MessageID:   id,
		Sender:      "moderator",
		Channel:     "play-arena",
		ChannelType: core.ChannelGroup,
		Text:        text,
	}
}

func start(t *testing.T, url string, h Handler, optFns ...func(o *Options)) (cancel func() error) {
	t.Helper()

	ctx, stop := context.WithCancel(context.Background())
	c := NewClient(url, h, append([]func(o *Options){func(o *Options) { o.PingPeriod = 0 }}, optFns...)...)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	return func() error {
		stop()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("client did not stop")
		}
	}
}

func TestNotifyAndRespond(t *testing.T) {
	o := newOrchestrator(t)
	h := &fakeHandler{}
	stop := start(t, o.url(), h)

	server := o.accept(t)
	require.NoError(t, server.WriteJSON(Frame{Kind: KindNotify, Event: event("m1", "Welcome.")}))
	require.NoError(t, server.WriteJSON(Frame{Kind: KindRespond, Event: event("m2", "Who is suspicious?")}))

	var f Frame
	require.NoError(t, server.ReadJSON(&f))
	assert.Equal(t, Frame{
		Kind:        KindResponse,
		MessageID:   "m2",
		Text:        "echo: Who is suspicious?",
		ContentType: core.ContentTypeText,
	}, f)

	notified := h.Notified()
	require.Len(t, notified, 1)
	assert.Equal(t, "m1", notified[0].MessageID)

	require.NoError(t, stop())
}

func TestErrorFrames(t *testing.T) {
	o := newOrchestrator(t)
	h := &fakeHandler{respond: func(context.Context, core.InboundEvent) (core.OutwardMessage, error) {
		return core.OutwardMessage{}, errors.New("backend down")
	}}
	stop := start(t, o.url(), h)
	server := o.accept(t)

	read := func() Frame {
		var f Frame
		require.NoError(t, server.ReadJSON(&f))
		return f
	}

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("not json")))
	f := read()
	assert.Equal(t, KindError, f.Kind)
	assert.Contains(t, f.Error, "invalid frame")

	require.NoError(t, server.WriteJSON(Frame{Kind: "dance"}))
	f = read()
	assert.Equal(t, KindError, f.Kind)
	assert.Contains(t, f.Error, `unknown frame kind "dance"`)

	require.NoError(t, server.WriteJSON(Frame{Kind: KindRespond}))
	f = read()
	assert.Contains(t, f.Error, "missing event")

	bad := event("m3", "hi")
	bad.Sender = ""
	require.NoError(t, server.WriteJSON(Frame{Kind: KindNotify, Event: bad}))
	f = read()
	assert.Equal(t, "m3", f.MessageID)
	assert.Contains(t, f.Error, "missing sender")

	require.NoError(t, server.WriteJSON(Frame{Kind: KindRespond, Event: event("m4", "vote now")}))
	f = read()
	assert.Equal(t, Frame{Kind: KindError, MessageID: "m4", Error: "backend down"}, f)

	require.NoError(t, stop())
}

func TestFramesDispatchedInWireOrder(t *testing.T) {
	o := newOrchestrator(t)
	release := make(chan struct{})

	var mu sync.Mutex
	var order []string
	h := &fakeHandler{respond: func(ctx context.Context, ev core.InboundEvent) (core.OutwardMessage, error) {
		mu.Lock()
		order = append(order, "respond:"+ev.MessageID)
		mu.Unlock()

		select {
		case <-release:
		case <-ctx.Done():
			return core.OutwardMessage{}, ctx.Err()
		}
		return core.NewOutwardMessage("done"), nil
	}}
	stop := start(t, o.url(), h)
	server := o.accept(t)

	require.NoError(t, server.WriteJSON(Frame{Kind: KindRespond, Event: event("m1", "Discuss.")}))
	require.NoError(t, server.WriteJSON(Frame{Kind: KindNotify, Event: event("m2", "Night falls.")}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 1
	}, 5*time.Second, 5*time.Millisecond)

	// The notify stays queued while the respond is still being handled.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.Notified())

	close(release)

	require.NoError(t, server.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, server.ReadJSON(&f))
	assert.Equal(t, KindResponse, f.Kind)
	assert.Equal(t, "m1", f.MessageID)

	require.Eventually(t, func() bool { return len(h.Notified()) == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "m2", h.Notified()[0].MessageID)

	require.NoError(t, stop())
}

func TestAgentTranscriptFollowsWireOrder(t *testing.T) {
	o := newOrchestrator(t)

	m := testutil.ScriptedModel(testutil.CycleReplies("I have no read on anyone yet.")...)
	a, err := agent.New("alice", m, func(o *agent.Options) {
		o.Roster = []string{"alice", "bob", "carol", "dave"}
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	stop := start(t, o.url(), a)
	server := o.accept(t)

	require.NoError(t, server.WriteJSON(Frame{Kind: KindRespond, Event: event("m1", "FIRST")}))
	require.NoError(t, server.WriteJSON(Frame{Kind: KindNotify, Event: event("m2", "SECOND")}))

	require.NoError(t, server.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, server.ReadJSON(&f))
	assert.Equal(t, KindResponse, f.Kind)

	require.Eventually(t, func() bool { return a.Store().Len() == 3 }, 5*time.Second, 5*time.Millisecond)

	events := a.Store().Events()
	require.Len(t, events, 3)
	assert.Equal(t, "FIRST", events[0].Text)
	assert.Equal(t, core.DirectionIncoming, events[0].Direction)
	assert.Equal(t, core.DirectionOutgoing, events[1].Direction)
	assert.Equal(t, "SECOND", events[2].Text)
	assert.Less(t, events[0].Seq, events[2].Seq)

	require.NoError(t, stop())
}

func TestRunReconnects(t *testing.T) {
	o := newOrchestrator(t)
	stop := start(t, o.url(), &fakeHandler{}, func(o *Options) { o.ReconnectDelay = 10 * time.Millisecond })

	first := o.accept(t)
	require.NoError(t, first.Close())

	second := o.accept(t)
	require.NoError(t, second.WriteJSON(Frame{Kind: KindRespond, Event: event("m1", "still there?")}))

	var f Frame
	require.NoError(t, second.ReadJSON(&f))
	assert.Equal(t, "echo: still there?", f.Text)

	require.NoError(t, stop())
}

func TestRunDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	err := NewClient(url, &fakeHandler{}).Run(context.Background())
	assert.ErrorContains(t, err, "failed to dial")
}
