package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zacbakerr/werewolf/archive"
	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/handoff"
	"github.com/zacbakerr/werewolf/internal/testutil"
	"github.com/zacbakerr/werewolf/model"
	"github.com/zacbakerr/werewolf/strategy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var roster = []string{"alice", "bob", "carol", "dave"}

func noSleep(context.Context, time.Duration) error { return nil }

func newAgent(t *testing.T, m model.Model, optFns ...func(o *Options)) *Agent {
	t.Helper()

	base := func(o *Options) {
		o.Roster = roster
		o.EliminatorCount = 1
		o.Sleep = noSleep
	}

	a, err := New("alice", m, append([]func(o *Options){base}, optFns...)...)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return a
}

// mockModel is a testify-driven backend for asserting call counts.
type mockModel struct{ mock.Mock }

func (m *mockModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	args := m.Called(ctx, req)

	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	if err := args.Error(1); err != nil {
		errCh <- err
	} else {
		respCh <- model.Response{Text: args.String(0), FinishReason: "stop"}
	}
	close(respCh)
	close(errCh)

	return respCh, errCh
}

func (m *mockModel) Info() model.Info { return model.Info{Name: "mock", Provider: "mock"} }

func TestNewRequiresName(t *testing.T) {
	_, err := New("", model.NewMockModel("m", "mock"))
	assert.ErrorIs(t, err, ErrNoName)
}

func TestNewRejectsBadEliminatorCount(t *testing.T) {
	_, err := New("alice", model.NewMockModel("m", "mock"), func(o *Options) {
		o.Roster = roster
		o.EliminatorCount = 9
	})
	assert.Error(t, err)
}

func TestRoleInferredOnce(t *testing.T) {
	m := testutil.ScriptedModel("You are the seer.")
	a := newAgent(t, m)
	ctx := context.Background()

	assert.Equal(t, core.RoleUnset, a.Role())

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("alice, you are a seer tonight.")))
	assert.Equal(t, core.RoleSeer, a.Role())
	assert.Equal(t, 1, m.Calls())

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("Actually you are a villager.")))
	assert.Equal(t, core.RoleSeer, a.Role())
	assert.Equal(t, 1, m.Calls())
}

func TestRoleInferenceRetriesTransientErrors(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	overloaded := model.NewTransientError("mock", errors.New("overloaded"))
	m.Script(model.Reply{Err: overloaded}, model.Reply{Err: overloaded}, model.Reply{Text: "villager"})

	a := newAgent(t, m)
	require.NoError(t, a.OnNotify(context.Background(), testutil.ModeratorDM("You are a villager.")))

	assert.Equal(t, core.RoleVillager, a.Role())
	assert.Equal(t, 3, m.Calls())
}

func TestRoleInferenceFailureBindsFallback(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	m.Script(model.Reply{Err: model.NewFatalError("mock", errors.New("invalid api key"))})

	a := newAgent(t, m, func(o *Options) { o.FallbackRole = core.RoleVillager })
	require.NoError(t, a.OnNotify(context.Background(), testutil.ModeratorDM("You are a doctor.")))

	assert.Equal(t, core.RoleVillager, a.Role())
}

func TestPrivateChannelRefusal(t *testing.T) {
	m := testutil.ScriptedModel("villager")
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))

	out, err := a.OnRespond(ctx, testutil.Private("bob", "Who should we eat tonight?"))
	require.NoError(t, err)
	assert.Equal(t, strategy.RefusalText, out.Text)
	assert.Equal(t, core.ContentTypeText, out.ContentType)
	assert.Equal(t, 1, m.Calls())

	transcript := a.Store().Transcript(true)
	require.Len(t, transcript, 3)
	assert.Contains(t, transcript[2], "alice (me)")
	assert.Contains(t, transcript[2], strategy.RefusalText)
}

func TestVoteAnswersWithOneName(t *testing.T) {
	m := testutil.ScriptedModel("villager")
	m.ScriptText(testutil.CycleReplies("Carol has been evasive all day, so I vote carol.")...)
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))

	out, err := a.OnRespond(ctx, testutil.Public("moderator", "It is time to vote. Who do you vote to eliminate?"))
	require.NoError(t, err)
	assert.Equal(t, "carol", out.Text)
	assert.Equal(t, 5, m.Calls())
}

func TestSeerNeverRechecksPlayer(t *testing.T) {
	m := testutil.ScriptedModel("seer")
	m.ScriptText(testutil.CycleReplies("carol")...)
	m.ScriptText(testutil.CycleReplies("carol")...)
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are the seer.")))

	out, err := a.OnRespond(ctx, testutil.ModeratorDM("Seer, whose role do you want to learn tonight?"))
	require.NoError(t, err)
	assert.Equal(t, "carol", out.Text)

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("carol is a werewolf.")))
	assert.True(t, a.SeerChecks().Checked("carol"))
	assert.InDelta(t, 1.0, a.Beliefs().Probability(core.RoleEliminator, "carol"), 1e-9)

	out, err = a.OnRespond(ctx, testutil.ModeratorDM("Seer, whose role do you want to learn tonight?"))
	require.NoError(t, err)
	assert.NotEqual(t, "carol", out.Text)
	assert.Contains(t, []string{"bob", "dave"}, out.Text)

	pending, ok := a.SeerChecks().Pending()
	require.True(t, ok)
	assert.Equal(t, out.Text, pending)
}

func TestPublicDiscussionUpdatesBeliefs(t *testing.T) {
	m := testutil.ScriptedModel("villager", `{"bob": 0.3}`)
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))
	before := a.Beliefs().Probability(core.RoleEliminator, "bob")

	require.NoError(t, a.OnNotify(ctx, testutil.Public("bob", "I am definitely not a werewolf, trust me.")))

	assert.Greater(t, a.Beliefs().Probability(core.RoleEliminator, "bob"), before)
	assert.InDelta(t, 1.0, a.Beliefs().Sum(core.RoleEliminator), 1e-9)
	assert.Equal(t, 2, m.Calls())
}

func TestModeratorPublicMessagesSkipBeliefUpdate(t *testing.T) {
	m := testutil.ScriptedModel("villager")
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))
	require.NoError(t, a.OnNotify(ctx, testutil.Public("moderator", "Welcome to the village.")))

	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, "Welcome to the village.", a.Store().Intro())
}

func TestMalformedEventRejected(t *testing.T) {
	m := model.NewMockModel("m", "mock")
	a := newAgent(t, m)

	_, err := a.OnRespond(context.Background(), core.InboundEvent{Sender: "bob", Text: "hi"})
	assert.ErrorIs(t, err, core.ErrMalformedEvent)

	err = a.OnNotify(context.Background(), core.InboundEvent{Channel: "play-arena", ChannelType: core.ChannelGroup})
	assert.ErrorIs(t, err, core.ErrMalformedEvent)

	assert.Equal(t, 0, m.Calls())
	assert.Equal(t, 0, a.Store().Len())
}

func TestBackendFailureDoesNotStopAgent(t *testing.T) {
	m := testutil.ScriptedModel("villager")
	m.Script(model.Reply{Err: model.NewFatalError("mock", errors.New("invalid api key"))})
	a := newAgent(t, m)
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))

	_, err := a.OnRespond(ctx, testutil.Public("moderator", "Discuss who might be a werewolf."))
	require.Error(t, err)
	assert.False(t, model.IsTransient(err))
	assert.ErrorContains(t, err, "thought")

	out, err := a.OnRespond(ctx, testutil.Public("moderator", "Discuss again."))
	require.NoError(t, err)
	assert.NotEmpty(t, out.Text)
}

func TestCallLimit(t *testing.T) {
	m := &mockModel{}
	m.On("Generate", mock.Anything, mock.Anything).Return("villager", nil).Once()

	a := newAgent(t, m, func(o *Options) { o.MaxCalls = 1 })
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))
	assert.Equal(t, core.RoleVillager, a.Role())

	_, err := a.OnRespond(ctx, testutil.Public("moderator", "Discuss."))
	assert.ErrorIs(t, err, core.ErrCallLimitExceeded)

	m.AssertNumberOfCalls(t, "Generate", 1)
	assert.Equal(t, 1, a.Calls())
}

func TestArchiveMirrorsHistory(t *testing.T) {
	sink := archive.NewInMemoryStore()
	m := testutil.ScriptedModel("villager")
	a := newAgent(t, m, func(o *Options) { o.Archive = sink })
	ctx := context.Background()

	require.NoError(t, a.OnNotify(ctx, testutil.ModeratorDM("You are a villager.")))
	_, err := a.OnRespond(ctx, testutil.Private("bob", "Who do we kill?"))
	require.NoError(t, err)

	events, err := sink.Events(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.Store().Events(), events)
}

func TestConcurrentCallbacksAreSerialized(t *testing.T) {
	m := model.NewMockModel("echo", "mock")
	a := newAgent(t, m)
	ctx := context.Background()

	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.OnRespond(ctx, testutil.Public("moderator", fmt.Sprintf("Discussion round %d.", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	events := a.Store().Events()
	require.Len(t, events, 2*n)
	for i := 0; i < len(events); i += 2 {
		assert.Equal(t, core.DirectionIncoming, events[i].Direction)
		assert.Equal(t, core.DirectionOutgoing, events[i+1].Direction)
	}
	assert.Equal(t, 4*n, m.Calls())
}

func TestClosedAgentRejectsCallbacks(t *testing.T) {
	a := newAgent(t, model.NewMockModel("m", "mock"))
	a.Close()

	err := a.OnNotify(context.Background(), testutil.Public("bob", "hello"))
	assert.ErrorIs(t, err, handoff.ErrClosed)
}
