package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacbakerr/werewolf/archive"
	"github.com/zacbakerr/werewolf/core"
)

var _ archive.Sink = (*Store)(nil)

// Runs only when WEREWOLF_MONGODB_URI points at a disposable server.
func TestStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("WEREWOLF_MONGODB_URI")
	if uri == "" {
		t.Skip("WEREWOLF_MONGODB_URI not set")
	}

	ctx := context.Background()
	coll := "test_" + core.NewID()
	s, err := Connect(ctx, uri, func(o *Options) { o.Collection = coll })
	require.NoError(t, err)
	defer func() {
		_ = s.collection.Drop(ctx)
		_ = s.Close()
	}()

	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, seq := range []int64{2, 1} {
		require.NoError(t, s.Append(ctx, core.GameHistoryEvent{
			ID: core.NewID(), Seq: seq, Agent: "alice", Direction: core.DirectionIncoming,
			Audience: core.AudienceEveryone, Sender: "bob", Channel: "play-arena",
			ChannelType: core.ChannelGroup, Text: "hi", Timestamp: now,
		}))
	}

	evs, err := s.Events(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, int64(1), evs[0].Seq)
	assert.Equal(t, core.ChannelGroup, evs[1].ChannelType)
	assert.True(t, now.Equal(evs[0].Timestamp))
}
