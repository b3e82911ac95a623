package handoff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/zacbakerr/werewolf/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSubmitReturnsReply(t *testing.T) {
	c := New()
	defer c.Close()

	msg, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
		return core.NewOutwardMessage("hello"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.False(t, c.Busy())
}

func TestSubmitPropagatesError(t *testing.T) {
	c := New()
	defer c.Close()

	boom := errors.New("boom")
	_, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
		return core.OutwardMessage{}, boom
	})
	assert.ErrorIs(t, err, boom)

	// executor keeps running after a failed exchange
	msg, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
		return core.NewOutwardMessage("still alive"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "still alive", msg.Text)
}

func TestPanicBecomesError(t *testing.T) {
	c := New()
	defer c.Close()

	_, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
		panic("bad")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestAtMostOneInFlight(t *testing.T) {
	c := New()
	defer c.Close()

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return core.OutwardMessage{}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestSubmitHonorsContextWhileWaiting(t *testing.T) {
	c := New()
	defer c.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
			close(started)
			<-release
			return core.OutwardMessage{}, nil
		})
	}()
	<-started
	assert.True(t, c.Busy())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	var ran atomic.Bool
	_, err := c.Submit(ctx, func(context.Context) (core.OutwardMessage, error) {
		ran.Store(true)
		return core.OutwardMessage{}, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	assert.Eventually(t, func() bool { return !c.Busy() }, time.Second, time.Millisecond)
	assert.False(t, ran.Load())
}

func TestSubmitAfterClose(t *testing.T) {
	c := New()
	c.Close()
	c.Close()

	_, err := c.Submit(context.Background(), func(context.Context) (core.OutwardMessage, error) {
		return core.OutwardMessage{}, nil
	})
	assert.ErrorIs(t, err, ErrClosed)
}
