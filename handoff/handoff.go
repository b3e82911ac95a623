// Package handoff serializes externally driven callbacks onto a single
// executor goroutine through a one-item slot.
//
// A caller pushes exactly one job and blocks until exactly one matching reply
// is available. At most one exchange is in flight per Channel, so two
// response cycles can never interleave their stages.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/logging"
)

// ErrClosed is returned by Submit once the executor has stopped.
var ErrClosed = errors.New("handoff: channel closed")

// Job is the work executed on the executor goroutine.
type Job func(ctx context.Context) (core.OutwardMessage, error)

type result struct {
	msg core.OutwardMessage
	err error
}

type exchange struct {
	ctx   context.Context
	job   Job
	reply chan result
}

// Options configure a Channel.
type Options struct {
	Logger logging.Logger
}

// Channel is a single-slot rendezvous between callers and one executor.
type Channel struct {
	opts Options

	slot     chan exchange
	inflight chan struct{}
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New creates a Channel and starts its executor.
func New(optFns ...func(o *Options)) *Channel {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Channel{
		opts:     opts,
		slot:     make(chan exchange, 1),
		inflight: make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.loop()

	return c
}

// Submit hands job to the executor and waits for its reply. ctx is honored
// while waiting for the slot; once the job is accepted Submit waits for the
// reply regardless, and ctx is passed to the job itself.
func (c *Channel) Submit(ctx context.Context, job Job) (core.OutwardMessage, error) {
	select {
	case c.inflight <- struct{}{}:
	case <-ctx.Done():
		return core.OutwardMessage{}, ctx.Err()
	case <-c.quit:
		return core.OutwardMessage{}, ErrClosed
	}
	defer func() { <-c.inflight }()

	ex := exchange{ctx: ctx, job: job, reply: make(chan result, 1)}

	select {
	case c.slot <- ex:
	case <-ctx.Done():
		return core.OutwardMessage{}, ctx.Err()
	case <-c.quit:
		return core.OutwardMessage{}, ErrClosed
	}

	select {
	case r := <-ex.reply:
		return r.msg, r.err
	case <-c.done:
		select {
		case r := <-ex.reply:
			return r.msg, r.err
		default:
			return core.OutwardMessage{}, ErrClosed
		}
	}
}

// Busy reports whether an exchange is currently in flight.
func (c *Channel) Busy() bool { return len(c.inflight) == 1 }

// Close stops the executor and waits for it to exit. A job already running
// finishes first.
func (c *Channel) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

func (c *Channel) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case ex := <-c.slot:
			ex.reply <- c.execute(ex)
		}
	}
}

func (c *Channel) execute(ex exchange) (r result) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("handoff: job panicked: %v", p)
			if al, ok := c.opts.Logger.(*logging.AgentLogger); ok {
				al.ErrorWithStack(err, "Handoff job panicked")
			} else {
				c.opts.Logger.Error("Handoff job panicked", "panic", p)
			}
			r = result{err: err}
		}
	}()

	msg, err := ex.job(ex.ctx)

	return result{msg: msg, err: err}
}
