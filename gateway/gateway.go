// Package gateway wraps every reasoning backend call with a bounded
// exponential-backoff retry on transient overload errors.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/logging"
	"github.com/zacbakerr/werewolf/model"
)

// ErrRetriesExhausted is returned when every attempt failed transiently.
var ErrRetriesExhausted = errors.New("backend retries exhausted")

// Policy describes the retry schedule.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultPolicy waits 20s, 40s, 80s and 160s between five attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialBackoff: 20 * time.Second,
		MaxBackoff:     300 * time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the wait before attempt n+1 given that attempt n failed
// (n is 1-based).
func (p Policy) Backoff(n int) time.Duration {
	d := float64(p.InitialBackoff)
	for i := 1; i < n; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if time.Duration(d) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configure a Gateway.
type Options struct {
	Policy       Policy
	Instructions string
	Limiter      *core.ModelLimiter
	Sleep        SleepFunc
	Logger       logging.Logger
}

// Gateway is the only place that talks to the model. It is safe for
// concurrent use.
type Gateway struct {
	model model.Model
	opts  Options
}

// New creates a Gateway around m.
func New(m model.Model, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Policy: DefaultPolicy(),
		Sleep:  Sleep,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Policy.MaxAttempts < 1 {
		opts.Policy.MaxAttempts = 1
	}
	return &Gateway{model: m, opts: opts}
}

// Call sends prompt to the backend and returns the text answer.
// Transient failures are retried according to the policy; any other failure
// is returned immediately.
func (g *Gateway) Call(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	info := g.model.Info()

	for attempt := 1; attempt <= g.opts.Policy.MaxAttempts; attempt++ {
		if g.opts.Limiter != nil {
			if err := g.opts.Limiter.Increment(); err != nil {
				return "", model.NewFatalError(info.Provider, err)
			}
		}

		start := time.Now()
		resp, err := model.Collect(ctx, g.model, model.Request{
			Instructions: g.opts.Instructions,
			Prompt:       prompt,
		})
		g.logCall(info.Name, attempt, time.Since(start), err)

		if err == nil {
			return resp.Text, nil
		}

		if !model.IsTransient(err) {
			return "", err
		}
		lastErr = err

		if attempt == g.opts.Policy.MaxAttempts {
			break
		}

		wait := g.opts.Policy.Backoff(attempt)
		g.opts.Logger.Warn("Backend overloaded, backing off", "attempt", attempt, "wait", wait)
		if serr := g.opts.Sleep(ctx, wait); serr != nil {
			return "", fmt.Errorf("retry backoff interrupted: %w", serr)
		}
	}

	// Exhaustion is final; the transient cause is kept as text only.
	return "", model.NewFatalError(info.Provider,
		fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, g.opts.Policy.MaxAttempts, lastErr))
}

func (g *Gateway) logCall(name string, attempt int, dur time.Duration, err error) {
	if al, ok := g.opts.Logger.(*logging.AgentLogger); ok {
		al.LogBackendCall(name, attempt, dur, err)
		return
	}
	if err != nil {
		g.opts.Logger.Debug("Backend call failed", "model", name, "attempt", attempt, "error", err)
	}
}
