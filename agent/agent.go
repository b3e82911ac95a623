package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zacbakerr/werewolf/archive"
	"github.com/zacbakerr/werewolf/belief"
	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/deliberation"
	"github.com/zacbakerr/werewolf/gateway"
	"github.com/zacbakerr/werewolf/handoff"
	"github.com/zacbakerr/werewolf/identity"
	"github.com/zacbakerr/werewolf/logging"
	"github.com/zacbakerr/werewolf/memory"
	"github.com/zacbakerr/werewolf/model"
	"github.com/zacbakerr/werewolf/strategy"
	"github.com/zacbakerr/werewolf/transcript"
)

// ErrNoName is returned when an agent is constructed without a player name.
var ErrNoName = errors.New("agent: player name is required")

// Options configures an Agent.
//
// Use functional options with New to override defaults.
type Options struct {
	// Roster lists every player, self included. An empty roster leaves the
	// belief tracker uninitialized.
	Roster          []string
	EliminatorCount int

	PublicChannel  string
	PrivateChannel string
	Moderator      string

	FallbackRole    core.Role
	VillagerPersona strategy.Persona
	ProtectSelf     bool
	MinAccuseRounds int

	Retry gateway.Policy
	// MaxCalls caps backend calls for the agent's lifetime; 0 is unlimited.
	MaxCalls int
	// Sleep replaces the retry backoff timer, mainly for tests.
	Sleep gateway.SleepFunc

	// Archive, when set, receives every history event, best effort.
	Archive        archive.Sink
	ArchiveTimeout time.Duration

	Logger logging.Logger
}

// Agent is one player. All of its state is private to it.
type Agent struct {
	name string
	opts Options

	store       *transcript.Store
	gateway     *gateway.Gateway
	identity    *identity.Inferrer
	beliefs     *belief.Tracker
	seerChecks  *memory.SeerCheckLog
	protections *memory.ProtectionLog
	pipeline    *deliberation.Pipeline
	router      *strategy.Router
	limiter     *core.ModelLimiter
	handoff     *handoff.Channel
}

// New creates an agent named name that reasons with m.
//
// The returned Agent runs an executor goroutine; call Close when done.
func New(name string, m model.Model, optFns ...func(o *Options)) (*Agent, error) {
	if name == "" {
		return nil, ErrNoName
	}

	opts := Options{
		EliminatorCount: 2,
		PublicChannel:   "play-arena",
		PrivateChannel:  "wolf's-den",
		Moderator:       "moderator",
		FallbackRole:    core.RoleEliminator,
		VillagerPersona: strategy.PersonaHonest,
		MinAccuseRounds: 1,
		Retry:           gateway.DefaultPolicy(),
		ArchiveTimeout:  5 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Agent{
		name:        name,
		opts:        opts,
		seerChecks:  memory.NewSeerCheckLog(),
		protections: memory.NewProtectionLog(),
		limiter:     core.NewModelLimiter(opts.MaxCalls),
	}

	a.store = transcript.New(name, func(o *transcript.Options) {
		o.PublicChannel = opts.PublicChannel
		o.PrivateChannel = opts.PrivateChannel
		o.Moderator = opts.Moderator
		if opts.Archive != nil {
			o.OnAppend = a.archive
		}
	})

	a.gateway = gateway.New(m, func(o *gateway.Options) {
		o.Policy = opts.Retry
		o.Instructions = fmt.Sprintf("You are %s, a player in a game of werewolf.", name)
		o.Limiter = a.limiter
		if opts.Sleep != nil {
			o.Sleep = opts.Sleep
		}
		o.Logger = opts.Logger
	})

	a.identity = identity.New(a.gateway, func(o *identity.Options) {
		o.Fallback = opts.FallbackRole
		o.Logger = opts.Logger
	})

	a.beliefs = belief.New(name, a.gateway, func(o *belief.Options) {
		o.Logger = opts.Logger
	})
	if len(opts.Roster) > 0 {
		if err := a.beliefs.Initialize(opts.Roster, opts.EliminatorCount); err != nil {
			return nil, fmt.Errorf("failed to initialize beliefs: %w", err)
		}
	}

	a.pipeline = deliberation.New(a.gateway, func(o *deliberation.Options) {
		o.Logger = opts.Logger
		o.OnStage = func(stage deliberation.Stage, output string) {
			opts.Logger.Debug("Deliberation stage completed", "agent", name, "stage", stage.String(), "chars", len(output))
		}
	})

	a.router = strategy.NewRouter(name, strategy.State{
		Store:       a.store,
		Beliefs:     a.beliefs,
		SeerChecks:  a.seerChecks,
		Protections: a.protections,
	}, a.pipeline, func(o *strategy.Options) {
		o.PublicChannel = opts.PublicChannel
		o.PrivateChannel = opts.PrivateChannel
		o.Moderator = opts.Moderator
		o.Roster = opts.Roster
		o.ProtectSelf = opts.ProtectSelf
		o.MinAccuseRounds = opts.MinAccuseRounds
		o.VillagerPersona = opts.VillagerPersona
		o.Logger = opts.Logger
	})

	a.handoff = handoff.New(func(o *handoff.Options) {
		o.Logger = opts.Logger
	})

	return a, nil
}

// Name returns the player name.
func (a *Agent) Name() string { return a.name }

// Role returns the bound role, or core.RoleUnset before inference.
func (a *Agent) Role() core.Role { return a.identity.Role() }

// Store exposes the transcript store for inspection.
func (a *Agent) Store() *transcript.Store { return a.store }

// Beliefs exposes the belief tracker for inspection.
func (a *Agent) Beliefs() *belief.Tracker { return a.beliefs }

// SeerChecks exposes the seer investigation log.
func (a *Agent) SeerChecks() *memory.SeerCheckLog { return a.seerChecks }

// Protections exposes the protection log.
func (a *Agent) Protections() *memory.ProtectionLog { return a.protections }

// Calls returns how many backend calls the agent has made.
func (a *Agent) Calls() int { return a.limiter.Count() }

// Close stops the executor. Pending and later callbacks fail with
// handoff.ErrClosed.
func (a *Agent) Close() { a.handoff.Close() }

// OnNotify records an event that needs no reply.
func (a *Agent) OnNotify(ctx context.Context, ev core.InboundEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	_, err := a.handoff.Submit(ctx, func(ctx context.Context) (core.OutwardMessage, error) {
		msg := a.ingest(ctx, ev)
		if err := a.updateBeliefs(ctx, msg); err != nil {
			return core.OutwardMessage{}, err
		}
		a.router.Observe(msg, a.identity.Role())
		return core.OutwardMessage{}, nil
	})

	return err
}

// OnRespond records an event and produces the agent's reply to it.
func (a *Agent) OnRespond(ctx context.Context, ev core.InboundEvent) (core.OutwardMessage, error) {
	if err := ev.Validate(); err != nil {
		return core.OutwardMessage{}, err
	}

	return a.handoff.Submit(ctx, func(ctx context.Context) (core.OutwardMessage, error) {
		msg := a.ingest(ctx, ev)
		if err := a.updateBeliefs(ctx, msg); err != nil {
			a.opts.Logger.Warn("Belief update failed, responding anyway", "agent", a.name, "error", err)
		}

		role := a.identity.Role()
		a.router.Observe(msg, role)

		start := time.Now()
		resp, err := a.router.Respond(ctx, msg, role)
		a.logCycle(resp, time.Since(start), err)
		if err != nil {
			return core.OutwardMessage{}, fmt.Errorf("respond to %s on %s: %w", msg.Sender, msg.Channel, err)
		}

		recipient := ""
		if msg.IsDirect() {
			recipient = msg.Sender
		}
		a.store.RecordOutgoing(msg.Channel, msg.ChannelType, recipient, resp.Text)

		a.opts.Logger.Debug("Response produced", "agent", a.name, "role", role.String(), "route", resp.Route.String(), "target", resp.Target)

		return core.NewOutwardMessage(resp.Text), nil
	})
}

// ingest files the message and binds the role on the first moderator DM.
func (a *Agent) ingest(ctx context.Context, ev core.InboundEvent) core.Message {
	msg := a.store.Ingest(ev.Message())

	if msg.IsDirect() && msg.Sender == a.opts.Moderator && !a.identity.Inferred() {
		role, err := a.identity.Infer(ctx, msg.Text)
		if err != nil {
			a.opts.Logger.Warn("Role inference failed, using fallback", "agent", a.name, "role", role.String(), "error", err)
		} else {
			a.opts.Logger.Info("Role inferred", "agent", a.name, "role", role.String())
		}
	}

	return msg
}

// updateBeliefs revises suspicion from other players' public statements.
func (a *Agent) updateBeliefs(ctx context.Context, msg core.Message) error {
	if !a.beliefs.Initialized() ||
		msg.ChannelType != core.ChannelGroup ||
		msg.Channel != a.opts.PublicChannel ||
		msg.Sender == a.name ||
		msg.Sender == a.opts.Moderator {
		return nil
	}

	if err := a.beliefs.UpdateFromDiscussion(ctx, msg, a.store.Transcript(false)); err != nil {
		return fmt.Errorf("update beliefs from %s: %w", msg.Sender, err)
	}
	return nil
}

func (a *Agent) logCycle(resp strategy.Response, dur time.Duration, err error) {
	stages := 0
	if resp.Cycle != nil {
		stages = len(deliberation.Stages)
	}
	if al, ok := a.opts.Logger.(*logging.AgentLogger); ok {
		al.LogCycle(resp.Route.String(), stages, dur, err)
		return
	}
	if err != nil {
		a.opts.Logger.Error("Response cycle failed", "agent", a.name, "route", resp.Route.String(), "duration", dur, "error", err)
		return
	}
	a.opts.Logger.Info("Response cycle completed", "agent", a.name, "route", resp.Route.String(), "stage_count", stages, "duration", dur)
}

func (a *Agent) archive(ev core.GameHistoryEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.ArchiveTimeout)
	defer cancel()

	if err := a.opts.Archive.Append(ctx, ev); err != nil {
		a.opts.Logger.Warn("Failed to archive history event", "agent", a.name, "seq", ev.Seq, "error", err)
	}
}
