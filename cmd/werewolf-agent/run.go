package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zacbakerr/werewolf/agent"
	"github.com/zacbakerr/werewolf/config"
	"github.com/zacbakerr/werewolf/gateway"
	"github.com/zacbakerr/werewolf/logging"
	"github.com/zacbakerr/werewolf/strategy"
	"github.com/zacbakerr/werewolf/transport/ws"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the orchestrator and play",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.name != "" {
		cfg.Agent.Name = flags.name
	}
	if flags.url != "" {
		cfg.Transport.URL = flags.url
	}
	if flags.provider != "" {
		cfg.Backend.Provider = flags.provider
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, syncLogger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogger()
	if al, ok := logger.(*logging.AgentLogger); ok {
		defer al.StartTimer("agent_run")()
	}

	m, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}

	sink, closeSink, err := buildArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	fallback, _ := cfg.FallbackRole()
	persona, _ := strategy.ParsePersona(cfg.Policy.VillagerPersona)

	a, err := agent.New(cfg.Agent.Name, m, func(o *agent.Options) {
		o.Roster = cfg.Game.Roster
		o.EliminatorCount = cfg.Game.EliminatorCount
		o.PublicChannel = cfg.Game.PublicChannel
		o.PrivateChannel = cfg.Game.PrivateChannel
		o.Moderator = cfg.Game.Moderator
		o.FallbackRole = fallback
		o.VillagerPersona = persona
		o.ProtectSelf = cfg.Policy.ProtectSelf
		o.MinAccuseRounds = cfg.Policy.MinAccuseRounds
		o.Retry = gateway.Policy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
			Multiplier:     cfg.Retry.Multiplier,
		}
		o.MaxCalls = cfg.Backend.MaxCalls
		o.Archive = sink
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	client := ws.NewClient(cfg.TransportURL(), a, func(o *ws.Options) {
		o.ReconnectDelay = cfg.Transport.ReconnectDelay
		o.Logger = logger
	})

	logger.Info("Agent starting",
		"agent", cfg.Agent.Name,
		"provider", cfg.Backend.Provider,
		"model", m.Info().Name,
		"url", cfg.TransportURL(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return client.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Close()
		return nil
	})

	err = g.Wait()
	logger.Info("Agent stopped", "agent", cfg.Agent.Name, "backend_calls", a.Calls())

	return err
}
