package main

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/zacbakerr/werewolf/archive"
	"github.com/zacbakerr/werewolf/archive/mongo"
	"github.com/zacbakerr/werewolf/config"
	"github.com/zacbakerr/werewolf/logging"
	"github.com/zacbakerr/werewolf/model"
	"github.com/zacbakerr/werewolf/model/anthropic"
	"github.com/zacbakerr/werewolf/model/gemini"
	"github.com/zacbakerr/werewolf/model/openai"
)

func buildLogger(cfg *config.Config) (logging.Logger, func(), error) {
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.Backend == "zap" {
		z, err := logging.NewZapLogger(level)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return z, func() { _ = z.Sync() }, nil
	}

	return logging.NewSlogLogger(level, cfg.Logging.Format, false).WithComponent("werewolf-agent"), func() {}, nil
}

func buildModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	b := cfg.Backend

	switch b.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			o.Model = b.Model
			o.Temperature = b.Temperature
			o.MaxCompletionTokens = b.MaxTokens
			o.APIKey = b.APIKey
			o.BaseURL = b.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = sdk.Model(b.Model)
			o.Temperature = b.Temperature
			o.MaxTokens = b.MaxTokens
			o.APIKey = b.APIKey
			o.BaseURL = b.BaseURL
		}), nil
	case "gemini":
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = b.Model
			o.Temperature = float32(b.Temperature)
			o.MaxOutputTokens = int32(b.MaxTokens)
			o.APIKey = b.APIKey
			o.BaseURL = b.BaseURL
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		return m, nil
	case "mock":
		return model.NewMockModel(b.Model, "mock"), nil
	default:
		return nil, fmt.Errorf("unsupported backend provider %q", b.Provider)
	}
}

// buildArchive returns a nil sink when archiving is disabled.
func buildArchive(ctx context.Context, cfg *config.Config) (archive.Sink, func(), error) {
	switch cfg.Archive.Backend {
	case "memory":
		return archive.NewInMemoryStore(), func() {}, nil
	case "mongo":
		store, err := mongo.Connect(ctx, cfg.Archive.MongoURI, func(o *mongo.Options) {
			o.Database = cfg.Archive.Database
			o.Collection = cfg.Archive.Collection
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect archive: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
