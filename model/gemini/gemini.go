// Package gemini provides a model.Model backed by the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/zacbakerr/werewolf/model"
)

const provider = "gemini"

// Options configure the Gemini adapter.
type Options struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	APIKey          string
	BaseURL         string
}

// Model wraps genai.Client behind model.Model.
type Model struct {
	client *genai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:           "gemini-2.5-flash",
		Temperature:     0.7,
		MaxOutputTokens: 1024,
	}
}

// NewModel creates a Gemini model using the Gemini API backend.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		temp := m.opts.Temperature
		genConfig := &genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: m.opts.MaxOutputTokens,
		}
		if req.Instructions != "" {
			genConfig.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
		}

		contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, genConfig)
		if err != nil {
			errCh <- classify(err)
			return
		}

		r := model.Response{ID: resp.ResponseID, Text: resp.Text(), FinishReason: "stop"}
		if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
			r.FinishReason = string(resp.Candidates[0].FinishReason)
		}
		if u := resp.UsageMetadata; u != nil {
			r.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}
		out <- r
	}()

	return out, errCh
}

func classify(err error) error {
	wrapped := fmt.Errorf("gemini api error: %w", err)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.Classify(provider, apiErr.Code, wrapped)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return model.Classify(provider, apiErrPtr.Code, wrapped)
	}

	return model.Classify(provider, 0, wrapped)
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: provider}
}
