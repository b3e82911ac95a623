package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request is a single prompt sent to a reasoning backend.
type Request struct {
	Instructions string `json:"instructions"` // System-level guidance for the model
	Prompt       string `json:"prompt"`       // User prompt text
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
}

// Model is the minimal interface the gateway needs to drive generation.
// Implementations close both channels when done and send at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final text.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   Response
		partial strings.Builder
		gotEnd  bool
	)

	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Text)
				continue
			}
			final = r
			gotEnd = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !gotEnd {
		if partial.Len() == 0 {
			return Response{}, fmt.Errorf("%s: no response produced", m.Info().Provider)
		}
		final = Response{Text: partial.String(), FinishReason: "stop"}
	}

	return final, nil
}

// Reply is one scripted outcome of a MockModel call.
type Reply struct {
	Text string
	Err  error
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Scripted replies are consumed in order; once exhausted, canned responses
// keyed by prompt are used, then a generic echo.
type MockModel struct {
	info Info

	mu        sync.Mutex
	script    []Reply
	responses map[string]string
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script appends replies that are returned in order by subsequent calls.
func (m *MockModel) Script(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
}

// ScriptText appends plain text replies.
func (m *MockModel) ScriptText(texts ...string) {
	for _, t := range texts {
		m.Script(Reply{Text: t})
	}
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of Generate invocations.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) next(req Request) Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r
	}
	if text, ok := m.responses[req.Prompt]; ok {
		return Reply{Text: text}
	}
	return Reply{Text: fmt.Sprintf("Mock response to: %s", req.Prompt)}
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		reply := m.next(req)
		if reply.Err != nil {
			errCh <- reply.Err
			return
		}

		respCh <- Response{Text: reply.Text, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
