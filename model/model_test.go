package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelScriptedReplies(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.ScriptText("first", "second")
	m.Script(Reply{Err: NewTransientError("mock", ErrOverloaded)})

	ctx := context.Background()

	r, err := Collect(ctx, m, Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", r.Text)

	r, err = Collect(ctx, m, Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", r.Text)

	_, err = Collect(ctx, m, Request{Prompt: "c"})
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	r, err = Collect(ctx, m, Request{Prompt: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: d", r.Text)

	assert.Equal(t, 4, m.Calls())
	assert.Equal(t, "c", m.Requests()[2].Prompt)
}

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.AddResponse("ping", "pong")

	r, err := Collect(context.Background(), m, Request{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", r.Text)
}

func TestMockModelCancelledContext(t *testing.T) {
	m := NewMockModel("mock", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, m, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		msg    string
		want   ErrorKind
	}{
		{429, "", ErrorKindTransient},
		{503, "", ErrorKindTransient},
		{529, "", ErrorKindTransient},
		{0, "Overloaded", ErrorKindTransient},
		{0, "rate limit reached", ErrorKindTransient},
		{400, "bad request", ErrorKindFatal},
		{401, "unauthorized", ErrorKindFatal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.msg), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.status, tt.msg))
		})
	}
}

func TestClassifyKeepsExistingBackendError(t *testing.T) {
	orig := NewFatalError("x", errors.New("boom"))
	wrapped := fmt.Errorf("outer: %w", orig)

	got := Classify("y", 429, wrapped)
	assert.Same(t, orig, got)
	assert.False(t, IsTransient(got))
}

func TestBackendErrorUnwrap(t *testing.T) {
	err := Classify("openai", 529, ErrOverloaded)
	assert.ErrorIs(t, err, ErrOverloaded)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "status 529")
}
