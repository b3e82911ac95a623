package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/gateway"
	"github.com/zacbakerr/werewolf/model"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   core.Role
	}{
		{"You are a Villager.", core.RoleVillager},
		{"seer", core.RoleSeer},
		{"The DOCTOR", core.RoleProtector},
		{"protector", core.RoleProtector},
		{"wolf", core.RoleEliminator},
		{"I have no idea", core.RoleEliminator},
		// priority: villager wins over seer
		{"not the seer, a villager", core.RoleVillager},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAnswer(tt.answer, core.RoleEliminator))
		})
	}
}

func TestParseAnswerCustomFallback(t *testing.T) {
	assert.Equal(t, core.RoleVillager, ParseAnswer("???", core.RoleVillager))
}

func TestInferCalledOnce(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.ScriptText("You are the seer", "villager")

	inf := New(gateway.New(m))
	assert.Equal(t, core.RoleUnset, inf.Role())
	assert.False(t, inf.Inferred())

	for i := 0; i < 3; i++ {
		role, err := inf.Infer(context.Background(), "You are the seer this game.")
		require.NoError(t, err)
		assert.Equal(t, core.RoleSeer, role)
	}

	assert.Equal(t, 1, m.Calls())
	assert.True(t, inf.Inferred())
	assert.Contains(t, m.Requests()[0].Prompt, "You are the seer this game.")
}

func TestInferBackendFailureBindsFallback(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	m.Script(model.Reply{Err: model.NewFatalError("mock", assert.AnError)})

	inf := New(gateway.New(m), func(o *Options) { o.Fallback = core.RoleVillager })

	role, err := inf.Infer(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, core.RoleVillager, role)

	role, err = inf.Infer(context.Background(), "hello again")
	require.NoError(t, err)
	assert.Equal(t, core.RoleVillager, role)
	assert.Equal(t, 1, m.Calls())
}

func TestInvalidFallbackDefaultsToEliminator(t *testing.T) {
	inf := New(nil, func(o *Options) { o.Fallback = core.RoleUnset })
	assert.Equal(t, core.RoleEliminator, inf.opts.Fallback)
}
