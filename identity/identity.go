// Package identity infers the agent's own hidden role from the moderator's
// first private announcement.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/logging"
)

// Caller sends one prompt to the reasoning backend.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// Options configure an Inferrer.
type Options struct {
	// Fallback is bound when the answer matches no known role or the backend
	// call fails.
	Fallback core.Role
	Logger   logging.Logger
}

// Inferrer binds the agent role exactly once.
type Inferrer struct {
	caller Caller
	opts   Options

	mu        sync.Mutex
	attempted bool
	role      core.Role
}

// New creates an Inferrer.
func New(caller Caller, optFns ...func(o *Options)) *Inferrer {
	opts := Options{
		Fallback: core.RoleEliminator,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if !opts.Fallback.IsValid() {
		opts.Fallback = core.RoleEliminator
	}
	return &Inferrer{caller: caller, opts: opts}
}

// Prompt builds the constrained instruction sent to the backend.
func Prompt(announcement string) string {
	return fmt.Sprintf(
		"The moderator of a werewolf game sent me this private message about my role: '%s'. "+
			"Which role was I assigned? The possible roles are 'wolf', 'villager', 'doctor' and 'seer'. "+
			"Answer in a few words.",
		announcement,
	)
}

// Infer derives the role from the moderator announcement. Only the first
// call reaches the backend; later calls return the bound role. On backend
// failure the fallback role is bound and the error is returned alongside it.
func (i *Inferrer) Infer(ctx context.Context, announcement string) (core.Role, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.attempted {
		return i.role, nil
	}
	i.attempted = true

	answer, err := i.caller.Call(ctx, Prompt(announcement))
	if err != nil {
		i.role = i.opts.Fallback
		i.opts.Logger.Warn("Role inference failed, using fallback", "role", i.role.String(), "error", err)
		return i.role, fmt.Errorf("infer role: %w", err)
	}

	i.role = ParseAnswer(answer, i.opts.Fallback)
	i.opts.Logger.Info("Role inferred", "role", i.role.String(), "answer", answer)

	return i.role, nil
}

// Role returns the bound role, or core.RoleUnset before inference.
func (i *Inferrer) Role() core.Role {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.role
}

// Inferred reports whether inference has already run.
func (i *Inferrer) Inferred() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.attempted
}

// ParseAnswer maps free text onto a role by case-insensitive substring match
// in the fixed priority order villager, seer, protector ("doctor"). Anything
// else yields fallback.
func ParseAnswer(answer string, fallback core.Role) core.Role {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "villager"):
		return core.RoleVillager
	case strings.Contains(lower, "seer"):
		return core.RoleSeer
	case strings.Contains(lower, "doctor"), strings.Contains(lower, "protector"):
		return core.RoleProtector
	default:
		return fallback
	}
}
