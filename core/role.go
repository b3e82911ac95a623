package core

import (
	"fmt"
	"strings"
)

// Role is the hidden role assigned to a player by the moderator.
// The zero value RoleUnset means the role has not been inferred yet.
type Role int

const (
	// RoleUnset is the state before role inference completes.
	RoleUnset Role = iota
	// RoleEliminator is the hidden adversarial role (the "wolf").
	RoleEliminator
	// RoleVillager has no night action.
	RoleVillager
	// RoleSeer learns one player's true role per night.
	RoleSeer
	// RoleProtector shields one player per night (the "doctor").
	RoleProtector
)

// Roles lists every assignable role in a stable order.
var Roles = []Role{RoleEliminator, RoleVillager, RoleSeer, RoleProtector}

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case RoleEliminator:
		return "eliminator"
	case RoleVillager:
		return "villager"
	case RoleSeer:
		return "seer"
	case RoleProtector:
		return "protector"
	default:
		return "unset"
	}
}

// GameTerm returns the vocabulary the moderator uses for the role.
func (r Role) GameTerm() string {
	switch r {
	case RoleEliminator:
		return "werewolf"
	case RoleProtector:
		return "doctor"
	default:
		return r.String()
	}
}

// IsValid reports whether r is one of the assignable roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleEliminator, RoleVillager, RoleSeer, RoleProtector:
		return true
	default:
		return false
	}
}

// ParseRole accepts both the neutral names and the moderator vocabulary
// (wolf, werewolf, doctor).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eliminator", "wolf", "werewolf":
		return RoleEliminator, nil
	case "villager":
		return RoleVillager, nil
	case "seer":
		return RoleSeer, nil
	case "protector", "doctor":
		return RoleProtector, nil
	default:
		return RoleUnset, fmt.Errorf("unknown role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
