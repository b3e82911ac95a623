package strategy

import (
	"fmt"
	"strings"

	"github.com/zacbakerr/werewolf/core"
)

// RoleStrategy is the role-specific guidance consulted by every route.
type RoleStrategy struct {
	Role core.Role
	// Guidance is the persona text placed at the top of every prompt.
	Guidance string
	// DiscussionQuestions seed the Thought stage in the public channel.
	DiscussionQuestions string
	// NightQuestions seed the Thought stage of the role's night action.
	NightQuestions string
	// SuppressEarlyAccusations holds back direct accusations until enough
	// vote rounds have passed.
	SuppressEarlyAccusations bool
}

var discussionQuestions = `1. What important information came up in the latest discussion?
2. Who looks most suspicious, and who looks trustworthy?
3. What observations can I share that help my side without exposing my role?
4. Where should I steer the discussion next?
5. If a vote is coming, who should I vote for and why?
6. How do I answer if someone accuses me?`

// Strategies maps every assignable role to its strategy.
var Strategies = map[core.Role]RoleStrategy{
	core.RoleEliminator: {
		Role: core.RoleEliminator,
		Guidance: `You are a werewolf. Remove the villagers one by one without being found out.
1. Blend in with the villagers during the day.
2. Agree on a target with the other werewolves at night.
3. Watch for signs of who the seer and the doctor are.
4. Defend yourself when accused, without overreacting.`,
		DiscussionQuestions: discussionQuestions,
		NightQuestions: `1. Which villagers are the biggest threat to the werewolves?
2. Who could be the seer or the doctor, judging by what they said?
3. Whose elimination would draw the least suspicion?
4. How do we coordinate with the other werewolves?
5. Which single target should we agree on? Always propose at least one player.
6. How do we defend ourselves tomorrow if accused?`,
	},
	core.RoleVillager: {
		Role: core.RoleVillager,
		Guidance: `You are a villager. Find the werewolves and vote them out.
1. Watch how players behave and how they vote.
2. Share your suspicions and listen to the others.
3. Be wary of false accusations.
4. Work out who the seer and the doctor might be so they survive.`,
		DiscussionQuestions:      discussionQuestions,
		SuppressEarlyAccusations: true,
	},
	core.RoleSeer: {
		Role: core.RoleSeer,
		Guidance: `You are the seer. Each night you learn the true role of one player.
1. Use what you learn without revealing yourself too early.
2. Keep track of every result you have gathered.
3. Nudge the village discussion in the right direction.
4. Reveal your role only when it saves the village.`,
		DiscussionQuestions: discussionQuestions,
		NightQuestions: `1. What new information came up recently?
2. Who is the most suspicious or most important player to check?
3. How do I use my ability without exposing my role?
4. Which result would help the village most right now?
5. How can I guide tomorrow's discussion?`,
		SuppressEarlyAccusations: true,
	},
	core.RoleProtector: {
		Role: core.RoleProtector,
		Guidance: `You are the doctor. Each night you protect one player from elimination.
1. Decide between protecting yourself and protecting others.
2. Look for key players worth protecting, such as the seer.
3. Vary your choices so the werewolves cannot predict them.
4. Take part in discussions without revealing your role.`,
		DiscussionQuestions: discussionQuestions,
		NightQuestions: `1. Who seems to be in the most danger after today's discussion?
2. Have I protected myself recently, or should I now?
3. Is anyone likely to be the seer or another key role?
4. How do I keep my choices unpredictable?
5. How can I help the village during the day?`,
		SuppressEarlyAccusations: true,
	},
}

// unbound is used until the moderator has told the agent its role.
var unbound = RoleStrategy{
	Role: core.RoleUnset,
	Guidance: `You do not know your role yet. Take part without claiming any role.
1. Introduce yourself briefly and listen to the others.
2. Share only what you have actually observed.
3. Do not claim abilities or knowledge you do not have.`,
	DiscussionQuestions: `1. What important information came up in the latest discussion?
2. What can I say that is friendly and true without claiming a role?
3. Which questions would help me understand the other players?`,
	SuppressEarlyAccusations: true,
}

// StrategyFor returns the strategy for role. Roles that are not yet bound get
// neutral guidance that claims no role.
func StrategyFor(role core.Role) RoleStrategy {
	if s, ok := Strategies[role]; ok {
		return s
	}
	return unbound
}

// Persona selects how a villager presents itself.
type Persona string

const (
	// PersonaHonest plays the bound role.
	PersonaHonest Persona = "honest"
	// PersonaDecoy makes a villager speak as if it were a werewolf.
	PersonaDecoy Persona = "decoy"
)

// ParsePersona validates a persona name. Empty means honest.
func ParsePersona(s string) (Persona, error) {
	switch Persona(strings.ToLower(strings.TrimSpace(s))) {
	case "", PersonaHonest:
		return PersonaHonest, nil
	case PersonaDecoy:
		return PersonaDecoy, nil
	default:
		return "", fmt.Errorf("unknown villager persona %q", s)
	}
}
