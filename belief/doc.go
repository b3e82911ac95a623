// Package belief tracks a probability distribution over the hidden roles of
// the other players.
//
// For every role the tracker keeps a player → probability mapping. The
// agent's own name is never tracked. Discussion messages nudge the
// eliminator distribution through signed deltas produced by the reasoning
// backend, and hard evidence (a seer result) collapses a player to a fixed
// 0/1 assignment that later updates cannot move.
package belief
