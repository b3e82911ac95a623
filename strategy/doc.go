// Package strategy routes inbound messages to a response strategy and holds
// the per-role guidance table.
//
// Routing looks at the channel type, the channel and the sender together
// with the agent's bound role:
//
//	DIRECT  moderator, seer       -> seer investigation
//	DIRECT  moderator, protector  -> protection
//	GROUP   public,  vote request -> vote (one player name)
//	GROUP   public                -> discussion
//	GROUP   private, eliminator   -> coordination (always names a target)
//	GROUP   private, other roles  -> fixed refusal
//	anything else                 -> generic reply
package strategy
