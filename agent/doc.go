// Package agent assembles one reactive game player.
//
// An Agent owns its transcript store, role inference, belief tracker, role
// memories, response router and deliberation pipeline. The orchestrator
// drives it through two callbacks:
//
//   - OnNotify records a message that needs no answer.
//   - OnRespond records a message and returns the agent's reply.
//
// Both callbacks may arrive concurrently. They are funneled through a single
// handoff channel so that every state mutation happens on one executor
// goroutine and at most one exchange is in flight.
package agent
