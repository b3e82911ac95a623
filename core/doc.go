// Package core provides the foundational domain types shared by every
// component of the werewolf agent. It defines:
//
//   - Roles (the hidden role enum bound once by role inference)
//   - Messages and inbound/outward events exchanged with the orchestrator
//   - GameHistoryEvents (immutable transcript lines)
//   - ModelLimiter (per-agent backend call budget)
//   - Small helpers for locating roster names inside free-form text
//
// The package deliberately keeps behavior out: storage, inference, beliefs and
// deliberation live in their own packages and only share these types.
package core
