// Package ws connects an agent to the game orchestrator over a websocket.
//
// Frames are JSON objects. The orchestrator sends
//
//	{"kind": "notify" | "respond", "event": {...}}
//
// and the client answers every respond frame with
//
//	{"kind": "response", "message_id": ..., "text": ..., "content_type": ...}
//
// or an error frame. Frames are read continuously but dispatched one at a
// time in arrival order, so the agent's transcript follows the wire; all
// writes share one mutex.
package ws
