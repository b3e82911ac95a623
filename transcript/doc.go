// Package transcript implements the agent's append-only message store.
//
// Inbound messages are segmented by channel (direct messages keyed by
// sender, group messages keyed by channel) and every inbound or outbound
// line is appended to a single chronological event sequence. That sequence,
// rendered with Transcript, is the narrative memory every prompt is built
// from.
package transcript
