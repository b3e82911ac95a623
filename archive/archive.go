// Package archive mirrors the agent's transcript to an external sink so games
// can be replayed or analyzed after the fact. Archiving is best effort: the
// agent logs sink failures and carries on.
package archive

import (
	"context"

	"github.com/zacbakerr/werewolf/core"
)

// Sink persists history events.
type Sink interface {
	// Append stores one event.
	Append(ctx context.Context, ev core.GameHistoryEvent) error
	// Events returns the events stored for agent ordered by sequence.
	Events(ctx context.Context, agent string) ([]core.GameHistoryEvent, error)
}
