package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrAlreadyChecked is returned when a player is investigated twice.
var ErrAlreadyChecked = errors.New("player already investigated")

// SeerCheck is one investigation outcome.
type SeerCheck struct {
	Player string
	Result string
}

// SeerCheckLog records investigated players and what the moderator revealed.
// A pending target is the player named in the last investigation reply whose
// result has not arrived yet.
type SeerCheckLog struct {
	mu      sync.RWMutex
	order   []string
	results map[string]string
	pending string
}

// NewSeerCheckLog constructs an empty log.
func NewSeerCheckLog() *SeerCheckLog {
	return &SeerCheckLog{results: make(map[string]string)}
}

// Record appends the result for player.
func (l *SeerCheckLog) Record(player, result string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.results[player]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyChecked, player)
	}
	l.order = append(l.order, player)
	l.results[player] = result
	if l.pending == player {
		l.pending = ""
	}
	return nil
}

// Checked reports whether player has been investigated.
func (l *SeerCheckLog) Checked(player string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.results[player]
	return ok
}

// Result returns the recorded outcome for player.
func (l *SeerCheckLog) Result(player string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.results[player]
	return r, ok
}

// Players lists investigated players in investigation order.
func (l *SeerCheckLog) Players() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Entries returns every check in investigation order.
func (l *SeerCheckLog) Entries() []SeerCheck {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]SeerCheck, 0, len(l.order))
	for _, p := range l.order {
		out = append(out, SeerCheck{Player: p, Result: l.results[p]})
	}
	return out
}

// SetPending marks player as the target whose result is awaited.
func (l *SeerCheckLog) SetPending(player string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = player
}

// Pending returns the awaited target, if any.
func (l *SeerCheckLog) Pending() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pending, l.pending != ""
}

// Render lists checks as "Checked PLAYER: RESULT" lines.
func (l *SeerCheckLog) Render() string {
	entries := l.Entries()
	if len(entries) == 0 {
		return "none"
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("Checked %s: %s", e.Player, e.Result)
	}
	return strings.Join(lines, "\n")
}
