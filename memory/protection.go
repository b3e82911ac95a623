package memory

import (
	"fmt"
	"strings"
	"sync"
)

// ProtectionLog records who the protector shielded each night, oldest first.
type ProtectionLog struct {
	mu      sync.RWMutex
	targets []string
}

// NewProtectionLog constructs an empty log.
func NewProtectionLog() *ProtectionLog { return &ProtectionLog{} }

// Record appends a protection target.
func (l *ProtectionLog) Record(player string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.targets = append(l.targets, player)
}

// Targets returns every protection target in order.
func (l *ProtectionLog) Targets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.targets))
	copy(out, l.targets)
	return out
}

// Last returns the most recent target.
func (l *ProtectionLog) Last() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.targets) == 0 {
		return "", false
	}
	return l.targets[len(l.targets)-1], true
}

// Count returns how many nights player was protected.
func (l *ProtectionLog) Count(player string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, t := range l.targets {
		if t == player {
			n++
		}
	}
	return n
}

// Render lists protections as "Night N: PLAYER" lines.
func (l *ProtectionLog) Render() string {
	targets := l.Targets()
	if len(targets) == 0 {
		return "none"
	}
	lines := make([]string, len(targets))
	for i, t := range targets {
		lines[i] = fmt.Sprintf("Night %d: %s", i+1, t)
	}
	return strings.Join(lines, "\n")
}
