package belief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/logging"
)

var (
	// ErrEmptyRoster is returned when Initialize has no other player to track.
	ErrEmptyRoster = errors.New("belief: empty roster")
	// ErrNotInitialized is returned by operations that need a roster.
	ErrNotInitialized = errors.New("belief: tracker not initialized")
	// ErrUnknownPlayer is returned for names outside the tracked roster.
	ErrUnknownPlayer = errors.New("belief: unknown player")
)

// Caller sends one prompt to the reasoning backend.
type Caller interface {
	Call(ctx context.Context, prompt string) (string, error)
}

// Options configure a Tracker.
type Options struct {
	Logger logging.Logger
}

// Tracker holds the belief distribution of one agent. It is safe for
// concurrent use, though the agent serializes all mutation anyway.
type Tracker struct {
	self   string
	caller Caller
	opts   Options

	mu          sync.RWMutex
	players     []string
	eliminators int
	dist        map[core.Role]map[string]float64
	frozen      map[core.Role]map[string]bool
}

// New creates an uninitialized tracker for the player named self.
func New(self string, caller Caller, optFns ...func(o *Options)) *Tracker {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Tracker{self: self, caller: caller, opts: opts}
}

// Initialize sets structural priors from the roster. n is the roster size
// including self; every other player starts at eliminator e/n, seer 1/n,
// protector 1/n and villager max(0, n-e-2)/n.
func (t *Tracker) Initialize(roster []string, eliminatorCount int) error {
	n := len(roster)
	if n == 0 {
		return ErrEmptyRoster
	}
	if eliminatorCount < 0 || eliminatorCount > n {
		return fmt.Errorf("belief: eliminator count %d outside [0, %d]", eliminatorCount, n)
	}

	players := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for _, p := range roster {
		if p == t.self || p == "" || seen[p] {
			continue
		}
		seen[p] = true
		players = append(players, p)
	}
	if len(players) == 0 {
		return ErrEmptyRoster
	}

	fn := float64(n)
	priors := map[core.Role]float64{
		core.RoleEliminator: float64(eliminatorCount) / fn,
		core.RoleSeer:       1 / fn,
		core.RoleProtector:  1 / fn,
		core.RoleVillager:   math.Max(0, fn-float64(eliminatorCount)-2) / fn,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.players = players
	t.eliminators = eliminatorCount
	t.dist = make(map[core.Role]map[string]float64, len(core.Roles))
	t.frozen = make(map[core.Role]map[string]bool, len(core.Roles))
	for _, r := range core.Roles {
		t.dist[r] = make(map[string]float64, len(players))
		t.frozen[r] = make(map[string]bool)
		for _, p := range players {
			t.dist[r][p] = priors[r]
		}
	}

	return nil
}

// Initialized reports whether a roster has been set.
func (t *Tracker) Initialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dist != nil
}

// Players returns the tracked players in roster order.
func (t *Tracker) Players() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.players))
	copy(out, t.players)
	return out
}

// Probability returns the current belief that player holds role.
func (t *Tracker) Probability(role core.Role, player string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dist[role][player]
}

// Distribution returns a copy of the mapping for role.
func (t *Tracker) Distribution(role core.Role) map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.dist[role]))
	for k, v := range t.dist[role] {
		out[k] = v
	}
	return out
}

// Sum returns the total mass of the distribution for role.
func (t *Tracker) Sum(role core.Role) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s float64
	for _, v := range t.dist[role] {
		s += v
	}
	return s
}

// UpdateFromDiscussion asks the backend how msg shifts suspicion and applies
// the returned deltas to the eliminator distribution. Output that does not
// parse is logged and ignored; backend errors are returned.
func (t *Tracker) UpdateFromDiscussion(ctx context.Context, msg core.Message, transcript []string) error {
	if !t.Initialized() {
		return ErrNotInitialized
	}

	prompt := t.updatePrompt(msg, transcript)

	answer, err := t.caller.Call(ctx, prompt)
	if err != nil {
		return fmt.Errorf("belief update: %w", err)
	}

	deltas, err := ParseDeltas(answer)
	if err != nil {
		t.opts.Logger.Warn("Ignoring unparseable belief update", "error", err, "answer", answer)
		return nil
	}

	t.ApplyDeltas(deltas)

	return nil
}

func (t *Tracker) updatePrompt(msg core.Message, transcript []string) string {
	current, _ := json.Marshal(t.Distribution(core.RoleEliminator))

	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(t.self)
	b.WriteString(" in a game of werewolf. This is the game so far:\n")
	b.WriteString(strings.Join(transcript, "\n"))
	b.WriteString("\n\nYour current estimate of how likely each player is to be a werewolf:\n")
	b.Write(current)
	b.WriteString("\n\nA new message arrived:\n")
	fmt.Fprintf(&b, "[from %s]: %s\n\n", msg.Sender, msg.Text)
	b.WriteString("How does this message change your suspicion of each player? ")
	b.WriteString("Reply with only a JSON object mapping player names to signed numeric adjustments, ")
	b.WriteString(`for example {"bob": 0.1, "carol": -0.05}. Omit players whose suspicion does not change.`)

	return b.String()
}

// ApplyDeltas adds signed adjustments to the eliminator distribution and
// renormalizes. Unknown names, self and frozen cells are skipped.
func (t *Tracker) ApplyDeltas(deltas map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dist == nil {
		return
	}

	elim := t.dist[core.RoleEliminator]
	for name, d := range deltas {
		p, ok := t.resolveLocked(name)
		if !ok || t.frozen[core.RoleEliminator][p] {
			continue
		}
		elim[p] += d
	}

	t.renormalizeLocked(core.RoleEliminator)
}

// Confirm collapses player to role: 1 for role, 0 for every other role. The
// cells are frozen and every distribution is renormalized over the players
// that are still free.
func (t *Tracker) Confirm(player string, role core.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("belief: cannot confirm role %s", role)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dist == nil {
		return ErrNotInitialized
	}
	p, ok := t.resolveLocked(player)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}

	for _, r := range core.Roles {
		v := 0.0
		if r == role {
			v = 1.0
		}
		t.dist[r][p] = v
		t.frozen[r][p] = true
	}
	for _, r := range core.Roles {
		t.renormalizeLocked(r)
	}

	return nil
}

// Clear records that player certainly does not hold role.
func (t *Tracker) Clear(player string, role core.Role) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dist == nil {
		return ErrNotInitialized
	}
	p, ok := t.resolveLocked(player)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}

	t.dist[role][p] = 0
	t.frozen[role][p] = true
	t.renormalizeLocked(role)

	return nil
}

// MostSuspected returns the argmax of role's distribution. Ties go to the
// player listed first in the roster.
func (t *Tracker) MostSuspected(role core.Role) (string, bool) {
	return t.MostSuspectedExcluding(role)
}

// MostSuspectedExcluding is MostSuspected over the players not in exclude.
func (t *Tracker) MostSuspectedExcluding(role core.Role, exclude ...string) (string, bool) {
	ranked := t.Ranked(role)
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	for _, p := range ranked {
		if !skip[p] {
			return p, true
		}
	}
	return "", false
}

// Ranked lists the tracked players by descending probability for role,
// keeping roster order among equals.
func (t *Tracker) Ranked(role core.Role) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	dist := t.dist[role]
	if len(dist) == 0 {
		return nil
	}

	out := make([]string, len(t.players))
	copy(out, t.players)
	sort.SliceStable(out, func(i, j int) bool { return dist[out[i]] > dist[out[j]] })

	return out
}

// Summary renders role's distribution as "name: p" lines in roster order.
func (t *Tracker) Summary(role core.Role) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines := make([]string, 0, len(t.players))
	for _, p := range t.players {
		lines = append(lines, fmt.Sprintf("%s: %.2f", p, t.dist[role][p]))
	}
	return strings.Join(lines, "\n")
}

func (t *Tracker) resolveLocked(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, p := range t.players {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

// renormalizeLocked scales the free cells of role so that, together with the
// frozen cells, the distribution sums to 1. Free cells pushed below 0 are
// clamped to 0 first. Frozen mass above 1 leaves the
// free cells at 0. When the free cells carry no positive mass the remainder
// is spread evenly over them.
func (t *Tracker) renormalizeLocked(role core.Role) {
	dist := t.dist[role]
	frozen := t.frozen[role]

	var frozenMass, freeMass float64
	free := make([]string, 0, len(t.players))
	for _, p := range t.players {
		if frozen[p] {
			frozenMass += dist[p]
			continue
		}
		if dist[p] < 0 {
			dist[p] = 0
		}
		free = append(free, p)
		freeMass += dist[p]
	}
	if len(free) == 0 {
		return
	}

	target := math.Max(0, 1-frozenMass)

	if freeMass <= 0 {
		share := target / float64(len(free))
		for _, p := range free {
			dist[p] = share
		}
		return
	}

	scale := target / freeMass
	for _, p := range free {
		dist[p] *= scale
	}
}

// ParseDeltas decodes a backend answer into name → delta. Markdown code
// fences and prose around the outermost JSON object are tolerated; anything
// that is not an object of numbers fails.
func ParseDeltas(answer string) (map[string]float64, error) {
	s := strings.TrimSpace(answer)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("belief: no JSON object in answer")
	}

	var deltas map[string]float64
	if err := json.Unmarshal([]byte(s[start:end+1]), &deltas); err != nil {
		return nil, fmt.Errorf("belief: decode deltas: %w", err)
	}
	for name, v := range deltas {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("belief: non-finite delta for %s", name)
		}
	}

	return deltas, nil
}
