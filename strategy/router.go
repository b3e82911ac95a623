package strategy

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/zacbakerr/werewolf/belief"
	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/deliberation"
	"github.com/zacbakerr/werewolf/logging"
	"github.com/zacbakerr/werewolf/memory"
	"github.com/zacbakerr/werewolf/transcript"
)

// RefusalText is returned to non-eliminators addressed on the private channel.
const RefusalText = "I am not a participant in this channel."

// Route names the strategy chosen for a message.
type Route int

const (
	// RouteGeneric answers anything no other route claims.
	RouteGeneric Route = iota
	// RouteSeerInvestigation picks a player for the seer to check.
	RouteSeerInvestigation
	// RouteProtection picks a player for the protector to shield.
	RouteProtection
	// RouteVote answers a moderator vote request with one name.
	RouteVote
	// RouteDiscussion contributes to the public discussion.
	RouteDiscussion
	// RouteCoordination proposes a target on the private channel.
	RouteCoordination
	// RouteRefusal declines to speak on the private channel.
	RouteRefusal
)

// String implements fmt.Stringer.
func (r Route) String() string {
	switch r {
	case RouteSeerInvestigation:
		return "seer_investigation"
	case RouteProtection:
		return "protection"
	case RouteVote:
		return "vote"
	case RouteDiscussion:
		return "discussion"
	case RouteCoordination:
		return "coordination"
	case RouteRefusal:
		return "refusal"
	default:
		return "generic"
	}
}

// Deliberator runs one deliberation cycle.
type Deliberator interface {
	Run(ctx context.Context, in deliberation.Input) (deliberation.Result, error)
}

// Options configure a Router.
type Options struct {
	PublicChannel  string
	PrivateChannel string
	Moderator      string
	// Roster lists every player, self included.
	Roster []string
	// ProtectSelf makes the protector always shield itself without
	// deliberating.
	ProtectSelf bool
	// MinAccuseRounds is the number of vote rounds before non-eliminators may
	// accuse directly.
	MinAccuseRounds int
	// VillagerPersona selects how a villager presents itself.
	VillagerPersona Persona
	Logger          logging.Logger
}

// State bundles the agent-owned state the router reads and updates.
type State struct {
	Store       *transcript.Store
	Beliefs     *belief.Tracker
	SeerChecks  *memory.SeerCheckLog
	Protections *memory.ProtectionLog
}

// Response is the outcome of one dispatch.
type Response struct {
	Route Route
	Text  string
	// Target is the player the response acts on, if any.
	Target string
	Cycle  *deliberation.Result
}

// Router chooses and runs response strategies for one agent.
type Router struct {
	self  string
	state State
	delib Deliberator
	opts  Options

	mu           sync.Mutex
	votingRounds int
}

// NewRouter creates a Router.
func NewRouter(self string, state State, delib Deliberator, optFns ...func(o *Options)) *Router {
	opts := Options{
		PublicChannel:   "play-arena",
		PrivateChannel:  "wolf's-den",
		Moderator:       "moderator",
		MinAccuseRounds: 1,
		VillagerPersona: PersonaHonest,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Router{self: self, state: state, delib: delib, opts: opts}
}

var voteRequest = regexp.MustCompile(`(?i)\bvot(e|es|ing)\b`)

// IsVoteRequest reports whether msg is the moderator asking for a vote on
// the public channel.
func (r *Router) IsVoteRequest(msg core.Message) bool {
	return msg.ChannelType == core.ChannelGroup &&
		msg.Channel == r.opts.PublicChannel &&
		msg.Sender == r.opts.Moderator &&
		voteRequest.MatchString(msg.Text)
}

// Classify picks the route for msg given the bound role.
func (r *Router) Classify(msg core.Message, role core.Role) Route {
	switch msg.ChannelType {
	case core.ChannelDirect:
		if msg.Sender != r.opts.Moderator {
			return RouteGeneric
		}
		switch role {
		case core.RoleSeer:
			return RouteSeerInvestigation
		case core.RoleProtector:
			return RouteProtection
		default:
			return RouteGeneric
		}
	case core.ChannelGroup:
		switch msg.Channel {
		case r.opts.PublicChannel:
			if r.IsVoteRequest(msg) {
				return RouteVote
			}
			return RouteDiscussion
		case r.opts.PrivateChannel:
			if role != core.RoleEliminator {
				return RouteRefusal
			}
			return RouteCoordination
		}
	}
	return RouteGeneric
}

// VotingRounds returns how many vote requests have been seen.
func (r *Router) VotingRounds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.votingRounds
}

// Observe updates role memory from a message that needs no reply. For the
// seer it records the moderator's answer about the pending target.
func (r *Router) Observe(msg core.Message, role core.Role) {
	if role != core.RoleSeer || !msg.IsDirect() || msg.Sender != r.opts.Moderator {
		return
	}
	target, ok := r.state.SeerChecks.Pending()
	if !ok {
		return
	}
	if _, named := core.FirstMentioned(msg.Text, []string{target}); !named {
		return
	}

	if err := r.state.SeerChecks.Record(target, msg.Text); err != nil {
		r.opts.Logger.Warn("Seer result not recorded", "player", target, "error", err)
		return
	}

	if RevealsEliminator(msg.Text) {
		err := r.state.Beliefs.Confirm(target, core.RoleEliminator)
		r.logBeliefErr(err, target)
	} else {
		err := r.state.Beliefs.Clear(target, core.RoleEliminator)
		r.logBeliefErr(err, target)
	}
	r.opts.Logger.Info("Seer result recorded", "player", target)
}

func (r *Router) logBeliefErr(err error, player string) {
	if err != nil {
		r.opts.Logger.Debug("Belief not updated from seer result", "player", player, "error", err)
	}
}

var (
	wolfWord = regexp.MustCompile(`(?i)\b(were)?wol(f|ves)\b|\beliminator\b`)
	negation = regexp.MustCompile(`(?i)\b(not|isn['’]?t|no|never)\s+(a\s+|an\s+|the\s+|one\s+of\s+the\s+)?((were)?wol(f|ves)|eliminators?)\b`)
)

// RevealsEliminator reports whether a seer result names the eliminator role
// without a negation directly in front of it.
func RevealsEliminator(text string) bool {
	return wolfWord.MatchString(text) && !negation.MatchString(text)
}

// Respond runs the strategy chosen for msg.
func (r *Router) Respond(ctx context.Context, msg core.Message, role core.Role) (Response, error) {
	route := r.Classify(msg, role)

	var (
		resp Response
		err  error
	)

	switch route {
	case RouteRefusal:
		resp = Response{Text: RefusalText}
	case RouteSeerInvestigation:
		resp, err = r.investigate(ctx, role)
	case RouteProtection:
		resp, err = r.protect(ctx, role)
	case RouteVote:
		r.mu.Lock()
		r.votingRounds++
		r.mu.Unlock()
		resp, err = r.vote(ctx, role)
	case RouteDiscussion:
		resp, err = r.discuss(ctx, role)
	case RouteCoordination:
		resp, err = r.coordinate(ctx, role)
	default:
		resp, err = r.generic(ctx, role)
	}

	resp.Route = route

	return resp, err
}

// persona returns the strategy the prompts speak as.
func (r *Router) persona(role core.Role) RoleStrategy {
	if role == core.RoleVillager && r.opts.VillagerPersona == PersonaDecoy {
		return StrategyFor(core.RoleEliminator)
	}
	return StrategyFor(role)
}

func (r *Router) others(exclude ...string) []string {
	skip := map[string]bool{r.self: true}
	for _, e := range exclude {
		skip[e] = true
	}
	out := make([]string, 0, len(r.opts.Roster))
	for _, p := range r.opts.Roster {
		if !skip[p] {
			out = append(out, p)
		}
	}
	return out
}

// Teammates lists players seen speaking on the private channel.
func (r *Router) Teammates() []string {
	var mates []string
	for _, p := range r.state.Store.GroupSpeakers(r.opts.PrivateChannel) {
		if p != r.self && p != r.opts.Moderator {
			mates = append(mates, p)
		}
	}
	return mates
}

func (r *Router) beliefMemory() string {
	if !r.state.Beliefs.Initialized() {
		return ""
	}
	return "How likely I think each player is to be a werewolf:\n" + r.state.Beliefs.Summary(core.RoleEliminator)
}

func (r *Router) intro() string {
	if intro := r.state.Store.Intro(); intro != "" {
		return "Game rules as announced by the moderator:\n" + intro
	}
	return ""
}

// pick returns the first candidate named in text, then the belief-ranked
// fallback, then the first candidate.
func (r *Router) pick(text string, candidates []string, rankBy core.Role, exclude ...string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if name, ok := core.FirstMentioned(text, candidates); ok {
		return name, true
	}
	allowed := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		allowed[c] = true
	}
	for _, p := range r.state.Beliefs.Ranked(rankBy) {
		if allowed[p] && !contains(exclude, p) {
			return p, false
		}
	}
	return candidates[0], false
}

func (r *Router) run(ctx context.Context, in deliberation.Input) (*deliberation.Result, error) {
	in.Self = r.self
	res, err := r.delib.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *Router) investigate(ctx context.Context, role core.Role) (Response, error) {
	checked := r.state.SeerChecks.Players()
	candidates := r.others(checked...)

	constraints := fmt.Sprintf("Choose exactly one of these players: %s.", strings.Join(candidates, ", "))
	if len(checked) > 0 {
		constraints += fmt.Sprintf(" Never choose a player you already investigated: %s.", strings.Join(checked, ", "))
	}

	s := StrategyFor(role)
	res, err := r.run(ctx, deliberation.Input{
		Persona:     role,
		Guidance:    s.Guidance,
		Questions:   s.NightQuestions,
		Transcript:  r.state.Store.Transcript(false),
		Memory:      []string{r.intro(), "My past seer checks:\n" + r.state.SeerChecks.Render(), r.beliefMemory()},
		Action:      deliberation.ActionInvestigate,
		Constraints: constraints,
	})
	if err != nil {
		return Response{}, err
	}

	text := res.Final
	target, named := r.pick(res.Final, candidates, core.RoleEliminator)
	if !named {
		if target == "" {
			return Response{Text: text, Cycle: res}, nil
		}
		r.opts.Logger.Info("Investigation answer named no unchecked player, substituting", "target", target)
		text = target
	}
	r.state.SeerChecks.SetPending(target)

	return Response{Text: text, Target: target, Cycle: res}, nil
}

func (r *Router) protect(ctx context.Context, role core.Role) (Response, error) {
	if r.opts.ProtectSelf {
		r.state.Protections.Record(r.self)
		return Response{Text: r.self, Target: r.self}, nil
	}

	s := StrategyFor(role)
	res, err := r.run(ctx, deliberation.Input{
		Persona:     role,
		Guidance:    s.Guidance,
		Questions:   s.NightQuestions,
		Transcript:  r.state.Store.Transcript(false),
		Memory:      []string{r.intro(), "Players I protected so far:\n" + r.state.Protections.Render(), r.beliefMemory()},
		Action:      deliberation.ActionProtect,
		Constraints: fmt.Sprintf("Choose exactly one of these players: %s.", strings.Join(r.opts.Roster, ", ")),
	})
	if err != nil {
		return Response{}, err
	}

	text := res.Final
	target, named := core.FirstMentioned(res.Final, r.opts.Roster)
	if !named {
		target = r.self
		text = r.self
	}
	r.state.Protections.Record(target)

	return Response{Text: text, Target: target, Cycle: res}, nil
}

func (r *Router) vote(ctx context.Context, role core.Role) (Response, error) {
	var exclude []string
	rankBy := core.RoleEliminator
	if role == core.RoleEliminator {
		exclude = r.Teammates()
		rankBy = core.RoleSeer
	}
	candidates := r.others(exclude...)

	s := r.persona(role)
	res, err := r.run(ctx, deliberation.Input{
		Persona:     s.Role,
		Guidance:    s.Guidance,
		Questions:   s.DiscussionQuestions,
		Transcript:  r.state.Store.Transcript(false),
		Memory:      []string{r.intro(), r.beliefMemory()},
		Action:      deliberation.ActionVote,
		Constraints: fmt.Sprintf("Answer with exactly one name from: %s.", strings.Join(candidates, ", ")),
	})
	if err != nil {
		return Response{}, err
	}

	target, _ := r.pick(res.Final, candidates, rankBy)
	if target == "" {
		return Response{Text: res.Final, Cycle: res}, nil
	}

	return Response{Text: target, Target: target, Cycle: res}, nil
}

func (r *Router) discuss(ctx context.Context, role core.Role) (Response, error) {
	s := r.persona(role)

	var constraints string
	if StrategyFor(role).SuppressEarlyAccusations && r.VotingRounds() < r.opts.MinAccuseRounds {
		constraints = "It is still early in the game. Share observations and ask questions, but do not accuse any player directly yet."
	}

	mem := []string{r.intro(), r.beliefMemory()}
	if role == core.RoleSeer {
		mem = append(mem, "My past seer checks:\n"+r.state.SeerChecks.Render())
	}

	res, err := r.run(ctx, deliberation.Input{
		Persona:     s.Role,
		Guidance:    s.Guidance,
		Questions:   s.DiscussionQuestions,
		Transcript:  r.state.Store.Transcript(false),
		Memory:      mem,
		Action:      deliberation.ActionDiscussion,
		Constraints: constraints,
	})
	if err != nil {
		return Response{}, err
	}

	return Response{Text: res.Final, Cycle: res}, nil
}

func (r *Router) coordinate(ctx context.Context, role core.Role) (Response, error) {
	mates := r.Teammates()
	candidates := r.others(mates...)

	mem := []string{r.intro()}
	if len(mates) > 0 {
		mem = append(mem, "Fellow werewolves: "+strings.Join(mates, ", "))
	}

	s := StrategyFor(role)
	res, err := r.run(ctx, deliberation.Input{
		Persona:     role,
		Guidance:    s.Guidance,
		Questions:   s.NightQuestions,
		Transcript:  r.state.Store.Transcript(true),
		Memory:      mem,
		Action:      deliberation.ActionTarget,
		Constraints: fmt.Sprintf("Your answer must name at least one player to eliminate from: %s.", strings.Join(candidates, ", ")),
	})
	if err != nil {
		return Response{}, err
	}

	text := res.Final
	target, named := r.pick(res.Final, candidates, core.RoleSeer)
	if !named && target != "" {
		text = strings.TrimSpace(fmt.Sprintf("%s I suggest we eliminate %s.", text, target))
	}

	return Response{Text: text, Target: target, Cycle: res}, nil
}

func (r *Router) generic(ctx context.Context, role core.Role) (Response, error) {
	s := r.persona(role)
	res, err := r.run(ctx, deliberation.Input{
		Persona:    s.Role,
		Guidance:   s.Guidance,
		Questions:  s.DiscussionQuestions,
		Transcript: r.state.Store.Transcript(role == core.RoleEliminator),
		Memory:     []string{r.intro()},
		Action:     deliberation.ActionReply,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Text: res.Final, Cycle: res}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
