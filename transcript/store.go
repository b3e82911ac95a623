package transcript

import (
	"sync"
	"time"

	"github.com/zacbakerr/werewolf/core"
)

// Options configure a Store.
type Options struct {
	// PublicChannel is the group channel everybody reads.
	PublicChannel string
	// PrivateChannel is the eliminator coordination channel. Events on it are
	// hidden from Transcript(false).
	PrivateChannel string
	// Moderator is the sender identity of the game moderator.
	Moderator string
	// OnAppend, when set, is invoked synchronously with every new event.
	OnAppend func(core.GameHistoryEvent)
	// Now supplies event timestamps.
	Now func() time.Time
}

// Store is an in-memory transcript. It is safe for concurrent access, and
// every returned slice is a copy.
type Store struct {
	self string
	opts Options

	mu       sync.RWMutex
	seq      int64
	direct   map[string][]core.Message
	group    map[string][]core.Message
	speakers map[string][]string
	events   []core.GameHistoryEvent
	intro    string
}

// New constructs an empty store for the player named self.
func New(self string, optFns ...func(o *Options)) *Store {
	opts := Options{
		PublicChannel:  "play-arena",
		PrivateChannel: "wolf's-den",
		Moderator:      "moderator",
		Now:            time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{
		self:     self,
		opts:     opts,
		direct:   make(map[string][]core.Message),
		group:    make(map[string][]core.Message),
		speakers: make(map[string][]string),
	}
}

// Ingest assigns the next sequence number to msg, files it under its
// channel and appends the derived history event.
func (s *Store) Ingest(msg core.Message) core.Message {
	s.mu.Lock()

	s.seq++
	msg.Seq = s.seq

	ev := core.GameHistoryEvent{
		ID:          msg.ID,
		Seq:         msg.Seq,
		Agent:       s.self,
		Direction:   core.DirectionIncoming,
		Sender:      msg.Sender,
		Recipient:   s.self,
		Channel:     msg.Channel,
		ChannelType: msg.ChannelType,
		Text:        msg.Text,
		Timestamp:   s.opts.Now(),
	}

	if msg.IsDirect() {
		ev.Audience = core.AudienceSelf
		s.direct[msg.Sender] = append(s.direct[msg.Sender], msg)
	} else {
		ev.Audience = core.AudienceEveryone
		s.group[msg.Channel] = append(s.group[msg.Channel], msg)
		s.noteSpeakerLocked(msg.Channel, msg.Sender)
		if s.intro == "" && msg.Channel == s.opts.PublicChannel && msg.Sender == s.opts.Moderator {
			s.intro = msg.Text
		}
	}

	s.events = append(s.events, ev)
	s.mu.Unlock()

	s.notify(ev)

	return msg
}

// RecordOutgoing appends the agent's own text sent on channel. For direct
// replies recipient names the counterpart.
func (s *Store) RecordOutgoing(channel string, channelType core.ChannelType, recipient, text string) core.GameHistoryEvent {
	s.mu.Lock()

	s.seq++
	ev := core.GameHistoryEvent{
		ID:          core.NewID(),
		Seq:         s.seq,
		Agent:       s.self,
		Direction:   core.DirectionOutgoing,
		Sender:      s.self,
		Recipient:   recipient,
		Channel:     channel,
		ChannelType: channelType,
		Text:        text,
		Timestamp:   s.opts.Now(),
	}
	if channelType == core.ChannelDirect {
		ev.Audience = core.AudienceSelf
	} else {
		ev.Audience = core.AudienceEveryone
	}

	s.events = append(s.events, ev)
	s.mu.Unlock()

	s.notify(ev)

	return ev
}

func (s *Store) notify(ev core.GameHistoryEvent) {
	if s.opts.OnAppend != nil {
		s.opts.OnAppend(ev)
	}
}

func (s *Store) noteSpeakerLocked(channel, sender string) {
	for _, existing := range s.speakers[channel] {
		if existing == sender {
			return
		}
	}
	s.speakers[channel] = append(s.speakers[channel], sender)
}

// Transcript renders the interwoven history in arrival order. Events on the
// private channel are dropped unless includePrivate is set.
func (s *Store) Transcript(includePrivate bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		if !includePrivate && ev.ChannelType == core.ChannelGroup && ev.IsOn(s.opts.PrivateChannel) {
			continue
		}
		lines = append(lines, ev.Line())
	}
	return lines
}

// Events returns a copy of the full event sequence.
func (s *Store) Events() []core.GameHistoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.GameHistoryEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Direct returns the direct messages received from sender.
func (s *Store) Direct(sender string) []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.direct[sender])
}

// DirectCount returns how many direct messages sender has delivered.
func (s *Store) DirectCount(sender string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.direct[sender])
}

// Group returns the messages received on a group channel.
func (s *Store) Group(channel string) []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.group[channel])
}

// GroupSpeakers lists the distinct senders seen on channel, in first-seen order.
func (s *Store) GroupSpeakers(channel string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.speakers[channel]))
	copy(out, s.speakers[channel])
	return out
}

// Intro returns the moderator's first message on the public channel.
func (s *Store) Intro() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.intro
}

// Len returns the number of events recorded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Self returns the name of the player the store belongs to.
func (s *Store) Self() string { return s.self }

func cloneMessages(in []core.Message) []core.Message {
	out := make([]core.Message, len(in))
	copy(out, in)
	return out
}
