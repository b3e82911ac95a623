package core

import (
	"fmt"
	"time"
)

// Direction tells whether a history line was received or produced by the agent.
type Direction string

const (
	// DirectionIncoming marks lines received from other participants.
	DirectionIncoming Direction = "incoming"
	// DirectionOutgoing marks lines produced by the agent itself.
	DirectionOutgoing Direction = "outgoing"
)

// Audience tells who could read the underlying message.
type Audience string

const (
	// AudienceEveryone marks group channel traffic.
	AudienceEveryone Audience = "everyone"
	// AudienceSelf marks private traffic between the agent and one sender.
	AudienceSelf Audience = "self"
)

// GameHistoryEvent is one immutable line of the interwoven transcript. It is
// derived from a Message (or an outward reply) at append time and never
// mutated afterwards.
type GameHistoryEvent struct {
	ID          string      `json:"id" bson:"id"`
	Seq         int64       `json:"seq" bson:"seq"`
	Agent       string      `json:"agent" bson:"agent"`
	Direction   Direction   `json:"direction" bson:"direction"`
	Audience    Audience    `json:"audience" bson:"audience"`
	Sender      string      `json:"sender" bson:"sender"`
	Recipient   string      `json:"recipient,omitempty" bson:"recipient,omitempty"`
	Channel     string      `json:"channel" bson:"channel"`
	ChannelType ChannelType `json:"channel_type" bson:"channel_type"`
	Text        string      `json:"text" bson:"text"`
	Timestamp   time.Time   `json:"timestamp" bson:"timestamp"`
}

// Line renders the event in the transcript format consumed by every prompt:
//
//	[from SENDER | audience | DIRECT|GROUP channel]: TEXT
func (e GameHistoryEvent) Line() string {
	from := e.Sender
	if e.Direction == DirectionOutgoing {
		from = fmt.Sprintf("%s (me)", e.Sender)
	}

	var to string
	switch {
	case e.Audience == AudienceEveryone:
		to = "to everyone"
	case e.Direction == DirectionOutgoing:
		to = "to " + e.Recipient
	default:
		to = "to me"
	}

	where := fmt.Sprintf("%s channel", e.ChannelType)
	if e.ChannelType == ChannelGroup {
		where = fmt.Sprintf("%s channel %s", e.ChannelType, e.Channel)
	}

	return fmt.Sprintf("[from %s | %s | %s]: %s", from, to, where, e.Text)
}

// IsOn reports whether the event belongs to the given channel.
func (e GameHistoryEvent) IsOn(channel string) bool { return e.Channel == channel }
