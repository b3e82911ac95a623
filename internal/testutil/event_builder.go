package testutil

import (
	"github.com/zacbakerr/werewolf/core"
)

// EventBuilder provides a fluent helper for constructing inbound events in
// tests. Example:
//
//	ev := NewEventBuilder().From("moderator").Direct().Text("You are a seer.").Build()
//
// Chain only the parts you need; defaults target the public channel.
type EventBuilder struct {
	ev core.InboundEvent
}

// NewEventBuilder creates a builder for a GROUP message on play-arena.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{ev: core.InboundEvent{
		Sender:      "moderator",
		Channel:     "play-arena",
		ChannelType: core.ChannelGroup,
		ContentType: core.ContentTypeText,
	}}
}

// ID overrides the message ID (chainable).
func (b *EventBuilder) ID(id string) *EventBuilder { b.ev.MessageID = id; return b }

// From sets the sender (chainable).
func (b *EventBuilder) From(sender string) *EventBuilder { b.ev.Sender = sender; return b }

// On sets a GROUP channel (chainable).
func (b *EventBuilder) On(channel string) *EventBuilder {
	b.ev.Channel = channel
	b.ev.ChannelType = core.ChannelGroup
	return b
}

// Direct turns the event into a DIRECT message on the sender's channel
// (chainable).
func (b *EventBuilder) Direct() *EventBuilder {
	b.ev.ChannelType = core.ChannelDirect
	b.ev.Channel = "direct:" + b.ev.Sender
	return b
}

// Text sets the message body (chainable).
func (b *EventBuilder) Text(t string) *EventBuilder { b.ev.Text = t; return b }

// Build returns the event.
func (b *EventBuilder) Build() core.InboundEvent { return b.ev }

// ModeratorDM is shorthand for a direct moderator message.
func ModeratorDM(text string) core.InboundEvent {
	return NewEventBuilder().From("moderator").Direct().Text(text).Build()
}

// Public is shorthand for a public channel message.
func Public(sender, text string) core.InboundEvent {
	return NewEventBuilder().From(sender).Text(text).Build()
}

// Private is shorthand for a message on the eliminator channel.
func Private(sender, text string) core.InboundEvent {
	return NewEventBuilder().From(sender).On("wolf's-den").Text(text).Build()
}
