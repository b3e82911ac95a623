package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedEvent is returned when an inbound event lacks a sender, a
// channel or a known channel type.
var ErrMalformedEvent = errors.New("malformed inbound event")

// ChannelType distinguishes one-to-one from group delivery.
type ChannelType string

const (
	// ChannelDirect is a private one-to-one channel.
	ChannelDirect ChannelType = "DIRECT"
	// ChannelGroup is a shared channel with many readers.
	ChannelGroup ChannelType = "GROUP"
)

// IsValid reports whether t is a known channel type.
func (t ChannelType) IsValid() bool { return t == ChannelDirect || t == ChannelGroup }

// ContentTypeText is the only MIME type the agent produces.
const ContentTypeText = "text/plain"

// InboundEvent is the envelope delivered by the orchestrator.
type InboundEvent struct {
	MessageID   string      `json:"message_id"`
	Sender      string      `json:"sender"`
	Channel     string      `json:"channel"`
	ChannelType ChannelType `json:"channel_type"`
	Text        string      `json:"text"`
	ContentType string      `json:"content_type,omitempty"`
}

// Validate rejects events that cannot be attributed to a sender and channel.
func (e InboundEvent) Validate() error {
	if strings.TrimSpace(e.Sender) == "" {
		return fmt.Errorf("%w: missing sender", ErrMalformedEvent)
	}
	if strings.TrimSpace(e.Channel) == "" {
		return fmt.Errorf("%w: missing channel", ErrMalformedEvent)
	}
	if !e.ChannelType.IsValid() {
		return fmt.Errorf("%w: unknown channel type %q", ErrMalformedEvent, e.ChannelType)
	}
	return nil
}

// Message converts a validated event into a Message. Seq is assigned later by
// the transcript store.
func (e InboundEvent) Message() Message {
	id := e.MessageID
	if id == "" {
		id = NewID()
	}
	contentType := e.ContentType
	if contentType == "" {
		contentType = ContentTypeText
	}
	return Message{
		ID:          id,
		Sender:      e.Sender,
		Channel:     e.Channel,
		ChannelType: e.ChannelType,
		Text:        e.Text,
		ContentType: contentType,
	}
}

// Message is an immutable record of one inbound message.
type Message struct {
	ID          string      `json:"id"`
	Seq         int64       `json:"seq"`
	Sender      string      `json:"sender"`
	Channel     string      `json:"channel"`
	ChannelType ChannelType `json:"channel_type"`
	Text        string      `json:"text"`
	ContentType string      `json:"content_type"`
}

// IsDirect reports whether the message arrived on a direct channel.
func (m Message) IsDirect() bool { return m.ChannelType == ChannelDirect }

// OutwardMessage is the agent's reply to a respond callback.
type OutwardMessage struct {
	Text        string `json:"text"`
	ContentType string `json:"content_type"`
}

// NewOutwardMessage wraps plain text.
func NewOutwardMessage(text string) OutwardMessage {
	return OutwardMessage{Text: text, ContentType: ContentTypeText}
}

// NewID generates a new unique identifier for messages and cycles.
func NewID() string { return uuid.NewString() }
