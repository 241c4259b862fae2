package domain

import "time"

// Event names on the wire. Client to server: join, chatMessage, typing,
// stopTyping. Server to client: userJoined, userLeft, message, typing,
// stopTyping. Every frame is a JSON object with a "type" discriminator.
const (
	EventJoin        = "join"
	EventChatMessage = "chatMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"

	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
	EventMessage    = "message"
)

// Envelope is the minimal decode used to dispatch an inbound frame.
type Envelope struct {
	Type string `json:"type"`
}

// Client -> server payloads.

type JoinPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type ChatMessagePayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type TypingPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// Server -> client payloads.

// PresenceEvent announces userJoined/userLeft along with the authoritative
// session count at the time of the transition.
type PresenceEvent struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	UserCount int       `json:"userCount"`
}

// MessageEvent wraps a formatted Message with its wire discriminator.
type MessageEvent struct {
	Type string `json:"type"`
	Message
}

// TypingEvent carries typing with the display name, stopTyping without one.
type TypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}
