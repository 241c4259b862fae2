package app

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/banterhq/banter/internal/core"
	"github.com/banterhq/banter/internal/domain"
)

// Orchestrator drives each connection through its lifecycle:
//
//	connected (transport up, not joined)  -- join -->  active
//	active  -- transport close -->  disconnected
//
// A connection is active exactly while the registry holds a session for it.
// Events that are only valid in active state are dropped silently otherwise;
// nothing protocol-level is surfaced to the peer. All handlers for one
// connection run on that connection's reader goroutine, so its emitted
// events reach the room in emission order (per-sender FIFO).
type Orchestrator struct {
	Registry *Registry
	Rooms    *core.RoomManager
	Typing   *TypingCoordinator
}

func NewOrchestrator(reg *Registry, rooms *core.RoomManager, typingTimeout time.Duration) *Orchestrator {
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
	}
	o.Typing = NewTypingCoordinator(typingTimeout, func(id core.ConnID) {
		o.broadcast(domain.TypingEvent{Type: domain.EventStopTyping}, id)
	})
	return o
}

func (o *Orchestrator) room() *core.Room {
	return o.Rooms.GetOrCreate(domain.DefaultRoom)
}

// OnConnect places the new connection in the room. Every open connection is
// a room member; only joined ones count toward userCount.
func (o *Orchestrator) OnConnect(id core.ConnID, conn core.SignalConnection) {
	o.room().Add(id, conn)
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Msg("connected")
}

// OnJoin registers the session and announces it to every member, the joiner
// included, so the joining client learns its join was accepted. A rejected
// name leaves the connection in connected state, eligible to retry.
func (o *Orchestrator) OnJoin(id core.ConnID, username string) {
	name, err := o.Registry.Join(id, username)
	if err != nil {
		log.Debug().Str("module", "app.lifecycle").Str("conn", string(id)).Err(err).Msg("join rejected")
		return
	}
	o.broadcast(domain.PresenceEvent{
		Type:      domain.EventUserJoined,
		Username:  name,
		Timestamp: time.Now(),
		UserCount: o.Registry.Count(),
	}, core.NoExclude)
}

// OnChatMessage formats and fans out a chat message to every member,
// sender included, so every client renders from one authoritative feed.
// Malformed messages are dropped without a reply. Sending a message always
// ends any typing indication from that connection.
func (o *Orchestrator) OnChatMessage(id core.ConnID, username, text string) {
	if _, ok := o.Registry.NameOf(id); !ok {
		log.Debug().Str("module", "app.lifecycle").Str("conn", string(id)).Msg("chat before join dropped")
		return
	}
	msg, err := domain.FormatMessage(username, text)
	if err != nil {
		log.Debug().Str("module", "app.lifecycle").Str("conn", string(id)).Err(err).Msg("invalid chat message dropped")
		return
	}
	o.broadcast(domain.MessageEvent{Type: domain.EventMessage, Message: msg}, core.NoExclude)

	o.Typing.Cancel(id)
	o.broadcast(domain.TypingEvent{Type: domain.EventStopTyping}, id)
}

// OnTyping re-arms the trailing timeout and, on the idle to typing
// transition only, tells the other members who is typing.
func (o *Orchestrator) OnTyping(id core.ConnID) {
	name, ok := o.Registry.NameOf(id)
	if !ok {
		return
	}
	if o.Typing.Activity(id) {
		o.broadcast(domain.TypingEvent{Type: domain.EventTyping, Username: name}, id)
	}
}

// OnStopTyping clears the indicator immediately (input went empty).
func (o *Orchestrator) OnStopTyping(id core.ConnID) {
	if _, ok := o.Registry.NameOf(id); !ok {
		return
	}
	o.Typing.Cancel(id)
	o.broadcast(domain.TypingEvent{Type: domain.EventStopTyping}, id)
}

// OnDisconnect is the terminal transition, for clean and abrupt closes
// alike. Pending timers die here; a session that never joined leaves
// without a broadcast.
func (o *Orchestrator) OnDisconnect(id core.ConnID) {
	o.Typing.Cancel(id)
	o.room().Remove(id)
	name, existed := o.Registry.Leave(id)
	if !existed {
		log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Msg("disconnected before join")
		return
	}
	o.broadcast(domain.PresenceEvent{
		Type:      domain.EventUserLeft,
		Username:  name,
		Timestamp: time.Now(),
		UserCount: o.Registry.Count(),
	}, core.NoExclude)
}

func (o *Orchestrator) broadcast(event any, exclude core.ConnID) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Str("module", "app.lifecycle").Err(err).Msg("marshal event")
		return
	}
	o.room().Broadcast(data, exclude)
}
