package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/banterhq/banter/internal/core"
	"github.com/banterhq/banter/internal/domain"
)

// writePump drains the send queue onto the socket. Any write failure tears
// the whole connection down; without that a stalled client would stay a room
// member while every frame to it silently drops. The teardown is idempotent
// with readPump's, whichever pump fails first closes the socket and the other
// follows.
func (ctl *Controller) writePump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				log.Error().Str("module", "signal").Err(err).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Str("module", "signal").Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump serializes every inbound event for this connection; the
// lifecycle handlers rely on that to keep per-sender emission order. Any
// read error, clean close included, drives the disconnect transition.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, id core.ConnID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(id)
		ctl.limiter.Forget(id)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Str("module", "signal").Str("conn", string(id)).Err(err).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(id, data)
		}
	}
}

func (ctl *Controller) handleEvent(id core.ConnID, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Err(err).Msg("bad json dropped")
		return
	}

	// Only join and chatMessage charge the rate budget. Typing frames are
	// high-frequency by design and must not starve a sender's chat messages.
	switch env.Type {
	case domain.EventJoin:
		if !ctl.allow(id, env.Type) {
			return
		}
		ctl.handleJoin(id, data)
	case domain.EventChatMessage:
		if !ctl.allow(id, env.Type) {
			return
		}
		ctl.handleChatMessage(id, data)
	case domain.EventTyping:
		ctl.Orch.OnTyping(id)
	case domain.EventStopTyping:
		ctl.Orch.OnStopTyping(id)
	default:
		log.Debug().Str("module", "signal").Str("type", env.Type).Msg("unknown event dropped")
	}
}

func (ctl *Controller) allow(id core.ConnID, typ string) bool {
	if ctl.limiter.Allow(id) {
		return true
	}
	log.Warn().Str("module", "signal").Str("conn", string(id)).Str("type", typ).Msg("rate limited, frame dropped")
	return false
}

func (ctl *Controller) handleJoin(id core.ConnID, data []byte) {
	var p domain.JoinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Err(err).Msg("bad join payload")
		return
	}
	ctl.Orch.OnJoin(id, p.Username)
}

func (ctl *Controller) handleChatMessage(id core.ConnID, data []byte) {
	var p domain.ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Err(err).Msg("bad chatMessage payload")
		return
	}
	ctl.Orch.OnChatMessage(id, p.Username, p.Text)
}
