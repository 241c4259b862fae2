// Package signal is the WebSocket transport adapter. It upgrades
// connections, runs the per-connection read/write pumps and translates wire
// frames into lifecycle events on the orchestrator. Transport resources are
// owned here; the core only ever sees the SignalConnection interface.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/banterhq/banter/internal/app"
	"github.com/banterhq/banter/internal/config"
	"github.com/banterhq/banter/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch    *app.Orchestrator
	Cfg     *config.Config
	limiter *messageRateLimiter
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Cfg:     cfg,
		limiter: newMessageRateLimiter(cfg.RateLimit, cfg.RateInterval),
	}
}

// wsConn pairs the socket with a buffered send queue drained by a single
// writePump, which is what keeps per-recipient delivery order intact.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and starts the pumps. Each upgrade mints a
// fresh connection id; the client-token cookie only correlates connections
// from the same browser in the logs.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Str("module", "signal").Err(err).Msg("ws upgrade")
		return
	}

	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).
		Str("client", c.GetString("client_token")).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	ctl.Orch.OnConnect(id, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, cancel, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
