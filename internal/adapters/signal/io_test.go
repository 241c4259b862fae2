package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banterhq/banter/internal/app"
	"github.com/banterhq/banter/internal/config"
	"github.com/banterhq/banter/internal/core"
	"github.com/banterhq/banter/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:          "release",
		ReadLimit:     32768,
		PingPeriod:    54 * time.Second,
		WriteWait:     10 * time.Second,
		SendBuffer:    256,
		TypingTimeout: time.Minute,
		RateLimit:     100,
		RateInterval:  time.Minute,
	}
}

// captureConn records every frame delivered to it.
type captureConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *captureConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *captureConn) Close() {}

func (c *captureConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func ofType(evs []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, ev := range evs {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestRateLimitSparesTypingFrames(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 2

	orch := app.NewOrchestrator(app.NewRegistry(), core.NewRoomManager(), cfg.TypingTimeout)
	ctl := NewController(orch, cfg)

	obs := &captureConn{}
	orch.OnConnect("obs", obs)

	id := core.ConnID("sender")
	ctl.handleEvent(id, []byte(`{"type":"join","username":"Alice"}`))
	// A long typing burst must not consume the chat budget.
	for i := 0; i < 50; i++ {
		ctl.handleEvent(id, []byte(`{"type":"typing"}`))
		ctl.handleEvent(id, []byte(`{"type":"stopTyping"}`))
	}
	ctl.handleEvent(id, []byte(`{"type":"chatMessage","username":"Alice","text":"still here"}`))

	msgs := ofType(obs.events(t), domain.EventMessage)
	require.Len(t, msgs, 1, "chat message after a typing burst must go through")
	assert.Equal(t, "still here", msgs[0]["text"])

	// The budget still binds the frames it covers.
	ctl.handleEvent(id, []byte(`{"type":"chatMessage","username":"Alice","text":"over budget"}`))
	assert.Len(t, ofType(obs.events(t), domain.EventMessage), 1)
}

func TestWriteFailureTearsDownConnection(t *testing.T) {
	cfg := testConfig()
	// Every write hits an already-expired deadline and fails.
	cfg.WriteWait = -time.Second

	orch := app.NewOrchestrator(app.NewRegistry(), core.NewRoomManager(), cfg.TypingTimeout)
	ctl := NewController(orch, cfg)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleWS(context.Background(), c) })
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "join", "username": "Alice"}))

	// The failed userJoined delivery must close the socket server-side; the
	// client's read then errors instead of waiting out its deadline.
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err = ws.ReadMessage()
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "stalled connection was left open")
	}

	// Teardown runs the full disconnect path and releases the session.
	assert.Eventually(t, func() bool { return orch.Registry.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
