package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (f *fakeConn) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("transport mid-close")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) received() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func TestRoomBroadcastToAll(t *testing.T) {
	room := NewRoom("general")
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	room.Add("a", a)
	room.Add("b", b)
	room.Add("c", c)

	res := room.Broadcast(Frame(`hello`), NoExclude)

	assert.Equal(t, 3, res.SentTo)
	assert.Empty(t, res.Dropped)
	for _, conn := range []*fakeConn{a, b, c} {
		require.Len(t, conn.received(), 1)
	}
}

func TestRoomBroadcastExcludesOrigin(t *testing.T) {
	room := NewRoom("general")
	a, b := &fakeConn{}, &fakeConn{}
	room.Add("a", a)
	room.Add("b", b)

	res := room.Broadcast(Frame(`typing`), "a")

	assert.Equal(t, 1, res.SentTo)
	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)
}

func TestRoomBroadcastPartialFailureIsolation(t *testing.T) {
	room := NewRoom("general")
	r, s, tt := &fakeConn{fail: true}, &fakeConn{}, &fakeConn{}
	room.Add("r", r)
	room.Add("s", s)
	room.Add("t", tt)

	res := room.Broadcast(Frame(`event`), NoExclude)

	assert.Equal(t, 2, res.SentTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, ConnID("r"), res.Dropped[0])
	assert.Len(t, s.received(), 1, "S must still receive despite R failing")
	assert.Len(t, tt.received(), 1, "T must still receive despite R failing")
}

func TestRoomMembership(t *testing.T) {
	room := NewRoom("general")
	assert.Equal(t, 0, room.Count())

	room.Add("a", &fakeConn{})
	room.Add("b", &fakeConn{})
	assert.Equal(t, 2, room.Count())

	room.Remove("a")
	assert.Equal(t, 1, room.Count())

	// Removing an absent member is a no-op.
	room.Remove("a")
	assert.Equal(t, 1, room.Count())

	res := room.Broadcast(Frame(`x`), NoExclude)
	assert.Equal(t, 1, res.SentTo)
}

func TestRoomManagerGetOrCreate(t *testing.T) {
	m := NewRoomManager()
	r1 := m.GetOrCreate("general")
	r2 := m.GetOrCreate("general")
	assert.Same(t, r1, r2)
	assert.Equal(t, "general", string(r1.Name()))
}
