package app

import (
	"sync"
	"time"

	"github.com/banterhq/banter/internal/core"
)

// TypingCoordinator converts a stream of typing signals per connection into
// discrete start/stop transitions with a trailing timeout. Each connection is
// a two-state machine: idle, or typing with one pending timer. Cancellation
// is idempotent: natural expiry, explicit stop and disconnect each cancel the
// timer once and make the others no-ops.
type TypingCoordinator struct {
	mu       sync.Mutex
	timeout  time.Duration
	gen      uint64
	pending  map[core.ConnID]pendingTimer
	onExpire func(core.ConnID)
}

// pendingTimer tags each armed timer with the arm generation. A fired timer
// whose Stop raced a re-arm still runs its callback; the generation check in
// expire keeps that stale callback from acting on the fresh timer's entry.
type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

// NewTypingCoordinator builds a coordinator firing onExpire(id) when a
// connection stays silent for timeout after its last typing signal. onExpire
// runs on the timer goroutine; callers hand it a threadsafe broadcast.
func NewTypingCoordinator(timeout time.Duration, onExpire func(core.ConnID)) *TypingCoordinator {
	return &TypingCoordinator{
		timeout:  timeout,
		pending:  make(map[core.ConnID]pendingTimer),
		onExpire: onExpire,
	}
}

// Activity records a typing signal and re-arms the trailing timer. It
// reports whether this was the idle -> typing transition, i.e. whether the
// caller should emit a typing broadcast. A burst of signals emits once.
func (t *TypingCoordinator) Activity(id core.ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := false
	if p, ok := t.pending[id]; ok {
		p.timer.Stop()
	} else {
		started = true
	}
	t.gen++
	gen := t.gen
	t.pending[id] = pendingTimer{
		timer: time.AfterFunc(t.timeout, func() { t.expire(id, gen) }),
		gen:   gen,
	}
	return started
}

// Cancel tears down any pending timer without firing it. Used on explicit
// stop, on message send, and on disconnect. Reports whether a timer was
// pending.
func (t *TypingCoordinator) Cancel(id core.ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(t.pending, id)
	return true
}

// expire fires the trailing stop exactly once, and only if the entry it
// armed is still the pending one. A Cancel or a re-arming Activity that won
// the race removed or replaced the entry and suppresses the callback.
func (t *TypingCoordinator) expire(id core.ConnID, gen uint64) {
	t.mu.Lock()
	p, ok := t.pending[id]
	if !ok || p.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.pending, id)
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(id)
	}
}
