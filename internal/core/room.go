package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/banterhq/banter/internal/domain"
)

// Room is a threadsafe in-memory membership set with fan-out delivery.
// Membership mutations and broadcasts may race; a broadcast sees the
// membership snapshot taken at dispatch time and nothing stronger.
type Room struct {
	name    domain.RoomName
	mu      sync.RWMutex
	members map[ConnID]SignalConnection
}

func NewRoom(name domain.RoomName) *Room {
	return &Room{
		name:    name,
		members: make(map[ConnID]SignalConnection),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

func (r *Room) Add(id ConnID, conn SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = conn
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("conn", string(id)).Msg("member added")
}

func (r *Room) Remove(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("conn", string(id)).Msg("member removed")
}

func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

type memberSnap struct {
	id   ConnID
	conn SignalConnection
}

// snapshot copies the member set under the read lock so delivery happens
// without holding it. Joins and leaves during an in-flight broadcast are
// neither seen by nor visible to that broadcast.
func (r *Room) snapshot() []memberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]memberSnap, 0, len(r.members))
	for id, conn := range r.members {
		out = append(out, memberSnap{id: id, conn: conn})
	}
	return out
}

// Broadcast delivers data to every member except exclude (NoExclude delivers
// to all). Delivery is fire-and-forget per recipient: one failed TrySend is
// recorded in the result and never aborts the remaining deliveries.
func (r *Room) Broadcast(data Frame, exclude ConnID) PublishResult {
	res := PublishResult{}
	for _, m := range r.snapshot() {
		if m.id == exclude {
			continue
		}
		if err := m.conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m.id)
			continue
		}
		res.SentTo++
	}
	if len(res.Dropped) > 0 {
		log.Warn().Str("module", "core.room").Str("room", string(r.name)).
			Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("partial broadcast")
	}
	return res
}
