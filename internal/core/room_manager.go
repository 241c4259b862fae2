package core

import (
	"sync"

	"github.com/banterhq/banter/internal/domain"
)

// RoomManager hands out rooms by name. Only domain.DefaultRoom is used
// today, but rooms stay a named concept rather than ambient state.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomName]*Room)}
}

func (m *RoomManager) GetOrCreate(name domain.RoomName) *Room {
	m.mu.RLock()
	room, ok := m.rooms[name]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[name]; ok {
		return room
	}
	room = NewRoom(name)
	m.rooms[name] = room
	return room
}
