// Package app wires the session registry, typing coordinator and connection
// lifecycle into the event handlers the transport adapter drives.
package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/banterhq/banter/internal/core"
	"github.com/banterhq/banter/internal/domain"
)

// Registry is the single source of truth for which connections have joined
// and under which display name.
//
// Precondition: all mutations for a given connection arrive from that
// connection's single reader goroutine, so per-connection call order is
// serialized by construction. The mutex only guards against *different*
// connections mutating concurrently; it is not a license to call Join and
// Leave for one connection from two goroutines.
type Registry struct {
	mu    sync.RWMutex
	names map[core.ConnID]string
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[core.ConnID]string)}
}

// Join registers name for id, overwriting any prior session (idempotent
// re-join). The stored name is trimmed and clamped; empty-after-trim names
// fail with domain.ErrUsernameEmpty and leave the registry untouched.
func (r *Registry) Join(id core.ConnID, name string) (string, error) {
	sanitized, err := domain.SanitizeName(name)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[id] = sanitized
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("username", sanitized).Msg("session joined")
	return sanitized, nil
}

// Leave removes the session if present and reports the name it had.
// A second Leave for the same id is a no-op, not an error.
func (r *Registry) Leave(id core.ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[id]
	if !ok {
		return "", false
	}
	delete(r.names, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("username", name).Msg("session left")
	return name, true
}

// Count is O(1); it is broadcast on every join and leave.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

func (r *Registry) NameOf(id core.ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}
