package server

import (
	"sort"
	"sync"
)

// PlayerInfo is an idle player as listed by GETPLAYERS.
type PlayerInfo struct {
	Name   string  `json:"name"`
	Rating float64 `json:"mmr"`
}

// Registry maps usernames to live sessions
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// TryRegister claims name for s. The availability check, the assignment of
// the session's name and the insert happen under one lock.
func (r *Registry) TryRegister(name string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.sessions[name]; taken {
		return false
	}
	s.name = name
	r.sessions[name] = s
	return true
}

func (r *Registry) Lookup(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Remove drops name only while it still belongs to s.
func (r *Registry) Remove(name string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[name]; ok && cur == s {
		delete(r.sessions, name)
	}
}

// ListAvailable returns the players that can be challenged, sorted by name.
func (r *Registry) ListAvailable(excluding string) []PlayerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]PlayerInfo, 0, len(r.sessions))
	for name, s := range r.sessions {
		if name == excluding || !s.isIdle() {
			continue
		}
		players = append(players, PlayerInfo{Name: name, Rating: s.rating.Value()})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })
	return players
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
