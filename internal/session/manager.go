package session

import (
	"sort"
	"strings"
	"sync"
)

// Manager keeps one isolated Session per key.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Get returns the session for key, creating it on first use.
func (m *Manager) Get(key string) *Session {
	key = strings.TrimSpace(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := New()
	m.sessions[key] = s
	return s
}

// Drop discards the session for key. It reports whether one existed.
func (m *Manager) Drop(key string) bool {
	key = strings.TrimSpace(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; !ok {
		return false
	}
	delete(m.sessions, key)
	return true
}

// Keys returns the active session keys, sorted.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
