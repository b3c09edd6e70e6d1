// Package session tracks per-session conversation history for the
// query orchestrator. History is kept in memory and bounded, so long
// sessions stay within the model's context comfortably.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMaxHistory = 2

// Exchange is one completed (query, answer) pair.
type Exchange struct {
	Query  string
	Answer string
}

// Manager owns session state. Safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	maxHistory int
	sessions   map[string][]Exchange
}

// NewManager creates a session manager retaining at most maxHistory
// exchanges per session (default 2 when non-positive).
func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Manager{
		maxHistory: maxHistory,
		sessions:   make(map[string][]Exchange),
	}
}

// Create starts a new empty session and returns its id.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()
	return id
}

// AddExchange appends a (query, answer) pair to the session, trimming
// the oldest exchanges past the retention bound. Unknown ids are
// created implicitly so externally supplied session ids keep working.
func (m *Manager) AddExchange(id, query, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := append(m.sessions[id], Exchange{Query: query, Answer: answer})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[id] = history
}

// History returns the session's conversation as an opaque display
// string, or "" when the session has no exchanges.
func (m *Manager) History(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.sessions[id]
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history)*2)
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("User: %s", e.Query))
		lines = append(lines, fmt.Sprintf("Assistant: %s", e.Answer))
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session's history.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
